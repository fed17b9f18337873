package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/iudanet/repairdesk/pkg/api"
)

var (
	// ErrUnauthorized сервер отклонил JWT мастерской или токен сессии
	ErrUnauthorized = errors.New("unauthorized")
	// ErrRateLimited превышен лимит запросов
	ErrRateLimited = errors.New("rate limited")
)

// Client представляет HTTP клиент для взаимодействия с сервером
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient создает новый API клиент
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			// Настройка обработки редиректов
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Ограничиваем количество редиректов
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Копируем заголовки авторизации при редиректе
				for _, h := range []string{"Authorization", api.SessionHeader} {
					if len(via) > 0 && via[0].Header.Get(h) != "" {
						req.Header.Set(h, via[0].Header.Get(h))
					}
				}
				return nil
			},
		},
	}
}

// StartSession открывает сессию POS-терминала по JWT мастерской
func (c *Client) StartSession(ctx context.Context, tenantToken, terminalID string) (*api.SessionResponse, error) {
	var resp api.SessionResponse
	headers := map[string]string{"Authorization": "Bearer " + tenantToken}
	err := c.doRequest(ctx, http.MethodPost, "/api/v1/pos/sessions", headers, api.StartSessionRequest{TerminalID: terminalID}, &resp)
	if err != nil {
		return nil, fmt.Errorf("start session request failed: %w", err)
	}
	return &resp, nil
}

// CurrentSession возвращает данные сессии, которые видит сервер
func (c *Client) CurrentSession(ctx context.Context, sessionToken string) (*api.CurrentSessionResponse, error) {
	var resp api.CurrentSessionResponse
	headers := map[string]string{api.SessionHeader: sessionToken}
	err := c.doRequest(ctx, http.MethodGet, "/api/v1/pos/sessions/current", headers, nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("current session request failed: %w", err)
	}
	return &resp, nil
}

// CatalogTree получает дерево каталога мастерской
func (c *Client) CatalogTree(ctx context.Context, tenantToken string) (*api.CatalogTreeResponse, error) {
	var resp api.CatalogTreeResponse
	headers := map[string]string{"Authorization": "Bearer " + tenantToken}
	err := c.doRequest(ctx, http.MethodGet, "/api/v1/catalog/tree", headers, nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("catalog tree request failed: %w", err)
	}
	return &resp, nil
}

// doRequest выполняет HTTP запрос
func (c *Client) doRequest(ctx context.Context, method, path string, headers map[string]string, body, result any) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Читаем тело ответа
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	// Проверяем статус код
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, respBody)
	}

	// Декодируем успешный ответ
	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

func statusError(status int, body []byte) error {
	switch status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusTooManyRequests:
		var rl api.RateLimitResponse
		if err := json.Unmarshal(body, &rl); err == nil && !rl.BlockedUntil.IsZero() {
			return fmt.Errorf("%w until %s", ErrRateLimited, rl.BlockedUntil.Format(time.RFC3339))
		}
		return ErrRateLimited
	}

	var errResp api.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return fmt.Errorf("server error (%d): %s", status, errResp.Error)
	}
	return fmt.Errorf("request failed with status %d: %s", status, string(body))
}
