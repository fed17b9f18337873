package api

import (
	"time"

	"github.com/iudanet/repairdesk/internal/models"
)

// StartSessionRequest запрос на открытие сессии POS-терминала
type StartSessionRequest struct {
	TerminalID string `json:"terminal_id"`
}

// SessionResponse выпущенный токен сессии
type SessionResponse struct {
	ExpiresAt  time.Time `json:"expires_at"`
	Token      string    `json:"token"`
	UserID     string    `json:"user_id"`
	TerminalID string    `json:"terminal_id"`
}

// CurrentSessionResponse данные проверенной сессии
type CurrentSessionResponse struct {
	IssuedAt   time.Time `json:"issued_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	UserID     string    `json:"user_id"`
	TerminalID string    `json:"terminal_id"`
}

// ValidationResponse результат проверки данных транзакции или клиента
type ValidationResponse struct {
	Errors  []string `json:"errors"`
	IsValid bool     `json:"is_valid"`
}

// AuditRequest запрос на запись события аудита
type AuditRequest struct {
	Data   map[string]any `json:"data,omitempty"`
	Action string         `json:"action"`
}

// AuditResponse сохраненная запись аудита
type AuditResponse struct {
	ID    string `json:"id"`
	Entry string `json:"entry"` // сериализованная запись с integrity
}

// RateLimitResponse ответ 429
type RateLimitResponse struct {
	BlockedUntil time.Time `json:"blocked_until"`
	Error        string    `json:"error"`
	Message      string    `json:"message,omitempty"`
}

// AuditListResponse последние записи аудита оператора
type AuditListResponse struct {
	Records []*models.AuditRecord `json:"records"`
}
