package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/repairdesk/internal/crypto"
	"github.com/iudanet/repairdesk/internal/models"
	"github.com/iudanet/repairdesk/internal/ratelimit"
	"github.com/iudanet/repairdesk/internal/security"
	"github.com/iudanet/repairdesk/internal/server/metrics"
	"github.com/iudanet/repairdesk/internal/server/middleware"
	"github.com/iudanet/repairdesk/internal/server/storage/sqlite"
	"github.com/iudanet/repairdesk/pkg/api"
)

const testCatalog = `
brands:
  - id: apple
    name: Apple
models:
  - id: iphone-13
    brand_id: apple
    model_name: iPhone 13
repair_types:
  - id: screen
    name: Screen replacement
base_prices:
  - id: p-iphone-13-screen
    device_model_id: iphone-13
    repair_type_id: screen
    price_eur: 189.0
`

type testEnv struct {
	handler http.Handler
	jwt     middleware.TenantJWTConfig
	metrics *metrics.Metrics
}

func setupTestEnv(t *testing.T, opts ...func(*Deps)) *testEnv {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := sqlite.New(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	catalog, err := sqlite.ParseBaseCatalog([]byte(testCatalog))
	require.NoError(t, err)
	require.NoError(t, st.ImportBaseCatalog(ctx, catalog))

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	sessions, err := security.New(key)
	require.NoError(t, err)

	limiters := Limiters{
		Login: ratelimit.New(ratelimit.LoginConfig, logger),
		API:   ratelimit.New(ratelimit.APIConfig, logger),
		Admin: ratelimit.New(ratelimit.AdminConfig, logger),
	}
	t.Cleanup(func() {
		limiters.Login.Stop()
		limiters.API.Stop()
		limiters.Admin.Stop()
	})

	jwtCfg := middleware.TenantJWTConfig{Issuer: "repairdesk-test", Secret: []byte("test-secret")}
	m := metrics.New()

	deps := Deps{
		Logger:   logger,
		Catalog:  st,
		Audit:    st,
		Sessions: sessions,
		Metrics:  m,
		DB:       st.DB(),
		Limiters: limiters,
		JWT:      jwtCfg,
		Version:  "test",
	}
	for _, opt := range opts {
		opt(&deps)
	}

	return &testEnv{
		handler: NewHandler(deps),
		jwt:     jwtCfg,
		metrics: deps.Metrics,
	}
}

func (e *testEnv) tenantToken(t *testing.T, tenantID string) string {
	t.Helper()
	token, err := middleware.IssueTenantToken(e.jwt, tenantID, time.Hour)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func TestRouter_Health(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(http.MethodGet, "/api/v1/health", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp api.HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "test", resp.Version)
}

func TestRouter_CatalogRequiresJWT(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(http.MethodGet, "/api/v1/catalog/tree", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodGet, "/api/v1/catalog/tree", "", map[string]string{"Authorization": "Bearer garbage"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_CatalogFlow(t *testing.T) {
	env := setupTestEnv(t)
	auth := map[string]string{"Authorization": "Bearer " + env.tenantToken(t, "shop-1")}

	w := env.do(http.MethodPut, "/api/v1/catalog/prices/p-iphone-13-screen/custom",
		`{"custom_price_eur":149.0,"is_starting_price":true,"price_type":"starting_at"}`, auth)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(http.MethodGet, "/api/v1/catalog/tree", "", auth)
	require.Equal(t, http.StatusOK, w.Code)

	var tree api.CatalogTreeResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&tree))
	require.Len(t, tree.Brands, 1)
	require.Len(t, tree.Brands[0].Children, 1)
	require.Len(t, tree.Brands[0].Children[0].Prices, 1)

	price := tree.Brands[0].Children[0].Prices[0]
	require.NotNil(t, price.CustomPrice)
	assert.InDelta(t, 149.0, *price.CustomPrice, 0.001)
	assert.True(t, price.HasCustomPrice)
	assert.True(t, price.IsStartingPrice)
	assert.Equal(t, models.PriceStartingAt, price.PriceType)

	// Переопределения одной мастерской не видны другой
	other := map[string]string{"Authorization": "Bearer " + env.tenantToken(t, "shop-2")}
	w = env.do(http.MethodGet, "/api/v1/catalog/tree", "", other)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&tree))
	assert.False(t, tree.Brands[0].Children[0].Prices[0].HasCustomPrice)

	w = env.do(http.MethodPut, "/api/v1/catalog/prices/unknown/custom", `{"custom_price_eur":1}`, auth)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_POSSessionFlow(t *testing.T) {
	env := setupTestEnv(t)
	auth := map[string]string{"Authorization": "Bearer " + env.tenantToken(t, "shop-1")}

	w := env.do(http.MethodPost, "/api/v1/pos/sessions", `{"terminal_id":"POS-01"}`, auth)
	require.Equal(t, http.StatusCreated, w.Code)

	var session api.SessionResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&session))
	require.NotEmpty(t, session.Token)
	pos := map[string]string{api.SessionHeader: session.Token}

	w = env.do(http.MethodGet, "/api/v1/pos/sessions/current", "", pos)
	require.Equal(t, http.StatusOK, w.Code)
	var current api.CurrentSessionResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&current))
	assert.Equal(t, "shop-1", current.UserID)
	assert.Equal(t, "POS-01", current.TerminalID)

	w = env.do(http.MethodPost, "/api/v1/pos/transactions/validate", `{"amount":0}`, pos)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = env.do(http.MethodPost, "/api/v1/pos/audit", `{"action":"refund","data":{"pin":"1234"}}`, pos)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(http.MethodGet, "/api/v1/pos/audit?limit=10", "", pos)
	require.Equal(t, http.StatusOK, w.Code)
	var audit api.AuditListResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&audit))
	require.Len(t, audit.Records, 1)
	assert.Equal(t, "refund", audit.Records[0].Action)
	assert.NotContains(t, audit.Records[0].Entry, "1234")

	// Подделанный токен
	w = env.do(http.MethodGet, "/api/v1/pos/sessions/current", "", map[string]string{api.SessionHeader: session.Token + "0"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Unauthorized","message":"invalid session"}`, w.Body.String())
}

func TestRouter_LoginRateLimit(t *testing.T) {
	env := setupTestEnv(t)

	// Неудачные попытки тоже расходуют лимит
	for i := 0; i < 3; i++ {
		w := env.do(http.MethodPost, "/api/v1/pos/sessions", `{"terminal_id":"POS-01"}`, nil)
		require.Equal(t, http.StatusUnauthorized, w.Code, "attempt %d", i+1)
	}

	auth := map[string]string{"Authorization": "Bearer " + env.tenantToken(t, "shop-1")}
	w := env.do(http.MethodPost, "/api/v1/pos/sessions", `{"terminal_id":"POS-01"}`, auth)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var resp api.RateLimitResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.False(t, resp.BlockedUntil.IsZero())
}

func TestRouter_LoginRateLimit_ForwardedFor(t *testing.T) {
	sendWithXFF := func(env *testEnv, i int) int {
		w := env.do(http.MethodPost, "/api/v1/pos/sessions", `{"terminal_id":"POS-01"}`,
			map[string]string{"X-Forwarded-For": fmt.Sprintf("203.0.113.%d", i+1)})
		return w.Code
	}

	t.Run("header ignored by default", func(t *testing.T) {
		env := setupTestEnv(t)
		for i := 0; i < 3; i++ {
			require.Equal(t, http.StatusUnauthorized, sendWithXFF(env, i), "attempt %d", i+1)
		}
		assert.Equal(t, http.StatusTooManyRequests, sendWithXFF(env, 3))
	})

	t.Run("header trusted behind proxy", func(t *testing.T) {
		env := setupTestEnv(t, func(d *Deps) { d.TrustProxyHeaders = true })
		for i := 0; i < 4; i++ {
			assert.Equal(t, http.StatusUnauthorized, sendWithXFF(env, i), "attempt %d", i+1)
		}
	})
}

func TestNewHandler_WithoutMetrics(t *testing.T) {
	env := setupTestEnv(t, func(d *Deps) { d.Metrics = nil })

	w := env.do(http.MethodGet, "/api/v1/catalog/tree", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "repairdesk_http_requests_total")
}

func TestRouter_Metrics(t *testing.T) {
	env := setupTestEnv(t)

	env.do(http.MethodGet, "/api/v1/health", "", nil)
	env.do(http.MethodGet, "/api/v1/catalog/tree", "", nil)

	w := env.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "repairdesk_http_requests_total")
	assert.Contains(t, body, `route="GET /api/v1/catalog/tree"`)
	assert.Contains(t, body, `status="401"`)
}
