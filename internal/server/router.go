// Package server собирает HTTP API: маршруты, middleware, лимиты и метрики
package server

import (
	"log/slog"
	"net/http"

	"github.com/iudanet/repairdesk/internal/ratelimit"
	"github.com/iudanet/repairdesk/internal/server/handlers"
	"github.com/iudanet/repairdesk/internal/server/metrics"
	"github.com/iudanet/repairdesk/internal/server/middleware"
	"github.com/iudanet/repairdesk/internal/server/storage"
)

// Limiters пресеты лимитов частоты запросов
type Limiters struct {
	Login *ratelimit.Limiter
	API   *ratelimit.Limiter
	Admin *ratelimit.Limiter
}

// Deps зависимости HTTP API
type Deps struct {
	Logger   *slog.Logger
	Catalog  storage.CatalogStorage
	Audit    storage.AuditStorage
	Sessions handlers.SessionService
	Metrics  *metrics.Metrics
	DB       handlers.Pinger
	Limiters Limiters
	JWT      middleware.TenantJWTConfig
	Version  string
	// TrustProxyHeaders брать IP клиента из X-Forwarded-For/X-Real-IP
	TrustProxyHeaders bool
}

// NewHandler регистрирует маршруты API и оборачивает их общими middleware.
// Без Deps.Metrics метрики пишутся в собственный реестр обработчика.
func NewHandler(d Deps) http.Handler {
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}
	keys := middleware.Keys{TrustProxy: d.TrustProxyHeaders}

	catalogHandler := handlers.NewCatalogHandler(d.Logger, d.Catalog, d.Metrics)
	posHandler := handlers.NewPOSHandler(d.Logger, d.Sessions, d.Audit, d.Metrics)
	healthHandler := handlers.NewHealthHandler(d.Logger, d.DB, d.Version)

	tenantAuth := middleware.TenantAuthMiddleware(d.Logger, d.JWT)
	posSession := middleware.POSSessionMiddleware(d.Logger, d.Sessions, d.Metrics)

	limit := func(l *ratelimit.Limiter, key ratelimit.KeyFunc) func(http.Handler) http.Handler {
		return ratelimit.Middleware(l, key, d.Logger, d.Metrics.IncRateLimitDenied)
	}

	// Порядок: сначала авторизация, затем лимит по ее результату.
	// Исключение - выпуск сессии: лимит по IP до проверки JWT.
	tenant := func(l *ratelimit.Limiter, h http.HandlerFunc) http.Handler {
		return chain(h, tenantAuth, limit(l, keys.Tenant))
	}
	pos := func(l *ratelimit.Limiter, h http.HandlerFunc) http.Handler {
		return chain(h, posSession, limit(l, keys.Session))
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/health", healthHandler.Health)
	mux.Handle("GET /metrics", d.Metrics.Handler())

	mux.Handle("GET /api/v1/catalog/tree", tenant(d.Limiters.API, catalogHandler.Tree))
	mux.Handle("PUT /api/v1/catalog/brands/{brandID}/setting", tenant(d.Limiters.Admin, catalogHandler.UpdateBrandSetting))
	mux.Handle("PUT /api/v1/catalog/preferences", tenant(d.Limiters.Admin, catalogHandler.UpdatePreference))
	mux.Handle("PUT /api/v1/catalog/prices/{priceID}/custom", tenant(d.Limiters.Admin, catalogHandler.UpdateCustomPrice))

	mux.Handle("POST /api/v1/pos/sessions", chain(http.HandlerFunc(posHandler.StartSession),
		limit(d.Limiters.Login, keys.IP), tenantAuth))
	mux.Handle("GET /api/v1/pos/sessions/current", pos(d.Limiters.API, posHandler.CurrentSession))
	mux.Handle("POST /api/v1/pos/transactions/validate", pos(d.Limiters.API, posHandler.ValidateTransaction))
	mux.Handle("POST /api/v1/pos/customers/validate", pos(d.Limiters.API, posHandler.ValidateCustomer))
	mux.Handle("POST /api/v1/pos/audit", pos(d.Limiters.Admin, posHandler.RecordAudit))
	mux.Handle("GET /api/v1/pos/audit", pos(d.Limiters.Admin, posHandler.ListAudit))

	return chain(mux,
		middleware.RecoveryMiddleware(d.Logger, d.Metrics.IncPanics),
		middleware.LoggingWithSkip(d.Logger, []string{"/metrics", "/api/v1/health"}),
		middleware.MetricsMiddleware(d.Metrics),
	)
}

// chain оборачивает h в middleware: первый в списке выполняется первым
func chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
