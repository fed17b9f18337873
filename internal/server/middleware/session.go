package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/iudanet/repairdesk/internal/security"
	"github.com/iudanet/repairdesk/internal/server/handlers"
	"github.com/iudanet/repairdesk/pkg/api"
)

// SessionValidator проверка токена сессии POS-терминала
type SessionValidator interface {
	ValidateSession(token string) security.SessionValidation
}

// SessionMetrics метрики проверки сессий
type SessionMetrics interface {
	IncSession(operation string, ok bool)
}

// POSSessionMiddleware проверяет токен из заголовка X-POS-Session.
// Ответ на любой невалидный токен одинаковый: причина не раскрывается.
func POSSessionMiddleware(logger *slog.Logger, validator SessionValidator, metrics SessionMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := validator.ValidateSession(r.Header.Get(api.SessionHeader))
			if metrics != nil {
				metrics.IncSession("validate", res.IsValid)
			}

			if !res.IsValid || res.Data == nil {
				logger.Warn("Invalid POS session", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
				writeError(w, "invalid session", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), handlers.SessionKey, res.Data)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
