package ratelimit

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/iudanet/repairdesk/pkg/api"
)

// KeyFunc извлекает идентификатор для лимита из запроса
type KeyFunc func(r *http.Request) string

// DenyFunc вызывается при отказе (например, для метрик)
type DenyFunc func(limiter string)

// Middleware создает middleware для ограничения частоты запросов.
// По умолчанию ключ - IP адрес клиента.
func Middleware(limiter *Limiter, keyFn KeyFunc, logger *slog.Logger, onDeny DenyFunc) func(http.Handler) http.Handler {
	if keyFn == nil {
		keyFn = ClientIP
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFn(r)

			res := limiter.IsAllowed(key)
			if !res.Allowed {
				logger.Warn("Rate limit exceeded",
					"limiter", limiter.Config().Name,
					"key", key,
					"method", r.Method,
					"path", r.URL.Path,
				)
				if onDeny != nil {
					onDeny(limiter.Config().Name)
				}

				retryAfter := int(res.BlockedUntil.Sub(limiter.now()).Seconds())
				w.Header().Set("Retry-After", strconv.Itoa(max(retryAfter, 1)))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(api.RateLimitResponse{
					Error:        http.StatusText(http.StatusTooManyRequests),
					Message:      "rate limit exceeded, please try again later",
					BlockedUntil: res.BlockedUntil,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP возвращает адрес TCP-соединения клиента без порта.
// Заголовки прокси не учитываются: клиент может их подменить.
func ClientIP(r *http.Request) string {
	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx > 0 && !strings.HasSuffix(addr, "]") {
		return addr[:idx]
	}
	return addr
}

// ForwardedClientIP берет IP клиента из X-Forwarded-For или X-Real-IP.
// Только для сервера за доверенным reverse proxy, который перезаписывает эти заголовки.
func ForwardedClientIP(r *http.Request) string {
	// Первый IP в X-Forwarded-For - реальный клиент
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}

	return ClientIP(r)
}
