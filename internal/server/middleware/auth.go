package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iudanet/repairdesk/internal/server/handlers"
)

// TenantJWTConfig параметры проверки JWT ремонтной мастерской.
// Токены выпускает внешний auth-провайдер, sub - id мастерской.
type TenantJWTConfig struct {
	Issuer string // пусто - issuer не проверяется
	Secret []byte
	Leeway time.Duration
}

// TenantAuthMiddleware создает middleware для проверки JWT токена мастерской
func TenantAuthMiddleware(logger *slog.Logger, cfg TenantJWTConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Извлекаем токен из заголовка Authorization
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("Missing Authorization header")
				writeError(w, "missing token", http.StatusUnauthorized)
				return
			}

			// Ожидаем формат: "Bearer <token>"
			scheme, tokenString, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || tokenString == "" {
				logger.Warn("Invalid Authorization header format")
				writeError(w, "invalid token format", http.StatusUnauthorized)
				return
			}

			tenantID, err := ValidateTenantToken(cfg, tokenString)
			if err != nil {
				logger.Warn("Invalid tenant token", "error", err)
				writeError(w, "invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), handlers.TenantIDKey, tenantID)

			logger.Debug("Tenant authenticated", "tenant_id", tenantID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ValidateTenantToken проверяет подпись HS256, срок действия и возвращает sub
func ValidateTenantToken(cfg TenantJWTConfig, tokenString string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(cfg.Leeway),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return cfg.Secret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	if claims.Subject == "" {
		return "", fmt.Errorf("token subject is empty")
	}

	return claims.Subject, nil
}

// IssueTenantToken выпускает JWT мастерской. Используется для разработки
// и тестов, в production токены выпускает auth-провайдер.
func IssueTenantToken(cfg TenantJWTConfig, tenantID string, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := jwt.RegisteredClaims{
		Subject:   tenantID,
		Issuer:    cfg.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}
