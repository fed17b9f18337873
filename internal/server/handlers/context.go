package handlers

import (
	"context"

	"github.com/iudanet/repairdesk/internal/models"
)

// contextKey тип для ключей контекста
type contextKey string

const (
	// TenantIDKey ключ для хранения id ремонтной мастерской (sub из JWT)
	TenantIDKey contextKey = "tenant_id"
	// SessionKey ключ для хранения проверенной сессии POS-терминала
	SessionKey contextKey = "pos_session"
)

// GetTenantID извлекает tenant_id из контекста запроса
func GetTenantID(ctx context.Context) (string, bool) {
	tenantID, ok := ctx.Value(TenantIDKey).(string)
	return tenantID, ok && tenantID != ""
}

// GetSession извлекает данные сессии POS-терминала из контекста запроса
func GetSession(ctx context.Context) (*models.SessionData, bool) {
	session, ok := ctx.Value(SessionKey).(*models.SessionData)
	return session, ok && session != nil
}
