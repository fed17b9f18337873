package middleware

import (
	"net/http"

	"github.com/iudanet/repairdesk/internal/ratelimit"
	"github.com/iudanet/repairdesk/internal/server/handlers"
)

// Keys функции ключей лимитов.
// TrustProxy включает чтение IP из X-Forwarded-For/X-Real-IP.
type Keys struct {
	TrustProxy bool
}

func (k Keys) clientIP(r *http.Request) string {
	if k.TrustProxy {
		return ratelimit.ForwardedClientIP(r)
	}
	return ratelimit.ClientIP(r)
}

// Tenant ключ лимита по id мастерской, без авторизации - по IP
func (k Keys) Tenant(r *http.Request) string {
	if tenantID, ok := handlers.GetTenantID(r.Context()); ok {
		return "tenant:" + tenantID
	}
	return k.IP(r)
}

// Session ключ лимита по оператору и терминалу сессии, без сессии - по IP
func (k Keys) Session(r *http.Request) string {
	if session, ok := handlers.GetSession(r.Context()); ok {
		return "session:" + session.UserID + ":" + session.TerminalID
	}
	return k.IP(r)
}

// IP ключ лимита по IP клиента
func (k Keys) IP(r *http.Request) string {
	return "ip:" + k.clientIP(r)
}
