package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iudanet/repairdesk/internal/models"
	"github.com/iudanet/repairdesk/internal/server/handlers"
)

func TestLimiterKeys(t *testing.T) {
	newRequest := func(ctx context.Context) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
		req.RemoteAddr = "10.0.0.7:51234"
		req.Header.Set("X-Forwarded-For", "203.0.113.9")
		return req
	}

	bare := newRequest(context.Background())
	withTenant := newRequest(context.WithValue(context.Background(), handlers.TenantIDKey, "repairer-42"))
	withSession := newRequest(context.WithValue(context.Background(), handlers.SessionKey,
		&models.SessionData{UserID: "repairer-42", TerminalID: "POS-01"}))

	direct := Keys{}
	assert.Equal(t, "ip:10.0.0.7", direct.IP(bare))
	assert.Equal(t, "ip:10.0.0.7", direct.Tenant(bare))
	assert.Equal(t, "ip:10.0.0.7", direct.Session(bare))
	assert.Equal(t, "tenant:repairer-42", direct.Tenant(withTenant))
	assert.Equal(t, "session:repairer-42:POS-01", direct.Session(withSession))

	proxied := Keys{TrustProxy: true}
	assert.Equal(t, "ip:203.0.113.9", proxied.IP(bare))
	assert.Equal(t, "ip:203.0.113.9", proxied.Session(bare))
	assert.Equal(t, "tenant:repairer-42", proxied.Tenant(withTenant))
}
