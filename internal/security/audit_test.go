package security

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/repairdesk/internal/crypto"
	"github.com/iudanet/repairdesk/internal/models"
)

func TestCreateAuditEntry(t *testing.T) {
	svc, clock := newTestService(t)

	data := map[string]any{
		"cardNumber": "4111111111111111",
		"cvv":        "123",
		"pin":        1234.0,
		"password":   "hunter2",
		"amount":     42.5,
		"reference":  "INV-001",
	}

	serialized, err := svc.CreateAuditEntry("payment.captured", "operator-1", data)
	require.NoError(t, err)

	var entry models.AuditEntry
	require.NoError(t, json.Unmarshal([]byte(serialized), &entry))

	assert.Equal(t, "payment.captured", entry.Action)
	assert.Equal(t, "operator-1", entry.UserID)
	assert.Equal(t, "2026-03-10T09:30:00.000Z", entry.Timestamp)
	assert.Equal(t, clock.now.UTC().Format(AuditTimestampFormat), entry.Timestamp)

	assert.Equal(t, crypto.SHA256Hex([]byte("4111111111111111"))[:8]+"...", entry.Data["cardNumber"])
	assert.Equal(t, crypto.SHA256Hex([]byte("123"))[:8]+"...", entry.Data["cvv"])
	assert.Equal(t, crypto.SHA256Hex([]byte("1234"))[:8]+"...", entry.Data["pin"])
	assert.Equal(t, crypto.SHA256Hex([]byte("hunter2"))[:8]+"...", entry.Data["password"])
	assert.Equal(t, 42.5, entry.Data["amount"])
	assert.Equal(t, "INV-001", entry.Data["reference"])
	assert.NotContains(t, serialized, "4111111111111111")
	assert.NotContains(t, serialized, "hunter2")

	expected := crypto.HMACSHA256Hex([]byte("payment.captured:operator-1:"+entry.Timestamp), svc.encryptionKey)
	assert.Equal(t, expected, entry.Integrity)

	// исходные данные не изменены
	assert.Equal(t, "4111111111111111", data["cardNumber"])
}

func TestCreateAuditEntry_WithoutData(t *testing.T) {
	svc, _ := newTestService(t)

	serialized, err := svc.CreateAuditEntry("session.opened", "operator-1", nil)
	require.NoError(t, err)
	assert.NotContains(t, serialized, `"data"`)

	_, err = svc.CreateAuditEntry("", "operator-1", nil)
	assert.ErrorContains(t, err, "audit action cannot be empty")
}

func TestCreateAuditEntry_NilSensitiveValueKept(t *testing.T) {
	svc, _ := newTestService(t)

	serialized, err := svc.CreateAuditEntry("login.failed", "operator-1", map[string]any{"password": nil})
	require.NoError(t, err)

	var entry models.AuditEntry
	require.NoError(t, json.Unmarshal([]byte(serialized), &entry))
	value, ok := entry.Data["password"]
	assert.True(t, ok)
	assert.Nil(t, value)
}

func TestVerifyAuditEntry(t *testing.T) {
	svc, _ := newTestService(t)

	serialized, err := svc.CreateAuditEntry("refund.issued", "operator-1", map[string]any{"amount": 10.0})
	require.NoError(t, err)

	assert.True(t, svc.VerifyAuditEntry(serialized))

	tamper := func(mutate func(*models.AuditEntry)) string {
		var entry models.AuditEntry
		require.NoError(t, json.Unmarshal([]byte(serialized), &entry))
		mutate(&entry)
		out, err := json.Marshal(entry)
		require.NoError(t, err)
		return string(out)
	}

	assert.False(t, svc.VerifyAuditEntry(tamper(func(e *models.AuditEntry) { e.Action = "refund.cancelled" })))
	assert.False(t, svc.VerifyAuditEntry(tamper(func(e *models.AuditEntry) { e.UserID = "operator-2" })))
	assert.False(t, svc.VerifyAuditEntry(tamper(func(e *models.AuditEntry) { e.Timestamp = "2020-01-01T00:00:00.000Z" })))
	assert.False(t, svc.VerifyAuditEntry("not json"))

	// data не входит в integrity
	assert.True(t, svc.VerifyAuditEntry(tamper(func(e *models.AuditEntry) { e.Data["amount"] = 99.0 })))

	other, _ := newTestService(t)
	assert.False(t, other.VerifyAuditEntry(serialized), "другой ключ шифрования")
}
