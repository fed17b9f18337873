package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/repairdesk/internal/crypto"
)

// testClock управляемые часы
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func newTestService(t *testing.T, opts ...Option) (*Service, *testClock) {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	clock := &testClock{now: time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)}
	svc, err := New(key, append([]Option{WithClock(clock.Now)}, opts...)...)
	require.NoError(t, err)

	return svc, clock
}

func TestNew(t *testing.T) {
	t.Run("invalid key length", func(t *testing.T) {
		svc, err := New(make([]byte, 16))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "encryption key must be 32 bytes")
		assert.Nil(t, svc)
	})

	t.Run("independent instances get independent session keys", func(t *testing.T) {
		key, err := crypto.GenerateKey()
		require.NoError(t, err)

		s1, err := New(key)
		require.NoError(t, err)
		s2, err := New(key)
		require.NoError(t, err)

		assert.Equal(t, s1.encryptionKey, s2.encryptionKey)
		assert.NotEqual(t, s1.sessionKey, s2.sessionKey)
		assert.NotEqual(t, s1.encryptionKey, s1.sessionKey)
	})

	t.Run("caller key is copied", func(t *testing.T) {
		key, err := crypto.GenerateKey()
		require.NoError(t, err)
		original := append([]byte(nil), key...)

		svc, err := New(key)
		require.NoError(t, err)
		key[0] ^= 0xFF

		assert.Equal(t, original, svc.encryptionKey)
	})

	t.Run("empty explicit session key", func(t *testing.T) {
		key, err := crypto.GenerateKey()
		require.NoError(t, err)

		_, err = New(key, WithSessionKey([]byte{}))
		assert.ErrorContains(t, err, "session key cannot be empty")
	})

	t.Run("defaults", func(t *testing.T) {
		svc, _ := newTestService(t)
		assert.Equal(t, DefaultSessionTTL, svc.sessionTTL)
		assert.Len(t, svc.sessionKey, crypto.KeySize)
	})
}

func TestNewFromFingerprint(t *testing.T) {
	fp := crypto.Fingerprint{
		UserAgent:      "terminal-a",
		Locale:         "fr-FR",
		ScreenGeometry: "1024x768",
		TimezoneOffset: 60,
		VersionSalt:    crypto.DefaultVersionSalt,
	}

	s1, err := NewFromFingerprint(fp)
	require.NoError(t, err)
	s2, err := NewFromFingerprint(fp)
	require.NoError(t, err)

	payload, err := s1.EncryptData(map[string]any{"cart": "draft"})
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, s2.DecryptData(payload, &out), "одинаковый отпечаток дает тот же ключ")
	assert.Equal(t, "draft", out["cart"])

	other := fp
	other.Locale = "en-US"
	s3, err := NewFromFingerprint(other)
	require.NoError(t, err)

	err = s3.DecryptData(payload, &out)
	assert.ErrorIs(t, err, ErrDecryptionFailed, "другой отпечаток не может расшифровать данные")
}
