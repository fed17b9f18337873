package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSHA256Hex_KnownVector(t *testing.T) {
	// SHA256("test")
	expected := "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"
	assert.Equal(t, expected, SHA256Hex([]byte("test")))
}

func TestSHA256Hex_Deterministic(t *testing.T) {
	assert.Equal(t, SHA256Hex([]byte("4111111111111111")), SHA256Hex([]byte("4111111111111111")))
	assert.Regexp(t, "^[a-f0-9]{64}$", SHA256Hex(nil))
}

func TestHMACSHA256Hex(t *testing.T) {
	// RFC 4231, test case 2
	mac := HMACSHA256Hex([]byte("what do ya want for nothing?"), []byte("Jefe"))
	assert.Equal(t, "5bdcc146bf60754e6a042426089575c75a003f089d2739839dec58b964ec3843", mac)
}

func TestVerifyHMACSHA256Hex(t *testing.T) {
	key := []byte("session-key")
	data := []byte(`{"userId":"u1"}`)
	mac := HMACSHA256Hex(data, key)

	tests := []struct {
		name      string
		data      []byte
		key       []byte
		signature string
		want      bool
	}{
		{name: "valid signature", data: data, key: key, signature: mac, want: true},
		{name: "tampered data", data: []byte(`{"userId":"u2"}`), key: key, signature: mac, want: false},
		{name: "wrong key", data: data, key: []byte("other"), signature: mac, want: false},
		{name: "empty signature", data: data, key: key, signature: "", want: false},
		{name: "uppercase signature", data: data, key: key, signature: "A" + mac[1:], want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VerifyHMACSHA256Hex(tt.data, tt.key, tt.signature))
		})
	}
}
