package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SHA256Hex возвращает hex-encoded SHA256 хеш данных
func SHA256Hex(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// HMACSHA256Hex вычисляет HMAC-SHA256 и возвращает его в hex
func HMACSHA256Hex(data, key []byte) string {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// VerifyHMACSHA256Hex проверяет hex подпись за постоянное время
func VerifyHMACSHA256Hex(data, key []byte, signature string) bool {
	expected := HMACSHA256Hex(data, key)
	return hmac.Equal([]byte(expected), []byte(signature))
}
