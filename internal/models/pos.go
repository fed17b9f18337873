package models

import "time"

// EncryptedPayload результат одного вызова шифрования.
// Расшифровать можно только тем же ключом и с тем же IV.
type EncryptedPayload struct {
	Encrypted string `json:"encrypted"` // base64 ciphertext
	IV        string `json:"iv"`        // hex, 16 bytes
	Timestamp int64  `json:"timestamp"` // unix ms момента шифрования
}

// SessionData содержимое подписанного токена сессии POS-терминала
type SessionData struct {
	UserID     string `json:"userId"`
	TerminalID string `json:"terminalId"`
	Random     string `json:"random"`
	Timestamp  int64  `json:"timestamp"` // unix ms выпуска
}

// AuditEntry запись аудита. Создается один раз и не изменяется.
type AuditEntry struct {
	Data      map[string]any `json:"data,omitempty"`
	Action    string         `json:"action"`
	UserID    string         `json:"userId"`
	Timestamp string         `json:"timestamp"`
	Integrity string         `json:"integrity"` // HMAC(action:userId:timestamp)
}

// AuditRecord сохраненная в хранилище запись аудита
type AuditRecord struct {
	CreatedAt  time.Time `json:"created_at"`
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	UserID     string    `json:"user_id"`
	TerminalID string    `json:"terminal_id"`
	Entry      string    `json:"entry"` // сериализованный AuditEntry
}
