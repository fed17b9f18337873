package security

import (
	"encoding/json"
	"fmt"
	"maps"
	"time"

	"github.com/iudanet/repairdesk/internal/crypto"
	"github.com/iudanet/repairdesk/internal/models"
)

// AuditTimestampFormat формат времени записи аудита (ISO 8601, UTC, миллисекунды)
const AuditTimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// SensitiveFields поля, которые никогда не попадают в аудит в открытом виде
var SensitiveFields = []string{"cardNumber", "cvv", "pin", "password"}

// CreateAuditEntry создает сериализованную запись аудита.
// Чувствительные поля заменяются первыми 8 символами SHA256 и "..."
// (необратимо, только для сопоставления). Integrity - HMAC от
// action:userId:timestamp на ключе шифрования. Сохранение записи -
// ответственность вызывающего кода.
func (s *Service) CreateAuditEntry(action, userID string, data map[string]any) (string, error) {
	if action == "" {
		return "", fmt.Errorf("audit action cannot be empty")
	}

	entry := models.AuditEntry{
		Action:    action,
		UserID:    userID,
		Timestamp: s.now().UTC().Format(AuditTimestampFormat),
		Data:      redact(data),
	}
	entry.Integrity = s.auditIntegrity(entry)

	serialized, err := json.Marshal(entry)
	if err != nil {
		return "", fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	return string(serialized), nil
}

// VerifyAuditEntry пересчитывает integrity записи и сравнивает с сохраненной.
// Защищены только action, userId и timestamp.
func (s *Service) VerifyAuditEntry(serialized string) bool {
	var entry models.AuditEntry
	if err := json.Unmarshal([]byte(serialized), &entry); err != nil {
		return false
	}
	if _, err := time.Parse(AuditTimestampFormat, entry.Timestamp); err != nil {
		return false
	}

	return crypto.VerifyHMACSHA256Hex(auditMessage(entry), s.encryptionKey, entry.Integrity)
}

func (s *Service) auditIntegrity(entry models.AuditEntry) string {
	return crypto.HMACSHA256Hex(auditMessage(entry), s.encryptionKey)
}

func auditMessage(entry models.AuditEntry) []byte {
	return []byte(entry.Action + ":" + entry.UserID + ":" + entry.Timestamp)
}

// redact возвращает копию данных со скрытыми чувствительными полями
func redact(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}

	out := maps.Clone(data)
	for _, field := range SensitiveFields {
		value, ok := out[field]
		if !ok || value == nil {
			continue
		}
		out[field] = crypto.SHA256Hex([]byte(fmt.Sprint(value)))[:8] + "..."
	}

	return out
}
