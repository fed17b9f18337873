package security

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/repairdesk/internal/crypto"
	"github.com/iudanet/repairdesk/internal/models"
)

// ErrInvalidSession сессию нельзя выпустить для переданных идентификаторов
var ErrInvalidSession = errors.New("invalid session")

// SessionValidation результат проверки токена.
// Причина невалидности (истек, подделан, поврежден) намеренно не раскрывается.
type SessionValidation struct {
	Data    *models.SessionData `json:"data,omitempty"`
	IsValid bool                `json:"is_valid"`
}

// CreateSecureSession выпускает токен сессии оператора:
// base64(JSON) + "." + hex(HMAC-SHA256(JSON, SessionKey)).
// Токен самодостаточен, на сервере ничего не сохраняется.
func (s *Service) CreateSecureSession(userID, terminalID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: user id cannot be empty", ErrInvalidSession)
	}
	if terminalID == "" {
		return "", fmt.Errorf("%w: terminal id cannot be empty", ErrInvalidSession)
	}

	data := models.SessionData{
		UserID:     userID,
		TerminalID: terminalID,
		Timestamp:  s.now().UnixMilli(),
		Random:     uuid.NewString(),
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal session: %w", err)
	}

	signature := crypto.HMACSHA256Hex(payload, s.sessionKey)

	return base64.StdEncoding.EncodeToString(payload) + "." + signature, nil
}

// ValidateSession проверяет подпись и возраст токена.
// Отзыв токена до истечения TTL не поддерживается: списка отозванных нет.
func (s *Service) ValidateSession(token string) SessionValidation {
	encoded, signature, ok := strings.Cut(token, ".")
	if !ok || encoded == "" || signature == "" {
		return SessionValidation{}
	}

	payload, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return SessionValidation{}
	}

	var data models.SessionData
	if err := json.Unmarshal(payload, &data); err != nil {
		return SessionValidation{}
	}

	if !crypto.VerifyHMACSHA256Hex(payload, s.sessionKey, signature) {
		return SessionValidation{}
	}

	issuedAt := time.UnixMilli(data.Timestamp)
	if s.now().Sub(issuedAt) > s.sessionTTL {
		return SessionValidation{}
	}

	return SessionValidation{IsValid: true, Data: &data}
}
