package security

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/iudanet/repairdesk/internal/crypto"
	"github.com/iudanet/repairdesk/internal/models"
)

// ErrDecryptionFailed общая ошибка расшифровки.
// Намеренно не уточняет, какая проверка не прошла.
var ErrDecryptionFailed = errors.New("decryption failed")

// EncryptData сериализует значение в JSON и шифрует AES-CBC со свежим IV
func (s *Service) EncryptData(v any) (*models.EncryptedPayload, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal data: %w", err)
	}

	ciphertext, iv, err := crypto.EncryptCBC(plaintext, s.encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("encryption failed: %w", err)
	}

	return &models.EncryptedPayload{
		Encrypted: base64.StdEncoding.EncodeToString(ciphertext),
		IV:        hex.EncodeToString(iv),
		Timestamp: s.now().UnixMilli(),
	}, nil
}

// DecryptData расшифровывает payload и декодирует JSON в out.
// Любая ошибка (другой ключ, поврежденный IV или ciphertext,
// padding, JSON) возвращается как ErrDecryptionFailed.
func (s *Service) DecryptData(p *models.EncryptedPayload, out any) error {
	if p == nil {
		return ErrDecryptionFailed
	}

	ciphertext, err := base64.StdEncoding.DecodeString(p.Encrypted)
	if err != nil {
		s.logger.Debug("decrypt: invalid ciphertext encoding", slog.Any("error", err))
		return ErrDecryptionFailed
	}

	iv, err := hex.DecodeString(p.IV)
	if err != nil {
		s.logger.Debug("decrypt: invalid iv encoding", slog.Any("error", err))
		return ErrDecryptionFailed
	}

	plaintext, err := crypto.DecryptCBC(ciphertext, s.encryptionKey, iv)
	if err != nil {
		s.logger.Debug("decrypt: cipher failure", slog.Any("error", err))
		return ErrDecryptionFailed
	}

	if err := json.Unmarshal(plaintext, out); err != nil {
		s.logger.Debug("decrypt: invalid plaintext", slog.Any("error", err))
		return ErrDecryptionFailed
	}

	return nil
}
