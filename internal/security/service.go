// Package security реализует локальную защиту данных POS-терминала:
// шифрование payload, подписанные сессии операторов и записи аудита.
package security

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/iudanet/repairdesk/internal/crypto"
)

// DefaultSessionTTL максимальный возраст токена сессии
const DefaultSessionTTL = 24 * time.Hour

// Service хранит ключи, захваченные при создании.
// EncryptionKey шифрует данные и подписывает аудит,
// SessionKey используется только для подписи токенов сессий.
type Service struct {
	now           func() time.Time
	logger        *slog.Logger
	encryptionKey []byte
	sessionKey    []byte
	sessionTTL    time.Duration
}

// Option настройка сервиса
type Option func(*Service)

// WithClock подменяет источник времени (для тестов)
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithSessionKey задает ключ подписи сессий вместо случайного.
// Нужен, если несколько процессов должны принимать токены друг друга.
func WithSessionKey(key []byte) Option {
	return func(s *Service) {
		s.sessionKey = key
	}
}

// WithSessionTTL задает максимальный возраст токена сессии
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.sessionTTL = ttl
	}
}

// WithLogger задает логгер
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New создает сервис с явно переданным ключом шифрования.
// Ключ сессий генерируется случайно на время жизни сервиса.
func New(encryptionKey []byte, opts ...Option) (*Service, error) {
	if len(encryptionKey) != crypto.KeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", crypto.KeySize, len(encryptionKey))
	}

	s := &Service{
		encryptionKey: append([]byte(nil), encryptionKey...),
		now:           time.Now,
		sessionTTL:    DefaultSessionTTL,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.sessionKey == nil {
		key, err := crypto.GenerateKey()
		if err != nil {
			return nil, fmt.Errorf("failed to generate session key: %w", err)
		}
		s.sessionKey = key
	}
	if len(s.sessionKey) == 0 {
		return nil, fmt.Errorf("session key cannot be empty")
	}

	return s, nil
}

// NewFromFingerprint создает сервис с ключом, выведенным из отпечатка окружения.
// Такой ключ воспроизводим только на том же устройстве с теми же параметрами.
func NewFromFingerprint(fp crypto.Fingerprint, opts ...Option) (*Service, error) {
	return New(crypto.DeriveFingerprintKey(fp), opts...)
}

// SessionTTL максимальный возраст токена сессии
func (s *Service) SessionTTL() time.Duration {
	return s.sessionTTL
}
