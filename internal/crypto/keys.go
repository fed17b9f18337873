package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"golang.org/x/crypto/argon2"
)

// Параметры Argon2id
const (
	// Argon2Time - количество итераций (time cost)
	Argon2Time = 1
	// Argon2Memory - объем памяти в KB (64MB = 64*1024 KB)
	Argon2Memory = 64 * 1024
	// Argon2Threads - количество параллельных потоков
	Argon2Threads = 4
	// SaltSize - размер соли в байтах
	SaltSize = 32
)

// DefaultVersionSalt версия схемы отпечатка; смена значения инвалидирует все ключи
const DefaultVersionSalt = "repairdesk-pos-v1"

// Fingerprint характеристики окружения, из которых выводится ключ шифрования.
// Ключ стабилен только пока все поля совпадают и не переносим между устройствами.
// Это обфускация, а не конфиденциальность: поля не являются секретом.
type Fingerprint struct {
	UserAgent      string
	Locale         string
	ScreenGeometry string
	TimezoneOffset int // смещение от UTC в минутах
	VersionSalt    string
}

// String каноническое представление отпечатка
func (f Fingerprint) String() string {
	return strings.Join([]string{
		f.UserAgent,
		f.Locale,
		f.ScreenGeometry,
		fmt.Sprintf("%d", f.TimezoneOffset),
		f.VersionSalt,
	}, "|")
}

// CollectFingerprint собирает отпечаток текущего процесса:
// платформа и hostname вместо user-agent, LANG вместо локали браузера,
// размер терминала недоступен и заменяется на COLUMNSxLINES
func CollectFingerprint(versionSalt string) Fingerprint {
	if versionSalt == "" {
		versionSalt = DefaultVersionSalt
	}

	hostname, _ := os.Hostname()
	_, offset := time.Now().Zone()

	locale := os.Getenv("LC_ALL")
	if locale == "" {
		locale = os.Getenv("LANG")
	}

	return Fingerprint{
		UserAgent:      fmt.Sprintf("%s/%s (%s)", runtime.GOOS, runtime.GOARCH, hostname),
		Locale:         locale,
		ScreenGeometry: os.Getenv("COLUMNS") + "x" + os.Getenv("LINES"),
		TimezoneOffset: offset / 60,
		VersionSalt:    versionSalt,
	}
}

// DeriveFingerprintKey выводит 32-байтный ключ из отпечатка окружения (Argon2id).
// Одинаковый отпечаток всегда дает одинаковый ключ.
func DeriveFingerprintKey(fp Fingerprint) []byte {
	salt := []byte(fp.VersionSalt)
	return argon2.IDKey([]byte(fp.String()), salt, Argon2Time, Argon2Memory, Argon2Threads, KeySize)
}

// GenerateSalt генерирует криптографически случайную соль
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// DerivePassphraseKey выводит ключ из парольной фразы оператора и сохраненной соли
func DerivePassphraseKey(passphrase string, salt []byte) ([]byte, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("passphrase cannot be empty")
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("salt must be %d bytes, got %d", SaltSize, len(salt))
	}
	return argon2.IDKey([]byte(passphrase), salt, Argon2Time, Argon2Memory, Argon2Threads, KeySize), nil
}

// GenerateKey генерирует случайный 32-байтный ключ
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return key, nil
}

// KeyFromBase64 декодирует явно переданный ключ (конфиг, переменная окружения)
func KeyFromBase64(encoded string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("failed to decode key: %w", err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("key must be %d bytes, got %d", KeySize, len(key))
	}
	return key, nil
}
