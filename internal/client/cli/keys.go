package cli

import (
	"context"
	"fmt"

	"github.com/iudanet/repairdesk/internal/client/iocli"
	"github.com/iudanet/repairdesk/internal/crypto"
)

// KeySource источник ключа шифрования кэша
type KeySource string

const (
	KeySourceEnv         KeySource = "env"
	KeySourcePassphrase  KeySource = "passphrase"
	KeySourceFingerprint KeySource = "fingerprint"
)

// KeyOptions параметры выбора ключа кэша
type KeyOptions struct {
	EnvKey      string // значение REPAIRDESK_CACHE_KEY
	VersionSalt string // соль fingerprint
	Passphrase  bool   // запросить парольную фразу
}

// SaltStore хранилище соли парольной фразы
type SaltStore interface {
	GetOrCreateSalt(ctx context.Context) ([]byte, error)
}

// ResolveCacheKey выбирает ключ кэша в порядке приоритета:
// 1. REPAIRDESK_CACHE_KEY
// 2. парольная фраза (Argon2id с солью из хранилища)
// 3. fingerprint устройства
func ResolveCacheKey(ctx context.Context, opts KeyOptions, io iocli.IO, salts SaltStore) ([]byte, KeySource, error) {
	if opts.EnvKey != "" {
		key, err := crypto.KeyFromBase64(opts.EnvKey)
		if err != nil {
			return nil, "", fmt.Errorf("invalid REPAIRDESK_CACHE_KEY: %w", err)
		}
		return key, KeySourceEnv, nil
	}

	if opts.Passphrase {
		passphrase, err := io.ReadPassword("Passphrase: ")
		if err != nil {
			return nil, "", fmt.Errorf("failed to read passphrase: %w", err)
		}

		salt, err := salts.GetOrCreateSalt(ctx)
		if err != nil {
			return nil, "", err
		}

		key, err := crypto.DerivePassphraseKey(passphrase, salt)
		if err != nil {
			return nil, "", err
		}
		return key, KeySourcePassphrase, nil
	}

	return crypto.DeriveFingerprintKey(crypto.CollectFingerprint(opts.VersionSalt)), KeySourceFingerprint, nil
}
