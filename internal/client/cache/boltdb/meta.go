package boltdb

import (
	"bytes"
	"context"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/repairdesk/internal/crypto"
)

const (
	keyPassphraseSalt = "passphrase_salt"
)

// GetOrCreateSalt returns the passphrase salt, generating it on first use
func (s *Storage) GetOrCreateSalt(ctx context.Context) ([]byte, error) {
	var salt []byte

	err := s.update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMeta)
		if bucket == nil {
			return fmt.Errorf("meta bucket not found")
		}

		// Значение из bbolt валидно только внутри транзакции
		if existing := bucket.Get([]byte(keyPassphraseSalt)); existing != nil {
			salt = bytes.Clone(existing)
			return nil
		}

		generated, err := crypto.GenerateSalt()
		if err != nil {
			return err
		}

		if err := bucket.Put([]byte(keyPassphraseSalt), generated); err != nil {
			return fmt.Errorf("failed to save salt: %w", err)
		}
		salt = generated
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to get passphrase salt: %w", err)
	}

	return salt, nil
}
