package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/repairdesk/internal/client/cache"
	"github.com/iudanet/repairdesk/internal/models"
)

// SavePayload stores or replaces an encrypted entry
func (s *Storage) SavePayload(ctx context.Context, key string, payload *models.EncryptedPayload) error {
	return s.update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketEntries)
		if bucket == nil {
			return fmt.Errorf("entries bucket not found")
		}

		// Сериализуем payload в JSON
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}

		if err := bucket.Put([]byte(key), data); err != nil {
			return fmt.Errorf("failed to save entry: %w", err)
		}

		return nil
	})
}

// GetPayload retrieves an encrypted entry by key
func (s *Storage) GetPayload(ctx context.Context, key string) (*models.EncryptedPayload, error) {
	var payload *models.EncryptedPayload

	err := s.view(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketEntries)
		if bucket == nil {
			return fmt.Errorf("entries bucket not found")
		}

		data := bucket.Get([]byte(key))
		if data == nil {
			return cache.ErrEntryNotFound
		}

		// Десериализуем
		payload = &models.EncryptedPayload{}
		if err := json.Unmarshal(data, payload); err != nil {
			return fmt.Errorf("failed to unmarshal payload: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return payload, nil
}

// DeletePayload removes an entry
func (s *Storage) DeletePayload(ctx context.Context, key string) error {
	return s.update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketEntries)
		if bucket == nil {
			return fmt.Errorf("entries bucket not found")
		}

		if bucket.Get([]byte(key)) == nil {
			return cache.ErrEntryNotFound
		}

		return bucket.Delete([]byte(key))
	})
}

// ListKeys returns entry keys in byte order
func (s *Storage) ListKeys(ctx context.Context) ([]string, error) {
	keys := []string{}

	err := s.view(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketEntries)
		if bucket == nil {
			return fmt.Errorf("entries bucket not found")
		}

		return bucket.ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	return keys, nil
}
