// Package cache локальный зашифрованный кэш POS-терминала.
// Значения шифруются до записи в хранилище, хранилище видит только
// EncryptedPayload.
package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/repairdesk/internal/models"
)

var (
	// ErrEntryNotFound запись с таким ключом отсутствует
	ErrEntryNotFound = errors.New("cache entry not found")

	// ErrStorageClosed хранилище закрыто
	ErrStorageClosed = errors.New("storage is closed")

	// ErrInvalidKey пустой ключ записи
	ErrInvalidKey = errors.New("cache key cannot be empty")
)

// Store хранилище зашифрованных записей и метаданных кэша
//
//go:generate moq -out store_mock.go . Store
type Store interface {
	SavePayload(ctx context.Context, key string, payload *models.EncryptedPayload) error
	GetPayload(ctx context.Context, key string) (*models.EncryptedPayload, error)
	DeletePayload(ctx context.Context, key string) error
	ListKeys(ctx context.Context) ([]string, error)
	GetOrCreateSalt(ctx context.Context) ([]byte, error)
}

// Cipher шифрование значений, реализуется security.Service
type Cipher interface {
	EncryptData(v any) (*models.EncryptedPayload, error)
	DecryptData(p *models.EncryptedPayload, out any) error
}

// Cache шифрует значения перед сохранением в Store
type Cache struct {
	store  Store
	cipher Cipher
}

// New создает кэш поверх хранилища
func New(store Store, cipher Cipher) *Cache {
	return &Cache{store: store, cipher: cipher}
}

// Put шифрует v (JSON) и сохраняет под ключом key
func (c *Cache) Put(ctx context.Context, key string, v any) error {
	if key == "" {
		return ErrInvalidKey
	}

	payload, err := c.cipher.EncryptData(v)
	if err != nil {
		return fmt.Errorf("failed to encrypt %q: %w", key, err)
	}

	if err := c.store.SavePayload(ctx, key, payload); err != nil {
		return fmt.Errorf("failed to save %q: %w", key, err)
	}
	return nil
}

// Get расшифровывает запись в out. Запись, зашифрованная другим ключом,
// возвращает ошибку расшифровки.
func (c *Cache) Get(ctx context.Context, key string, out any) error {
	if key == "" {
		return ErrInvalidKey
	}

	payload, err := c.store.GetPayload(ctx, key)
	if err != nil {
		return err
	}

	if err := c.cipher.DecryptData(payload, out); err != nil {
		return fmt.Errorf("failed to decrypt %q: %w", key, err)
	}
	return nil
}

// Delete удаляет запись
func (c *Cache) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	return c.store.DeletePayload(ctx, key)
}

// Keys ключи всех записей в порядке сортировки
func (c *Cache) Keys(ctx context.Context) ([]string, error) {
	return c.store.ListKeys(ctx)
}
