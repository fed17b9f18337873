package storage

import (
	"context"

	"github.com/iudanet/repairdesk/internal/models"
)

//go:generate moq -out catalog_mock.go . CatalogStorage

// CatalogStorage defines interface for price catalog persistence.
// Base catalog is shared by all tenants, overrides are per tenant.
type CatalogStorage interface {
	// LoadSnapshot returns base catalog plus overrides of the tenant.
	// Every slice keeps insertion order.
	LoadSnapshot(ctx context.Context, tenantID string) (*models.CatalogSnapshot, error)

	// ImportBaseCatalog inserts or updates base rows by id
	ImportBaseCatalog(ctx context.Context, catalog *models.BaseCatalog) error

	// UpsertBrandSetting creates or replaces tenant brand setting
	// Returns ErrNotFound if brand doesn't exist
	UpsertBrandSetting(ctx context.Context, tenantID string, setting models.BrandSetting) error

	// UpsertPreference creates or replaces tenant preference for entity
	// Returns ErrInvalidEntityType for unknown type, ErrNotFound if entity doesn't exist
	UpsertPreference(ctx context.Context, tenantID string, pref models.CatalogPreference) error

	// UpsertCustomPrice creates or replaces tenant custom price
	// Returns ErrNotFound if base price doesn't exist
	UpsertCustomPrice(ctx context.Context, tenantID string, price models.CustomPrice) error
}
