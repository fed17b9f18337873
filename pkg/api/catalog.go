package api

import (
	"github.com/iudanet/repairdesk/internal/models"
)

// CatalogTreeResponse дерево каталога tenant: бренды -> модели -> цены
type CatalogTreeResponse struct {
	Brands []models.CatalogTreeNode `json:"brands"`
}

// BrandSettingRequest тело PUT /api/v1/catalog/brands/{brandID}/setting.
// null в поле снимает переопределение.
type BrandSettingRequest struct {
	IsActive                *bool    `json:"is_active"`
	DefaultMarginPercentage *float64 `json:"default_margin_percentage"`
}

// PreferenceRequest тело PUT /api/v1/catalog/preferences
type PreferenceRequest struct {
	IsActive                *bool    `json:"is_active"`
	DefaultMarginPercentage *float64 `json:"default_margin_percentage"`
	EntityType              string   `json:"entity_type"` // brand, device_model, repair_type
	EntityID                string   `json:"entity_id"`
}

// CustomPriceRequest тело PUT /api/v1/catalog/prices/{priceID}/custom
type CustomPriceRequest struct {
	CustomPriceEUR   *float64 `json:"custom_price_eur"`
	IsStartingPrice  *bool    `json:"is_starting_price"`
	MarginPercentage *float64 `json:"margin_percentage"`
	PriceType        string   `json:"price_type,omitempty"` // fixed, starting_at
}
