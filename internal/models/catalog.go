package models

// EntityType тип сущности каталога, к которой относится tenant-настройка
type EntityType string

const (
	EntityBrand       EntityType = "brand"
	EntityDeviceModel EntityType = "device_model"
	EntityRepairType  EntityType = "repair_type"
)

// PriceType тип цены ремонта
type PriceType string

const (
	PriceFixed      PriceType = "fixed"       // фиксированная цена
	PriceStartingAt PriceType = "starting_at" // цена "от"
)

// Brand представляет бренд устройств (корень дерева каталога)
type Brand struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// DeviceModel представляет модель устройства конкретного бренда
type DeviceModel struct {
	ID        string `json:"id" yaml:"id"`
	BrandID   string `json:"brand_id" yaml:"brand_id"`
	ModelName string `json:"model_name" yaml:"model_name"`
}

// RepairType представляет тип ремонта из глобального справочника.
// Один и тот же тип ремонта используется для всех моделей.
type RepairType struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// BasePrice глобальная цена по умолчанию для пары (модель, тип ремонта)
type BasePrice struct {
	ID            string  `json:"id" yaml:"id"`
	DeviceModelID string  `json:"device_model_id" yaml:"device_model_id"`
	RepairTypeID  string  `json:"repair_type_id" yaml:"repair_type_id"`
	PriceEUR      float64 `json:"price_eur" yaml:"price_eur"`
}

// CatalogPreference tenant-настройка активности и наценки для сущности каталога.
// nil в полях означает NULL: значение не переопределено.
type CatalogPreference struct {
	IsActive                *bool      `json:"is_active"`
	DefaultMarginPercentage *float64   `json:"default_margin_percentage"`
	EntityType              EntityType `json:"entity_type"`
	EntityID                string     `json:"entity_id"`
}

// BrandSetting tenant-настройка бренда.
// Имеет приоритет над CatalogPreference с entity_type = brand.
type BrandSetting struct {
	IsActive                *bool    `json:"is_active"`
	DefaultMarginPercentage *float64 `json:"default_margin_percentage"`
	BrandID                 string   `json:"brand_id"`
}

// CustomPrice tenant-переопределение конкретной базовой цены
type CustomPrice struct {
	CustomPriceEUR   *float64  `json:"custom_price_eur"`
	IsStartingPrice  *bool     `json:"is_starting_price"`
	MarginPercentage *float64  `json:"margin_percentage"`
	RepairPriceID    string    `json:"repair_price_id"`
	PriceType        PriceType `json:"price_type,omitempty"`
}

// BaseCatalog глобальный (не зависящий от tenant) каталог
type BaseCatalog struct {
	Brands      []Brand       `json:"brands" yaml:"brands"`
	Models      []DeviceModel `json:"models" yaml:"models"`
	RepairTypes []RepairType  `json:"repair_types" yaml:"repair_types"`
	BasePrices  []BasePrice   `json:"base_prices" yaml:"base_prices"`
}

// CatalogSnapshot все строки, необходимые для построения дерева каталога одного tenant
type CatalogSnapshot struct {
	BaseCatalog
	Preferences   []CatalogPreference `json:"preferences"`
	BrandSettings []BrandSetting      `json:"brand_settings"`
	CustomPrices  []CustomPrice       `json:"custom_prices"`
}
