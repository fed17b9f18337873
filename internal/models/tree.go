package models

// CatalogTreeNode узел дерева каталога: бренд или модель устройства.
// Дерево пересобирается при каждом вызове, идентичность узлов не сохраняется.
type CatalogTreeNode struct {
	MarginPercentage *float64          `json:"margin_percentage,omitempty"`
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Type             EntityType        `json:"type"`
	Children         []CatalogTreeNode `json:"children,omitempty"`
	Prices           []PriceNode       `json:"prices,omitempty"`
	IsActive         bool              `json:"is_active"`
}

// PriceNode лист дерева: цена типа ремонта для конкретной модели
type PriceNode struct {
	CustomPrice      *float64  `json:"custom_price,omitempty"`
	MarginPercentage *float64  `json:"margin_percentage,omitempty"`
	ID               string    `json:"id"`   // ID базовой цены
	Name             string    `json:"name"` // название типа ремонта
	PriceType        PriceType `json:"price_type"`
	BasePrice        float64   `json:"base_price"`
	IsStartingPrice  bool      `json:"is_starting_price"`
	IsActive         bool      `json:"is_active"`
	HasCustomPrice   bool      `json:"has_custom_price"`
}

// EffectivePrice возвращает цену, которую видит клиент:
// кастомную цену tenant, если она задана, иначе базовую
func (p PriceNode) EffectivePrice() float64 {
	if p.CustomPrice != nil {
		return *p.CustomPrice
	}
	return p.BasePrice
}
