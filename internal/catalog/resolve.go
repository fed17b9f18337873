package catalog

import "github.com/iudanet/repairdesk/internal/models"

// firstBool возвращает первое заданное значение в порядке приоритета
func firstBool(values ...*bool) (bool, bool) {
	for _, v := range values {
		if v != nil {
			return *v, true
		}
	}
	return false, false
}

// firstFloat возвращает первое заданное значение в порядке приоритета
func firstFloat(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil {
			f := *v
			return &f
		}
	}
	return nil
}

// activeOrDefault применяет цепочку переопределений активности,
// по умолчанию сущность активна
func activeOrDefault(values ...*bool) bool {
	if v, ok := firstBool(values...); ok {
		return v
	}
	return true
}

type prefKey struct {
	entityType models.EntityType
	entityID   string
}

// overrides индексы tenant-настроек для быстрого поиска.
// При дубликатах выигрывает первая строка во входном порядке.
type overrides struct {
	preferences   map[prefKey]*models.CatalogPreference
	brandSettings map[string]*models.BrandSetting
	customPrices  map[string]*models.CustomPrice
}

func indexOverrides(preferences []models.CatalogPreference, brandSettings []models.BrandSetting, customPrices []models.CustomPrice) *overrides {
	o := &overrides{
		preferences:   make(map[prefKey]*models.CatalogPreference, len(preferences)),
		brandSettings: make(map[string]*models.BrandSetting, len(brandSettings)),
		customPrices:  make(map[string]*models.CustomPrice, len(customPrices)),
	}

	for i := range preferences {
		key := prefKey{entityType: preferences[i].EntityType, entityID: preferences[i].EntityID}
		if _, exists := o.preferences[key]; !exists {
			o.preferences[key] = &preferences[i]
		}
	}
	for i := range brandSettings {
		if _, exists := o.brandSettings[brandSettings[i].BrandID]; !exists {
			o.brandSettings[brandSettings[i].BrandID] = &brandSettings[i]
		}
	}
	for i := range customPrices {
		if _, exists := o.customPrices[customPrices[i].RepairPriceID]; !exists {
			o.customPrices[customPrices[i].RepairPriceID] = &customPrices[i]
		}
	}

	return o
}

// preference возвращает поля настройки или nil, если строки нет
func (o *overrides) preference(entityType models.EntityType, id string) (isActive *bool, margin *float64) {
	p, ok := o.preferences[prefKey{entityType: entityType, entityID: id}]
	if !ok {
		return nil, nil
	}
	return p.IsActive, p.DefaultMarginPercentage
}

func (o *overrides) brandSetting(brandID string) (isActive *bool, margin *float64) {
	s, ok := o.brandSettings[brandID]
	if !ok {
		return nil, nil
	}
	return s.IsActive, s.DefaultMarginPercentage
}
