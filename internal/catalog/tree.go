// Package catalog собирает дерево каталога цен Brand → DeviceModel → RepairType
// из глобального каталога и tenant-переопределений.
package catalog

import "github.com/iudanet/repairdesk/internal/models"

// BuildTree строит дерево каталога для одного tenant.
//
// Порядок переопределений (от высшего приоритета):
// специфичная настройка (BrandSetting для брендов, CustomPrice для цен),
// затем CatalogPreference сущности, затем значения по умолчанию
// (активна, без наценки, без кастомной цены).
//
// Функция не изменяет входные данные и не выполняет I/O.
// Порядок брендов, моделей и типов ремонта совпадает с порядком входных срезов.
// Строки с битыми внешними ключами просто не попадают в дерево.
func BuildTree(
	brands []models.Brand,
	deviceModels []models.DeviceModel,
	repairTypes []models.RepairType,
	basePrices []models.BasePrice,
	preferences []models.CatalogPreference,
	brandSettings []models.BrandSetting,
	customPrices []models.CustomPrice,
) []models.CatalogTreeNode {
	o := indexOverrides(preferences, brandSettings, customPrices)

	// Индекс базовых цен по паре (модель, тип ремонта)
	prices := make(map[[2]string]*models.BasePrice, len(basePrices))
	for i := range basePrices {
		key := [2]string{basePrices[i].DeviceModelID, basePrices[i].RepairTypeID}
		if _, exists := prices[key]; !exists {
			prices[key] = &basePrices[i]
		}
	}

	tree := make([]models.CatalogTreeNode, 0, len(brands))
	for _, brand := range brands {
		tree = append(tree, buildBrandNode(brand, deviceModels, repairTypes, prices, o))
	}

	return tree
}

// BuildTreeFromSnapshot строит дерево из снимка строк хранилища
func BuildTreeFromSnapshot(s *models.CatalogSnapshot) []models.CatalogTreeNode {
	if s == nil {
		return []models.CatalogTreeNode{}
	}
	return BuildTree(s.Brands, s.Models, s.RepairTypes, s.BasePrices, s.Preferences, s.BrandSettings, s.CustomPrices)
}

func buildBrandNode(
	brand models.Brand,
	deviceModels []models.DeviceModel,
	repairTypes []models.RepairType,
	prices map[[2]string]*models.BasePrice,
	o *overrides,
) models.CatalogTreeNode {
	settingActive, settingMargin := o.brandSetting(brand.ID)
	prefActive, prefMargin := o.preference(models.EntityBrand, brand.ID)

	node := models.CatalogTreeNode{
		ID:               brand.ID,
		Name:             brand.Name,
		Type:             models.EntityBrand,
		IsActive:         activeOrDefault(settingActive, prefActive),
		MarginPercentage: firstFloat(settingMargin, prefMargin),
	}

	for _, m := range deviceModels {
		if m.BrandID != brand.ID {
			continue
		}
		node.Children = append(node.Children, buildModelNode(m, repairTypes, prices, o))
	}

	return node
}

func buildModelNode(
	m models.DeviceModel,
	repairTypes []models.RepairType,
	prices map[[2]string]*models.BasePrice,
	o *overrides,
) models.CatalogTreeNode {
	// У моделей нет отдельного уровня "settings", только CatalogPreference
	prefActive, prefMargin := o.preference(models.EntityDeviceModel, m.ID)

	node := models.CatalogTreeNode{
		ID:               m.ID,
		Name:             m.ModelName,
		Type:             models.EntityDeviceModel,
		IsActive:         activeOrDefault(prefActive),
		MarginPercentage: firstFloat(prefMargin),
	}

	for _, rt := range repairTypes {
		bp, ok := prices[[2]string{m.ID, rt.ID}]
		if !ok {
			continue
		}
		node.Prices = append(node.Prices, buildPriceNode(bp, rt, o))
	}

	return node
}

func buildPriceNode(bp *models.BasePrice, rt models.RepairType, o *overrides) models.PriceNode {
	// Настройка типа ремонта глобальна: действует для всех моделей
	prefActive, prefMargin := o.preference(models.EntityRepairType, rt.ID)

	node := models.PriceNode{
		ID:               bp.ID,
		Name:             rt.Name,
		BasePrice:        bp.PriceEUR,
		PriceType:        models.PriceFixed,
		IsActive:         activeOrDefault(prefActive),
		MarginPercentage: firstFloat(prefMargin),
	}

	custom, ok := o.customPrices[bp.ID]
	if !ok {
		return node
	}

	node.HasCustomPrice = true
	node.CustomPrice = firstFloat(custom.CustomPriceEUR)
	if custom.PriceType != "" {
		node.PriceType = custom.PriceType
	}
	node.IsStartingPrice, _ = firstBool(custom.IsStartingPrice)
	node.MarginPercentage = firstFloat(custom.MarginPercentage, prefMargin)

	return node
}
