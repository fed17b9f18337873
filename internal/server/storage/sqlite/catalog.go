package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iudanet/repairdesk/internal/models"
	"github.com/iudanet/repairdesk/internal/server/storage"
)

// LoadSnapshot returns base catalog and overrides of the tenant in insertion order
func (s *Storage) LoadSnapshot(ctx context.Context, tenantID string) (*models.CatalogSnapshot, error) {
	snapshot := &models.CatalogSnapshot{}

	loaders := []func(context.Context, *models.CatalogSnapshot, string) error{
		s.loadBrands,
		s.loadDeviceModels,
		s.loadRepairTypes,
		s.loadBasePrices,
		s.loadPreferences,
		s.loadBrandSettings,
		s.loadCustomPrices,
	}
	for _, load := range loaders {
		if err := load(ctx, snapshot, tenantID); err != nil {
			return nil, err
		}
	}

	return snapshot, nil
}

// ImportBaseCatalog inserts or updates base catalog rows in a single transaction.
// Existing rows keep their position, so repeated imports don't reorder the tree.
func (s *Storage) ImportBaseCatalog(ctx context.Context, catalog *models.BaseCatalog) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, b := range catalog.Brands {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO brands (id, name) VALUES (?, ?)
			ON CONFLICT(id) DO UPDATE SET name = excluded.name
		`, b.ID, b.Name); err != nil {
			return fmt.Errorf("failed to import brand %s: %w", b.ID, err)
		}
	}

	for _, m := range catalog.Models {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO device_models (id, brand_id, model_name) VALUES (?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET brand_id = excluded.brand_id, model_name = excluded.model_name
		`, m.ID, m.BrandID, m.ModelName); err != nil {
			return fmt.Errorf("failed to import device model %s: %w", m.ID, err)
		}
	}

	for _, rt := range catalog.RepairTypes {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO repair_types (id, name) VALUES (?, ?)
			ON CONFLICT(id) DO UPDATE SET name = excluded.name
		`, rt.ID, rt.Name); err != nil {
			return fmt.Errorf("failed to import repair type %s: %w", rt.ID, err)
		}
	}

	for _, p := range catalog.BasePrices {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO base_prices (id, device_model_id, repair_type_id, price_eur) VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				device_model_id = excluded.device_model_id,
				repair_type_id = excluded.repair_type_id,
				price_eur = excluded.price_eur
		`, p.ID, p.DeviceModelID, p.RepairTypeID, p.PriceEUR); err != nil {
			return fmt.Errorf("failed to import base price %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// UpsertBrandSetting creates or replaces tenant brand setting
func (s *Storage) UpsertBrandSetting(ctx context.Context, tenantID string, setting models.BrandSetting) error {
	if err := s.ensureExists(ctx, "brands", setting.BrandID); err != nil {
		return err
	}

	query := `
		INSERT INTO brand_settings (tenant_id, brand_id, is_active, default_margin_percentage)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(tenant_id, brand_id) DO UPDATE SET
			is_active = excluded.is_active,
			default_margin_percentage = excluded.default_margin_percentage
	`

	_, err := s.db.ExecContext(ctx, query,
		tenantID,
		setting.BrandID,
		nullBool(setting.IsActive),
		nullFloat(setting.DefaultMarginPercentage),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert brand setting: %w", err)
	}

	return nil
}

// UpsertPreference creates or replaces tenant preference for catalog entity
func (s *Storage) UpsertPreference(ctx context.Context, tenantID string, pref models.CatalogPreference) error {
	table, err := entityTable(pref.EntityType)
	if err != nil {
		return err
	}
	if err := s.ensureExists(ctx, table, pref.EntityID); err != nil {
		return err
	}

	query := `
		INSERT INTO catalog_preferences (tenant_id, entity_type, entity_id, is_active, default_margin_percentage)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(tenant_id, entity_type, entity_id) DO UPDATE SET
			is_active = excluded.is_active,
			default_margin_percentage = excluded.default_margin_percentage
	`

	_, err = s.db.ExecContext(ctx, query,
		tenantID,
		string(pref.EntityType),
		pref.EntityID,
		nullBool(pref.IsActive),
		nullFloat(pref.DefaultMarginPercentage),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert preference: %w", err)
	}

	return nil
}

// UpsertCustomPrice creates or replaces tenant custom price
func (s *Storage) UpsertCustomPrice(ctx context.Context, tenantID string, price models.CustomPrice) error {
	if err := s.ensureExists(ctx, "base_prices", price.RepairPriceID); err != nil {
		return err
	}

	query := `
		INSERT INTO custom_prices (tenant_id, repair_price_id, custom_price_eur, is_starting_price, margin_percentage, price_type)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(tenant_id, repair_price_id) DO UPDATE SET
			custom_price_eur = excluded.custom_price_eur,
			is_starting_price = excluded.is_starting_price,
			margin_percentage = excluded.margin_percentage,
			price_type = excluded.price_type
	`

	priceType := sql.NullString{String: string(price.PriceType), Valid: price.PriceType != ""}

	_, err := s.db.ExecContext(ctx, query,
		tenantID,
		price.RepairPriceID,
		nullFloat(price.CustomPriceEUR),
		nullBool(price.IsStartingPrice),
		nullFloat(price.MarginPercentage),
		priceType,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert custom price: %w", err)
	}

	return nil
}

func (s *Storage) loadBrands(ctx context.Context, snapshot *models.CatalogSnapshot, _ string) error {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM brands ORDER BY rowid`)
	if err != nil {
		return fmt.Errorf("failed to query brands: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var b models.Brand
		if err := rows.Scan(&b.ID, &b.Name); err != nil {
			return fmt.Errorf("failed to scan brand: %w", err)
		}
		snapshot.Brands = append(snapshot.Brands, b)
	}

	return rowsErr(rows)
}

func (s *Storage) loadDeviceModels(ctx context.Context, snapshot *models.CatalogSnapshot, _ string) error {
	rows, err := s.db.QueryContext(ctx, `SELECT id, brand_id, model_name FROM device_models ORDER BY rowid`)
	if err != nil {
		return fmt.Errorf("failed to query device models: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var m models.DeviceModel
		if err := rows.Scan(&m.ID, &m.BrandID, &m.ModelName); err != nil {
			return fmt.Errorf("failed to scan device model: %w", err)
		}
		snapshot.Models = append(snapshot.Models, m)
	}

	return rowsErr(rows)
}

func (s *Storage) loadRepairTypes(ctx context.Context, snapshot *models.CatalogSnapshot, _ string) error {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM repair_types ORDER BY rowid`)
	if err != nil {
		return fmt.Errorf("failed to query repair types: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var rt models.RepairType
		if err := rows.Scan(&rt.ID, &rt.Name); err != nil {
			return fmt.Errorf("failed to scan repair type: %w", err)
		}
		snapshot.RepairTypes = append(snapshot.RepairTypes, rt)
	}

	return rowsErr(rows)
}

func (s *Storage) loadBasePrices(ctx context.Context, snapshot *models.CatalogSnapshot, _ string) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, device_model_id, repair_type_id, price_eur
		FROM base_prices
		ORDER BY rowid
	`)
	if err != nil {
		return fmt.Errorf("failed to query base prices: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var p models.BasePrice
		if err := rows.Scan(&p.ID, &p.DeviceModelID, &p.RepairTypeID, &p.PriceEUR); err != nil {
			return fmt.Errorf("failed to scan base price: %w", err)
		}
		snapshot.BasePrices = append(snapshot.BasePrices, p)
	}

	return rowsErr(rows)
}

func (s *Storage) loadPreferences(ctx context.Context, snapshot *models.CatalogSnapshot, tenantID string) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT entity_type, entity_id, is_active, default_margin_percentage
		FROM catalog_preferences
		WHERE tenant_id = ?
		ORDER BY rowid
	`, tenantID)
	if err != nil {
		return fmt.Errorf("failed to query preferences: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var (
			pref       models.CatalogPreference
			entityType string
			isActive   sql.NullBool
			margin     sql.NullFloat64
		)
		if err := rows.Scan(&entityType, &pref.EntityID, &isActive, &margin); err != nil {
			return fmt.Errorf("failed to scan preference: %w", err)
		}
		pref.EntityType = models.EntityType(entityType)
		pref.IsActive = boolPtr(isActive)
		pref.DefaultMarginPercentage = floatPtr(margin)
		snapshot.Preferences = append(snapshot.Preferences, pref)
	}

	return rowsErr(rows)
}

func (s *Storage) loadBrandSettings(ctx context.Context, snapshot *models.CatalogSnapshot, tenantID string) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT brand_id, is_active, default_margin_percentage
		FROM brand_settings
		WHERE tenant_id = ?
		ORDER BY rowid
	`, tenantID)
	if err != nil {
		return fmt.Errorf("failed to query brand settings: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var (
			setting  models.BrandSetting
			isActive sql.NullBool
			margin   sql.NullFloat64
		)
		if err := rows.Scan(&setting.BrandID, &isActive, &margin); err != nil {
			return fmt.Errorf("failed to scan brand setting: %w", err)
		}
		setting.IsActive = boolPtr(isActive)
		setting.DefaultMarginPercentage = floatPtr(margin)
		snapshot.BrandSettings = append(snapshot.BrandSettings, setting)
	}

	return rowsErr(rows)
}

func (s *Storage) loadCustomPrices(ctx context.Context, snapshot *models.CatalogSnapshot, tenantID string) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT repair_price_id, custom_price_eur, is_starting_price, margin_percentage, price_type
		FROM custom_prices
		WHERE tenant_id = ?
		ORDER BY rowid
	`, tenantID)
	if err != nil {
		return fmt.Errorf("failed to query custom prices: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var (
			price     models.CustomPrice
			custom    sql.NullFloat64
			starting  sql.NullBool
			margin    sql.NullFloat64
			priceType sql.NullString
		)
		if err := rows.Scan(&price.RepairPriceID, &custom, &starting, &margin, &priceType); err != nil {
			return fmt.Errorf("failed to scan custom price: %w", err)
		}
		price.CustomPriceEUR = floatPtr(custom)
		price.IsStartingPrice = boolPtr(starting)
		price.MarginPercentage = floatPtr(margin)
		price.PriceType = models.PriceType(priceType.String)
		snapshot.CustomPrices = append(snapshot.CustomPrices, price)
	}

	return rowsErr(rows)
}

// ensureExists проверяет наличие строки с id в таблице каталога.
// table всегда константа из этого пакета.
func (s *Storage) ensureExists(ctx context.Context, table, id string) error {
	var found int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM "+table+" WHERE id = ?", id).Scan(&found)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%s %q: %w", table, id, storage.ErrNotFound)
		}
		return fmt.Errorf("failed to check %s: %w", table, err)
	}

	return nil
}

func entityTable(entityType models.EntityType) (string, error) {
	switch entityType {
	case models.EntityBrand:
		return "brands", nil
	case models.EntityDeviceModel:
		return "device_models", nil
	case models.EntityRepairType:
		return "repair_types", nil
	default:
		return "", fmt.Errorf("%q: %w", entityType, storage.ErrInvalidEntityType)
	}
}

func rowsErr(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows iteration error: %w", err)
	}
	return nil
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func boolPtr(b sql.NullBool) *bool {
	if !b.Valid {
		return nil
	}
	return &b.Bool
}

func floatPtr(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	return &f.Float64
}
