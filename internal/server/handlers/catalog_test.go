package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/repairdesk/internal/models"
	"github.com/iudanet/repairdesk/internal/server/storage"
	"github.com/iudanet/repairdesk/pkg/api"
)

// mockCatalogStorage is a mock implementation of CatalogStorage for testing
type mockCatalogStorage struct {
	snapshots     map[string]*models.CatalogSnapshot // tenantID -> snapshot
	knownIDs      map[string]bool
	loadError     error
	upsertError   error
	brandSettings []models.BrandSetting
	preferences   []models.CatalogPreference
	customPrices  []models.CustomPrice
}

func (m *mockCatalogStorage) LoadSnapshot(ctx context.Context, tenantID string) (*models.CatalogSnapshot, error) {
	if m.loadError != nil {
		return nil, m.loadError
	}
	if s, ok := m.snapshots[tenantID]; ok {
		return s, nil
	}
	return &models.CatalogSnapshot{}, nil
}

func (m *mockCatalogStorage) ImportBaseCatalog(ctx context.Context, catalog *models.BaseCatalog) error {
	return nil
}

func (m *mockCatalogStorage) UpsertBrandSetting(ctx context.Context, tenantID string, setting models.BrandSetting) error {
	if err := m.check(setting.BrandID); err != nil {
		return err
	}
	m.brandSettings = append(m.brandSettings, setting)
	return nil
}

func (m *mockCatalogStorage) UpsertPreference(ctx context.Context, tenantID string, pref models.CatalogPreference) error {
	switch pref.EntityType {
	case models.EntityBrand, models.EntityDeviceModel, models.EntityRepairType:
	default:
		return fmt.Errorf("%q: %w", pref.EntityType, storage.ErrInvalidEntityType)
	}
	if err := m.check(pref.EntityID); err != nil {
		return err
	}
	m.preferences = append(m.preferences, pref)
	return nil
}

func (m *mockCatalogStorage) UpsertCustomPrice(ctx context.Context, tenantID string, price models.CustomPrice) error {
	if err := m.check(price.RepairPriceID); err != nil {
		return err
	}
	m.customPrices = append(m.customPrices, price)
	return nil
}

func (m *mockCatalogStorage) check(id string) error {
	if m.upsertError != nil {
		return m.upsertError
	}
	if !m.knownIDs[id] {
		return fmt.Errorf("%q: %w", id, storage.ErrNotFound)
	}
	return nil
}

// mockCatalogMetrics считает наблюдения
type mockCatalogMetrics struct {
	builds int
}

func (m *mockCatalogMetrics) ObserveCatalogBuild(time.Duration) { m.builds++ }

func withTenant(req *http.Request, tenantID string) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), TenantIDKey, tenantID))
}

func newCatalogRequest(method, target, body, tenantID string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if tenantID == "" {
		return req
	}
	return withTenant(req, tenantID)
}

func TestCatalogHandler_Tree(t *testing.T) {
	inactive := false
	snapshot := &models.CatalogSnapshot{
		BaseCatalog: models.BaseCatalog{
			Brands:      []models.Brand{{ID: "apple", Name: "Apple"}, {ID: "samsung", Name: "Samsung"}},
			Models:      []models.DeviceModel{{ID: "iphone-13", BrandID: "apple", ModelName: "iPhone 13"}},
			RepairTypes: []models.RepairType{{ID: "screen", Name: "Screen"}},
			BasePrices:  []models.BasePrice{{ID: "p1", DeviceModelID: "iphone-13", RepairTypeID: "screen", PriceEUR: 189}},
		},
		BrandSettings: []models.BrandSetting{{BrandID: "samsung", IsActive: &inactive}},
	}

	catalogStorage := &mockCatalogStorage{snapshots: map[string]*models.CatalogSnapshot{"repairer-42": snapshot}}
	metrics := &mockCatalogMetrics{}
	handler := NewCatalogHandler(setupTestLogger(), catalogStorage, metrics)

	w := httptest.NewRecorder()
	handler.Tree(w, newCatalogRequest(http.MethodGet, "/api/v1/catalog/tree", "", "repairer-42"))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp api.CatalogTreeResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Brands, 2)
	assert.Equal(t, "Apple", resp.Brands[0].Name)
	assert.True(t, resp.Brands[0].IsActive)
	require.Len(t, resp.Brands[0].Children, 1)
	require.Len(t, resp.Brands[0].Children[0].Prices, 1)
	assert.Equal(t, 189.0, resp.Brands[0].Children[0].Prices[0].BasePrice)
	assert.False(t, resp.Brands[1].IsActive)
	assert.Equal(t, 1, metrics.builds)
}

func TestCatalogHandler_Tree_Errors(t *testing.T) {
	t.Run("no tenant in context", func(t *testing.T) {
		handler := NewCatalogHandler(setupTestLogger(), &mockCatalogStorage{}, nil)
		w := httptest.NewRecorder()
		handler.Tree(w, newCatalogRequest(http.MethodGet, "/api/v1/catalog/tree", "", ""))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("storage failure", func(t *testing.T) {
		handler := NewCatalogHandler(setupTestLogger(), &mockCatalogStorage{loadError: errors.New("disk I/O error")}, nil)
		w := httptest.NewRecorder()
		handler.Tree(w, newCatalogRequest(http.MethodGet, "/api/v1/catalog/tree", "", "repairer-42"))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "disk I/O error")
	})

	t.Run("empty catalog", func(t *testing.T) {
		handler := NewCatalogHandler(setupTestLogger(), &mockCatalogStorage{}, nil)
		w := httptest.NewRecorder()
		handler.Tree(w, newCatalogRequest(http.MethodGet, "/api/v1/catalog/tree", "", "repairer-42"))
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"brands":[]}`, w.Body.String())
	})
}

func TestCatalogHandler_UpdateBrandSetting(t *testing.T) {
	tests := []struct {
		name       string
		brandID    string
		body       string
		tenantID   string
		upsertErr  error
		wantStatus int
	}{
		{name: "success", brandID: "apple", body: `{"is_active":false,"default_margin_percentage":15}`, tenantID: "repairer-42", wantStatus: http.StatusNoContent},
		{name: "null fields clear override", brandID: "apple", body: `{"is_active":null}`, tenantID: "repairer-42", wantStatus: http.StatusNoContent},
		{name: "unknown brand", brandID: "nokia", body: `{"is_active":true}`, tenantID: "repairer-42", wantStatus: http.StatusNotFound},
		{name: "negative margin", brandID: "apple", body: `{"default_margin_percentage":-5}`, tenantID: "repairer-42", wantStatus: http.StatusBadRequest},
		{name: "invalid json", brandID: "apple", body: `{`, tenantID: "repairer-42", wantStatus: http.StatusBadRequest},
		{name: "no tenant", brandID: "apple", body: `{}`, wantStatus: http.StatusUnauthorized},
		{name: "storage failure", brandID: "apple", body: `{}`, tenantID: "repairer-42", upsertErr: errors.New("locked"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalogStorage := &mockCatalogStorage{knownIDs: map[string]bool{"apple": true}, upsertError: tt.upsertErr}
			handler := NewCatalogHandler(setupTestLogger(), catalogStorage, nil)

			req := newCatalogRequest(http.MethodPut, "/api/v1/catalog/brands/"+tt.brandID+"/setting", tt.body, tt.tenantID)
			req.SetPathValue("brandID", tt.brandID)
			w := httptest.NewRecorder()

			handler.UpdateBrandSetting(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusNoContent {
				require.Len(t, catalogStorage.brandSettings, 1)
				assert.Equal(t, tt.brandID, catalogStorage.brandSettings[0].BrandID)
			}
		})
	}

	t.Run("stored values", func(t *testing.T) {
		catalogStorage := &mockCatalogStorage{knownIDs: map[string]bool{"apple": true}}
		handler := NewCatalogHandler(setupTestLogger(), catalogStorage, nil)

		req := newCatalogRequest(http.MethodPut, "/api/v1/catalog/brands/apple/setting", `{"is_active":false,"default_margin_percentage":12.5}`, "repairer-42")
		req.SetPathValue("brandID", "apple")
		handler.UpdateBrandSetting(httptest.NewRecorder(), req)

		require.Len(t, catalogStorage.brandSettings, 1)
		setting := catalogStorage.brandSettings[0]
		require.NotNil(t, setting.IsActive)
		assert.False(t, *setting.IsActive)
		require.NotNil(t, setting.DefaultMarginPercentage)
		assert.Equal(t, 12.5, *setting.DefaultMarginPercentage)
	})
}

func TestCatalogHandler_UpdatePreference(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "device model preference", body: `{"entity_type":"device_model","entity_id":"iphone-13","is_active":false}`, wantStatus: http.StatusNoContent},
		{name: "repair type margin", body: `{"entity_type":"repair_type","entity_id":"screen","default_margin_percentage":20}`, wantStatus: http.StatusNoContent},
		{name: "invalid entity type", body: `{"entity_type":"shop","entity_id":"iphone-13"}`, wantStatus: http.StatusBadRequest},
		{name: "missing entity id", body: `{"entity_type":"brand"}`, wantStatus: http.StatusBadRequest},
		{name: "unknown entity", body: `{"entity_type":"brand","entity_id":"nokia"}`, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalogStorage := &mockCatalogStorage{knownIDs: map[string]bool{"iphone-13": true, "screen": true}}
			handler := NewCatalogHandler(setupTestLogger(), catalogStorage, nil)

			w := httptest.NewRecorder()
			handler.UpdatePreference(w, newCatalogRequest(http.MethodPut, "/api/v1/catalog/preferences", tt.body, "repairer-42"))

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestCatalogHandler_UpdateCustomPrice(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "starting price", body: `{"custom_price_eur":149,"is_starting_price":true,"price_type":"starting_at"}`, wantStatus: http.StatusNoContent},
		{name: "margin only", body: `{"margin_percentage":10}`, wantStatus: http.StatusNoContent},
		{name: "invalid price type", body: `{"price_type":"hourly"}`, wantStatus: http.StatusBadRequest},
		{name: "negative price", body: `{"custom_price_eur":-1}`, wantStatus: http.StatusBadRequest},
		{name: "negative margin", body: `{"margin_percentage":-1}`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalogStorage := &mockCatalogStorage{knownIDs: map[string]bool{"p1": true}}
			handler := NewCatalogHandler(setupTestLogger(), catalogStorage, nil)

			req := newCatalogRequest(http.MethodPut, "/api/v1/catalog/prices/p1/custom", tt.body, "repairer-42")
			req.SetPathValue("priceID", "p1")
			w := httptest.NewRecorder()

			handler.UpdateCustomPrice(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}

	t.Run("unknown base price", func(t *testing.T) {
		handler := NewCatalogHandler(setupTestLogger(), &mockCatalogStorage{}, nil)

		req := newCatalogRequest(http.MethodPut, "/api/v1/catalog/prices/missing/custom", `{}`, "repairer-42")
		req.SetPathValue("priceID", "missing")
		w := httptest.NewRecorder()

		handler.UpdateCustomPrice(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
