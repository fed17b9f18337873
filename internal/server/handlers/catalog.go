package handlers

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/iudanet/repairdesk/internal/catalog"
	"github.com/iudanet/repairdesk/internal/models"
	"github.com/iudanet/repairdesk/internal/server/storage"
	"github.com/iudanet/repairdesk/pkg/api"
)

// CatalogMetrics метрики построения дерева каталога
type CatalogMetrics interface {
	ObserveCatalogBuild(duration time.Duration)
}

// CatalogHandler обрабатывает запросы к прайс-каталогу tenant
type CatalogHandler struct {
	logger  *slog.Logger
	storage storage.CatalogStorage
	metrics CatalogMetrics
}

// NewCatalogHandler создает новый handler каталога
func NewCatalogHandler(logger *slog.Logger, catalogStorage storage.CatalogStorage, metrics CatalogMetrics) *CatalogHandler {
	return &CatalogHandler{
		logger:  logger,
		storage: catalogStorage,
		metrics: metrics,
	}
}

// Tree обрабатывает GET /api/v1/catalog/tree
// Собирает дерево бренд -> модель -> цена с учетом настроек tenant
func (h *CatalogHandler) Tree(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, ok := GetTenantID(ctx)
	if !ok {
		sendError(w, h.logger, "unauthorized", http.StatusUnauthorized)
		return
	}

	snapshot, err := h.storage.LoadSnapshot(ctx, tenantID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load catalog snapshot", slog.String("tenant_id", tenantID), slog.Any("error", err))
		sendError(w, h.logger, "internal server error", http.StatusInternalServerError)
		return
	}

	start := time.Now()
	tree := catalog.BuildTreeFromSnapshot(snapshot)
	if h.metrics != nil {
		h.metrics.ObserveCatalogBuild(time.Since(start))
	}

	h.logger.DebugContext(ctx, "catalog tree built",
		slog.String("tenant_id", tenantID),
		slog.Int("brands", len(tree)))

	sendJSON(w, h.logger, api.CatalogTreeResponse{Brands: tree}, http.StatusOK)
}

// UpdateBrandSetting обрабатывает PUT /api/v1/catalog/brands/{brandID}/setting
func (h *CatalogHandler) UpdateBrandSetting(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, ok := GetTenantID(ctx)
	if !ok {
		sendError(w, h.logger, "unauthorized", http.StatusUnauthorized)
		return
	}

	brandID := r.PathValue("brandID")
	if brandID == "" {
		sendError(w, h.logger, "brand id is required", http.StatusBadRequest)
		return
	}

	var req api.BrandSettingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode brand setting request", slog.Any("error", err))
		sendError(w, h.logger, "invalid request body", http.StatusBadRequest)
		return
	}

	if msg := checkMargin(req.DefaultMarginPercentage); msg != "" {
		sendError(w, h.logger, msg, http.StatusBadRequest)
		return
	}

	setting := models.BrandSetting{
		BrandID:                 brandID,
		IsActive:                req.IsActive,
		DefaultMarginPercentage: req.DefaultMarginPercentage,
	}

	if err := h.storage.UpsertBrandSetting(ctx, tenantID, setting); err != nil {
		h.storageError(w, r, "brand setting", err)
		return
	}

	h.logger.InfoContext(ctx, "brand setting updated",
		slog.String("tenant_id", tenantID),
		slog.String("brand_id", brandID))

	w.WriteHeader(http.StatusNoContent)
}

// UpdatePreference обрабатывает PUT /api/v1/catalog/preferences
func (h *CatalogHandler) UpdatePreference(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, ok := GetTenantID(ctx)
	if !ok {
		sendError(w, h.logger, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.PreferenceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode preference request", slog.Any("error", err))
		sendError(w, h.logger, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.EntityID == "" {
		sendError(w, h.logger, "entity_id is required", http.StatusBadRequest)
		return
	}
	if msg := checkMargin(req.DefaultMarginPercentage); msg != "" {
		sendError(w, h.logger, msg, http.StatusBadRequest)
		return
	}

	pref := models.CatalogPreference{
		EntityType:              models.EntityType(req.EntityType),
		EntityID:                req.EntityID,
		IsActive:                req.IsActive,
		DefaultMarginPercentage: req.DefaultMarginPercentage,
	}

	if err := h.storage.UpsertPreference(ctx, tenantID, pref); err != nil {
		h.storageError(w, r, "preference", err)
		return
	}

	h.logger.InfoContext(ctx, "catalog preference updated",
		slog.String("tenant_id", tenantID),
		slog.String("entity_type", req.EntityType),
		slog.String("entity_id", req.EntityID))

	w.WriteHeader(http.StatusNoContent)
}

// UpdateCustomPrice обрабатывает PUT /api/v1/catalog/prices/{priceID}/custom
func (h *CatalogHandler) UpdateCustomPrice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, ok := GetTenantID(ctx)
	if !ok {
		sendError(w, h.logger, "unauthorized", http.StatusUnauthorized)
		return
	}

	priceID := r.PathValue("priceID")
	if priceID == "" {
		sendError(w, h.logger, "price id is required", http.StatusBadRequest)
		return
	}

	var req api.CustomPriceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode custom price request", slog.Any("error", err))
		sendError(w, h.logger, "invalid request body", http.StatusBadRequest)
		return
	}

	switch models.PriceType(req.PriceType) {
	case "", models.PriceFixed, models.PriceStartingAt:
	default:
		sendError(w, h.logger, "price_type must be fixed or starting_at", http.StatusBadRequest)
		return
	}
	if req.CustomPriceEUR != nil && (*req.CustomPriceEUR < 0 || math.IsInf(*req.CustomPriceEUR, 0)) {
		sendError(w, h.logger, "custom_price_eur must not be negative", http.StatusBadRequest)
		return
	}
	if msg := checkMargin(req.MarginPercentage); msg != "" {
		sendError(w, h.logger, msg, http.StatusBadRequest)
		return
	}

	price := models.CustomPrice{
		RepairPriceID:    priceID,
		CustomPriceEUR:   req.CustomPriceEUR,
		IsStartingPrice:  req.IsStartingPrice,
		MarginPercentage: req.MarginPercentage,
		PriceType:        models.PriceType(req.PriceType),
	}

	if err := h.storage.UpsertCustomPrice(ctx, tenantID, price); err != nil {
		h.storageError(w, r, "custom price", err)
		return
	}

	h.logger.InfoContext(ctx, "custom price updated",
		slog.String("tenant_id", tenantID),
		slog.String("price_id", priceID))

	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) storageError(w http.ResponseWriter, r *http.Request, what string, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		h.logger.WarnContext(r.Context(), what+" target not found", slog.Any("error", err))
		sendError(w, h.logger, err.Error(), http.StatusNotFound)
	case errors.Is(err, storage.ErrInvalidEntityType):
		sendError(w, h.logger, "entity_type must be brand, device_model or repair_type", http.StatusBadRequest)
	default:
		h.logger.ErrorContext(r.Context(), "failed to update "+what, slog.Any("error", err))
		sendError(w, h.logger, "internal server error", http.StatusInternalServerError)
	}
}

// checkMargin наценка в процентах: не отрицательная и конечная
func checkMargin(margin *float64) string {
	if margin == nil {
		return ""
	}
	if *margin < 0 || math.IsInf(*margin, 0) || math.IsNaN(*margin) {
		return "margin percentage must not be negative"
	}
	return ""
}
