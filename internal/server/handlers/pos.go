package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/repairdesk/internal/models"
	"github.com/iudanet/repairdesk/internal/security"
	"github.com/iudanet/repairdesk/internal/server/storage"
	"github.com/iudanet/repairdesk/internal/validation"
	"github.com/iudanet/repairdesk/pkg/api"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// SessionService выпуск сессий и записей аудита POS-терминала
type SessionService interface {
	CreateSecureSession(userID, terminalID string) (string, error)
	ValidateSession(token string) security.SessionValidation
	CreateAuditEntry(action, userID string, data map[string]any) (string, error)
	SessionTTL() time.Duration
}

// SessionMetrics метрики сессий
type SessionMetrics interface {
	IncSession(operation string, ok bool)
}

// POSHandler обрабатывает запросы POS-терминалов
type POSHandler struct {
	logger   *slog.Logger
	sessions SessionService
	audit    storage.AuditStorage
	metrics  SessionMetrics
	now      func() time.Time
}

// NewPOSHandler создает новый handler POS-терминалов
func NewPOSHandler(logger *slog.Logger, sessions SessionService, audit storage.AuditStorage, metrics SessionMetrics) *POSHandler {
	return &POSHandler{
		logger:   logger,
		sessions: sessions,
		audit:    audit,
		metrics:  metrics,
		now:      time.Now,
	}
}

// StartSession обрабатывает POST /api/v1/pos/sessions
// Выпускает токен сессии терминала для tenant из JWT
func (h *POSHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, ok := GetTenantID(ctx)
	if !ok {
		sendError(w, h.logger, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.StartSessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode session request", slog.Any("error", err))
		sendError(w, h.logger, "invalid request body", http.StatusBadRequest)
		return
	}

	// Идентификатор терминала приходит от клиента, формат проверяется здесь
	if err := validation.ValidateTerminalID(req.TerminalID); err != nil {
		h.observeSession("issue", false)
		sendError(w, h.logger, err.Error(), http.StatusBadRequest)
		return
	}

	token, err := h.sessions.CreateSecureSession(tenantID, req.TerminalID)
	if err != nil {
		h.observeSession("issue", false)
		h.logger.WarnContext(ctx, "session rejected",
			slog.String("tenant_id", tenantID),
			slog.Any("error", err))
		sendError(w, h.logger, err.Error(), http.StatusBadRequest)
		return
	}
	h.observeSession("issue", true)

	h.logger.InfoContext(ctx, "pos session started",
		slog.String("tenant_id", tenantID),
		slog.String("terminal_id", req.TerminalID))

	resp := api.SessionResponse{
		Token:      token,
		UserID:     tenantID,
		TerminalID: req.TerminalID,
		ExpiresAt:  h.now().Add(h.sessions.SessionTTL()).UTC(),
	}

	sendJSON(w, h.logger, resp, http.StatusCreated)
}

// CurrentSession обрабатывает GET /api/v1/pos/sessions/current
func (h *POSHandler) CurrentSession(w http.ResponseWriter, r *http.Request) {
	session, ok := GetSession(r.Context())
	if !ok {
		sendError(w, h.logger, "invalid session", http.StatusUnauthorized)
		return
	}

	issuedAt := time.UnixMilli(session.Timestamp).UTC()
	resp := api.CurrentSessionResponse{
		UserID:     session.UserID,
		TerminalID: session.TerminalID,
		IssuedAt:   issuedAt,
		ExpiresAt:  issuedAt.Add(h.sessions.SessionTTL()),
	}

	sendJSON(w, h.logger, resp, http.StatusOK)
}

// ValidateTransaction обрабатывает POST /api/v1/pos/transactions/validate
func (h *POSHandler) ValidateTransaction(w http.ResponseWriter, r *http.Request) {
	h.validate(w, r, validation.TransactionRules())
}

// ValidateCustomer обрабатывает POST /api/v1/pos/customers/validate
func (h *POSHandler) ValidateCustomer(w http.ResponseWriter, r *http.Request) {
	h.validate(w, r, validation.CustomerRules())
}

func (h *POSHandler) validate(w http.ResponseWriter, r *http.Request, rules []validation.Rule) {
	ctx := r.Context()

	var data map[string]any
	if err := decodeJSON(w, r, &data); err != nil {
		h.logger.WarnContext(ctx, "failed to decode validation request", slog.Any("error", err))
		sendError(w, h.logger, "invalid request body", http.StatusBadRequest)
		return
	}

	result := validation.Validate(data, rules)
	resp := api.ValidationResponse{
		IsValid: result.IsValid,
		Errors:  result.Errors,
	}

	if !result.IsValid {
		h.logger.DebugContext(ctx, "validation failed", slog.Int("errors", len(result.Errors)))
		sendJSON(w, h.logger, resp, http.StatusUnprocessableEntity)
		return
	}

	sendJSON(w, h.logger, resp, http.StatusOK)
}

// RecordAudit обрабатывает POST /api/v1/pos/audit
// Чувствительные поля скрываются до сохранения
func (h *POSHandler) RecordAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	session, ok := GetSession(ctx)
	if !ok {
		sendError(w, h.logger, "invalid session", http.StatusUnauthorized)
		return
	}

	var req api.AuditRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode audit request", slog.Any("error", err))
		sendError(w, h.logger, "invalid request body", http.StatusBadRequest)
		return
	}

	entry, err := h.sessions.CreateAuditEntry(req.Action, session.UserID, req.Data)
	if err != nil {
		sendError(w, h.logger, err.Error(), http.StatusBadRequest)
		return
	}

	record := &models.AuditRecord{
		ID:         uuid.New().String(),
		Action:     req.Action,
		UserID:     session.UserID,
		TerminalID: session.TerminalID,
		Entry:      entry,
		CreatedAt:  h.now().UTC(),
	}

	if err := h.audit.SaveAuditRecord(ctx, record); err != nil {
		h.logger.ErrorContext(ctx, "failed to save audit record", slog.Any("error", err))
		sendError(w, h.logger, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "audit recorded",
		slog.String("action", req.Action),
		slog.String("user_id", session.UserID),
		slog.String("terminal_id", session.TerminalID))

	sendJSON(w, h.logger, api.AuditResponse{ID: record.ID, Entry: entry}, http.StatusCreated)
}

// ListAudit обрабатывает GET /api/v1/pos/audit?limit=N
// Возвращает последние записи оператора текущей сессии
func (h *POSHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	session, ok := GetSession(ctx)
	if !ok {
		sendError(w, h.logger, "invalid session", http.StatusUnauthorized)
		return
	}

	limit := defaultAuditLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			sendError(w, h.logger, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxAuditLimit)
	}

	records, err := h.audit.ListAuditRecords(ctx, session.UserID, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list audit records", slog.Any("error", err))
		sendError(w, h.logger, "internal server error", http.StatusInternalServerError)
		return
	}

	sendJSON(w, h.logger, api.AuditListResponse{Records: records}, http.StatusOK)
}

func (h *POSHandler) observeSession(operation string, ok bool) {
	if h.metrics != nil {
		h.metrics.IncSession(operation, ok)
	}
}
