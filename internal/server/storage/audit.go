package storage

import (
	"context"

	"github.com/iudanet/repairdesk/internal/models"
)

//go:generate moq -out audit_mock.go . AuditStorage

// AuditStorage defines interface for audit log persistence
type AuditStorage interface {
	// SaveAuditRecord appends a record to the log
	SaveAuditRecord(ctx context.Context, record *models.AuditRecord) error

	// ListAuditRecords returns latest records of the user, newest first
	ListAuditRecords(ctx context.Context, userID string, limit int) ([]*models.AuditRecord, error)
}
