package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/iudanet/repairdesk/internal/models"
)

// SaveAuditRecord appends audit record to the log
func (s *Storage) SaveAuditRecord(ctx context.Context, record *models.AuditRecord) error {
	query := `
		INSERT INTO audit_log (id, action, user_id, terminal_id, entry, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		record.ID,
		record.Action,
		record.UserID,
		record.TerminalID,
		record.Entry,
		record.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to save audit record: %w", err)
	}

	return nil
}

// ListAuditRecords returns latest audit records of the user, newest first
func (s *Storage) ListAuditRecords(ctx context.Context, userID string, limit int) ([]*models.AuditRecord, error) {
	if limit <= 0 {
		return []*models.AuditRecord{}, nil
	}

	query := `
		SELECT id, action, user_id, terminal_id, entry, created_at
		FROM audit_log
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit records: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	records := []*models.AuditRecord{}

	for rows.Next() {
		var (
			record    models.AuditRecord
			createdAt int64
		)
		if err := rows.Scan(
			&record.ID,
			&record.Action,
			&record.UserID,
			&record.TerminalID,
			&record.Entry,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		record.CreatedAt = time.UnixMilli(createdAt).UTC()
		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return records, nil
}
