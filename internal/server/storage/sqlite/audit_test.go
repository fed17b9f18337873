package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/repairdesk/internal/models"
)

func TestAuditStorage_SaveAndList(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	base := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

	for i := range 5 {
		record := &models.AuditRecord{
			ID:         uuid.New().String(),
			Action:     fmt.Sprintf("action-%d", i),
			UserID:     "operator-1",
			TerminalID: "POS-01",
			Entry:      `{"action":"action"}`,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, s.SaveAuditRecord(ctx, record))
	}
	require.NoError(t, s.SaveAuditRecord(ctx, &models.AuditRecord{
		ID:         uuid.New().String(),
		Action:     "other",
		UserID:     "operator-2",
		TerminalID: "POS-02",
		Entry:      "{}",
		CreatedAt:  base,
	}))

	tests := []struct {
		name        string
		userID      string
		limit       int
		wantActions []string
	}{
		{
			name:        "newest first with limit",
			userID:      "operator-1",
			limit:       3,
			wantActions: []string{"action-4", "action-3", "action-2"},
		},
		{
			name:        "limit larger than log",
			userID:      "operator-2",
			limit:       10,
			wantActions: []string{"other"},
		},
		{
			name:        "unknown user",
			userID:      "nobody",
			limit:       10,
			wantActions: []string{},
		},
		{
			name:        "zero limit",
			userID:      "operator-1",
			limit:       0,
			wantActions: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := s.ListAuditRecords(ctx, tt.userID, tt.limit)
			require.NoError(t, err)
			require.NotNil(t, records)

			actions := make([]string, 0, len(records))
			for _, r := range records {
				actions = append(actions, r.Action)
				assert.Equal(t, tt.userID, r.UserID)
			}
			assert.Equal(t, tt.wantActions, actions)
		})
	}

	records, err := s.ListAuditRecords(ctx, "operator-1", 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, base.Add(4*time.Minute).Equal(records[0].CreatedAt))
	assert.Equal(t, "POS-01", records[0].TerminalID)
}

func TestAuditStorage_DuplicateID(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	record := &models.AuditRecord{ID: "fixed", Action: "a", UserID: "u", TerminalID: "t", Entry: "{}", CreatedAt: time.Now()}
	require.NoError(t, s.SaveAuditRecord(ctx, record))
	assert.Error(t, s.SaveAuditRecord(ctx, record), "записи аудита не перезаписываются")
}
