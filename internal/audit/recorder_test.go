package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/service-marketplace/service-marketplace/internal/db/models"
)

// captureStore records appends in memory; fail makes every append error.
type captureStore struct {
	entries []*models.AuditLog
	fail    bool
}

func (s *captureStore) AppendAuditLog(_ context.Context, entry *models.AuditLog) error {
	if s.fail {
		return errors.New("append failed")
	}
	s.entries = append(s.entries, entry)
	return nil
}

func TestRecord(t *testing.T) {
	st := &captureStore{}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rec := NewRecorder(st).WithClock(func() time.Time { return now })

	actor := Actor{ID: "user-admin", Name: "Platform Admin", Role: models.RoleAdmin}
	rec.Record(context.Background(), actor, models.ActionMerchantApproved, "user-acme", models.TargetUser, "Approved merchant onboarding")

	require.Len(t, st.entries, 1)
	entry := st.entries[0]
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, models.ActionMerchantApproved, entry.Action)
	assert.Equal(t, "user-admin", entry.ActorID)
	assert.Equal(t, "Platform Admin", entry.ActorName)
	assert.Equal(t, models.RoleAdmin, entry.ActorRole)
	assert.Equal(t, "user-acme", entry.TargetID)
	assert.Equal(t, models.TargetUser, entry.TargetType)
	assert.Equal(t, "Approved merchant onboarding", entry.Description)
	assert.True(t, entry.Timestamp.Equal(now))
}

func TestRecord_UniqueIDs(t *testing.T) {
	st := &captureStore{}
	rec := NewRecorder(st)
	actor := Actor{ID: "user-admin", Role: models.RoleAdmin}

	rec.Record(context.Background(), actor, models.ActionMerchantFlagged, "a", models.TargetUser, "")
	rec.Record(context.Background(), actor, models.ActionMerchantFlagged, "a", models.TargetUser, "")

	require.Len(t, st.entries, 2)
	assert.NotEqual(t, st.entries[0].ID, st.entries[1].ID)
}

func TestRecord_AppendFailureSwallowed(t *testing.T) {
	st := &captureStore{fail: true}
	rec := NewRecorder(st)

	// Must not panic or surface the error; the caller's mutation stands.
	rec.Record(context.Background(), PlatformActor, models.ActionAPIKeyRevoked, "key-1", models.TargetAPIKey, "Revoked API key")
	assert.Empty(t, st.entries)
}
