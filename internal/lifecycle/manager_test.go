package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/service-marketplace/service-marketplace/internal/audit"
	"github.com/service-marketplace/service-marketplace/internal/db/models"
	"github.com/service-marketplace/service-marketplace/internal/store"
)

var (
	adminActor = audit.Actor{ID: "user-admin", Name: "Platform Admin", Role: models.RoleAdmin}
	acmeActor  = audit.Actor{ID: "user-acme", Name: "Acme Ops", Role: models.RoleMerchant}
)

// testManager seeds a fresh in-memory store and pins the engine clock.
func testManager(t *testing.T) (*Manager, *store.Memory, time.Time) {
	t.Helper()
	st := store.NewMemory()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Seed(context.Background(), st, now))
	m := NewManager(st, audit.NewRecorder(st)).WithClock(func() time.Time { return now })
	return m, st, now
}

// auditEntries returns the full trail, newest first.
func auditEntries(t *testing.T, st store.Store) []*models.AuditLog {
	t.Helper()
	entries, _, err := st.ListAuditLogs(context.Background(), store.AuditFilter{}, 0, 0)
	require.NoError(t, err)
	return entries
}
