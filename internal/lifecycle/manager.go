// Package lifecycle implements the guarded state machines for merchants,
// consumers, services, access requests, and docker images, including the
// cascading effects a primary transition triggers on related entities.
//
// Guard failures are expected control flow, not errors: every transition
// returns a nil (or zero) sentinel when the target is missing or not in the
// required source state, with no state change and no audit entry. An error
// return always means the store itself failed. Re-invoking a transition that
// already fired is therefore a safe no-op.
package lifecycle

import (
	"context"
	"sync"
	"time"

	"github.com/service-marketplace/service-marketplace/internal/audit"
	"github.com/service-marketplace/service-marketplace/internal/db/models"
	"github.com/service-marketplace/service-marketplace/internal/store"
	"github.com/service-marketplace/service-marketplace/internal/telemetry"
)

// Manager executes lifecycle transitions. Every exported operation runs under
// one mutex so its check-then-act guard sequence is atomic; in the Postgres
// deployment the same property should eventually move into transactions, but
// the engine-level lock keeps the mocked backend honest under concurrency.
type Manager struct {
	mu    sync.Mutex
	store store.Store
	rec   *audit.Recorder
	now   func() time.Time
}

// NewManager creates a lifecycle Manager.
func NewManager(st store.Store, rec *audit.Recorder) *Manager {
	return &Manager{store: st, rec: rec, now: time.Now}
}

// WithClock overrides the manager's clock. Tests only.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// record writes the audit entry for a transition that fired and bumps the
// transition counter. Mutations are already persisted by the time this runs.
func (m *Manager) record(ctx context.Context, actor audit.Actor, action models.AuditAction, targetID string, targetType models.TargetType, desc string) {
	telemetry.LifecycleTransitionsTotal.WithLabelValues(string(action)).Inc()
	m.rec.Record(ctx, actor, action, targetID, targetType, desc)
}
