// Package audit appends entries to the marketplace's immutable audit trail.
//
// Audit records are separate from application logs: application logs are
// ephemeral debug output, while the audit trail is data — queried by the admin
// dashboard and subject to the same append-only rule as every other
// collection. The recorder is best-effort by contract: the primary state
// mutation always happens first, the append second, and an append failure is
// logged and swallowed so it can never roll back or block the mutation.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/service-marketplace/service-marketplace/internal/db/models"
	"github.com/service-marketplace/service-marketplace/internal/telemetry"
)

// Actor identifies who performed a mutation, for attribution.
type Actor struct {
	ID   string
	Name string
	Role models.Role
}

// PlatformActor attributes cascades the platform performs on its own behalf,
// such as key revocation when a consumer is blocked.
var PlatformActor = Actor{ID: "platform", Name: "Platform", Role: models.RoleAdmin}

// Store is the slice of the persistence surface the recorder needs.
type Store interface {
	AppendAuditLog(ctx context.Context, entry *models.AuditLog) error
}

// Recorder appends audit entries.
type Recorder struct {
	store Store
	now   func() time.Time
}

// NewRecorder creates a Recorder backed by the given store.
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store, now: time.Now}
}

// WithClock overrides the recorder's clock. Tests only.
func (r *Recorder) WithClock(now func() time.Time) *Recorder {
	r.now = now
	return r
}

// Record appends one audit entry. Failures are logged, counted, and
// swallowed; the caller's mutation has already happened and must stand.
func (r *Recorder) Record(ctx context.Context, actor Actor, action models.AuditAction, targetID string, targetType models.TargetType, description string) {
	entry := &models.AuditLog{
		ID:          uuid.New().String(),
		Action:      action,
		ActorID:     actor.ID,
		ActorName:   actor.Name,
		ActorRole:   actor.Role,
		TargetID:    targetID,
		TargetType:  targetType,
		Description: description,
		Timestamp:   r.now(),
	}

	if err := r.store.AppendAuditLog(ctx, entry); err != nil {
		telemetry.AuditAppendFailures.Inc()
		slog.Error("audit append failed", "action", action, "target_id", targetID, "error", err)
		return
	}
	telemetry.AuditEntriesTotal.WithLabelValues(string(action)).Inc()
}
