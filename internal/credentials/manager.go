// Package credentials manages API key issuance and revocation.
//
// Secrets are generated once, returned to the caller in plaintext exactly
// once, and persisted only as a bcrypt hash plus a short display prefix.
// Revocation guards follow the lifecycle convention: a guard failure returns
// a nil sentinel, changes nothing, and records nothing.
package credentials

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/service-marketplace/service-marketplace/internal/audit"
	"github.com/service-marketplace/service-marketplace/internal/auth"
	"github.com/service-marketplace/service-marketplace/internal/db/models"
	"github.com/service-marketplace/service-marketplace/internal/store"
)

// IssuedKey pairs a stored key with its plaintext secret. The secret exists
// only in this return value; it cannot be retrieved again.
type IssuedKey struct {
	Key    *models.APIKey
	Secret string
}

// Manager issues and revokes API keys.
type Manager struct {
	mu    sync.Mutex
	store store.Store
	rec   *audit.Recorder
	now   func() time.Time
}

// NewManager creates a credentials Manager.
func NewManager(st store.Store, rec *audit.Recorder) *Manager {
	return &Manager{store: st, rec: rec, now: time.Now}
}

// WithClock overrides the manager's clock. Tests only.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// IssueKey creates a new active key for the consumer, authorized for the
// given services, expiring ttlDays from now. Issuance always succeeds for a
// well-formed request and is not itself audited (the trail tracks
// revocations).
func (m *Manager) IssueKey(ctx context.Context, consumerID, name string, serviceIDs []string, ttlDays int) (*IssuedKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.issueLocked(ctx, consumerID, name, serviceIDs, ttlDays)
}

func (m *Manager) issueLocked(ctx context.Context, consumerID, name string, serviceIDs []string, ttlDays int) (*IssuedKey, error) {
	secret, hash, prefix, err := auth.GenerateAPIKey()
	if err != nil {
		return nil, err
	}

	now := m.now()
	key := &models.APIKey{
		ID:         uuid.New().String(),
		ConsumerID: consumerID,
		Name:       name,
		KeyHash:    hash,
		KeyPrefix:  prefix,
		ServiceIDs: append([]string(nil), serviceIDs...),
		Status:     models.APIKeyActive,
		TTLDays:    ttlDays,
		ExpiresAt:  now.AddDate(0, 0, ttlDays),
		CreatedAt:  now,
	}
	if err := m.store.PutAPIKey(ctx, key); err != nil {
		return nil, err
	}
	return &IssuedKey{Key: key, Secret: secret}, nil
}

// RevokeKey revokes a key on behalf of actor. Guarded: only a key that is
// effectively active can be revoked; revoking a revoked or expired key is a
// no-op returning nil.
func (m *Manager) RevokeKey(ctx context.Context, actor audit.Actor, keyID string) (*models.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key, err := m.revokeLocked(ctx, actor, keyID)
	if err != nil || key == nil {
		return nil, err
	}
	m.rec.Record(ctx, actor, models.ActionAPIKeyRevoked, keyID, models.TargetAPIKey,
		fmt.Sprintf("Revoked API key %s", key.Name))
	return key, nil
}

// revokeLocked performs the revocation mutation without auditing, so callers
// composing larger operations control how many audit entries appear.
func (m *Manager) revokeLocked(ctx context.Context, actor audit.Actor, keyID string) (*models.APIKey, error) {
	key, err := m.store.GetAPIKey(ctx, keyID)
	if err != nil {
		return nil, err
	}
	now := m.now()
	if key == nil || key.EffectiveStatus(now) != models.APIKeyActive {
		return nil, nil
	}

	key.Status = models.APIKeyRevoked
	key.RevokedAt = &now
	by := actor.ID
	key.RevokedBy = &by
	if err := m.store.PutAPIKey(ctx, key); err != nil {
		return nil, err
	}
	return key, nil
}

// RevokeAllForConsumer revokes every effectively-active key the consumer
// holds and returns the count. One audit entry covers the whole pass,
// regardless of how many keys it touched; zero revocations record nothing.
func (m *Manager) RevokeAllForConsumer(ctx context.Context, actor audit.Actor, consumerID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys, err := m.store.ListAPIKeysByConsumer(ctx, consumerID)
	if err != nil {
		return 0, err
	}

	revoked := 0
	for _, k := range keys {
		res, err := m.revokeLocked(ctx, actor, k.ID)
		if err != nil {
			return revoked, err
		}
		if res != nil {
			revoked++
		}
	}

	if revoked > 0 {
		m.rec.Record(ctx, actor, models.ActionAPIKeyRevoked, consumerID, models.TargetAPIKey,
			fmt.Sprintf("Revoked %d API key(s) for consumer", revoked))
	}
	return revoked, nil
}

// ForceRegenerateKey revokes the old key as an admin action and issues a
// fresh key with the same name, authorized services, and TTL. Two entity
// mutations, one audit entry. Returns nil when the old key does not exist.
// The old key must merely exist; a regenerate of an expired key still yields
// a new active key.
func (m *Manager) ForceRegenerateKey(ctx context.Context, actor audit.Actor, keyID string) (*IssuedKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	oldKey, err := m.store.GetAPIKey(ctx, keyID)
	if err != nil {
		return nil, err
	}
	if oldKey == nil {
		return nil, nil
	}

	if _, err := m.revokeLocked(ctx, actor, keyID); err != nil {
		return nil, err
	}

	issued, err := m.issueLocked(ctx, oldKey.ConsumerID, oldKey.Name, oldKey.ServiceIDs, oldKey.TTLDays)
	if err != nil {
		return nil, err
	}

	m.rec.Record(ctx, actor, models.ActionAPIKeyRevoked, keyID, models.TargetAPIKey,
		fmt.Sprintf("Force-regenerated API key %s (new key %s)", oldKey.Name, issued.Key.ID))
	return issued, nil
}
