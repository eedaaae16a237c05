// consumer.go implements the consumer account state machine (active ⇄ blocked)
// and the per-service block relation.
//
// Blocking a consumer cascades into credential revocation: every key that is
// effectively active at that moment is revoked with revokedBy="platform".
// Unblocking never restores keys; the consumer issues new ones.
package lifecycle

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/service-marketplace/service-marketplace/internal/audit"
	"github.com/service-marketplace/service-marketplace/internal/db/models"
)

// BlockConsumer moves an active consumer to blocked and revokes all of that
// consumer's effectively-active API keys. Already revoked or expired keys are
// untouched.
func (m *Manager) BlockConsumer(ctx context.Context, actor audit.Actor, userID string) (*models.ConsumerProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	profile, err := m.store.GetConsumerProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil || profile.Status != models.ConsumerActive {
		return nil, nil
	}

	profile.Status = models.ConsumerBlocked
	if err := m.store.PutConsumerProfile(ctx, profile); err != nil {
		return nil, err
	}

	now := m.now()
	keys, err := m.store.ListAPIKeysByConsumer(ctx, userID)
	if err != nil {
		return nil, err
	}
	revoked := 0
	for _, k := range keys {
		if k.EffectiveStatus(now) != models.APIKeyActive {
			continue
		}
		k.Status = models.APIKeyRevoked
		k.RevokedAt = &now
		by := audit.PlatformActor.ID
		k.RevokedBy = &by
		if err := m.store.PutAPIKey(ctx, k); err != nil {
			return nil, err
		}
		revoked++
	}

	m.record(ctx, actor, models.ActionConsumerBlocked, userID, models.TargetUser,
		fmt.Sprintf("Blocked consumer; revoked %d active key(s)", revoked))
	return profile, nil
}

// UnblockConsumer moves a blocked consumer back to active. Keys revoked by
// the blocking cascade stay revoked.
func (m *Manager) UnblockConsumer(ctx context.Context, actor audit.Actor, userID string) (*models.ConsumerProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	profile, err := m.store.GetConsumerProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil || profile.Status != models.ConsumerBlocked {
		return nil, nil
	}

	profile.Status = models.ConsumerActive
	if err := m.store.PutConsumerProfile(ctx, profile); err != nil {
		return nil, err
	}
	m.record(ctx, actor, models.ActionConsumerUnblocked, userID, models.TargetUser, "Unblocked consumer")
	return profile, nil
}

// BlockConsumerForService denies one consumer access to one service.
// Idempotent: if a block for the pair already exists it is returned unchanged
// with no new record and no audit entry.
func (m *Manager) BlockConsumerForService(ctx context.Context, actor audit.Actor, consumerID, serviceID string) (*models.ServiceBlock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, err := m.store.GetServiceBlock(ctx, consumerID, serviceID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	block := &models.ServiceBlock{
		ID:         uuid.New().String(),
		ConsumerID: consumerID,
		ServiceID:  serviceID,
		BlockedAt:  m.now(),
		BlockedBy:  actor.ID,
	}
	if err := m.store.PutServiceBlock(ctx, block); err != nil {
		return nil, err
	}

	m.record(ctx, actor, models.ActionConsumerServiceBlocked, consumerID, models.TargetServiceBlock,
		fmt.Sprintf("Blocked consumer for service %s", serviceID))
	return block, nil
}

// UnblockConsumerForService removes the block for the pair. Returns false,
// with no audit entry, when no block exists.
func (m *Manager) UnblockConsumerForService(ctx context.Context, actor audit.Actor, consumerID, serviceID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed, err := m.store.RemoveServiceBlock(ctx, consumerID, serviceID)
	if err != nil || !removed {
		return false, err
	}

	m.record(ctx, actor, models.ActionConsumerServiceUnblock, consumerID, models.TargetServiceBlock,
		fmt.Sprintf("Unblocked consumer for service %s", serviceID))
	return true, nil
}
