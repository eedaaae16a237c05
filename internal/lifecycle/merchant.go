// merchant.go implements the merchant account state machine:
//
//	pending → active (approve) | disabled (reject)
//	active ⇄ suspended (suspend / unsuspend)
//	active, suspended → disabled (disable; terminal, cascades to services)
//
// plus the flag-for-review and subscriptions-blocked toggles, which are
// orthogonal to the status machine.
package lifecycle

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/service-marketplace/service-marketplace/internal/audit"
	"github.com/service-marketplace/service-marketplace/internal/db/models"
)

// InviteMerchant creates a merchant user in the pending state together with
// its profile. Email collisions are the caller's concern; the engine assumes
// validated input.
func (m *Manager) InviteMerchant(ctx context.Context, actor audit.Actor, email, name, companyName string) (*models.MerchantProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	user := &models.User{
		ID:         uuid.New().String(),
		Email:      email,
		Name:       name,
		Roles:      []models.Role{models.RoleMerchant},
		ActiveRole: models.RoleMerchant,
		CreatedAt:  now,
	}
	if err := m.store.PutUser(ctx, user); err != nil {
		return nil, err
	}

	profile := &models.MerchantProfile{
		UserID:      user.ID,
		CompanyName: companyName,
		Status:      models.MerchantPending,
		InvitedAt:   now,
	}
	if err := m.store.PutMerchantProfile(ctx, profile); err != nil {
		return nil, err
	}

	m.record(ctx, actor, models.ActionMerchantInvited, user.ID, models.TargetUser,
		fmt.Sprintf("Invited merchant %s (%s)", companyName, email))
	return profile, nil
}

// ApproveMerchantOnboarding moves a pending merchant to active.
func (m *Manager) ApproveMerchantOnboarding(ctx context.Context, actor audit.Actor, userID string) (*models.MerchantProfile, error) {
	return m.transitionMerchant(ctx, actor, userID, []models.MerchantStatus{models.MerchantPending},
		models.MerchantActive, models.ActionMerchantApproved, "Approved merchant onboarding")
}

// RejectMerchantOnboarding moves a pending merchant straight to disabled.
func (m *Manager) RejectMerchantOnboarding(ctx context.Context, actor audit.Actor, userID string) (*models.MerchantProfile, error) {
	return m.transitionMerchant(ctx, actor, userID, []models.MerchantStatus{models.MerchantPending},
		models.MerchantDisabled, models.ActionMerchantRejected, "Rejected merchant onboarding")
}

// SuspendMerchant moves an active merchant to suspended.
func (m *Manager) SuspendMerchant(ctx context.Context, actor audit.Actor, userID string) (*models.MerchantProfile, error) {
	return m.transitionMerchant(ctx, actor, userID, []models.MerchantStatus{models.MerchantActive},
		models.MerchantSuspended, models.ActionMerchantSuspended, "Suspended merchant")
}

// UnsuspendMerchant moves a suspended merchant back to active.
func (m *Manager) UnsuspendMerchant(ctx context.Context, actor audit.Actor, userID string) (*models.MerchantProfile, error) {
	return m.transitionMerchant(ctx, actor, userID, []models.MerchantStatus{models.MerchantSuspended},
		models.MerchantActive, models.ActionMerchantUnsuspended, "Unsuspended merchant")
}

// DisableMerchant moves an active or suspended merchant to disabled, the
// terminal state, and cascades: every one of the merchant's active services
// becomes suspended. Already-suspended services are untouched.
func (m *Manager) DisableMerchant(ctx context.Context, actor audit.Actor, userID string) (*models.MerchantProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	profile, err := m.store.GetMerchantProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil || (profile.Status != models.MerchantActive && profile.Status != models.MerchantSuspended) {
		return nil, nil
	}

	profile.Status = models.MerchantDisabled
	if err := m.store.PutMerchantProfile(ctx, profile); err != nil {
		return nil, err
	}

	services, err := m.store.ListServicesByMerchant(ctx, userID)
	if err != nil {
		return nil, err
	}
	suspended := 0
	for _, svc := range services {
		if svc.Status != models.ServiceActive {
			continue
		}
		svc.Status = models.ServiceSuspended
		svc.UpdatedAt = m.now()
		if err := m.store.PutService(ctx, svc); err != nil {
			return nil, err
		}
		suspended++
	}

	m.record(ctx, actor, models.ActionMerchantDisabled, userID, models.TargetUser,
		fmt.Sprintf("Disabled merchant; suspended %d active service(s)", suspended))
	return profile, nil
}

// FlagMerchantForReview marks a merchant as flagged. No-op if already flagged
// or unknown.
func (m *Manager) FlagMerchantForReview(ctx context.Context, actor audit.Actor, userID string) (*models.MerchantProfile, error) {
	return m.toggleMerchantFlag(ctx, actor, userID, true)
}

// UnflagMerchant clears the review flag. No-op if not flagged or unknown.
func (m *Manager) UnflagMerchant(ctx context.Context, actor audit.Actor, userID string) (*models.MerchantProfile, error) {
	return m.toggleMerchantFlag(ctx, actor, userID, false)
}

// BlockMerchantSubscriptions stops new access requests against the merchant's
// services. No-op if already blocked or unknown.
func (m *Manager) BlockMerchantSubscriptions(ctx context.Context, actor audit.Actor, userID string) (*models.MerchantProfile, error) {
	return m.toggleMerchantSubs(ctx, actor, userID, true)
}

// UnblockMerchantSubscriptions re-allows access requests.
func (m *Manager) UnblockMerchantSubscriptions(ctx context.Context, actor audit.Actor, userID string) (*models.MerchantProfile, error) {
	return m.toggleMerchantSubs(ctx, actor, userID, false)
}

func (m *Manager) transitionMerchant(ctx context.Context, actor audit.Actor, userID string, from []models.MerchantStatus, to models.MerchantStatus, action models.AuditAction, desc string) (*models.MerchantProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	profile, err := m.store.GetMerchantProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, nil
	}
	allowed := false
	for _, s := range from {
		if profile.Status == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, nil
	}

	profile.Status = to
	if err := m.store.PutMerchantProfile(ctx, profile); err != nil {
		return nil, err
	}
	m.record(ctx, actor, action, userID, models.TargetUser, desc)
	return profile, nil
}

func (m *Manager) toggleMerchantFlag(ctx context.Context, actor audit.Actor, userID string, flagged bool) (*models.MerchantProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	profile, err := m.store.GetMerchantProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil || profile.FlaggedForReview == flagged {
		return nil, nil
	}

	profile.FlaggedForReview = flagged
	if err := m.store.PutMerchantProfile(ctx, profile); err != nil {
		return nil, err
	}

	action, desc := models.ActionMerchantFlagged, "Flagged merchant for review"
	if !flagged {
		action, desc = models.ActionMerchantUnflagged, "Cleared merchant review flag"
	}
	m.record(ctx, actor, action, userID, models.TargetUser, desc)
	return profile, nil
}

func (m *Manager) toggleMerchantSubs(ctx context.Context, actor audit.Actor, userID string, blocked bool) (*models.MerchantProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	profile, err := m.store.GetMerchantProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil || profile.SubscriptionsBlocked == blocked {
		return nil, nil
	}

	profile.SubscriptionsBlocked = blocked
	if err := m.store.PutMerchantProfile(ctx, profile); err != nil {
		return nil, err
	}

	action, desc := models.ActionMerchantSubsBlocked, "Blocked new subscriptions for merchant"
	if !blocked {
		action, desc = models.ActionMerchantSubsUnblocked, "Unblocked subscriptions for merchant"
	}
	m.record(ctx, actor, action, userID, models.TargetUser, desc)
	return profile, nil
}
