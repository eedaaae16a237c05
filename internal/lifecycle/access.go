// access.go implements the access request state machine
// (pending → approved | denied). Resolved requests are immutable; a consumer
// denied access may submit a new, independent request for the same service,
// so history accumulates rather than being overwritten.
package lifecycle

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/service-marketplace/service-marketplace/internal/audit"
	"github.com/service-marketplace/service-marketplace/internal/db/models"
)

// CreateAccessRequest opens a pending request for (consumer, service).
// Returns nil, with no record created, when:
//   - the service does not exist,
//   - the service's merchant has subscriptions blocked, or
//   - a pending request for the same pair already exists.
//
// Creation is not audited; only resolution is.
func (m *Manager) CreateAccessRequest(ctx context.Context, consumerID, serviceID string) (*models.AccessRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	svc, err := m.store.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if svc == nil {
		return nil, nil
	}

	merchant, err := m.store.GetMerchantProfile(ctx, svc.MerchantID)
	if err != nil {
		return nil, err
	}
	if merchant == nil || merchant.SubscriptionsBlocked {
		return nil, nil
	}

	pending, err := m.store.FindPendingAccessRequest(ctx, consumerID, serviceID)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		return nil, nil
	}

	req := &models.AccessRequest{
		ID:          uuid.New().String(),
		ConsumerID:  consumerID,
		ServiceID:   serviceID,
		Status:      models.AccessPending,
		RequestedAt: m.now(),
	}
	if err := m.store.PutAccessRequest(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// ApproveAccessRequest resolves a pending request as approved.
func (m *Manager) ApproveAccessRequest(ctx context.Context, actor audit.Actor, requestID string) (*models.AccessRequest, error) {
	return m.resolveAccessRequest(ctx, actor, requestID, models.AccessApproved,
		models.ActionAccessApproved, "Approved access request")
}

// DenyAccessRequest resolves a pending request as denied.
func (m *Manager) DenyAccessRequest(ctx context.Context, actor audit.Actor, requestID string) (*models.AccessRequest, error) {
	return m.resolveAccessRequest(ctx, actor, requestID, models.AccessDenied,
		models.ActionAccessDenied, "Denied access request")
}

func (m *Manager) resolveAccessRequest(ctx context.Context, actor audit.Actor, requestID string, to models.AccessRequestStatus, action models.AuditAction, desc string) (*models.AccessRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	req, err := m.store.GetAccessRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil || req.Status != models.AccessPending {
		return nil, nil
	}

	now := m.now()
	req.Status = to
	req.ResolvedAt = &now
	resolver := actor.ID
	req.ResolvedBy = &resolver
	if err := m.store.PutAccessRequest(ctx, req); err != nil {
		return nil, err
	}

	m.record(ctx, actor, action, requestID, models.TargetAccessRequest,
		fmt.Sprintf("%s for consumer %s on service %s", desc, req.ConsumerID, req.ServiceID))
	return req, nil
}
