// service.go implements the service listing state machine:
//
//	created → pending_approval → active | rejected (terminal)
//	active → suspended (only via the merchant-disable cascade)
//
// Descriptive fields stay editable by the owning merchant at any status; an
// edit never changes the status but is always audited.
package lifecycle

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/service-marketplace/service-marketplace/internal/audit"
	"github.com/service-marketplace/service-marketplace/internal/db/models"
)

// ServiceInput carries the merchant-supplied fields for a new service.
type ServiceInput struct {
	Name               string
	Description        string
	Category           string
	Visibility         models.ServiceVisibility
	Pricing            models.Pricing
	RateLimitPerMinute int
	Endpoint           *models.Endpoint
	Tags               []string
}

// ServiceUpdate carries optional field edits; nil fields are left unchanged.
type ServiceUpdate struct {
	Name               *string
	Description        *string
	Category           *string
	Visibility         *models.ServiceVisibility
	Pricing            *models.Pricing
	RateLimitPerMinute *int
	Endpoint           *models.Endpoint
	Tags               []string
}

// CreateService lists a new service for the merchant in pending_approval.
// Creation is not an audited transition; approval and rejection are.
func (m *Manager) CreateService(ctx context.Context, merchantID string, in ServiceInput) (*models.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	merchant, err := m.store.GetMerchantProfile(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	if merchant == nil {
		return nil, nil
	}

	now := m.now()
	svc := &models.Service{
		ID:                 uuid.New().String(),
		MerchantID:         merchantID,
		Name:               in.Name,
		Description:        in.Description,
		Category:           in.Category,
		Status:             models.ServicePendingApproval,
		Visibility:         in.Visibility,
		Pricing:            in.Pricing,
		RateLimitPerMinute: in.RateLimitPerMinute,
		Endpoint:           in.Endpoint,
		Tags:               in.Tags,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if svc.Visibility == "" {
		svc.Visibility = models.VisibilityPublic
	}
	if err := m.store.PutService(ctx, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

// ApproveService moves a pending service to active.
func (m *Manager) ApproveService(ctx context.Context, actor audit.Actor, serviceID string) (*models.Service, error) {
	return m.resolveService(ctx, actor, serviceID, models.ServiceActive,
		models.ActionServiceApproved, "Approved service listing")
}

// RejectService moves a pending service to rejected, a terminal state.
func (m *Manager) RejectService(ctx context.Context, actor audit.Actor, serviceID string) (*models.Service, error) {
	return m.resolveService(ctx, actor, serviceID, models.ServiceRejected,
		models.ActionServiceRejected, "Rejected service listing")
}

// UpdateService applies field edits by the owning merchant. Permitted at any
// status; the status itself never changes here. Returns nil when the service
// is unknown or the actor does not own it.
func (m *Manager) UpdateService(ctx context.Context, actor audit.Actor, serviceID string, upd ServiceUpdate) (*models.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	svc, err := m.store.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if svc == nil {
		return nil, nil
	}
	if actor.Role == models.RoleMerchant && svc.MerchantID != actor.ID {
		return nil, nil
	}

	if upd.Name != nil {
		svc.Name = *upd.Name
	}
	if upd.Description != nil {
		svc.Description = *upd.Description
	}
	if upd.Category != nil {
		svc.Category = *upd.Category
	}
	if upd.Visibility != nil {
		svc.Visibility = *upd.Visibility
	}
	if upd.Pricing != nil {
		svc.Pricing = *upd.Pricing
	}
	if upd.RateLimitPerMinute != nil {
		svc.RateLimitPerMinute = *upd.RateLimitPerMinute
	}
	if upd.Endpoint != nil {
		svc.Endpoint = upd.Endpoint
	}
	if upd.Tags != nil {
		svc.Tags = upd.Tags
	}
	svc.UpdatedAt = m.now()

	if err := m.store.PutService(ctx, svc); err != nil {
		return nil, err
	}
	m.record(ctx, actor, models.ActionServiceUpdated, serviceID, models.TargetService,
		fmt.Sprintf("Updated service %s", svc.Name))
	return svc, nil
}

func (m *Manager) resolveService(ctx context.Context, actor audit.Actor, serviceID string, to models.ServiceStatus, action models.AuditAction, desc string) (*models.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	svc, err := m.store.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if svc == nil || svc.Status != models.ServicePendingApproval {
		return nil, nil
	}

	svc.Status = to
	svc.UpdatedAt = m.now()
	if err := m.store.PutService(ctx, svc); err != nil {
		return nil, err
	}
	m.record(ctx, actor, action, serviceID, models.TargetService, desc)
	return svc, nil
}
