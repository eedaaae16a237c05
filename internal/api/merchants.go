// merchants.go implements the admin endpoints for the merchant account
// lifecycle: invite, onboarding resolution, suspension, the terminal
// disable (which cascades to the merchant's services), and the flag /
// subscriptions-blocked toggles.
package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/service-marketplace/service-marketplace/internal/audit"
	"github.com/service-marketplace/service-marketplace/internal/db/models"
	"github.com/service-marketplace/service-marketplace/internal/lifecycle"
	"github.com/service-marketplace/service-marketplace/internal/store"
)

// MerchantHandlers handles merchant management endpoints.
type MerchantHandlers struct {
	lc    *lifecycle.Manager
	store store.Store
}

// NewMerchantHandlers creates a MerchantHandlers instance.
func NewMerchantHandlers(lc *lifecycle.Manager, st store.Store) *MerchantHandlers {
	return &MerchantHandlers{lc: lc, store: st}
}

// InviteMerchantRequest carries the fields for a new merchant invitation.
type InviteMerchantRequest struct {
	Email       string `json:"email" binding:"required"`
	Name        string `json:"name" binding:"required"`
	CompanyName string `json:"company_name" binding:"required"`
}

// List returns all merchant profiles.
// GET /api/v1/admin/merchants
func (h *MerchantHandlers) List(c *gin.Context) {
	profiles, err := h.store.ListMerchantProfiles(c.Request.Context())
	if err != nil {
		respondStoreError(c, err)
		return
	}
	out := make([]gin.H, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, merchantView(p))
	}
	c.JSON(http.StatusOK, gin.H{"merchants": out})
}

// Invite creates a pending merchant account.
// POST /api/v1/admin/merchants/invite
func (h *MerchantHandlers) Invite(c *gin.Context) {
	var req InviteMerchantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "email, name, and company_name are required")
		return
	}

	actor := requestActor(c, h.store)
	profile, err := h.lc.InviteMerchant(c.Request.Context(), actor, req.Email, req.Name, req.CompanyName)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, merchantView(profile))
}

// Approve resolves a pending merchant as active.
// POST /api/v1/admin/merchants/:id/approve
func (h *MerchantHandlers) Approve(c *gin.Context) {
	h.transition(c, h.lc.ApproveMerchantOnboarding)
}

// Reject resolves a pending merchant as disabled.
// POST /api/v1/admin/merchants/:id/reject
func (h *MerchantHandlers) Reject(c *gin.Context) {
	h.transition(c, h.lc.RejectMerchantOnboarding)
}

// Suspend moves an active merchant to suspended.
// POST /api/v1/admin/merchants/:id/suspend
func (h *MerchantHandlers) Suspend(c *gin.Context) {
	h.transition(c, h.lc.SuspendMerchant)
}

// Unsuspend moves a suspended merchant back to active.
// POST /api/v1/admin/merchants/:id/unsuspend
func (h *MerchantHandlers) Unsuspend(c *gin.Context) {
	h.transition(c, h.lc.UnsuspendMerchant)
}

// Disable moves a merchant to the terminal disabled state, suspending its
// active services.
// POST /api/v1/admin/merchants/:id/disable
func (h *MerchantHandlers) Disable(c *gin.Context) {
	h.transition(c, h.lc.DisableMerchant)
}

// Flag marks a merchant for review.
// POST /api/v1/admin/merchants/:id/flag
func (h *MerchantHandlers) Flag(c *gin.Context) {
	h.transition(c, h.lc.FlagMerchantForReview)
}

// Unflag clears the review flag.
// POST /api/v1/admin/merchants/:id/unflag
func (h *MerchantHandlers) Unflag(c *gin.Context) {
	h.transition(c, h.lc.UnflagMerchant)
}

// BlockSubscriptions stops new access requests against the merchant's
// services.
// POST /api/v1/admin/merchants/:id/block-subscriptions
func (h *MerchantHandlers) BlockSubscriptions(c *gin.Context) {
	h.transition(c, h.lc.BlockMerchantSubscriptions)
}

// UnblockSubscriptions re-allows access requests.
// POST /api/v1/admin/merchants/:id/unblock-subscriptions
func (h *MerchantHandlers) UnblockSubscriptions(c *gin.Context) {
	h.transition(c, h.lc.UnblockMerchantSubscriptions)
}

// transition runs one guarded merchant operation and maps its nil sentinel:
// 404 when no profile exists, 409 when the profile is not in an eligible
// state (or the toggle is already set).
func (h *MerchantHandlers) transition(c *gin.Context, op func(context.Context, audit.Actor, string) (*models.MerchantProfile, error)) {
	userID := c.Param("id")
	actor := requestActor(c, h.store)

	profile, err := op(c.Request.Context(), actor, userID)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	if profile == nil {
		existing, err := h.store.GetMerchantProfile(c.Request.Context(), userID)
		if err != nil {
			respondStoreError(c, err)
			return
		}
		if existing == nil {
			respondNotFound(c, "merchant not found")
			return
		}
		respondConflict(c, "merchant is not in a state that allows this operation")
		return
	}
	c.JSON(http.StatusOK, merchantView(profile))
}
