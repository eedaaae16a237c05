// consumers.go implements consumer account blocking (with its key
// revocation cascade) and the per-service block relation a merchant manages
// on their own listings.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/service-marketplace/service-marketplace/internal/db/models"
	"github.com/service-marketplace/service-marketplace/internal/lifecycle"
	"github.com/service-marketplace/service-marketplace/internal/middleware"
	"github.com/service-marketplace/service-marketplace/internal/store"
)

// ConsumerHandlers handles consumer management endpoints.
type ConsumerHandlers struct {
	lc    *lifecycle.Manager
	store store.Store
}

// NewConsumerHandlers creates a ConsumerHandlers instance.
func NewConsumerHandlers(lc *lifecycle.Manager, st store.Store) *ConsumerHandlers {
	return &ConsumerHandlers{lc: lc, store: st}
}

// Block moves an active consumer to blocked and revokes their active keys.
// POST /api/v1/admin/consumers/:id/block
func (h *ConsumerHandlers) Block(c *gin.Context) {
	h.transition(c, true)
}

// Unblock moves a blocked consumer back to active. Revoked keys stay
// revoked.
// POST /api/v1/admin/consumers/:id/unblock
func (h *ConsumerHandlers) Unblock(c *gin.Context) {
	h.transition(c, false)
}

func (h *ConsumerHandlers) transition(c *gin.Context, block bool) {
	userID := c.Param("id")
	actor := requestActor(c, h.store)

	var (
		profile *models.ConsumerProfile
		err     error
	)
	if block {
		profile, err = h.lc.BlockConsumer(c.Request.Context(), actor, userID)
	} else {
		profile, err = h.lc.UnblockConsumer(c.Request.Context(), actor, userID)
	}
	if err != nil {
		respondStoreError(c, err)
		return
	}
	if profile == nil {
		existing, err := h.store.GetConsumerProfile(c.Request.Context(), userID)
		if err != nil {
			respondStoreError(c, err)
			return
		}
		if existing == nil {
			respondNotFound(c, "consumer not found")
			return
		}
		respondConflict(c, "consumer is not in a state that allows this operation")
		return
	}
	c.JSON(http.StatusOK, consumerView(profile))
}

// BlockForService blocks one consumer for one service. A merchant may only
// block on services they own; admins may block anywhere. Idempotent.
// POST /api/v1/services/:id/blocks/:consumer_id
func (h *ConsumerHandlers) BlockForService(c *gin.Context) {
	serviceID := c.Param("id")
	consumerID := c.Param("consumer_id")

	if _, ok := h.ownedService(c, serviceID); !ok {
		return
	}

	actor := requestActor(c, h.store)
	block, err := h.lc.BlockConsumerForService(c.Request.Context(), actor, consumerID, serviceID)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, serviceBlockView(block))
}

// UnblockForService removes the block for the pair.
// DELETE /api/v1/services/:id/blocks/:consumer_id
func (h *ConsumerHandlers) UnblockForService(c *gin.Context) {
	serviceID := c.Param("id")
	consumerID := c.Param("consumer_id")

	if _, ok := h.ownedService(c, serviceID); !ok {
		return
	}

	actor := requestActor(c, h.store)
	removed, err := h.lc.UnblockConsumerForService(c.Request.Context(), actor, consumerID, serviceID)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	if !removed {
		respondNotFound(c, "no block exists for this consumer and service")
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": true})
}

// ListBlocksForService returns the blocks on one service.
// GET /api/v1/services/:id/blocks
func (h *ConsumerHandlers) ListBlocksForService(c *gin.Context) {
	serviceID := c.Param("id")
	if _, ok := h.ownedService(c, serviceID); !ok {
		return
	}

	blocks, err := h.store.ListServiceBlocksByService(c.Request.Context(), serviceID)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	out := make([]gin.H, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, serviceBlockView(b))
	}
	c.JSON(http.StatusOK, gin.H{"blocks": out})
}

// ownedService loads the service and enforces that a merchant caller owns
// it. On failure it writes the response and returns ok=false.
func (h *ConsumerHandlers) ownedService(c *gin.Context, serviceID string) (*models.Service, bool) {
	svc, err := h.store.GetService(c.Request.Context(), serviceID)
	if err != nil {
		respondStoreError(c, err)
		return nil, false
	}
	if svc == nil {
		respondNotFound(c, "service not found")
		return nil, false
	}
	if middleware.CurrentRole(c) == models.RoleMerchant && svc.MerchantID != middleware.CurrentUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "service is owned by another merchant"})
		return nil, false
	}
	return svc, true
}
