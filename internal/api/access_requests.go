// access_requests.go implements the access request flow: consumers open
// requests, merchants (or admins) resolve the requests against their
// services.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/service-marketplace/service-marketplace/internal/db/models"
	"github.com/service-marketplace/service-marketplace/internal/lifecycle"
	"github.com/service-marketplace/service-marketplace/internal/middleware"
	"github.com/service-marketplace/service-marketplace/internal/query"
	"github.com/service-marketplace/service-marketplace/internal/store"
)

// AccessRequestHandlers handles access request endpoints.
type AccessRequestHandlers struct {
	lc      *lifecycle.Manager
	queries *query.Queries
	store   store.Store
}

// NewAccessRequestHandlers creates an AccessRequestHandlers instance.
func NewAccessRequestHandlers(lc *lifecycle.Manager, q *query.Queries, st store.Store) *AccessRequestHandlers {
	return &AccessRequestHandlers{lc: lc, queries: q, store: st}
}

// CreateAccessRequestRequest names the service a consumer wants access to.
type CreateAccessRequestRequest struct {
	ServiceID string `json:"service_id" binding:"required"`
}

// Create opens a pending request for the calling consumer.
// POST /api/v1/access-requests
func (h *AccessRequestHandlers) Create(c *gin.Context) {
	var req CreateAccessRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "service_id is required")
		return
	}

	consumerID := middleware.CurrentUserID(c)
	created, err := h.lc.CreateAccessRequest(c.Request.Context(), consumerID, req.ServiceID)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	if created == nil {
		respondConflict(c, "service unavailable for requests, or a pending request already exists")
		return
	}
	c.JSON(http.StatusCreated, accessRequestView(created))
}

// ListForConsumer returns the calling consumer's request history.
// GET /api/v1/access-requests
func (h *AccessRequestHandlers) ListForConsumer(c *gin.Context) {
	consumerID := middleware.CurrentUserID(c)
	reqs, err := h.queries.ListAccessRequestsForConsumer(c.Request.Context(), consumerID)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	out := make([]gin.H, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, accessRequestView(r))
	}
	c.JSON(http.StatusOK, gin.H{"access_requests": out})
}

// ListForService returns the requests against one service, for its owning
// merchant or an admin.
// GET /api/v1/services/:id/access-requests
func (h *AccessRequestHandlers) ListForService(c *gin.Context) {
	serviceID := c.Param("id")

	svc, err := h.store.GetService(c.Request.Context(), serviceID)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	if svc == nil {
		respondNotFound(c, "service not found")
		return
	}
	if middleware.CurrentRole(c) == models.RoleMerchant && svc.MerchantID != middleware.CurrentUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "service is owned by another merchant"})
		return
	}

	reqs, err := h.store.ListAccessRequestsByService(c.Request.Context(), serviceID)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	out := make([]gin.H, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, accessRequestView(r))
	}
	c.JSON(http.StatusOK, gin.H{"access_requests": out})
}

// Approve resolves a pending request as approved.
// POST /api/v1/access-requests/:id/approve
func (h *AccessRequestHandlers) Approve(c *gin.Context) {
	h.resolve(c, true)
}

// Deny resolves a pending request as denied.
// POST /api/v1/access-requests/:id/deny
func (h *AccessRequestHandlers) Deny(c *gin.Context) {
	h.resolve(c, false)
}

func (h *AccessRequestHandlers) resolve(c *gin.Context, approve bool) {
	requestID := c.Param("id")

	// A merchant may only resolve requests against their own services.
	existing, err := h.store.GetAccessRequest(c.Request.Context(), requestID)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	if existing == nil {
		respondNotFound(c, "access request not found")
		return
	}
	if middleware.CurrentRole(c) == models.RoleMerchant {
		svc, err := h.store.GetService(c.Request.Context(), existing.ServiceID)
		if err != nil {
			respondStoreError(c, err)
			return
		}
		if svc == nil || svc.MerchantID != middleware.CurrentUserID(c) {
			c.JSON(http.StatusForbidden, gin.H{"error": "request targets another merchant's service"})
			return
		}
	}

	actor := requestActor(c, h.store)
	var resolved *models.AccessRequest
	if approve {
		resolved, err = h.lc.ApproveAccessRequest(c.Request.Context(), actor, requestID)
	} else {
		resolved, err = h.lc.DenyAccessRequest(c.Request.Context(), actor, requestID)
	}
	if err != nil {
		respondStoreError(c, err)
		return
	}
	if resolved == nil {
		respondConflict(c, "access request is already resolved")
		return
	}
	c.JSON(http.StatusOK, accessRequestView(resolved))
}
