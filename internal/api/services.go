// services.go implements the service catalog endpoints: merchant-side
// creation and editing, admin-side approval, and filtered listing for every
// role.
package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/service-marketplace/service-marketplace/internal/db/models"
	"github.com/service-marketplace/service-marketplace/internal/lifecycle"
	"github.com/service-marketplace/service-marketplace/internal/middleware"
	"github.com/service-marketplace/service-marketplace/internal/query"
	"github.com/service-marketplace/service-marketplace/internal/store"
)

// ServiceHandlers handles service catalog endpoints.
type ServiceHandlers struct {
	lc      *lifecycle.Manager
	queries *query.Queries
	store   store.Store
}

// NewServiceHandlers creates a ServiceHandlers instance.
func NewServiceHandlers(lc *lifecycle.Manager, q *query.Queries, st store.Store) *ServiceHandlers {
	return &ServiceHandlers{lc: lc, queries: q, store: st}
}

// CreateServiceRequest carries the fields for a new service listing.
type CreateServiceRequest struct {
	Name               string                   `json:"name" binding:"required"`
	Description        string                   `json:"description"`
	Category           string                   `json:"category"`
	Visibility         models.ServiceVisibility `json:"visibility"`
	Pricing            models.Pricing           `json:"pricing"`
	RateLimitPerMinute int                      `json:"rate_limit_per_minute"`
	Endpoint           *models.Endpoint         `json:"endpoint"`
	Tags               []string                 `json:"tags"`
}

// UpdateServiceRequest carries optional edits; omitted fields stay as-is.
type UpdateServiceRequest struct {
	Name               *string                   `json:"name"`
	Description        *string                   `json:"description"`
	Category           *string                   `json:"category"`
	Visibility         *models.ServiceVisibility `json:"visibility"`
	Pricing            *models.Pricing           `json:"pricing"`
	RateLimitPerMinute *int                      `json:"rate_limit_per_minute"`
	Endpoint           *models.Endpoint          `json:"endpoint"`
	Tags               []string                  `json:"tags"`
}

// List returns services matching the query filters, paginated.
// GET /api/v1/services?merchant_id=&status=&visibility=&category=&limit=&offset=
func (h *ServiceHandlers) List(c *gin.Context) {
	f := query.ServiceFilter{
		MerchantID: c.Query("merchant_id"),
		Status:     models.ServiceStatus(c.Query("status")),
		Visibility: models.ServiceVisibility(c.Query("visibility")),
		Category:   c.Query("category"),
	}
	limit, offset := pagination(c, 50)

	services, total, err := h.queries.ListServices(c.Request.Context(), f, limit, offset)
	if err != nil {
		respondStoreError(c, err)
		return
	}

	out := make([]gin.H, 0, len(services))
	for _, s := range services {
		out = append(out, serviceView(s))
	}
	c.JSON(http.StatusOK, gin.H{
		"services": out,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

// Get returns one service.
// GET /api/v1/services/:id
func (h *ServiceHandlers) Get(c *gin.Context) {
	svc, err := h.store.GetService(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondStoreError(c, err)
		return
	}
	if svc == nil {
		respondNotFound(c, "service not found")
		return
	}
	c.JSON(http.StatusOK, serviceView(svc))
}

// Create lists a new service in pending_approval for the calling merchant.
// POST /api/v1/services
func (h *ServiceHandlers) Create(c *gin.Context) {
	var req CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "name is required")
		return
	}

	merchantID := middleware.CurrentUserID(c)
	svc, err := h.lc.CreateService(c.Request.Context(), merchantID, lifecycle.ServiceInput{
		Name:               req.Name,
		Description:        req.Description,
		Category:           req.Category,
		Visibility:         req.Visibility,
		Pricing:            req.Pricing,
		RateLimitPerMinute: req.RateLimitPerMinute,
		Endpoint:           req.Endpoint,
		Tags:               req.Tags,
	})
	if err != nil {
		respondStoreError(c, err)
		return
	}
	if svc == nil {
		respondConflict(c, "caller has no merchant profile")
		return
	}
	c.JSON(http.StatusCreated, serviceView(svc))
}

// Update edits a service's descriptive fields.
// PATCH /api/v1/services/:id
func (h *ServiceHandlers) Update(c *gin.Context) {
	var req UpdateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	actor := requestActor(c, h.store)
	svc, err := h.lc.UpdateService(c.Request.Context(), actor, c.Param("id"), lifecycle.ServiceUpdate{
		Name:               req.Name,
		Description:        req.Description,
		Category:           req.Category,
		Visibility:         req.Visibility,
		Pricing:            req.Pricing,
		RateLimitPerMinute: req.RateLimitPerMinute,
		Endpoint:           req.Endpoint,
		Tags:               req.Tags,
	})
	if err != nil {
		respondStoreError(c, err)
		return
	}
	if svc == nil {
		respondNotFound(c, "service not found or not owned by the caller")
		return
	}
	c.JSON(http.StatusOK, serviceView(svc))
}

// Approve moves a pending service to active.
// POST /api/v1/admin/services/:id/approve
func (h *ServiceHandlers) Approve(c *gin.Context) {
	h.resolve(c, true)
}

// Reject moves a pending service to rejected.
// POST /api/v1/admin/services/:id/reject
func (h *ServiceHandlers) Reject(c *gin.Context) {
	h.resolve(c, false)
}

func (h *ServiceHandlers) resolve(c *gin.Context, approve bool) {
	serviceID := c.Param("id")
	actor := requestActor(c, h.store)

	var (
		svc *models.Service
		err error
	)
	if approve {
		svc, err = h.lc.ApproveService(c.Request.Context(), actor, serviceID)
	} else {
		svc, err = h.lc.RejectService(c.Request.Context(), actor, serviceID)
	}
	if err != nil {
		respondStoreError(c, err)
		return
	}
	if svc == nil {
		existing, err := h.store.GetService(c.Request.Context(), serviceID)
		if err != nil {
			respondStoreError(c, err)
			return
		}
		if existing == nil {
			respondNotFound(c, "service not found")
			return
		}
		respondConflict(c, "service is not pending approval")
		return
	}
	c.JSON(http.StatusOK, serviceView(svc))
}

// pagination reads limit/offset query params with a default page size.
func pagination(c *gin.Context, defaultLimit int) (int, int) {
	limit := defaultLimit
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		limit = v
	}
	offset := 0
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}
