// apikeys.go implements credential endpoints. The plaintext secret appears
// in exactly one response: the one that created it. Listings show the
// display prefix and the status recomputed against the clock.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/service-marketplace/service-marketplace/internal/credentials"
	"github.com/service-marketplace/service-marketplace/internal/db/models"
	"github.com/service-marketplace/service-marketplace/internal/middleware"
	"github.com/service-marketplace/service-marketplace/internal/query"
	"github.com/service-marketplace/service-marketplace/internal/store"
)

// APIKeyHandlers handles API key management endpoints.
type APIKeyHandlers struct {
	creds   *credentials.Manager
	queries *query.Queries
	store   store.Store
}

// NewAPIKeyHandlers creates an APIKeyHandlers instance.
func NewAPIKeyHandlers(creds *credentials.Manager, q *query.Queries, st store.Store) *APIKeyHandlers {
	return &APIKeyHandlers{creds: creds, queries: q, store: st}
}

// IssueKeyRequest carries the fields for a new API key.
type IssueKeyRequest struct {
	Name       string   `json:"name" binding:"required"`
	ServiceIDs []string `json:"service_ids" binding:"required"`
	TTLDays    int      `json:"ttl_days" binding:"required"`
}

// Issue creates a new key for the calling consumer and returns the secret
// once.
// POST /api/v1/apikeys
func (h *APIKeyHandlers) Issue(c *gin.Context) {
	var req IssueKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "name, service_ids, and ttl_days are required")
		return
	}
	if req.TTLDays <= 0 {
		respondBadRequest(c, "ttl_days must be positive")
		return
	}

	consumerID := middleware.CurrentUserID(c)
	issued, err := h.creds.IssueKey(c.Request.Context(), consumerID, req.Name, req.ServiceIDs, req.TTLDays)
	if err != nil {
		respondStoreError(c, err)
		return
	}

	body := apiKeyView(issued.Key, issued.Key.Status)
	body["secret"] = issued.Secret
	c.JSON(http.StatusCreated, body)
}

// List returns the calling consumer's keys with effective statuses.
// GET /api/v1/apikeys
func (h *APIKeyHandlers) List(c *gin.Context) {
	consumerID := middleware.CurrentUserID(c)
	views, err := h.queries.ListConsumerKeys(c.Request.Context(), consumerID)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	out := make([]gin.H, 0, len(views))
	for _, v := range views {
		out = append(out, apiKeyView(v.Key, v.EffectiveStatus))
	}
	c.JSON(http.StatusOK, gin.H{"keys": out})
}

// Revoke revokes one of the caller's keys. Admins may revoke any key.
// POST /api/v1/apikeys/:id/revoke
func (h *APIKeyHandlers) Revoke(c *gin.Context) {
	keyID := c.Param("id")

	existing, err := h.store.GetAPIKey(c.Request.Context(), keyID)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	if existing == nil {
		respondNotFound(c, "API key not found")
		return
	}
	if middleware.CurrentRole(c) != models.RoleAdmin && existing.ConsumerID != middleware.CurrentUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "key belongs to another consumer"})
		return
	}

	actor := requestActor(c, h.store)
	key, err := h.creds.RevokeKey(c.Request.Context(), actor, keyID)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	if key == nil {
		respondConflict(c, "key is not active")
		return
	}
	c.JSON(http.StatusOK, apiKeyView(key, key.Status))
}

// RevokeAll revokes every effectively-active key a consumer holds.
// POST /api/v1/admin/consumers/:id/apikeys/revoke-all
func (h *APIKeyHandlers) RevokeAll(c *gin.Context) {
	consumerID := c.Param("id")
	actor := requestActor(c, h.store)

	revoked, err := h.creds.RevokeAllForConsumer(c.Request.Context(), actor, consumerID)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"revoked": revoked})
}

// ForceRegenerate revokes a key and issues a replacement with the same
// name, authorized services, and TTL. The new secret is returned once.
// POST /api/v1/admin/apikeys/:id/regenerate
func (h *APIKeyHandlers) ForceRegenerate(c *gin.Context) {
	keyID := c.Param("id")
	actor := requestActor(c, h.store)

	issued, err := h.creds.ForceRegenerateKey(c.Request.Context(), actor, keyID)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	if issued == nil {
		respondNotFound(c, "API key not found")
		return
	}

	body := apiKeyView(issued.Key, issued.Key.Status)
	body["secret"] = issued.Secret
	c.JSON(http.StatusCreated, body)
}
