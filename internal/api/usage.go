// usage.go implements the usage summary endpoint backing the dashboard's
// consumption panel. Consumers are always scoped to their own records;
// admins may summarize anyone's.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/service-marketplace/service-marketplace/internal/db/models"
	"github.com/service-marketplace/service-marketplace/internal/middleware"
	"github.com/service-marketplace/service-marketplace/internal/query"
	"github.com/service-marketplace/service-marketplace/internal/store"
)

// UsageHandlers handles usage reporting endpoints.
type UsageHandlers struct {
	queries *query.Queries
}

// NewUsageHandlers creates a UsageHandlers instance.
func NewUsageHandlers(q *query.Queries) *UsageHandlers {
	return &UsageHandlers{queries: q}
}

// Summary aggregates usage records matching the query filters.
// GET /api/v1/usage/summary?consumer_id=&api_key_id=&service_id=&since=
func (h *UsageHandlers) Summary(c *gin.Context) {
	var f store.UsageFilter

	consumerID := c.Query("consumer_id")
	if middleware.CurrentRole(c) != models.RoleAdmin {
		// Non-admins only ever see their own usage.
		consumerID = middleware.CurrentUserID(c)
	}
	if consumerID != "" {
		f.ConsumerID = &consumerID
	}
	if v := c.Query("api_key_id"); v != "" {
		f.APIKeyID = &v
	}
	if v := c.Query("service_id"); v != "" {
		f.ServiceID = &v
	}
	if v := c.Query("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondBadRequest(c, "since must be RFC3339")
			return
		}
		f.Since = &since
	}

	summary, err := h.queries.SummarizeUsage(c.Request.Context(), f)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
