// audit.go implements the admin audit trail listing with the dashboard's
// filter set: actor, action, target type, and a time window.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/service-marketplace/service-marketplace/internal/db/models"
	"github.com/service-marketplace/service-marketplace/internal/query"
	"github.com/service-marketplace/service-marketplace/internal/store"
)

// AuditHandlers handles audit trail endpoints.
type AuditHandlers struct {
	queries *query.Queries
}

// NewAuditHandlers creates an AuditHandlers instance.
func NewAuditHandlers(q *query.Queries) *AuditHandlers {
	return &AuditHandlers{queries: q}
}

// List pages through the audit trail, newest first.
// GET /api/v1/admin/audit-logs?actor_id=&action=&target_type=&from=&to=&limit=&offset=
func (h *AuditHandlers) List(c *gin.Context) {
	var f store.AuditFilter
	if v := c.Query("actor_id"); v != "" {
		f.ActorID = &v
	}
	if v := c.Query("action"); v != "" {
		action := models.AuditAction(v)
		f.Action = &action
	}
	if v := c.Query("target_type"); v != "" {
		tt := models.TargetType(v)
		f.TargetType = &tt
	}
	if v := c.Query("from"); v != "" {
		from, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondBadRequest(c, "from must be RFC3339")
			return
		}
		f.From = &from
	}
	if v := c.Query("to"); v != "" {
		to, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondBadRequest(c, "to must be RFC3339")
			return
		}
		f.To = &to
	}
	limit, offset := pagination(c, 50)

	entries, total, err := h.queries.ListAuditLogs(c.Request.Context(), f, limit, offset)
	if err != nil {
		respondStoreError(c, err)
		return
	}

	out := make([]gin.H, 0, len(entries))
	for _, e := range entries {
		out = append(out, auditLogView(e))
	}
	c.JSON(http.StatusOK, gin.H{
		"entries": out,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}
