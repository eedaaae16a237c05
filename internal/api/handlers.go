// handlers.go holds helpers shared by the resource handlers: actor
// resolution, error responses, and JSON views over the entity models.
//
// The engine signals a refused transition with a nil result and no error.
// Handlers map that sentinel to 409 Conflict (or 404 when a preliminary
// lookup shows the target does not exist at all); a non-nil error is always
// a store failure and maps to 500.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/service-marketplace/service-marketplace/internal/audit"
	"github.com/service-marketplace/service-marketplace/internal/db/models"
	"github.com/service-marketplace/service-marketplace/internal/middleware"
	"github.com/service-marketplace/service-marketplace/internal/store"
)

// requestActor builds the audit attribution for the authenticated caller.
// The JWT carries ID and role; the display name comes from the store when
// the user record resolves, falling back to the ID.
func requestActor(c *gin.Context, st store.Store) audit.Actor {
	id := middleware.CurrentUserID(c)
	actor := audit.Actor{ID: id, Name: id, Role: middleware.CurrentRole(c)}
	if u, err := st.GetUser(c.Request.Context(), id); err == nil && u != nil {
		actor.Name = u.Name
	}
	return actor
}

func respondNotFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, gin.H{"error": msg})
}

func respondConflict(c *gin.Context, msg string) {
	c.JSON(http.StatusConflict, gin.H{"error": msg})
}

func respondBadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func respondStoreError(c *gin.Context, err error) {
	slog.Error("store operation failed",
		"path", c.FullPath(),
		"request_id", c.GetString(middleware.RequestIDKey),
		"error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func timeOrNil(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}

func merchantView(p *models.MerchantProfile) gin.H {
	return gin.H{
		"user_id":               p.UserID,
		"company_name":          p.CompanyName,
		"status":                p.Status,
		"invited_at":            p.InvitedAt.Format(time.RFC3339),
		"flagged_for_review":    p.FlaggedForReview,
		"subscriptions_blocked": p.SubscriptionsBlocked,
	}
}

func consumerView(p *models.ConsumerProfile) gin.H {
	return gin.H{
		"user_id":      p.UserID,
		"organization": p.Organization,
		"status":       p.Status,
	}
}

func serviceView(s *models.Service) gin.H {
	return gin.H{
		"id":                    s.ID,
		"merchant_id":           s.MerchantID,
		"name":                  s.Name,
		"description":           s.Description,
		"category":              s.Category,
		"status":                s.Status,
		"visibility":            s.Visibility,
		"pricing":               s.Pricing,
		"rate_limit_per_minute": s.RateLimitPerMinute,
		"endpoint":              s.Endpoint,
		"tags":                  s.Tags,
		"created_at":            s.CreatedAt.Format(time.RFC3339),
		"updated_at":            s.UpdatedAt.Format(time.RFC3339),
	}
}

// apiKeyView renders a stored key without its secret: the display prefix is
// all that is ever shown again after issuance.
func apiKeyView(k *models.APIKey, effective models.APIKeyStatus) gin.H {
	return gin.H{
		"id":               k.ID,
		"consumer_id":      k.ConsumerID,
		"name":             k.Name,
		"key_prefix":       k.KeyPrefix,
		"service_ids":      k.ServiceIDs,
		"status":           k.Status,
		"effective_status": effective,
		"ttl_days":         k.TTLDays,
		"expires_at":       k.ExpiresAt.Format(time.RFC3339),
		"created_at":       k.CreatedAt.Format(time.RFC3339),
		"revoked_at":       timeOrNil(k.RevokedAt),
		"revoked_by":       k.RevokedBy,
	}
}

func accessRequestView(r *models.AccessRequest) gin.H {
	return gin.H{
		"id":           r.ID,
		"consumer_id":  r.ConsumerID,
		"service_id":   r.ServiceID,
		"status":       r.Status,
		"requested_at": r.RequestedAt.Format(time.RFC3339),
		"resolved_at":  timeOrNil(r.ResolvedAt),
		"resolved_by":  r.ResolvedBy,
	}
}

func serviceBlockView(b *models.ServiceBlock) gin.H {
	return gin.H{
		"id":          b.ID,
		"consumer_id": b.ConsumerID,
		"service_id":  b.ServiceID,
		"blocked_at":  b.BlockedAt.Format(time.RFC3339),
		"blocked_by":  b.BlockedBy,
	}
}

func imageView(img *models.DockerImage) gin.H {
	return gin.H{
		"id":              img.ID,
		"service_id":      img.ServiceID,
		"name":            img.Name,
		"tag":             img.Tag,
		"status":          img.Status,
		"licensing_model": img.LicensingModel,
		"license_status":  img.LicenseStatus,
		"created_at":      img.CreatedAt.Format(time.RFC3339),
	}
}

func auditLogView(e *models.AuditLog) gin.H {
	return gin.H{
		"id":          e.ID,
		"action":      e.Action,
		"actor_id":    e.ActorID,
		"actor_name":  e.ActorName,
		"actor_role":  e.ActorRole,
		"target_id":   e.TargetID,
		"target_type": e.TargetType,
		"description": e.Description,
		"timestamp":   e.Timestamp.Format(time.RFC3339),
	}
}
