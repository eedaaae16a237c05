// auth.go implements the demo login endpoint. The platform has no password
// store; identity arrives pre-verified (the dashboard sits behind the
// company SSO), so login exchanges a known user ID for a JWT scoped to one
// of the roles that user actually holds.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/service-marketplace/service-marketplace/internal/auth"
	"github.com/service-marketplace/service-marketplace/internal/db/models"
	"github.com/service-marketplace/service-marketplace/internal/store"
)

const tokenTTL = 24 * time.Hour

// AuthHandlers issues session tokens.
type AuthHandlers struct {
	store store.Store
}

// NewAuthHandlers creates an AuthHandlers instance.
func NewAuthHandlers(st store.Store) *AuthHandlers {
	return &AuthHandlers{store: st}
}

// LoginRequest selects the user and, optionally, which of their roles the
// session should act as. Omitting role uses the user's active role.
type LoginRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Role   string `json:"role"`
}

// Login exchanges a user ID for a JWT.
// POST /api/v1/auth/login
func (h *AuthHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "user_id is required")
		return
	}

	user, err := h.store.GetUser(c.Request.Context(), req.UserID)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
		return
	}

	role := user.ActiveRole
	if req.Role != "" {
		role = models.Role(req.Role)
	}
	if !user.HasRole(role) {
		c.JSON(http.StatusForbidden, gin.H{"error": "user does not hold the requested role"})
		return
	}

	token, err := auth.GenerateJWT(user.ID, user.Email, string(role), tokenTTL)
	if err != nil {
		respondStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_in": int(tokenTTL.Seconds()),
		"user": gin.H{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
			"roles": user.Roles,
			"role":  role,
		},
	})
}
