// auth.go provides the authentication and role-gating middleware for the
// dashboard API. Sessions are JWT bearer tokens issued at login; the claims
// are unpacked into gin.Context keys so handlers never parse tokens
// themselves.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/service-marketplace/service-marketplace/internal/auth"
	"github.com/service-marketplace/service-marketplace/internal/db/models"
)

// gin.Context keys set by RequireAuth.
const (
	UserIDKey    = "user_id"
	UserEmailKey = "user_email"
	UserRoleKey  = "user_role"
)

// RequireAuth verifies the Authorization bearer JWT and stores the session
// identity in the context. Requests without a valid token are rejected with
// 401 before any handler runs.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		claims, err := auth.VerifyJWT(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UserEmailKey, claims.Email)
		c.Set(UserRoleKey, claims.Role)

		c.Next()
	}
}

// RequireRole gates a route group to sessions holding one of the given roles.
// Must be registered after RequireAuth.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		have := CurrentRole(c)
		for _, want := range roles {
			if have == want {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
	}
}

// CurrentUserID returns the authenticated user's ID, or "" outside RequireAuth.
func CurrentUserID(c *gin.Context) string {
	if v, exists := c.Get(UserIDKey); exists {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// CurrentRole returns the session's active role, or "" outside RequireAuth.
func CurrentRole(c *gin.Context) models.Role {
	if v, exists := c.Get(UserRoleKey); exists {
		switch r := v.(type) {
		case models.Role:
			return r
		case string:
			return models.Role(r)
		}
	}
	return ""
}
