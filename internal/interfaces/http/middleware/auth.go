// internal/interfaces/http/middleware/auth.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/user"
	"github.com/your-org/storefront/internal/pkg/auth"
)

// Context keys set by the auth middleware
const (
	ContextUserID    = "user_id"
	ContextUserEmail = "user_email"
	ContextUserRole  = "user_role"
)

// AuthMiddleware validates the session token and loads the caller's
// identity into the request context. The token is read from the auth
// cookie first; an Authorization bearer header works as a fallback
// for non-browser clients.
func AuthMiddleware(jwtManager *auth.JWTManager, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c, cfg)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		claims, err := jwtManager.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserEmail, claims.Email)
		c.Set(ContextUserRole, claims.Role)

		c.Next()
	}
}

// AdminMiddleware requires an authenticated admin. Must run after
// AuthMiddleware.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(ContextUserRole)
		if !exists || role != string(user.RoleAdmin) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func extractToken(c *gin.Context, cfg *config.Config) string {
	if cookie, err := c.Cookie(cfg.JWT.CookieName); err == nil && cookie != "" {
		return cookie
	}
	return auth.ExtractTokenFromHeader(c.GetHeader("Authorization"))
}

// GetUserID returns the authenticated user's id from the context
func GetUserID(c *gin.Context) (uint, bool) {
	value, exists := c.Get(ContextUserID)
	if !exists {
		return 0, false
	}
	id, ok := value.(uint)
	return id, ok
}

// IsAdmin reports whether the authenticated caller is an admin
func IsAdmin(c *gin.Context) bool {
	role, exists := c.Get(ContextUserRole)
	return exists && role == string(user.RoleAdmin)
}
