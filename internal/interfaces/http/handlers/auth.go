// internal/interfaces/http/handlers/auth.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/user"
	"github.com/your-org/storefront/internal/interfaces/http/middleware"
	"github.com/your-org/storefront/internal/pkg/auth"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	userService *user.Service
	jwtManager  *auth.JWTManager
	config      *config.Config
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(db *gorm.DB, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		userService: user.NewService(db, cfg),
		jwtManager:  auth.NewJWTManager(cfg),
		config:      cfg,
	}
}

// Signup handles POST /auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req user.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	u, err := h.userService.Register(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.setSessionCookie(c, u); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Account created successfully",
		"data":    u,
	})
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req user.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	u, err := h.userService.Authenticate(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.setSessionCookie(c, u); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged in successfully",
		"data":    u,
	})
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie(h.config.JWT.CookieName, "", -1, "/", "", h.config.JWT.CookieSecure, true)
	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	u, err := h.userService.GetUser(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": u})
}

// setSessionCookie issues a token and stores it in an HTTP-only cookie
func (h *AuthHandler) setSessionCookie(c *gin.Context, u *user.User) error {
	token, err := h.jwtManager.GenerateToken(u.ID, u.Email, string(u.Role))
	if err != nil {
		return err
	}
	maxAge := int(h.config.JWT.AccessTokenExpiry.Seconds())
	c.SetCookie(h.config.JWT.CookieName, token, maxAge, "/", "", h.config.JWT.CookieSecure, true)
	return nil
}
