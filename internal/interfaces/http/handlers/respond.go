// internal/interfaces/http/handlers/respond.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/your-org/storefront/internal/pkg/apperrors"
)

// respondError maps a service error onto an HTTP response. Domain
// errors carry their own status and a client-safe message; anything
// else is logged and reported as a generic 500.
func respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		logrus.WithFields(logrus.Fields{
			"path":  c.Request.URL.Path,
			"error": err.Error(),
		}).Error("Request handler failed")
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request data",
		"details": err.Error(),
	})
}
