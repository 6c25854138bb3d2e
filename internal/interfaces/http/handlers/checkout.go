// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/checkout"
	"github.com/your-org/storefront/internal/interfaces/http/middleware"
	"github.com/your-org/storefront/internal/pkg/apperrors"
)

// CheckoutHandler handles checkout endpoints
type CheckoutHandler struct {
	checkoutService *checkout.Service
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(db *gorm.DB, cfg *config.Config, payments checkout.PaymentClient) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkout.NewService(db, cfg, payments),
	}
}

// Checkout handles POST /checkout
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req checkout.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	resp, err := h.checkoutService.Checkout(c.Request.Context(), userID, &req)
	if err != nil {
		// A provider failure still created the order; hand back its id
		// so the client can retry payment for it
		if resp != nil && apperrors.IsKind(err, apperrors.KindExternal) {
			c.JSON(http.StatusBadGateway, gin.H{
				"error": "Payment session could not be created",
				"data": gin.H{
					"order_id":     resp.OrderID,
					"order_number": resp.OrderNumber,
				},
			})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Checkout session created",
		"data":    resp,
	})
}
