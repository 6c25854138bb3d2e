// internal/interfaces/http/handlers/webhook.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/inventory"
	"github.com/your-org/storefront/internal/domain/payment"
)

// WebhookHandler handles payment provider webhooks
type WebhookHandler struct {
	inventoryService *inventory.Service
	config           *config.Config
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(db *gorm.DB, cfg *config.Config) *WebhookHandler {
	return &WebhookHandler{
		inventoryService: inventory.NewService(db),
		config:           cfg,
	}
}

// HandlePaymentWebhook handles POST /webhooks/payment. The signature
// covers the raw body, so the body must be read before any binding.
func (h *WebhookHandler) HandlePaymentWebhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	event, err := payment.VerifyWebhook(
		payload,
		c.GetHeader("Stripe-Signature"),
		h.config.Stripe.WebhookSecret,
	)
	if err != nil {
		logrus.WithError(err).Warn("⚠️ Rejected webhook with bad signature")
		respondError(c, err)
		return
	}

	if err := h.inventoryService.HandleEvent(event); err != nil {
		// A 5xx makes the provider retry the delivery later
		logrus.WithFields(logrus.Fields{
			"event_id":   event.ID,
			"event_type": event.Type,
			"error":      err.Error(),
		}).Error("❌ Webhook processing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process event"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
