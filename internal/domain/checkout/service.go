// internal/domain/checkout/service.go
package checkout

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/order"
	"github.com/your-org/storefront/internal/domain/payment"
	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/domain/user"
	"github.com/your-org/storefront/internal/pkg/apperrors"
)

// PaymentClient creates hosted checkout sessions with the payment
// provider
type PaymentClient interface {
	CreateCheckoutSession(ctx context.Context, req *payment.SessionRequest) (*payment.CheckoutSession, error)
}

// Service handles checkout business logic
type Service struct {
	db       *gorm.DB
	config   *config.Config
	payments PaymentClient
}

// NewService creates a new checkout service
func NewService(db *gorm.DB, cfg *config.Config, payments PaymentClient) *Service {
	return &Service{
		db:       db,
		config:   cfg,
		payments: payments,
	}
}

// CheckoutRequest represents a checkout submission
type CheckoutRequest struct {
	ShippingAddress order.Address `json:"shipping_address" binding:"required"`
}

// CheckoutResponse represents a started checkout
type CheckoutResponse struct {
	OrderID     uint   `json:"order_id"`
	OrderNumber string `json:"order_number"`
	Total       int64  `json:"total"`
	SessionID   string `json:"session_id,omitempty"`
	CheckoutURL string `json:"checkout_url,omitempty"`
}

// Checkout turns the user's cart into a pending order and opens a
// payment session for it. The order and its items are committed before
// the provider call, so a provider failure leaves a retryable PENDING
// order behind and the cart untouched. Stock is not reserved here;
// the webhook decrements it on payment.
func (s *Service) Checkout(ctx context.Context, userID uint, req *CheckoutRequest) (*CheckoutResponse, error) {
	var u user.User
	if err := s.db.First(&u, userID).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}

	var items []cart.CartItem
	err := s.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve cart items: %w", err)
	}
	if len(items) == 0 {
		return nil, apperrors.Validation("cart is empty")
	}

	// Pre-flight stock check with current catalog data. Prices are
	// frozen here; the cart itself stores none.
	type pricedLine struct {
		productID uint
		name      string
		price     int64
		quantity  int
	}
	lines := make([]pricedLine, 0, len(items))
	var total int64
	for _, item := range items {
		var p product.Product
		if err := s.db.First(&p, item.ProductID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, apperrors.Validation("a product in your cart is no longer available")
			}
			return nil, fmt.Errorf("failed to retrieve product %d: %w", item.ProductID, err)
		}
		if item.Quantity > p.Stock {
			return nil, apperrors.Conflict(fmt.Sprintf("not enough stock for %s", p.Name))
		}
		lines = append(lines, pricedLine{
			productID: p.ID,
			name:      p.Name,
			price:     p.Price,
			quantity:  item.Quantity,
		})
		total += p.Price * int64(item.Quantity)
	}

	o := order.Order{
		UserID:          userID,
		Status:          order.StatusPending,
		Total:           total,
		ShippingAddress: req.ShippingAddress,
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	if err := tx.Create(&o).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	// The number is derived from the id, so it can only be assigned
	// after the insert
	o.OrderNumber = order.GenerateOrderNumber(o.ID)
	if err := tx.Model(&o).Update("order_number", o.OrderNumber).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to assign order number: %w", err)
	}
	for _, line := range lines {
		oi := order.OrderItem{
			OrderID:   o.ID,
			ProductID: line.productID,
			Name:      line.name,
			Price:     line.price,
			Quantity:  line.quantity,
		}
		if err := tx.Create(&oi).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to create order item: %w", err)
		}
	}
	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}

	sessionReq := &payment.SessionRequest{
		OrderID:    o.ID,
		Email:      u.Email,
		SuccessURL: s.config.App.BaseURL + "/checkout/success?order=" + o.OrderNumber,
		CancelURL:  s.config.App.BaseURL + "/checkout/cancel?order=" + o.OrderNumber,
	}
	for _, line := range lines {
		sessionReq.Items = append(sessionReq.Items, payment.SessionLineItem{
			Name:     line.name,
			Price:    line.price,
			Quantity: line.quantity,
		})
	}

	session, err := s.payments.CreateCheckoutSession(ctx, sessionReq)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"order_id":     o.ID,
			"order_number": o.OrderNumber,
			"error":        err.Error(),
		}).Error("❌ Payment session creation failed")
		// The pending order survives; hand its id back with the error
		return &CheckoutResponse{
			OrderID:     o.ID,
			OrderNumber: o.OrderNumber,
			Total:       o.Total,
		}, err
	}

	if err := s.db.Model(&o).Update("stripe_session_id", session.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to record payment session: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"order_id":     o.ID,
		"order_number": o.OrderNumber,
		"session_id":   session.ID,
		"total":        o.Total,
	}).Info("🛒 Checkout session created")

	return &CheckoutResponse{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Total:       o.Total,
		SessionID:   session.ID,
		CheckoutURL: session.URL,
	}, nil
}
