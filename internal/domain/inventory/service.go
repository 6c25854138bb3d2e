// internal/domain/inventory/service.go
package inventory

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/order"
	"github.com/your-org/storefront/internal/domain/payment"
	"github.com/your-org/storefront/internal/domain/product"
)

// Service reconciles orders and stock from payment provider events
type Service struct {
	db *gorm.DB
}

// NewService creates a new inventory reconciliation service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// HandleEvent applies a verified payment event to the store. Delivery
// can repeat, so every path here must be safe to run twice: the status
// change is gated on the current status and everything else rides on
// that gate.
func (s *Service) HandleEvent(event *payment.Event) error {
	switch event.Type {
	case payment.EventCheckoutCompleted:
		return s.handleCompleted(event)
	case payment.EventCheckoutExpired:
		return s.handleExpired(event)
	default:
		logrus.WithField("event_type", event.Type).Debug("Ignoring unhandled payment event")
		return nil
	}
}

func (s *Service) handleCompleted(event *payment.Event) error {
	o, err := s.findOrder(event)
	if err != nil {
		return err
	}
	if o == nil {
		logrus.WithField("event_id", event.ID).Warn("⚠️ Payment event references unknown order")
		return nil
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	// Only a PENDING order moves forward. RowsAffected 0 means the
	// event already ran or the order was cancelled; either way, no-op.
	result := tx.Model(&order.Order{}).
		Where("id = ? AND status = ?", o.ID, order.StatusPending).
		Update("status", order.StatusProcessing)
	if result.Error != nil {
		tx.Rollback()
		return fmt.Errorf("failed to update order status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		logrus.WithFields(logrus.Fields{
			"order_id": o.ID,
			"status":   o.Status,
		}).Info("Order already reconciled, skipping")
		return nil
	}

	var items []order.OrderItem
	if err := tx.Where("order_id = ?", o.ID).Find(&items).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to retrieve order items: %w", err)
	}
	for _, item := range items {
		err := tx.Model(&product.Product{}).
			Where("id = ?", item.ProductID).
			Update("stock", gorm.Expr("stock - ?", item.Quantity)).Error
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to decrement stock for product %d: %w", item.ProductID, err)
		}
	}

	if err := tx.Where("user_id = ?", o.UserID).Delete(&cart.CartItem{}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit reconciliation: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"order_id":     o.ID,
		"order_number": o.OrderNumber,
		"items":        len(items),
	}).Info("✅ Order paid, stock reconciled")
	return nil
}

func (s *Service) handleExpired(event *payment.Event) error {
	o, err := s.findOrder(event)
	if err != nil {
		return err
	}
	if o == nil {
		return nil
	}

	result := s.db.Model(&order.Order{}).
		Where("id = ? AND status = ?", o.ID, order.StatusPending).
		Update("status", order.StatusCancelled)
	if result.Error != nil {
		return fmt.Errorf("failed to cancel order: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		logrus.WithFields(logrus.Fields{
			"order_id":     o.ID,
			"order_number": o.OrderNumber,
		}).Info("🚫 Checkout session expired, order cancelled")
	}
	return nil
}

// findOrder resolves the event's order by metadata id first, then by
// session id. A nil order with nil error means the event points at
// nothing we know.
func (s *Service) findOrder(event *payment.Event) (*order.Order, error) {
	var o order.Order
	if event.OrderID != 0 {
		err := s.db.First(&o, event.OrderID).Error
		if err == nil {
			return &o, nil
		}
		if err != gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("failed to retrieve order: %w", err)
		}
	}
	if event.SessionID != "" {
		err := s.db.Where("stripe_session_id = ?", event.SessionID).First(&o).Error
		if err == nil {
			return &o, nil
		}
		if err != gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("failed to retrieve order by session: %w", err)
		}
	}
	return nil, nil
}
