// internal/domain/order/service.go
package order

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/pkg/apperrors"
)

// Service handles order business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new order service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// OrderListRequest represents order list query parameters
type OrderListRequest struct {
	Status string `form:"status"`
	Limit  int    `form:"limit,default=20"`
	Offset int    `form:"offset,default=0"`
}

// UpdateStatusRequest represents an admin status change
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// OrderListResponse represents orders with paging info
type OrderListResponse struct {
	Orders []Order `json:"orders"`
	Total  int64   `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

// GenerateOrderNumber derives a human-readable order number from the
// order's id, e.g. ORD-20260831-00042. The id suffix keeps numbers
// unique without a second sequence.
func GenerateOrderNumber(orderID uint) string {
	return fmt.Sprintf("ORD-%s-%05d", time.Now().Format("20060102"), orderID)
}

// GetUserOrders retrieves a user's orders, newest first
func (s *Service) GetUserOrders(userID uint, req *OrderListRequest) (*OrderListResponse, error) {
	return s.listOrders(req, s.db.Model(&Order{}).Where("user_id = ?", userID))
}

// GetAllOrders retrieves every order for the admin view
func (s *Service) GetAllOrders(req *OrderListRequest) (*OrderListResponse, error) {
	return s.listOrders(req, s.db.Model(&Order{}).Preload("User"))
}

func (s *Service) listOrders(req *OrderListRequest, query *gorm.DB) (*OrderListResponse, error) {
	if req.Status != "" {
		if !IsValidStatus(req.Status) {
			return nil, apperrors.Validation("invalid order status")
		}
		query = query.Where("status = ?", req.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 20
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	var orders []Order
	err := query.Preload("Items").Preload("Items.Product").
		Order("created_at DESC").
		Limit(req.Limit).
		Offset(req.Offset).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve orders: %w", err)
	}

	return &OrderListResponse{
		Orders: orders,
		Total:  total,
		Limit:  req.Limit,
		Offset: req.Offset,
	}, nil
}

// GetOrderFor retrieves a single order visible to the caller. Owners
// see their own orders; admins see everything. A real order owned by
// someone else comes back as forbidden, not missing.
func (s *Service) GetOrderFor(orderID, userID uint, isAdmin bool) (*Order, error) {
	var o Order
	err := s.db.Preload("Items").Preload("Items.Product").First(&o, orderID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("order not found")
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}
	if o.UserID != userID && !isAdmin {
		return nil, apperrors.Authorization("order does not belong to you")
	}
	return &o, nil
}

// UpdateStatus applies an admin status change, holding orders to the
// allowed transition graph
func (s *Service) UpdateStatus(orderID uint, req *UpdateStatusRequest) (*Order, error) {
	if !IsValidStatus(req.Status) {
		return nil, apperrors.Validation("invalid order status")
	}

	var o Order
	if err := s.db.First(&o, orderID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("order not found")
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}

	if !o.CanTransitionTo(req.Status) {
		return nil, apperrors.Conflict(
			fmt.Sprintf("cannot change order status from %s to %s", o.Status, req.Status))
	}

	if err := s.db.Model(&o).Update("status", req.Status).Error; err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	o.Status = req.Status
	return &o, nil
}
