// internal/domain/order/entity.go
package order

import (
	"time"

	"gorm.io/gorm"

	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/domain/user"
)

// Order status constants
const (
	StatusPending    = "PENDING"
	StatusProcessing = "PROCESSING"
	StatusShipped    = "SHIPPED"
	StatusDelivered  = "DELIVERED"
	StatusCancelled  = "CANCELLED"
)

// Order represents a customer order
type Order struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	OrderNumber     string         `gorm:"uniqueIndex;not null" json:"order_number"`
	UserID          uint           `gorm:"not null;index" json:"user_id"`
	Status          string         `gorm:"not null;default:'PENDING';index" json:"status"`
	Total           int64          `gorm:"not null" json:"total"` // Total in cents
	StripeSessionID string         `gorm:"index" json:"stripe_session_id,omitempty"`
	ShippingAddress Address        `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User  user.User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

// Address represents a shipping address embedded in the order. Every
// field except the second address line is required at checkout.
type Address struct {
	FullName     string `gorm:"not null" json:"full_name" binding:"required"`
	AddressLine1 string `gorm:"not null" json:"address_line1" binding:"required"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `gorm:"not null" json:"city" binding:"required"`
	State        string `gorm:"not null" json:"state" binding:"required"`
	PostalCode   string `gorm:"not null" json:"postal_code" binding:"required"`
	Country      string `gorm:"not null" json:"country" binding:"required"`
	Phone        string `gorm:"not null" json:"phone" binding:"required"`
}

// OrderItem represents a line on an order. Name and price are copied
// from the product at checkout time so later catalog edits do not
// rewrite order history.
type OrderItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrderID   uint      `gorm:"not null;index" json:"order_id"`
	ProductID uint      `gorm:"not null;index" json:"product_id"`
	Name      string    `gorm:"not null" json:"name"`
	Price     int64     `gorm:"not null" json:"price"` // Unit price in cents at checkout
	Quantity  int       `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`

	// Relationships
	Product product.Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// TableName overrides the table name
func (Order) TableName() string {
	return "orders"
}

// TableName overrides the table name
func (OrderItem) TableName() string {
	return "order_items"
}

// TotalPrice returns the line total for the item
func (oi *OrderItem) TotalPrice() int64 {
	return oi.Price * int64(oi.Quantity)
}

// CanTransitionTo checks whether the order may move to the given status
func (o *Order) CanTransitionTo(newStatus string) bool {
	allowed := map[string][]string{
		StatusPending:    {StatusProcessing, StatusCancelled},
		StatusProcessing: {StatusShipped, StatusCancelled},
		StatusShipped:    {StatusDelivered},
		StatusDelivered:  {},
		StatusCancelled:  {},
	}
	for _, s := range allowed[o.Status] {
		if s == newStatus {
			return true
		}
	}
	return false
}

// IsValidStatus reports whether the string is a known order status
func IsValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}
