// internal/domain/cart/entity.go
package cart

import (
	"time"
)

// CartItem represents a cart line stored in database for an authenticated user
type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index:idx_cart_user_product,unique" json:"user_id"`
	ProductID uint      `gorm:"not null;index:idx_cart_user_product,unique" json:"product_id"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name
func (CartItem) TableName() string {
	return "cart_items"
}
