// internal/domain/cart/service.go
package cart

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/pkg/apperrors"
)

// Service handles cart business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new cart service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// AddToCartRequest represents add to cart request
type AddToCartRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

// UpdateCartItemRequest represents update cart item request
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// CartItemResponse represents a cart line with product details and a
// line total at the product's current price
type CartItemResponse struct {
	ID        uint             `json:"id"`
	ProductID uint             `json:"product_id"`
	Quantity  int              `json:"quantity"`
	Product   *product.Product `json:"product,omitempty"`
	LineTotal int64            `json:"line_total"`
	AddedAt   time.Time        `json:"added_at"`
}

// CartResponse represents a shopping cart with items and totals
type CartResponse struct {
	Items         []CartItemResponse `json:"items"`
	ItemCount     int                `json:"item_count"`
	TotalQuantity int                `json:"total_quantity"`
	Total         int64              `json:"total"`
}

// AddItem adds a product to the user's cart, merging with an existing
// line for the same product. The stock check covers the combined
// quantity so repeated adds cannot sneak past it.
func (s *Service) AddItem(userID uint, req *AddToCartRequest) (*CartItem, error) {
	var p product.Product
	if err := s.db.First(&p, req.ProductID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("product not found")
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", err)
	}

	var existing CartItem
	err := s.db.Where("user_id = ? AND product_id = ?", userID, req.ProductID).
		First(&existing).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("failed to check existing cart item: %w", err)
	}

	requested := req.Quantity
	if err == nil {
		requested += existing.Quantity
	}
	if requested > p.Stock {
		return nil, apperrors.Conflict(fmt.Sprintf("not enough stock for %s", p.Name))
	}

	if err == nil {
		existing.Quantity = requested
		if saveErr := s.db.Save(&existing).Error; saveErr != nil {
			return nil, fmt.Errorf("failed to update cart item: %w", saveErr)
		}
		return &existing, nil
	}

	item := CartItem{
		UserID:    userID,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	}
	if createErr := s.db.Create(&item).Error; createErr != nil {
		return nil, fmt.Errorf("failed to create cart item: %w", createErr)
	}
	return &item, nil
}

// UpdateQuantity replaces the quantity of a cart line. A line that
// exists but belongs to another user is reported as forbidden, not
// missing.
func (s *Service) UpdateQuantity(userID, itemID uint, req *UpdateCartItemRequest) (*CartItem, error) {
	item, err := s.getOwnedItem(userID, itemID)
	if err != nil {
		return nil, err
	}

	var p product.Product
	if err := s.db.First(&p, item.ProductID).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve product: %w", err)
	}
	if req.Quantity > p.Stock {
		return nil, apperrors.Conflict(fmt.Sprintf("not enough stock for %s", p.Name))
	}

	item.Quantity = req.Quantity
	if err := s.db.Save(item).Error; err != nil {
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}
	return item, nil
}

// RemoveItem deletes a single cart line owned by the user
func (s *Service) RemoveItem(userID, itemID uint) error {
	item, err := s.getOwnedItem(userID, itemID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(item).Error; err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	return nil
}

// ClearCart removes every cart line for the user
func (s *Service) ClearCart(userID uint) error {
	err := s.db.Where("user_id = ?", userID).Delete(&CartItem{}).Error
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// GetCart retrieves the user's cart with product details. Line totals
// use the product's current price, so the cart view always reflects
// live catalog pricing.
func (s *Service) GetCart(userID uint) (*CartResponse, error) {
	var items []CartItem
	err := s.db.Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve cart items: %w", err)
	}

	resp := &CartResponse{Items: make([]CartItemResponse, 0, len(items))}
	for _, item := range items {
		var p product.Product
		if err := s.db.Preload("Category").First(&p, item.ProductID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				// Product removed from the catalog; drop the stale line
				// so the cart view and checkout agree on its contents
				if delErr := s.db.Delete(&CartItem{}, item.ID).Error; delErr != nil {
					return nil, fmt.Errorf("failed to prune stale cart item %d: %w", item.ID, delErr)
				}
				continue
			}
			return nil, fmt.Errorf("failed to retrieve product %d: %w", item.ProductID, err)
		}

		lineTotal := p.Price * int64(item.Quantity)
		resp.Items = append(resp.Items, CartItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Product:   &p,
			LineTotal: lineTotal,
			AddedAt:   item.CreatedAt,
		})
		resp.ItemCount++
		resp.TotalQuantity += item.Quantity
		resp.Total += lineTotal
	}
	return resp, nil
}

func (s *Service) getOwnedItem(userID, itemID uint) (*CartItem, error) {
	var item CartItem
	if err := s.db.First(&item, itemID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("cart item not found")
		}
		return nil, fmt.Errorf("failed to retrieve cart item: %w", err)
	}
	if item.UserID != userID {
		return nil, apperrors.Authorization("cart item does not belong to you")
	}
	return &item, nil
}
