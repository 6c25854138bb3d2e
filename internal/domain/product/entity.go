// internal/domain/product/entity.go
package product

import (
	"time"

	"gorm.io/gorm"
)

// Product represents the product entity
type Product struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"not null;size:255" json:"name"`
	Slug         string         `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Description  string         `gorm:"type:text" json:"description"`
	Price        int64          `gorm:"not null" json:"price"` // Price in cents
	ComparePrice *int64         `json:"compare_price,omitempty"`
	Stock        int            `gorm:"not null;default:0" json:"stock"`
	CategoryID   uint           `gorm:"not null;index" json:"category_id"`
	Images       []string       `gorm:"serializer:json" json:"images"`
	Featured     bool           `gorm:"default:false" json:"featured"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Category Category `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"category"`
}

// Category represents product categories
type Category struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"uniqueIndex;not null;size:255" json:"name"`
	Slug        string         `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Description string         `gorm:"size:500" json:"description"`
	Image       string         `gorm:"size:500" json:"image"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Products []Product `gorm:"foreignKey:CategoryID" json:"products,omitempty"`
}

// TableName overrides
func (Product) TableName() string  { return "products" }
func (Category) TableName() string { return "categories" }

// Business methods for Product

func (p *Product) IsInStock() bool {
	return p.Stock > 0
}

func (p *Product) GetFormattedPrice() float64 {
	return float64(p.Price) / 100
}

func (p *Product) GetDiscountPercentage() int {
	if p.ComparePrice != nil && *p.ComparePrice > 0 && p.Price < *p.ComparePrice {
		return int(((*p.ComparePrice - p.Price) * 100) / *p.ComparePrice)
	}
	return 0
}
