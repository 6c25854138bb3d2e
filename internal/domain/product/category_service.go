// internal/domain/product/category_service.go
package product

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/your-org/storefront/internal/pkg/apperrors"
)

// CategoryService handles category business logic
type CategoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new category service
func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{db: db}
}

// CategoryWithCount is a category plus the number of products in it
type CategoryWithCount struct {
	Category
	ProductCount int64 `json:"product_count"`
}

// GetCategories retrieves all categories with their product counts
func (s *CategoryService) GetCategories() ([]CategoryWithCount, error) {
	var categories []Category
	if err := s.db.Order("name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve categories: %w", err)
	}

	result := make([]CategoryWithCount, 0, len(categories))
	for _, c := range categories {
		var count int64
		if err := s.db.Model(&Product{}).Where("category_id = ?", c.ID).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to count products for category %d: %w", c.ID, err)
		}
		result = append(result, CategoryWithCount{Category: c, ProductCount: count})
	}
	return result, nil
}

// GetCategoryBySlug retrieves a category and its products
func (s *CategoryService) GetCategoryBySlug(categorySlug string) (*Category, error) {
	var c Category
	err := s.db.Preload("Products").Where("slug = ?", categorySlug).First(&c).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("category not found")
		}
		return nil, fmt.Errorf("failed to retrieve category: %w", err)
	}
	return &c, nil
}
