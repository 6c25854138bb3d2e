// internal/domain/product/service.go
package product

import (
	"fmt"
	"strings"

	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/pkg/apperrors"
	"github.com/your-org/storefront/internal/pkg/slug"
	"gorm.io/gorm"
)

// Service handles catalog business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new product service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// ProductListRequest represents product list query parameters
type ProductListRequest struct {
	Category string `form:"category"` // category slug
	Search   string `form:"search"`
	Featured *bool  `form:"featured"`
	Limit    int    `form:"limit,default=50"`
	Offset   int    `form:"offset,default=0"`
}

// ProductCreateRequest represents product creation data
type ProductCreateRequest struct {
	Name         string   `json:"name" binding:"required"`
	Description  string   `json:"description" binding:"required"`
	Price        int64    `json:"price" binding:"required,gt=0"`
	ComparePrice *int64   `json:"compare_price" binding:"omitempty,gt=0"`
	Images       []string `json:"images" binding:"required,min=1"`
	Stock        int      `json:"stock" binding:"min=0"`
	CategoryID   uint     `json:"category_id" binding:"required"`
	Featured     bool     `json:"featured"`
}

// ProductUpdateRequest represents partial product update data
type ProductUpdateRequest struct {
	Name         *string  `json:"name"`
	Description  *string  `json:"description"`
	Price        *int64   `json:"price" binding:"omitempty,gt=0"`
	ComparePrice *int64   `json:"compare_price" binding:"omitempty,gt=0"`
	Images       []string `json:"images"`
	Stock        *int     `json:"stock" binding:"omitempty,min=0"`
	CategoryID   *uint    `json:"category_id"`
	Featured     *bool    `json:"featured"`
}

// ProductListResponse represents the product listing with paging info
type ProductListResponse struct {
	Products []Product `json:"products"`
	Total    int64     `json:"total"`
	Limit    int       `json:"limit"`
	Offset   int       `json:"offset"`
}

// GetProducts retrieves products with filtering and pagination
func (s *Service) GetProducts(req *ProductListRequest) (*ProductListResponse, error) {
	var products []Product
	var total int64

	query := s.db.Model(&Product{}).Preload("Category")

	if req.Category != "" {
		query = query.Where(
			"category_id IN (?)",
			s.db.Model(&Category{}).Select("id").Where("slug = ?", req.Category),
		)
	}

	if req.Search != "" {
		search := "%" + strings.ToLower(req.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", search, search)
	}

	if req.Featured != nil {
		query = query.Where("featured = ?", *req.Featured)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 50
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	err := query.Order("created_at DESC").
		Limit(req.Limit).
		Offset(req.Offset).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve products: %w", err)
	}

	return &ProductListResponse{
		Products: products,
		Total:    total,
		Limit:    req.Limit,
		Offset:   req.Offset,
	}, nil
}

// GetProduct retrieves a single product by ID
func (s *Service) GetProduct(id uint) (*Product, error) {
	var p Product
	err := s.db.Preload("Category").First(&p, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("product not found")
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", err)
	}
	return &p, nil
}

// GetProductBySlug retrieves a single product by slug
func (s *Service) GetProductBySlug(productSlug string) (*Product, error) {
	var p Product
	err := s.db.Preload("Category").Where("slug = ?", productSlug).First(&p).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("product not found")
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", err)
	}
	return &p, nil
}

// CreateProduct creates a new product with a slug derived from its name
func (s *Service) CreateProduct(req *ProductCreateRequest) (*Product, error) {
	productSlug := slug.Make(req.Name)

	// Reject duplicate names up front; the unique index is the backstop
	var existing Product
	err := s.db.Where("slug = ?", productSlug).First(&existing).Error
	if err == nil {
		return nil, apperrors.Conflict("product with this name already exists")
	}
	if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("failed to check existing product: %w", err)
	}

	var category Category
	if err := s.db.First(&category, req.CategoryID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.Validation("category not found")
		}
		return nil, fmt.Errorf("failed to look up category: %w", err)
	}

	p := Product{
		Name:         req.Name,
		Slug:         productSlug,
		Description:  req.Description,
		Price:        req.Price,
		ComparePrice: req.ComparePrice,
		Images:       req.Images,
		Stock:        req.Stock,
		CategoryID:   req.CategoryID,
		Featured:     req.Featured,
	}
	if err := s.db.Create(&p).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	p.Category = category
	return &p, nil
}

// UpdateProduct applies a partial update to a product
func (s *Service) UpdateProduct(id uint, req *ProductUpdateRequest) (*Product, error) {
	var p Product
	if err := s.db.First(&p, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("product not found")
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", err)
	}

	updates := map[string]interface{}{}

	if req.Name != nil {
		updates["name"] = *req.Name
		updates["slug"] = slug.Make(*req.Name)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.ComparePrice != nil {
		updates["compare_price"] = *req.ComparePrice
	}
	if req.Images != nil {
		p.Images = req.Images
		if err := s.db.Model(&p).Update("images", &p.Images).Error; err != nil {
			return nil, fmt.Errorf("failed to update product images: %w", err)
		}
	}
	if req.Stock != nil {
		updates["stock"] = *req.Stock
	}
	if req.CategoryID != nil {
		updates["category_id"] = *req.CategoryID
	}
	if req.Featured != nil {
		updates["featured"] = *req.Featured
	}

	if len(updates) > 0 {
		if err := s.db.Model(&p).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update product: %w", err)
		}
	}

	// Reload with category
	if err := s.db.Preload("Category").First(&p, id).Error; err != nil {
		return nil, fmt.Errorf("failed to reload product: %w", err)
	}
	return &p, nil
}

// DeleteProduct soft-deletes a product. Existing order items keep their
// own name/price snapshot, so history survives the deletion.
func (s *Service) DeleteProduct(id uint) error {
	result := s.db.Delete(&Product{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("product not found")
	}
	return nil
}
