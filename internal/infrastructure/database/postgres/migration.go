// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/order"
	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/domain/user"
	"github.com/your-org/storefront/internal/pkg/slug"
)

// Migration handles database migrations
type Migration struct {
	db *gorm.DB
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB) *Migration {
	return &Migration{
		db: db,
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	log.Println("🔄 Running database auto-migrations...")

	// Dependency order: parents before children
	models := []interface{}{
		&user.User{},
		&product.Category{},
		&product.Product{},
		&cart.CartItem{},
		&order.Order{},
		&order.OrderItem{},
	}

	for _, model := range models {
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	log.Println("✅ Database auto-migrations completed successfully")
	return nil
}

// SeedDevelopmentData populates an empty development database with an
// admin account, categories, and sample products. Safe to call on
// every boot; it bails out as soon as it sees data.
func (m *Migration) SeedDevelopmentData(cfg *config.Config) error {
	var userCount int64
	if err := m.db.Model(&user.User{}).Count(&userCount).Error; err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if userCount > 0 {
		return nil
	}

	log.Println("🌱 Seeding development data...")

	hash, err := bcrypt.GenerateFromPassword([]byte("Admin@123"), cfg.Security.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	admin := user.User{
		Email:    "admin@ecommerce.com",
		Password: string(hash),
		Name:     "Admin User",
		Role:     user.RoleAdmin,
	}
	if err := m.db.Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	categories := []product.Category{
		{Name: "Electronics", Description: "Latest gadgets and electronic devices"},
		{Name: "Fashion", Description: "Trendy clothing and accessories"},
		{Name: "Home & Living", Description: "Everything for your home"},
		{Name: "Sports & Outdoors", Description: "Gear for sports and outdoor activities"},
		{Name: "Books", Description: "Books across all genres"},
	}
	for i := range categories {
		categories[i].Slug = slug.Make(categories[i].Name)
		if err := m.db.Create(&categories[i]).Error; err != nil {
			return fmt.Errorf("failed to create category %q: %w", categories[i].Name, err)
		}
	}

	products := []product.Product{
		{
			Name:        "Wireless Headphones",
			Description: "Premium noise-cancelling wireless headphones with 30-hour battery life",
			Price:       19999,
			Stock:       50,
			CategoryID:  categories[0].ID,
			Featured:    true,
			Images:      []string{"https://images.unsplash.com/photo-1505740420928-5e560c06d30e"},
		},
		{
			Name:        "Smart Watch",
			Description: "Fitness tracking smart watch with heart rate monitor",
			Price:       24999,
			Stock:       30,
			CategoryID:  categories[0].ID,
			Featured:    true,
			Images:      []string{"https://images.unsplash.com/photo-1523275335684-37898b6baf30"},
		},
		{
			Name:        "Classic Denim Jacket",
			Description: "Timeless denim jacket that goes with everything",
			Price:       7999,
			Stock:       75,
			CategoryID:  categories[1].ID,
			Images:      []string{"https://images.unsplash.com/photo-1576995853123-5a10305d93c0"},
		},
		{
			Name:        "Ceramic Plant Pot",
			Description: "Handcrafted ceramic pot for indoor plants",
			Price:       2499,
			Stock:       100,
			CategoryID:  categories[2].ID,
			Images:      []string{"https://images.unsplash.com/photo-1485955900006-10f4d324d411"},
		},
		{
			Name:        "Yoga Mat",
			Description: "Non-slip eco-friendly yoga mat",
			Price:       3999,
			Stock:       60,
			CategoryID:  categories[3].ID,
			Images:      []string{"https://images.unsplash.com/photo-1544367567-0f2fcb009e0b"},
		},
		{
			Name:        "The Art of Programming",
			Description: "A practical guide to writing clean, maintainable code",
			Price:       4499,
			Stock:       40,
			CategoryID:  categories[4].ID,
			Images:      []string{"https://images.unsplash.com/photo-1532012197267-da84d127e765"},
		},
	}
	for i := range products {
		products[i].Slug = slug.Make(products[i].Name)
		if err := m.db.Create(&products[i]).Error; err != nil {
			return fmt.Errorf("failed to create product %q: %w", products[i].Name, err)
		}
	}

	log.Printf("✅ Seeded %d categories and %d products", len(categories), len(products))
	return nil
}
