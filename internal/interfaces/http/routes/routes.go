// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/checkout"
	"github.com/your-org/storefront/internal/domain/payment"
	"github.com/your-org/storefront/internal/interfaces/http/handlers"
	"github.com/your-org/storefront/internal/interfaces/http/middleware"
	"github.com/your-org/storefront/internal/pkg/auth"
)

// SetupRoutes wires every API route under /api/v1
func SetupRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	jwtManager := auth.NewJWTManager(cfg)
	authRequired := middleware.AuthMiddleware(jwtManager, cfg)
	adminRequired := middleware.AdminMiddleware()

	var payments checkout.PaymentClient = payment.NewStripeClient(cfg)

	setupAuthRoutes(rg, db, cfg, authRequired)
	setupCatalogRoutes(rg, db, cfg, authRequired, adminRequired)
	setupCartRoutes(rg, db, cfg, authRequired)
	setupCheckoutRoutes(rg, db, cfg, payments, authRequired)
	setupOrderRoutes(rg, db, cfg, authRequired)
	setupWebhookRoutes(rg, db, cfg)
	setupAdminRoutes(rg, db, redisClient, cfg, authRequired, adminRequired)
}

func setupAuthRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config, authRequired gin.HandlerFunc) {
	authHandler := handlers.NewAuthHandler(db, cfg)

	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/signup", authHandler.Signup)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/logout", authHandler.Logout)

		protected := authGroup.Group("")
		protected.Use(authRequired)
		{
			protected.GET("/me", authHandler.Me)
		}
	}
}

func setupCatalogRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config, authRequired, adminRequired gin.HandlerFunc) {
	productHandler := handlers.NewProductHandler(db, cfg)
	categoryHandler := handlers.NewCategoryHandler(db)

	products := rg.Group("/products")
	{
		products.GET("", productHandler.ListProducts)
		products.GET("/:id", productHandler.GetProduct)
		products.GET("/slug/:slug", productHandler.GetProductBySlug)

		// Catalog mutations live on the same paths, admin only
		products.POST("", authRequired, adminRequired, productHandler.CreateProduct)
		products.PATCH("/:id", authRequired, adminRequired, productHandler.UpdateProduct)
		products.DELETE("/:id", authRequired, adminRequired, productHandler.DeleteProduct)
	}

	categories := rg.Group("/categories")
	{
		categories.GET("", categoryHandler.ListCategories)
		categories.GET("/:slug", categoryHandler.GetCategory)
	}
}

func setupCartRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config, authRequired gin.HandlerFunc) {
	cartHandler := handlers.NewCartHandler(db, cfg)

	cartGroup := rg.Group("/cart")
	cartGroup.Use(authRequired)
	{
		cartGroup.GET("", cartHandler.GetCart)
		cartGroup.POST("", cartHandler.AddToCart)
		cartGroup.PATCH("/:id", cartHandler.UpdateCartItem)
		cartGroup.DELETE("/:id", cartHandler.RemoveCartItem)
		cartGroup.DELETE("", cartHandler.ClearCart)
	}
}

func setupCheckoutRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config, payments checkout.PaymentClient, authRequired gin.HandlerFunc) {
	checkoutHandler := handlers.NewCheckoutHandler(db, cfg, payments)

	checkoutGroup := rg.Group("/checkout")
	checkoutGroup.Use(authRequired)
	{
		checkoutGroup.POST("", checkoutHandler.Checkout)
	}
}

func setupOrderRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config, authRequired gin.HandlerFunc) {
	orderHandler := handlers.NewOrderHandler(db, cfg)

	orders := rg.Group("/orders")
	orders.Use(authRequired)
	{
		orders.GET("", orderHandler.ListOrders)
		orders.GET("/:id", orderHandler.GetOrder)
	}
}

func setupWebhookRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	webhookHandler := handlers.NewWebhookHandler(db, cfg)

	// No auth; the signature check is the authentication
	webhooks := rg.Group("/webhooks")
	{
		webhooks.POST("/payment", webhookHandler.HandlePaymentWebhook)
	}
}

func setupAdminRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config, authRequired, adminRequired gin.HandlerFunc) {
	orderHandler := handlers.NewOrderHandler(db, cfg)
	statsHandler := handlers.NewStatsHandler(db, redisClient)

	admin := rg.Group("/admin")
	admin.Use(authRequired, adminRequired)
	{
		admin.GET("/stats", statsHandler.GetStats)
		admin.GET("/orders", orderHandler.ListAllOrders)
		admin.PUT("/orders/:id/status", orderHandler.UpdateOrderStatus)
	}
}
