package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/order"
	"github.com/your-org/storefront/internal/domain/payment"
	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/domain/user"
	"github.com/your-org/storefront/internal/interfaces/http/middleware"
)

type stubPaymentClient struct{}

func (stubPaymentClient) CreateCheckoutSession(ctx context.Context, req *payment.SessionRequest) (*payment.CheckoutSession, error) {
	return &payment.CheckoutSession{ID: "cs_test", URL: "https://checkout.example.com/cs_test"}, nil
}

func setupCheckoutTest(t *testing.T) (*gin.Engine, *gorm.DB, uint) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&user.User{},
		&product.Category{},
		&product.Product{},
		&cart.CartItem{},
		&order.Order{},
		&order.OrderItem{},
	))

	u := user.User{Email: "shopper@example.com", Password: "x", Name: "Shopper"}
	require.NoError(t, db.Create(&u).Error)
	cat := product.Category{Name: "Misc", Slug: "misc"}
	require.NoError(t, db.Create(&cat).Error)
	p := product.Product{Name: "Widget", Slug: "widget", Description: "d", Price: 1000, Stock: 10, CategoryID: cat.ID, Images: []string{"x"}}
	require.NoError(t, db.Create(&p).Error)
	require.NoError(t, db.Create(&cart.CartItem{UserID: u.ID, ProductID: p.ID, Quantity: 1}).Error)

	cfg := &config.Config{}
	cfg.App.BaseURL = "http://localhost:3000"

	router := gin.New()
	handler := NewCheckoutHandler(db, cfg, stubPaymentClient{})
	router.POST("/checkout", func(c *gin.Context) {
		c.Set(middleware.ContextUserID, u.ID)
		c.Next()
	}, handler.Checkout)
	return router, db, u.ID
}

func postCheckout(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/checkout", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCheckoutRejectsIncompleteAddress(t *testing.T) {
	router, db, _ := setupCheckoutTest(t)

	// Only a name; city, postal code, country and the rest are missing
	w := postCheckout(router, `{"shipping_address":{"full_name":"X"}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var count int64
	require.NoError(t, db.Model(&order.Order{}).Count(&count).Error)
	assert.Equal(t, int64(0), count, "a rejected address must not create an order")
}

func TestCheckoutRejectsMissingAddress(t *testing.T) {
	router, _, _ := setupCheckoutTest(t)

	w := postCheckout(router, `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckoutAcceptsCompleteAddress(t *testing.T) {
	router, db, _ := setupCheckoutTest(t)

	w := postCheckout(router, `{"shipping_address":{
		"full_name":"Test Shopper",
		"address_line1":"1 Main St",
		"city":"Springfield",
		"state":"IL",
		"postal_code":"12345",
		"country":"US",
		"phone":"+1 555 0100"
	}}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	var o order.Order
	require.NoError(t, db.First(&o).Error)
	assert.Equal(t, "Springfield", o.ShippingAddress.City)
	assert.Equal(t, order.StatusPending, o.Status)
}

func TestCheckoutAddressLine2IsOptional(t *testing.T) {
	router, _, _ := setupCheckoutTest(t)

	w := postCheckout(router, `{"shipping_address":{
		"full_name":"Test Shopper",
		"address_line1":"1 Main St",
		"address_line2":"",
		"city":"Springfield",
		"state":"IL",
		"postal_code":"12345",
		"country":"US",
		"phone":"+1 555 0100"
	}}`)
	assert.Equal(t, http.StatusCreated, w.Code)
}
