package checkout

import (
	"context"
	"fmt"
	"testing"

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
	"github.com/your-org/storefront/internal/pkg/apperrors"
)

// fakePaymentClient records session requests and returns a canned
// session or a failure
type fakePaymentClient struct {
	lastRequest *payment.SessionRequest
	fail        bool
}

func (f *fakePaymentClient) CreateCheckoutSession(ctx context.Context, req *payment.SessionRequest) (*payment.CheckoutSession, error) {
	f.lastRequest = req
	if f.fail {
		return nil, apperrors.External("payment provider request failed", nil)
	}
	return &payment.CheckoutSession{
		ID:  "cs_test_123",
		URL: "https://checkout.example.com/cs_test_123",
	}, nil
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
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
	return db
}

func seedCheckoutFixture(t *testing.T, db *gorm.DB) (*user.User, *product.Product) {
	t.Helper()
	u := user.User{Email: "shopper@example.com", Password: "x", Name: "Shopper"}
	require.NoError(t, db.Create(&u).Error)

	cat := product.Category{Name: "Electronics", Slug: "electronics"}
	require.NoError(t, db.Create(&cat).Error)
	p := product.Product{
		Name:        "Wireless Headphones",
		Slug:        "wireless-headphones",
		Description: "test",
		Price:       19999,
		Stock:       10,
		CategoryID:  cat.ID,
		Images:      []string{"https://example.com/img.jpg"},
	}
	require.NoError(t, db.Create(&p).Error)
	return &u, &p
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.BaseURL = "http://localhost:3000"
	return cfg
}

func addToCart(t *testing.T, db *gorm.DB, userID, productID uint, qty int) {
	t.Helper()
	require.NoError(t, db.Create(&cart.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  qty,
	}).Error)
}

func shippingAddress() order.Address {
	return order.Address{
		FullName:     "Test Shopper",
		AddressLine1: "1 Main St",
		City:         "Springfield",
		State:        "IL",
		PostalCode:   "12345",
		Country:      "US",
		Phone:        "+1 555 0100",
	}
}

func TestCheckoutCreatesPendingOrder(t *testing.T) {
	db := setupTestDB(t)
	u, p := seedCheckoutFixture(t, db)
	addToCart(t, db, u.ID, p.ID, 2)

	payments := &fakePaymentClient{}
	svc := NewService(db, testConfig(), payments)

	resp, err := svc.Checkout(context.Background(), u.ID, &CheckoutRequest{ShippingAddress: shippingAddress()})
	require.NoError(t, err)
	assert.Equal(t, int64(39998), resp.Total)
	assert.Equal(t, "cs_test_123", resp.SessionID)
	assert.NotEmpty(t, resp.CheckoutURL)
	assert.Regexp(t, `^ORD-\d{8}-\d{5}$`, resp.OrderNumber)
	assert.Contains(t, resp.OrderNumber, fmt.Sprintf("-%05d", resp.OrderID),
		"the number is derived from the order id")

	var o order.Order
	require.NoError(t, db.Preload("Items").First(&o, resp.OrderID).Error)
	assert.Equal(t, order.StatusPending, o.Status)
	assert.Equal(t, "cs_test_123", o.StripeSessionID)
	require.Len(t, o.Items, 1)
	assert.Equal(t, "Wireless Headphones", o.Items[0].Name)
	assert.Equal(t, int64(19999), o.Items[0].Price)
	assert.Equal(t, 2, o.Items[0].Quantity)

	// The cart survives until payment confirmation
	var cartCount int64
	require.NoError(t, db.Model(&cart.CartItem{}).Where("user_id = ?", u.ID).Count(&cartCount).Error)
	assert.Equal(t, int64(1), cartCount)

	// Checkout itself never touches stock
	var fresh product.Product
	require.NoError(t, db.First(&fresh, p.ID).Error)
	assert.Equal(t, 10, fresh.Stock)
}

func TestCheckoutEmptyCart(t *testing.T) {
	db := setupTestDB(t)
	u, _ := seedCheckoutFixture(t, db)

	svc := NewService(db, testConfig(), &fakePaymentClient{})

	_, err := svc.Checkout(context.Background(), u.ID, &CheckoutRequest{ShippingAddress: shippingAddress()})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	var count int64
	require.NoError(t, db.Model(&order.Order{}).Count(&count).Error)
	assert.Equal(t, int64(0), count, "empty cart must not create an order")
}

func TestCheckoutInsufficientStockNamesProduct(t *testing.T) {
	db := setupTestDB(t)
	u, p := seedCheckoutFixture(t, db)
	addToCart(t, db, u.ID, p.ID, 20)

	svc := NewService(db, testConfig(), &fakePaymentClient{})

	_, err := svc.Checkout(context.Background(), u.ID, &CheckoutRequest{ShippingAddress: shippingAddress()})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
	assert.Contains(t, err.Error(), "Wireless Headphones")

	var count int64
	require.NoError(t, db.Model(&order.Order{}).Count(&count).Error)
	assert.Equal(t, int64(0), count, "failed stock check must not create an order")
}

func TestCheckoutFreezesPriceAtCheckoutTime(t *testing.T) {
	db := setupTestDB(t)
	u, p := seedCheckoutFixture(t, db)
	addToCart(t, db, u.ID, p.ID, 1)

	payments := &fakePaymentClient{}
	svc := NewService(db, testConfig(), payments)

	resp, err := svc.Checkout(context.Background(), u.ID, &CheckoutRequest{ShippingAddress: shippingAddress()})
	require.NoError(t, err)

	// Reprice the product after checkout; the order keeps its snapshot
	require.NoError(t, db.Model(p).Update("price", 29999).Error)

	var item order.OrderItem
	require.NoError(t, db.Where("order_id = ?", resp.OrderID).First(&item).Error)
	assert.Equal(t, int64(19999), item.Price)

	require.NotNil(t, payments.lastRequest)
	require.Len(t, payments.lastRequest.Items, 1)
	assert.Equal(t, int64(19999), payments.lastRequest.Items[0].Price)
	assert.Equal(t, "shopper@example.com", payments.lastRequest.Email)
	assert.Equal(t, resp.OrderID, payments.lastRequest.OrderID)
}

func TestCheckoutProviderFailureLeavesPendingOrder(t *testing.T) {
	db := setupTestDB(t)
	u, p := seedCheckoutFixture(t, db)
	addToCart(t, db, u.ID, p.ID, 2)

	svc := NewService(db, testConfig(), &fakePaymentClient{fail: true})

	resp, err := svc.Checkout(context.Background(), u.ID, &CheckoutRequest{ShippingAddress: shippingAddress()})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindExternal))
	require.NotNil(t, resp, "the caller still gets the order id for a retry")
	assert.NotZero(t, resp.OrderID)

	var o order.Order
	require.NoError(t, db.First(&o, resp.OrderID).Error)
	assert.Equal(t, order.StatusPending, o.Status)
	assert.Empty(t, o.StripeSessionID)

	var cartCount int64
	require.NoError(t, db.Model(&cart.CartItem{}).Where("user_id = ?", u.ID).Count(&cartCount).Error)
	assert.Equal(t, int64(1), cartCount, "provider failure must not clear the cart")
}
