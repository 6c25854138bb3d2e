package inventory

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/order"
	"github.com/your-org/storefront/internal/domain/payment"
	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/domain/user"
)

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

type fixture struct {
	db      *gorm.DB
	user    user.User
	product product.Product
	order   order.Order
}

// newFixture builds a pending order for 3 units of a 10-stock product,
// with one leftover cart line for the buyer
func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupTestDB(t)

	f := &fixture{db: db}
	f.user = user.User{Email: "buyer@example.com", Password: "x", Name: "Buyer"}
	require.NoError(t, db.Create(&f.user).Error)

	cat := product.Category{Name: "Books", Slug: "books"}
	require.NoError(t, db.Create(&cat).Error)
	f.product = product.Product{
		Name:        "Some Book",
		Slug:        "some-book",
		Description: "test",
		Price:       4499,
		Stock:       10,
		CategoryID:  cat.ID,
		Images:      []string{"https://example.com/img.jpg"},
	}
	require.NoError(t, db.Create(&f.product).Error)

	f.order = order.Order{
		OrderNumber:     "ORD-20260831-00001",
		UserID:          f.user.ID,
		Status:          order.StatusPending,
		Total:           13497,
		StripeSessionID: "cs_test_abc",
	}
	require.NoError(t, db.Create(&f.order).Error)
	require.NoError(t, db.Create(&order.OrderItem{
		OrderID:   f.order.ID,
		ProductID: f.product.ID,
		Name:      f.product.Name,
		Price:     f.product.Price,
		Quantity:  3,
	}).Error)

	require.NoError(t, db.Create(&cart.CartItem{
		UserID:    f.user.ID,
		ProductID: f.product.ID,
		Quantity:  3,
	}).Error)

	return f
}

func (f *fixture) reloadOrder(t *testing.T) order.Order {
	t.Helper()
	var o order.Order
	require.NoError(t, f.db.First(&o, f.order.ID).Error)
	return o
}

func (f *fixture) stock(t *testing.T) int {
	t.Helper()
	var p product.Product
	require.NoError(t, f.db.First(&p, f.product.ID).Error)
	return p.Stock
}

func (f *fixture) cartCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&cart.CartItem{}).Where("user_id = ?", f.user.ID).Count(&n).Error)
	return n
}

func completedEvent(f *fixture) *payment.Event {
	return &payment.Event{
		ID:        "evt_1",
		Type:      payment.EventCheckoutCompleted,
		SessionID: "cs_test_abc",
		OrderID:   f.order.ID,
	}
}

func TestCompletedEventReconcilesOrder(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.db)

	require.NoError(t, svc.HandleEvent(completedEvent(f)))

	assert.Equal(t, order.StatusProcessing, f.reloadOrder(t).Status)
	assert.Equal(t, 7, f.stock(t))
	assert.Equal(t, int64(0), f.cartCount(t))
}

func TestCompletedEventIsIdempotent(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.db)

	require.NoError(t, svc.HandleEvent(completedEvent(f)))
	// Second delivery of the same event
	require.NoError(t, svc.HandleEvent(completedEvent(f)))

	assert.Equal(t, order.StatusProcessing, f.reloadOrder(t).Status)
	assert.Equal(t, 7, f.stock(t), "stock must be decremented exactly once")
}

func TestCompletedEventResolvesOrderBySession(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.db)

	event := completedEvent(f)
	event.OrderID = 0 // metadata missing, session id still resolves

	require.NoError(t, svc.HandleEvent(event))
	assert.Equal(t, order.StatusProcessing, f.reloadOrder(t).Status)
}

func TestCompletedEventSkipsNonPendingOrder(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.db)

	require.NoError(t, f.db.Model(&order.Order{}).
		Where("id = ?", f.order.ID).
		Update("status", order.StatusCancelled).Error)

	require.NoError(t, svc.HandleEvent(completedEvent(f)))

	assert.Equal(t, order.StatusCancelled, f.reloadOrder(t).Status)
	assert.Equal(t, 10, f.stock(t))
	assert.Equal(t, int64(1), f.cartCount(t))
}

func TestCompletedEventUnknownOrder(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.db)

	err := svc.HandleEvent(&payment.Event{
		ID:        "evt_x",
		Type:      payment.EventCheckoutCompleted,
		SessionID: "cs_does_not_exist",
		OrderID:   999,
	})
	require.NoError(t, err, "unknown orders are acknowledged, not retried")
	assert.Equal(t, 10, f.stock(t))
}

func TestExpiredEventCancelsPendingOrder(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.db)

	event := completedEvent(f)
	event.Type = payment.EventCheckoutExpired

	require.NoError(t, svc.HandleEvent(event))

	assert.Equal(t, order.StatusCancelled, f.reloadOrder(t).Status)
	assert.Equal(t, 10, f.stock(t), "expiry must not touch stock")
	assert.Equal(t, int64(1), f.cartCount(t), "expiry must not clear the cart")
}

func TestExpiredEventAfterCompletionIsNoOp(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.db)

	require.NoError(t, svc.HandleEvent(completedEvent(f)))

	expired := completedEvent(f)
	expired.Type = payment.EventCheckoutExpired
	require.NoError(t, svc.HandleEvent(expired))

	assert.Equal(t, order.StatusProcessing, f.reloadOrder(t).Status,
		"a paid order must not be cancelled by a late expiry event")
}

func TestUnknownEventTypeIgnored(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.db)

	err := svc.HandleEvent(&payment.Event{
		ID:      "evt_y",
		Type:    "invoice.paid",
		OrderID: f.order.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, f.reloadOrder(t).Status)
}

func TestStockMayGoNegativeOnOversell(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.db)

	// A concurrent sale drained the stock between checkout and payment
	require.NoError(t, f.db.Model(&product.Product{}).
		Where("id = ?", f.product.ID).
		Update("stock", 1).Error)

	require.NoError(t, svc.HandleEvent(completedEvent(f)))

	assert.Equal(t, -2, f.stock(t), "paid orders decrement unconditionally")
	assert.Equal(t, order.StatusProcessing, f.reloadOrder(t).Status)
}
