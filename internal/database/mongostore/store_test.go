package mongostore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"thekua-api/internal/apperr"
	"thekua-api/internal/database"
	"thekua-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests need a live server: THEKUA_MONGO_TEST_URI=mongodb://localhost:27017
func newTestStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("THEKUA_MONGO_TEST_URI")
	if uri == "" {
		t.Skip("THEKUA_MONGO_TEST_URI not set")
	}

	ctx := context.Background()
	name := fmt.Sprintf("thekua_test_%d", time.Now().UnixNano())
	s, err := Connect(ctx, uri, name)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.db.Drop(ctx)
		_ = s.Close(ctx)
	})
	return s
}

func seedProduct(t *testing.T, s *Store, name string, price float64, stock int) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Price: price, Stock: stock, Category: "sweets", IsActive: true}
	require.NoError(t, s.CreateProduct(context.Background(), p))
	return p
}

func orderFor(p *models.Product, qty int) *models.Order {
	return &models.Order{
		OrderNumber:   fmt.Sprintf("TK-TEST-%d", time.Now().UnixNano()),
		UserID:        "u1",
		Items:         []models.OrderItem{{Product: models.ProductSnapshot{ID: p.ID, Name: p.Name, Price: p.Price}, Quantity: qty, Price: p.Price, Subtotal: p.Price * float64(qty)}},
		PaymentMethod: models.PaymentMethodCOD,
		PaymentStatus: models.PaymentStatusPending,
		OrderStatus:   models.OrderStatusPending,
		FinalAmount:   p.Price * float64(qty),
	}
}

func TestCreateOrderReservesStock(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := seedProduct(t, s, "Thekua Classic", 100, 5)
	b := seedProduct(t, s, "Thekua Jaggery", 150, 1)

	o := orderFor(a, 3)
	require.NoError(t, s.CreateOrder(ctx, o))

	got, err := s.GetProduct(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Stock)
	assert.Equal(t, 3, got.SoldCount)

	// Second line short: the first line's reservation must be undone
	bad := orderFor(a, 1)
	bad.Items = append(bad.Items, orderFor(b, 2).Items...)
	err = s.CreateOrder(ctx, bad)
	assert.True(t, errors.Is(err, apperr.ErrInsufficientStock))

	got, err = s.GetProduct(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Stock)
	assert.Equal(t, 3, got.SoldCount)
}

func TestUpdateOrderConditional(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := seedProduct(t, s, "Thekua Classic", 100, 5)
	o := orderFor(p, 1)
	require.NoError(t, s.CreateOrder(ctx, o))

	confirmed := models.OrderStatusConfirmed
	updated, err := s.UpdateOrder(ctx, o.ID,
		database.OrderMatch{OrderStatus: models.OrderStatusPending},
		database.OrderUpdate{OrderStatus: &confirmed})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, updated.OrderStatus)

	_, err = s.UpdateOrder(ctx, o.ID,
		database.OrderMatch{OrderStatus: models.OrderStatusPending},
		database.OrderUpdate{OrderStatus: &confirmed})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = s.UpdateOrder(ctx, "missing", database.OrderMatch{}, database.OrderUpdate{OrderStatus: &confirmed})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestWebhookEventDedupe(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	fresh, err := s.RecordWebhookEvent(ctx, &models.WebhookEvent{ID: "evt_1", Event: "payment.captured"})
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = s.RecordWebhookEvent(ctx, &models.WebhookEvent{ID: "evt_1", Event: "payment.captured"})
	require.NoError(t, err)
	assert.False(t, fresh)
}

func TestIdempotencyKeyUnique(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := seedProduct(t, s, "Thekua Classic", 100, 5)

	key := "checkout-1"
	o := orderFor(p, 1)
	o.IdempotencyKey = &key
	require.NoError(t, s.CreateOrder(ctx, o))

	found, err := s.FindOrderByIdempotencyKey(ctx, "u1", key)
	require.NoError(t, err)
	assert.Equal(t, o.ID, found.ID)

	dup := orderFor(p, 1)
	dup.IdempotencyKey = &key
	assert.ErrorIs(t, s.CreateOrder(ctx, dup), apperr.ErrDuplicate)

	// The failed insert gave its unit back
	got, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Stock)
}

func TestPaymentIntentClaimedOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := seedProduct(t, s, "Thekua Classic", 100, 5)
	require.NoError(t, s.SavePaymentIntent(ctx, &models.PaymentIntent{ID: "order_P", UserID: "u1", Amount: 15000, Currency: "INR"}))

	paid := func() *models.Order {
		o := orderFor(p, 1)
		o.PaymentMethod = models.PaymentMethodRazorpay
		o.PaymentDetails = models.PaymentDetails{GatewayOrderID: "order_P", PaymentID: "pay_P"}
		return o
	}

	first := paid()
	require.NoError(t, s.CreateOrder(ctx, first))
	assert.ErrorIs(t, s.CreateOrder(ctx, paid()), apperr.ErrConflict)

	intent, err := s.GetPaymentIntent(ctx, "order_P")
	require.NoError(t, err)
	assert.Equal(t, first.ID, intent.OrderID)

	got, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Stock, "the refused order reserved nothing")
}

func TestReserveStock(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := seedProduct(t, s, "Thekua Classic", 100, 5)
	b := seedProduct(t, s, "Thekua Jaggery", 150, 1)

	require.NoError(t, s.ReserveStock(ctx, orderFor(a, 2).Items))

	items := append(orderFor(a, 1).Items, orderFor(b, 2).Items...)
	assert.ErrorIs(t, s.ReserveStock(ctx, items), apperr.ErrInsufficientStock)

	got, err := s.GetProduct(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Stock)
}
