package sqlstore

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"thekua-api/internal/apperr"
	"thekua-api/internal/database"
	"thekua-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := OpenMemory(name)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func seedProduct(t *testing.T, s *Store, name string, price float64, stock int) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Price: price, Stock: stock, Category: "sweets", IsActive: true}
	require.NoError(t, s.CreateProduct(context.Background(), p))
	return p
}

func orderFor(userID string, p *models.Product, qty int) *models.Order {
	return &models.Order{
		OrderNumber:   "TK-" + userID + "-" + p.ID[:8],
		UserID:        userID,
		Items:         []models.OrderItem{{Product: models.ProductSnapshot{ID: p.ID, Name: p.Name, Price: p.Price}, Quantity: qty, Price: p.Price, Subtotal: p.Price * float64(qty)}},
		PaymentMethod: models.PaymentMethodCOD,
		PaymentStatus: models.PaymentStatusPending,
		OrderStatus:   models.OrderStatusPending,
		Subtotal:      p.Price * float64(qty),
		TotalAmount:   p.Price * float64(qty),
		FinalAmount:   p.Price * float64(qty),
	}
}

func TestCreateOrderReservesStock(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	p := seedProduct(t, s, "Thekua Classic", 120, 5)

	require.NoError(t, s.CreateOrder(ctx, orderFor("u1", p, 3)))

	got, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Stock)
	assert.Equal(t, 3, got.SoldCount)
}

func TestCreateOrderInsufficientStockRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	a := seedProduct(t, s, "Anarsa", 100, 10)
	b := seedProduct(t, s, "Khaja", 80, 1)

	o := orderFor("u1", a, 2)
	o.Items = append(o.Items, models.OrderItem{Product: models.ProductSnapshot{ID: b.ID, Name: b.Name}, Quantity: 2, Price: 80, Subtotal: 160})

	err := s.CreateOrder(ctx, o)
	require.ErrorIs(t, err, apperr.ErrInsufficientStock)

	got, err := s.GetProduct(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Stock, "first line must be rolled back")

	_, total, err := s.ListOrders(ctx, database.OrderFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestConcurrentCheckoutOfLastUnit(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	p := seedProduct(t, s, "Last Box", 250, 1)

	const buyers = 8
	var (
		mu         sync.Mutex
		succeeded  int
		outOfStock int
	)
	var g errgroup.Group
	for i := 0; i < buyers; i++ {
		o := orderFor("buyer", p, 1)
		o.OrderNumber = o.OrderNumber + "-" + string(rune('a'+i))
		g.Go(func() error {
			err := s.CreateOrder(ctx, o)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, apperr.ErrInsufficientStock):
				outOfStock++
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, buyers-1, outOfStock)

	got, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)
}

func TestUpdateOrderCompareAndSet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	p := seedProduct(t, s, "Pedakiya", 90, 4)
	o := orderFor("u1", p, 1)
	require.NoError(t, s.CreateOrder(ctx, o))

	shipped := models.OrderStatusShipped
	tracking := "DTDC123"
	updated, err := s.UpdateOrder(ctx, o.ID,
		database.OrderMatch{OrderStatus: models.OrderStatusPending},
		database.OrderUpdate{OrderStatus: &shipped, TrackingNumber: &tracking})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, updated.OrderStatus)
	assert.Equal(t, "DTDC123", updated.TrackingNumber)

	cancelled := models.OrderStatusCancelled
	_, err = s.UpdateOrder(ctx, o.ID,
		database.OrderMatch{OrderStatus: models.OrderStatusPending},
		database.OrderUpdate{OrderStatus: &cancelled})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = s.UpdateOrder(ctx, "missing", database.OrderMatch{}, database.OrderUpdate{OrderStatus: &cancelled})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestReleaseStock(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	p := seedProduct(t, s, "Gujiya", 60, 3)
	o := orderFor("u1", p, 2)
	require.NoError(t, s.CreateOrder(ctx, o))

	require.NoError(t, s.ReleaseStock(ctx, o.Items))

	got, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Stock)
	assert.Equal(t, 0, got.SoldCount)
}

func TestIdempotencyKeyLookup(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	p := seedProduct(t, s, "Thekua Jaggery", 150, 10)

	key := "checkout-1"
	o := orderFor("u1", p, 1)
	o.IdempotencyKey = &key
	require.NoError(t, s.CreateOrder(ctx, o))

	found, err := s.FindOrderByIdempotencyKey(ctx, "u1", key)
	require.NoError(t, err)
	assert.Equal(t, o.ID, found.ID)

	_, err = s.FindOrderByIdempotencyKey(ctx, "u2", key)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	dup := orderFor("u1", p, 1)
	dup.OrderNumber += "-dup"
	dup.IdempotencyKey = &key
	assert.ErrorIs(t, s.CreateOrder(ctx, dup), apperr.ErrDuplicate)
}

func TestFindOrderByGatewayOrderID(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	p := seedProduct(t, s, "Laddoo", 40, 10)
	require.NoError(t, s.SavePaymentIntent(ctx, &models.PaymentIntent{ID: "order_abc", UserID: "u1", Amount: 4000, Currency: "INR"}))
	o := orderFor("u1", p, 1)
	o.PaymentDetails = models.PaymentDetails{GatewayOrderID: "order_abc", PaymentID: "pay_1"}
	require.NoError(t, s.CreateOrder(ctx, o))

	found, err := s.FindOrderByGatewayOrderID(ctx, "order_abc")
	require.NoError(t, err)
	assert.Equal(t, o.ID, found.ID)
	assert.Equal(t, "pay_1", found.PaymentDetails.PaymentID)
}

func TestPaymentIntentClaimedOnce(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	p := seedProduct(t, s, "Thekua Classic", 250, 10)
	require.NoError(t, s.SavePaymentIntent(ctx, &models.PaymentIntent{ID: "order_P", UserID: "u1", Amount: 30000, Currency: "INR"}))

	const submissions = 8
	var (
		mu        sync.Mutex
		succeeded int
		refused   int
	)
	var g errgroup.Group
	for i := 0; i < submissions; i++ {
		o := orderFor("u1", p, 1)
		o.OrderNumber = o.OrderNumber + "-" + string(rune('a'+i))
		o.PaymentMethod = models.PaymentMethodRazorpay
		o.PaymentDetails = models.PaymentDetails{GatewayOrderID: "order_P", PaymentID: "pay_P"}
		g.Go(func() error {
			err := s.CreateOrder(ctx, o)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, apperr.ErrConflict):
				refused++
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, submissions-1, refused)

	got, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, got.Stock, "refused orders reserve nothing")

	intent, err := s.GetPaymentIntent(ctx, "order_P")
	require.NoError(t, err)
	assert.NotEmpty(t, intent.OrderID)

	// An intent nobody opened cannot be claimed either
	stray := orderFor("u1", p, 1)
	stray.OrderNumber += "-stray"
	stray.PaymentDetails = models.PaymentDetails{GatewayOrderID: "order_unknown"}
	assert.ErrorIs(t, s.CreateOrder(ctx, stray), apperr.ErrConflict)
}

func TestReserveStock(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	a := seedProduct(t, s, "Anarsa", 100, 5)
	b := seedProduct(t, s, "Khaja", 80, 1)

	require.NoError(t, s.ReserveStock(ctx, orderFor("u1", a, 2).Items))

	items := append(orderFor("u1", a, 1).Items, orderFor("u1", b, 2).Items...)
	assert.ErrorIs(t, s.ReserveStock(ctx, items), apperr.ErrInsufficientStock)

	got, err := s.GetProduct(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Stock, "a short line undoes the whole reservation")
	assert.Equal(t, 2, got.SoldCount)
}

func TestWebhookEventDeduplication(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first, err := s.RecordWebhookEvent(ctx, &models.WebhookEvent{ID: "evt_1", Event: "payment.captured"})
	require.NoError(t, err)
	assert.True(t, first)

	again, err := s.RecordWebhookEvent(ctx, &models.WebhookEvent{ID: "evt_1", Event: "payment.captured"})
	require.NoError(t, err)
	assert.False(t, again)
}

func TestCartAndSettingsDefaults(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	cart, err := s.GetCart(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	cart.Items = append(cart.Items, models.CartItem{ProductID: "p1", Quantity: 2})
	require.NoError(t, s.SaveCart(ctx, cart))
	cart.Items[0].Quantity = 3
	require.NoError(t, s.SaveCart(ctx, cart))

	got, err := s.GetCart(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 3, got.Items[0].Quantity)

	st, err := s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 500.0, st.FreeShippingThreshold)

	st.ShippingFee = 40
	st.CODEnabled = false
	require.NoError(t, s.SaveSettings(ctx, &st))
	st2, err := s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 40.0, st2.ShippingFee)
	assert.False(t, st2.CODEnabled)
}

func TestReports(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	a := seedProduct(t, s, "Thekua", 100, 50)
	b := seedProduct(t, s, "Khaja", 50, 5)
	require.NoError(t, s.CreateUser(ctx, &models.User{Name: "C", Email: "c@example.com", Role: models.RoleUser, IsActive: true}))

	paid := orderFor("u1", a, 3)
	paid.PaymentStatus = models.PaymentStatusCompleted
	paid.OrderStatus = models.OrderStatusConfirmed
	require.NoError(t, s.CreateOrder(ctx, paid))

	cod := orderFor("u1", b, 1)
	require.NoError(t, s.CreateOrder(ctx, cod))

	sum, err := s.Summary(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), sum.TotalOrders)
	assert.Equal(t, 300.0, sum.TotalRevenue)
	assert.Equal(t, int64(1), sum.TotalCustomers)
	assert.Equal(t, int64(2), sum.TotalProducts)
	assert.Equal(t, int64(1), sum.LowStockCount)
	assert.Equal(t, int64(1), sum.PendingOrders)

	byStatus, err := s.OrdersByStatus(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []models.StatusCount{
		{Status: models.OrderStatusConfirmed, Count: 1},
		{Status: models.OrderStatusPending, Count: 1},
	}, byStatus)

	top, err := s.TopProducts(ctx, 5)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, a.ID, top[0].ID)
	assert.Equal(t, 3, top[0].SoldCount)
	assert.Equal(t, 47, top[0].Stock)

	days, err := s.DailySales(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, int64(2), days[0].Orders)
	assert.Equal(t, 300.0, days[0].Revenue)

	report, err := s.SalesReport(ctx, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), report.TotalCount)
	assert.Equal(t, 300.0, report.TotalRevenue)
}

func TestListProductsFilters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedProduct(t, s, "Thekua Classic", 120, 5)
	seedProduct(t, s, "Thekua Dry Fruit", 300, 5)
	hidden := &models.Product{Name: "Old Thekua", Price: 50, Category: "archive"}
	require.NoError(t, s.CreateProduct(ctx, hidden))

	list, total, err := s.ListProducts(ctx, database.ProductFilter{Search: "thekua", ActiveOnly: true, Sort: "price_desc"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 2)
	assert.Equal(t, "Thekua Dry Fruit", list[0].Name)

	list, _, err = s.ListProducts(ctx, database.ProductFilter{MaxPrice: 200, ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, list, 1)

	cats, err := s.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"sweets"}, cats)
}
