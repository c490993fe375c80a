package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"thekua-api/internal/accounts"
	"thekua-api/internal/ai"
	"thekua-api/internal/auth"
	"thekua-api/internal/cart"
	"thekua-api/internal/catalog"
	"thekua-api/internal/config"
	"thekua-api/internal/dashboard"
	"thekua-api/internal/database"
	"thekua-api/internal/database/sqlstore"
	"thekua-api/internal/mailer"
	"thekua-api/internal/models"
	"thekua-api/internal/orders"
	"thekua-api/internal/payment"
	"thekua-api/internal/realtime"
	"thekua-api/internal/storage"
	"thekua-api/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type response struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  []json.RawMessage `json:"errors"`
}

type testEnv struct {
	t       *testing.T
	router  *gin.Engine
	store   *sqlstore.Store
	tokens  *auth.TokenManager
	signer  *payment.Signer
	product *models.Product

	customer, other, admin string
	customerID             string
}

// fakeGateway opens gateway orders without calling the provider.
type fakeGateway struct {
	opened int
}

func (g *fakeGateway) CreateOrder(_ context.Context, amount float64, currency string) (*payment.GatewayOrder, error) {
	g.opened++
	return &payment.GatewayOrder{
		ID:       fmt.Sprintf("order_T%d", g.opened),
		Amount:   utils.ToPaise(amount),
		Currency: currency,
		KeyID:    "rzp_test_key",
	}, nil
}

func withGateway(d *Deps) {
	d.Gateway = &fakeGateway{}
}

func newEnv(t *testing.T, strict bool, opts ...func(*Deps)) *testEnv {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	store, err := sqlstore.OpenMemory(name)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	images, err := storage.NewLocal(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)

	tokens := auth.NewTokenManager("test-secret", time.Hour)
	signer := payment.NewSigner("key-secret", "hook-secret")
	hub := realtime.NewHub(nil, nil)
	orderSvc := orders.NewService(store, signer, hub, orders.Options{StrictTransitions: strict})
	catalogSvc := catalog.NewService(store, nil)

	deps := Deps{
		Accounts:          accounts.NewService(store, tokens, mailer.NewLogMailer(nil), "http://shop", nil),
		Catalog:           catalogSvc,
		Cart:              cart.NewService(store, orderSvc),
		Orders:            orderSvc,
		Dashboard:         dashboard.NewService(store),
		Settings:          store,
		Health:            store,
		Signer:            signer,
		Webhooks:          payment.NewWebhookProcessor(signer, store, orderSvc, nil),
		Images:            images,
		Hub:               hub,
		Assistant:         ai.NewAgent("", ai.NewTools(catalogSvc, store, store), nil),
		Tokens:            tokens,
		AllowRegistration: true,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	h := New(deps)
	r := gin.New()
	h.Routes(r)

	env := &testEnv{t: t, router: r, store: store, tokens: tokens, signer: signer}
	env.customer = env.user("asha@example.com", models.RoleUser)
	u, err := store.GetUserByEmail(context.Background(), "asha@example.com")
	require.NoError(t, err)
	env.customerID = u.ID
	env.other = env.user("ravi@example.com", models.RoleUser)
	env.admin = env.user("admin@example.com", models.RoleAdmin)

	env.product = &models.Product{Name: "Thekua Classic", Price: 250, Stock: 10, Category: "thekua", IsActive: true}
	require.NoError(t, store.CreateProduct(context.Background(), env.product))
	return env
}

// user creates an account and returns a bearer token for it.
func (e *testEnv) user(email string, role models.Role) string {
	e.t.Helper()
	u := &models.User{Name: "Test", Email: email, Role: role, IsActive: true}
	require.NoError(e.t, e.store.CreateUser(context.Background(), u))
	token, err := e.tokens.GenerateToken(u.ID, string(role))
	require.NoError(e.t, err)
	return token
}

func (e *testEnv) do(method, path, token string, body interface{}, headers ...string) (int, response) {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var resp response
	require.NoError(e.t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w.Code, resp
}

func decode(t *testing.T, raw json.RawMessage, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, dst))
}

func (e *testEnv) checkout(method models.PaymentMethod, qty int, details *orders.PaymentProof) map[string]interface{} {
	body := map[string]interface{}{
		"items": []map[string]interface{}{{"productId": e.product.ID, "quantity": qty}},
		"shippingAddress": map[string]string{
			"fullName":   "Asha Kumari",
			"phone":      "+919876543210",
			"street":     "12 Boring Road",
			"city":       "Patna",
			"state":      "Bihar",
			"postalCode": "800001",
		},
		"paymentMethod": method,
	}
	if details != nil {
		body["paymentDetails"] = details
	}
	return body
}

// payFor opens a gateway order for qty units of the test product and returns
// the proof the checkout widget would hand back after payment.
func (e *testEnv) payFor(qty int) *orders.PaymentProof {
	e.t.Helper()
	code, resp := e.do(http.MethodPost, "/api/payments/razorpay/order", e.customer, map[string]interface{}{
		"items": []map[string]interface{}{{"productId": e.product.ID, "quantity": qty}},
	})
	require.Equal(e.t, http.StatusCreated, code, resp.Message)
	var gw struct {
		GatewayOrderID string `json:"gatewayOrderId"`
	}
	decode(e.t, resp.Data, &gw)
	paymentID := "pay_" + gw.GatewayOrderID
	return &orders.PaymentProof{GatewayOrderID: gw.GatewayOrderID, PaymentID: paymentID, Signature: e.signer.Sign(gw.GatewayOrderID, paymentID)}
}

func (e *testEnv) placeOrder(method models.PaymentMethod, details *orders.PaymentProof) models.Order {
	e.t.Helper()
	code, resp := e.do(http.MethodPost, "/api/orders", e.customer, e.checkout(method, 1, details))
	require.Equal(e.t, http.StatusCreated, code, resp.Message)
	var o models.Order
	decode(e.t, resp.Data, &o)
	return o
}

func (e *testEnv) orderCount() int64 {
	e.t.Helper()
	_, total, err := e.store.ListOrders(context.Background(), database.OrderFilter{})
	require.NoError(e.t, err)
	return total
}

func TestCheckoutDecisionTable(t *testing.T) {
	t.Run("cod starts pending", func(t *testing.T) {
		env := newEnv(t, true)
		o := env.placeOrder(models.PaymentMethodCOD, nil)
		assert.Equal(t, models.OrderStatusPending, o.OrderStatus)
		assert.Equal(t, models.PaymentStatusPending, o.PaymentStatus)
		assert.Equal(t, 300.0, o.FinalAmount, "250 + 50 shipping")
	})

	t.Run("razorpay with valid signature is paid", func(t *testing.T) {
		env := newEnv(t, true, withGateway)
		o := env.placeOrder(models.PaymentMethodRazorpay, env.payFor(1))
		assert.Equal(t, models.OrderStatusConfirmed, o.OrderStatus)
		assert.Equal(t, models.PaymentStatusCompleted, o.PaymentStatus)
	})

	t.Run("razorpay without details is rejected", func(t *testing.T) {
		env := newEnv(t, true)
		code, resp := env.do(http.MethodPost, "/api/orders", env.customer, env.checkout(models.PaymentMethodRazorpay, 1, nil))
		assert.Equal(t, http.StatusBadRequest, code)
		assert.False(t, resp.Success)
		assert.NotEmpty(t, resp.Errors)
		assert.Zero(t, env.orderCount())
	})

	t.Run("forged signature is rejected", func(t *testing.T) {
		env := newEnv(t, true)
		wrongPair := &orders.PaymentProof{GatewayOrderID: "order_1", PaymentID: "pay_2", Signature: env.signer.Sign("order_1", "pay_1")}
		code, _ := env.do(http.MethodPost, "/api/orders", env.customer, env.checkout(models.PaymentMethodRazorpay, 1, wrongPair))
		assert.Equal(t, http.StatusBadRequest, code)

		wrongSecret := payment.NewSigner("other-secret", "")
		forged := &orders.PaymentProof{GatewayOrderID: "order_1", PaymentID: "pay_1", Signature: wrongSecret.Sign("order_1", "pay_1")}
		code, _ = env.do(http.MethodPost, "/api/orders", env.customer, env.checkout(models.PaymentMethodRazorpay, 1, forged))
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Zero(t, env.orderCount())
	})
}

func TestCheckoutValidationErrorsAreListed(t *testing.T) {
	env := newEnv(t, true)
	body := env.checkout(models.PaymentMethodCOD, 1, nil)
	body["shippingAddress"].(map[string]string)["phone"] = "12345"
	body["shippingAddress"].(map[string]string)["postalCode"] = "80001"

	code, resp := env.do(http.MethodPost, "/api/orders", env.customer, body)
	require.Equal(t, http.StatusBadRequest, code)

	var fields []string
	for _, raw := range resp.Errors {
		var fe struct {
			Field string `json:"field"`
		}
		decode(t, raw, &fe)
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{"shippingAddress.phone", "shippingAddress.postalCode"}, fields)
}

func TestCheckoutIdempotencyKey(t *testing.T) {
	env := newEnv(t, true)
	body := env.checkout(models.PaymentMethodCOD, 1, nil)

	code, first := env.do(http.MethodPost, "/api/orders", env.customer, body, "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusCreated, code)
	code, second := env.do(http.MethodPost, "/api/orders", env.customer, body, "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusOK, code)

	var a, b models.Order
	decode(t, first.Data, &a)
	decode(t, second.Data, &b)
	assert.Equal(t, a.ID, b.ID)
	assert.Equal(t, int64(1), env.orderCount())
}

func TestCancellation(t *testing.T) {
	env := newEnv(t, true)
	o := env.placeOrder(models.PaymentMethodCOD, nil)

	code, _ := env.do(http.MethodPut, "/api/orders/"+o.ID+"/cancel", env.other, nil)
	assert.Equal(t, http.StatusForbidden, code, "only the owner may cancel")

	code, resp := env.do(http.MethodPut, "/api/orders/"+o.ID+"/cancel", env.customer, map[string]string{"reason": "ordered twice"})
	require.Equal(t, http.StatusOK, code, resp.Message)
	var cancelled models.Order
	decode(t, resp.Data, &cancelled)
	assert.Equal(t, models.OrderStatusCancelled, cancelled.OrderStatus)
	assert.Equal(t, "ordered twice", cancelled.CancellationReason)

	p, err := env.store.GetProduct(context.Background(), env.product.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, p.Stock, "stock is released")
}

func TestCannotCancelShippedOrder(t *testing.T) {
	env := newEnv(t, true)
	o := env.placeOrder(models.PaymentMethodCOD, nil)
	for _, st := range []models.OrderStatus{models.OrderStatusConfirmed, models.OrderStatusShipped} {
		code, resp := env.do(http.MethodPut, "/api/admin/orders/"+o.ID+"/status", env.admin, map[string]string{"orderStatus": string(st)})
		require.Equal(t, http.StatusOK, code, resp.Message)
	}

	code, resp := env.do(http.MethodPut, "/api/orders/"+o.ID+"/cancel", env.customer, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "order cannot be cancelled at this stage", resp.Message)

	got, err := env.store.GetOrder(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, got.OrderStatus)
}

func TestAdminStatusTransitions(t *testing.T) {
	moveToDelivered := func(env *testEnv, id string) {
		for _, st := range []string{"confirmed", "shipped", "delivered"} {
			code, resp := env.do(http.MethodPut, "/api/admin/orders/"+id+"/status", env.admin, map[string]string{"orderStatus": st})
			require.Equal(t, http.StatusOK, code, resp.Message)
		}
	}

	t.Run("strict rejects backwards moves", func(t *testing.T) {
		env := newEnv(t, true)
		o := env.placeOrder(models.PaymentMethodCOD, nil)
		moveToDelivered(env, o.ID)

		code, _ := env.do(http.MethodPut, "/api/admin/orders/"+o.ID+"/status", env.admin, map[string]string{"orderStatus": "pending"})
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("default persists any enum value", func(t *testing.T) {
		t.Setenv("APP_ENV", "test")
		t.Setenv("ORDER_TRANSITIONS", "")
		cfg, err := config.Load()
		require.NoError(t, err)

		env := newEnv(t, cfg.StrictTransitions)
		o := env.placeOrder(models.PaymentMethodCOD, nil)
		moveToDelivered(env, o.ID)

		code, resp := env.do(http.MethodPut, "/api/admin/orders/"+o.ID+"/status", env.admin, map[string]string{"orderStatus": "pending"})
		require.Equal(t, http.StatusOK, code, resp.Message)
		got, err := env.store.GetOrder(context.Background(), o.ID)
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusPending, got.OrderStatus)
	})

	t.Run("unknown status", func(t *testing.T) {
		env := newEnv(t, false)
		o := env.placeOrder(models.PaymentMethodCOD, nil)
		code, _ := env.do(http.MethodPut, "/api/admin/orders/"+o.ID+"/status", env.admin, map[string]string{"orderStatus": "lost"})
		assert.Equal(t, http.StatusBadRequest, code)
	})
}

func TestAdminRoutesNeedAdminRole(t *testing.T) {
	env := newEnv(t, true)

	code, _ := env.do(http.MethodGet, "/api/admin/dashboard", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = env.do(http.MethodGet, "/api/admin/dashboard", env.customer, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, resp := env.do(http.MethodGet, "/api/admin/dashboard", env.admin, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success)
}

func TestShippingThreshold(t *testing.T) {
	env := newEnv(t, true)
	ctx := context.Background()

	cases := []struct {
		price    float64
		shipping float64
	}{
		{500, 0},
		{499, 50},
	}
	for _, tc := range cases {
		p := &models.Product{Name: "Khaja", Price: tc.price, Stock: 5, Category: "sweets", IsActive: true}
		require.NoError(t, env.store.CreateProduct(ctx, p))

		code, resp := env.do(http.MethodPost, "/api/orders/quote", "", map[string]interface{}{
			"items": []map[string]interface{}{{"productId": p.ID, "quantity": 1}},
		})
		require.Equal(t, http.StatusOK, code, resp.Message)
		var q orders.Quote
		decode(t, resp.Data, &q)
		assert.Equal(t, tc.shipping, q.ShippingCharge, "subtotal %v", tc.price)
		assert.Equal(t, q.Subtotal+q.ShippingCharge-q.Discount, q.FinalAmount)
	}
}

func TestWebhookIsIdempotent(t *testing.T) {
	env := newEnv(t, true)

	// An order still waiting for capture on gateway order order_W
	o := env.placeOrder(models.PaymentMethodCOD, nil)
	details := models.PaymentDetails{GatewayOrderID: "order_W"}
	_, err := env.store.UpdateOrder(context.Background(), o.ID, database.OrderMatch{}, database.OrderUpdate{PaymentDetails: &details})
	require.NoError(t, err)

	body := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_W","order_id":"order_W"}}}}`)
	send := func(sig string) (int, response) {
		req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewReader(body))
		req.Header.Set("X-Razorpay-Signature", sig)
		req.Header.Set("X-Razorpay-Event-Id", "evt_1")
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		var resp response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return w.Code, resp
	}

	code, _ := send("bad")
	assert.Equal(t, http.StatusBadRequest, code)

	sig := env.signer.SignWebhook(body)
	code, resp := send(sig)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, payment.WebhookProcessed, resp.Message)

	code, resp = send(sig)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, payment.WebhookDuplicate, resp.Message)

	got, err := env.store.GetOrder(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, got.PaymentStatus)
	assert.Equal(t, "pay_W", got.PaymentDetails.PaymentID)
}

func TestVerifyRazorpayPayment(t *testing.T) {
	env := newEnv(t, true)
	good := map[string]string{"gatewayOrderId": "order_1", "paymentId": "pay_1", "signature": env.signer.Sign("order_1", "pay_1")}

	code, _ := env.do(http.MethodPost, "/api/payments/razorpay/verify", env.customer, good)
	assert.Equal(t, http.StatusOK, code)

	good["paymentId"] = "pay_2"
	code, _ = env.do(http.MethodPost, "/api/payments/razorpay/verify", env.customer, good)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestPaymentMustCoverBasket(t *testing.T) {
	env := newEnv(t, true, withGateway)
	proof := env.payFor(1)

	code, resp := env.do(http.MethodPost, "/api/orders", env.customer, env.checkout(models.PaymentMethodRazorpay, 5, proof))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.NotEmpty(t, resp.Errors)
	assert.Zero(t, env.orderCount())

	code, _ = env.do(http.MethodPost, "/api/orders", env.other, env.checkout(models.PaymentMethodRazorpay, 1, proof))
	assert.Equal(t, http.StatusBadRequest, code, "the payment belongs to the shopper who opened it")

	code, resp = env.do(http.MethodPost, "/api/orders", env.customer, env.checkout(models.PaymentMethodRazorpay, 1, proof))
	require.Equal(t, http.StatusCreated, code, resp.Message)

	code, _ = env.do(http.MethodPost, "/api/orders", env.customer, env.checkout(models.PaymentMethodRazorpay, 1, proof))
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, int64(1), env.orderCount())

	intent, err := env.store.GetPaymentIntent(context.Background(), proof.GatewayOrderID)
	require.NoError(t, err)
	assert.Equal(t, env.customerID, intent.UserID)
	assert.Equal(t, int64(30000), intent.Amount)
}

func TestQuoteRejectsBadQuantities(t *testing.T) {
	env := newEnv(t, true, withGateway)
	items := []map[string]interface{}{
		{"productId": env.product.ID, "quantity": 4},
		{"productId": env.product.ID, "quantity": -3},
	}

	code, resp := env.do(http.MethodPost, "/api/orders/quote", "", map[string]interface{}{"items": items})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.NotEmpty(t, resp.Errors)

	code, _ = env.do(http.MethodPost, "/api/payments/razorpay/order", env.customer, map[string]interface{}{"items": items})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRazorpayOrderWithoutGateway(t *testing.T) {
	env := newEnv(t, true)
	code, _ := env.do(http.MethodPost, "/api/payments/razorpay/order", env.customer, map[string]interface{}{
		"items": []map[string]interface{}{{"productId": env.product.ID, "quantity": 1}},
	})
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestCartFlow(t *testing.T) {
	env := newEnv(t, true)

	code, resp := env.do(http.MethodPost, "/api/cart/items", env.customer, map[string]interface{}{"productId": env.product.ID, "quantity": 50})
	require.Equal(t, http.StatusOK, code, resp.Message)
	var view struct {
		Items []models.CartItem `json:"items"`
		Quote *orders.Quote     `json:"quote"`
	}
	decode(t, resp.Data, &view)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 10, view.Items[0].Quantity, "clamped to stock")
	require.NotNil(t, view.Quote)
	assert.Equal(t, 0.0, view.Quote.ShippingCharge)

	env.placeOrder(models.PaymentMethodCOD, nil)
	code, resp = env.do(http.MethodGet, "/api/cart", env.customer, nil)
	require.Equal(t, http.StatusOK, code)
	decode(t, resp.Data, &view)
	assert.Empty(t, view.Items, "checkout clears the cart")
}

func TestAuthEndpoints(t *testing.T) {
	env := newEnv(t, true)

	code, resp := env.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Meera", "email": "Meera@Example.com", "password": "s3cret-pass",
	})
	require.Equal(t, http.StatusCreated, code, resp.Message)

	code, _ = env.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Meera", "email": "meera@example.com", "password": "s3cret-pass",
	})
	assert.Equal(t, http.StatusConflict, code)

	code, resp = env.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "meera@example.com", "password": "s3cret-pass"})
	require.Equal(t, http.StatusOK, code)
	var session struct {
		Token string `json:"token"`
	}
	decode(t, resp.Data, &session)
	require.NotEmpty(t, session.Token)

	code, _ = env.do(http.MethodGet, "/api/auth/me", session.Token, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = env.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "meera@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = env.do(http.MethodPost, "/api/auth/forgot-password", "", map[string]string{"email": "nobody@example.com"})
	assert.Equal(t, http.StatusOK, code)
}

func TestAssistantWithoutKey(t *testing.T) {
	env := newEnv(t, true)
	code, _ := env.do(http.MethodPost, "/api/admin/assistant", env.admin, map[string]string{"message": "stock?"})
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestMalformedJSON(t *testing.T) {
	env := newEnv(t, true)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("{"))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSettingsDisablePaymentMethod(t *testing.T) {
	env := newEnv(t, true)
	settings := map[string]interface{}{
		"storeName":             "TheKua",
		"currency":              "inr",
		"freeShippingThreshold": 999,
		"shippingFee":           60,
		"codEnabled":            false,
		"razorpayEnabled":       true,
		"upiEnabled":            true,
	}

	bad := map[string]interface{}{"storeName": "", "currency": "rupees"}
	code, resp := env.do(http.MethodPut, "/api/admin/settings", env.admin, bad)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.NotEmpty(t, resp.Errors)

	code, resp = env.do(http.MethodPut, "/api/admin/settings", env.admin, settings)
	require.Equal(t, http.StatusOK, code, resp.Message)

	code, resp = env.do(http.MethodGet, "/api/settings", "", nil)
	require.Equal(t, http.StatusOK, code)
	var public struct {
		Currency              string  `json:"currency"`
		FreeShippingThreshold float64 `json:"freeShippingThreshold"`
		CODEnabled            bool    `json:"codEnabled"`
	}
	decode(t, resp.Data, &public)
	assert.Equal(t, "INR", public.Currency)
	assert.Equal(t, 999.0, public.FreeShippingThreshold)
	assert.False(t, public.CODEnabled)

	code, _ = env.do(http.MethodPost, "/api/orders", env.customer, env.checkout(models.PaymentMethodCOD, 1, nil))
	assert.Equal(t, http.StatusBadRequest, code)
}
