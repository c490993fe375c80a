package payment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyPayment(t *testing.T) {
	s := NewSigner("key_secret", "hook_secret")
	sig := s.Sign("order_123", "pay_456")

	assert.True(t, s.VerifyPayment("order_123", "pay_456", sig))
	assert.False(t, s.VerifyPayment("order_123", "pay_999", sig), "wrong payment id")
	assert.False(t, s.VerifyPayment("order_999", "pay_456", sig), "wrong order id")
	assert.False(t, NewSigner("other_secret", "").VerifyPayment("order_123", "pay_456", sig), "wrong secret")
	assert.False(t, s.VerifyPayment("order_123", "pay_456", ""))
	assert.False(t, NewSigner("", "").VerifyPayment("order_123", "pay_456", sig))
}

func TestSignIsHexHMAC(t *testing.T) {
	s := NewSigner("secret", "")
	assert.Len(t, s.Sign("order_123", "pay_456"), 64)
	assert.Equal(t, s.Sign("order_123", "pay_456"), hmacHex([]byte("secret"), []byte("order_123|pay_456")))
}

func TestVerifyWebhook(t *testing.T) {
	s := NewSigner("key_secret", "hook_secret")
	body := []byte(`{"event":"payment.captured"}`)

	assert.True(t, s.VerifyWebhook(body, s.SignWebhook(body)))
	assert.False(t, s.VerifyWebhook([]byte(`{"event":"payment.failed"}`), s.SignWebhook(body)))
	assert.False(t, NewSigner("key_secret", "").VerifyWebhook(body, s.SignWebhook(body)))
}

func TestParseWebhook(t *testing.T) {
	body := []byte(`{
		"event": "payment.captured",
		"payload": {"payment": {"entity": {"id": "pay_1", "order_id": "order_1"}}}
	}`)
	ev, err := ParseWebhook(body)
	require.NoError(t, err)
	assert.Equal(t, EventPaymentCaptured, ev.Event)
	assert.Equal(t, "order_1", ev.GatewayOrderID)
	assert.Equal(t, "pay_1", ev.PaymentID)
	assert.Equal(t, "evt_9", ev.DedupeKey("evt_9"))
	assert.Equal(t, "pay_1:payment.captured", ev.DedupeKey(""))

	ev, err = ParseWebhook([]byte(`{"event":"order.paid","payload":{"order":{"entity":{"id":"order_2"}}}}`))
	require.NoError(t, err)
	assert.Equal(t, "order_2", ev.GatewayOrderID)

	_, err = ParseWebhook([]byte(`not json`))
	assert.Error(t, err)
	_, err = ParseWebhook([]byte(`{}`))
	assert.Error(t, err)
}

func TestDisabledGateway(t *testing.T) {
	r := NewRazorpay("", "")
	assert.Nil(t, r)
	_, err := r.CreateOrder(context.Background(), 100, "INR")
	assert.ErrorIs(t, err, ErrGatewayDisabled)
}
