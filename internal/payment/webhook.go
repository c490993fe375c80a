package payment

import (
	"encoding/json"
	"fmt"
)

// Webhook event names this store reacts to.
const (
	EventPaymentCaptured = "payment.captured"
	EventPaymentFailed   = "payment.failed"
	EventOrderPaid       = "order.paid"
	EventRefundProcessed = "refund.processed"
)

// WebhookEvent is the part of a Razorpay webhook delivery the store uses.
type WebhookEvent struct {
	Event          string
	GatewayOrderID string
	PaymentID      string
}

type webhookBody struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
			} `json:"entity"`
		} `json:"payment"`
		Order struct {
			Entity struct {
				ID string `json:"id"`
			} `json:"entity"`
		} `json:"order"`
		Refund struct {
			Entity struct {
				PaymentID string `json:"payment_id"`
			} `json:"entity"`
		} `json:"refund"`
	} `json:"payload"`
}

// ParseWebhook extracts the event name and identifiers from a delivery body.
func ParseWebhook(body []byte) (*WebhookEvent, error) {
	var b webhookBody
	if err := json.Unmarshal(body, &b); err != nil {
		return nil, fmt.Errorf("webhook: decode body: %w", err)
	}
	if b.Event == "" {
		return nil, fmt.Errorf("webhook: missing event name")
	}

	ev := &WebhookEvent{
		Event:          b.Event,
		GatewayOrderID: b.Payload.Payment.Entity.OrderID,
		PaymentID:      b.Payload.Payment.Entity.ID,
	}
	if ev.GatewayOrderID == "" {
		ev.GatewayOrderID = b.Payload.Order.Entity.ID
	}
	if ev.PaymentID == "" {
		ev.PaymentID = b.Payload.Refund.Entity.PaymentID
	}
	return ev, nil
}

// DedupeKey identifies a delivery when the gateway did not send an event id.
func (e *WebhookEvent) DedupeKey(eventID string) string {
	if eventID != "" {
		return eventID
	}
	return e.PaymentID + ":" + e.Event
}
