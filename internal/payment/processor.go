package payment

import (
	"context"
	"log/slog"

	"thekua-api/internal/apperr"
	"thekua-api/internal/database"
	"thekua-api/internal/models"
	"thekua-api/internal/orders"
)

// Webhook outcomes reported back to the gateway.
const (
	WebhookProcessed = "processed"
	WebhookDuplicate = "duplicate"
	WebhookIgnored   = "ignored"
)

// PaymentApplier moves an order's payment state in response to a gateway event.
type PaymentApplier interface {
	ApplyPaymentEvent(ctx context.Context, gatewayOrderID, paymentID string, ev orders.PaymentEvent) (*models.Order, error)
}

// WebhookProcessor verifies, deduplicates and applies gateway webhooks.
type WebhookProcessor struct {
	signer *Signer
	events database.WebhookStore
	orders PaymentApplier
	log    *slog.Logger
}

func NewWebhookProcessor(signer *Signer, events database.WebhookStore, applier PaymentApplier, log *slog.Logger) *WebhookProcessor {
	if log == nil {
		log = slog.Default()
	}
	return &WebhookProcessor{signer: signer, events: events, orders: applier, log: log.With("component", "webhook")}
}

// Process handles one delivery. Only signature and decoding problems are
// returned as errors the gateway should not retry; store failures are returned
// as-is so the delivery is retried.
func (p *WebhookProcessor) Process(ctx context.Context, body []byte, signature, eventID string) (string, error) {
	if !p.signer.VerifyWebhook(body, signature) {
		return "", apperr.ErrInvalidSignature
	}

	ev, err := ParseWebhook(body)
	if err != nil {
		return "", apperr.Invalid("body", err.Error())
	}

	kind, ok := paymentEvent(ev.Event)
	if !ok || ev.GatewayOrderID == "" {
		p.log.Info("webhook ignored", "event", ev.Event)
		return WebhookIgnored, nil
	}

	key := ev.DedupeKey(eventID)
	fresh, err := p.events.RecordWebhookEvent(ctx, &models.WebhookEvent{
		ID:             key,
		Event:          ev.Event,
		GatewayOrderID: ev.GatewayOrderID,
	})
	if err != nil {
		return "", err
	}
	if !fresh {
		p.log.Info("webhook duplicate", "event", ev.Event, "id", key)
		return WebhookDuplicate, nil
	}

	order, err := p.orders.ApplyPaymentEvent(ctx, ev.GatewayOrderID, ev.PaymentID, kind)
	if err != nil {
		if derr := p.events.DeleteWebhookEvent(context.WithoutCancel(ctx), key); derr != nil {
			p.log.Error("failed to forget webhook event", "id", key, "err", derr)
		}
		return "", err
	}
	if order == nil {
		return WebhookIgnored, nil
	}
	return WebhookProcessed, nil
}

func paymentEvent(name string) (orders.PaymentEvent, bool) {
	switch name {
	case EventPaymentCaptured, EventOrderPaid:
		return orders.PaymentCaptured, true
	case EventPaymentFailed:
		return orders.PaymentFailed, true
	case EventRefundProcessed:
		return orders.PaymentRefunded, true
	}
	return "", false
}
