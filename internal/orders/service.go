// Package orders owns checkout, the order lifecycle and payment state changes.
package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"thekua-api/internal/apperr"
	"thekua-api/internal/database"
	"thekua-api/internal/models"
	"thekua-api/internal/utils"
	"thekua-api/internal/validation"
)

// Event names pushed to the admin feed.
const (
	EventOrderCreated   = "order.created"
	EventStatusChanged  = "order.status_changed"
	EventPaymentUpdated = "order.payment_updated"
)

const DefaultCancelReason = "cancelled by customer"

// Store is the persistence the order service needs.
type Store interface {
	database.ProductStore
	database.OrderStore
	database.PaymentIntentStore
	database.CartStore
	database.SettingsStore
}

// PaymentVerifier checks a gateway signature over an order/payment id pair.
type PaymentVerifier interface {
	VerifyPayment(gatewayOrderID, paymentID, signature string) bool
}

// Publisher receives order events for live dashboards.
type Publisher interface {
	Publish(event string, payload interface{})
}

type Service struct {
	store    Store
	verifier PaymentVerifier
	events   Publisher
	strict   bool
	log      *slog.Logger
	now      func() time.Time
}

type Options struct {
	// StrictTransitions rejects admin status changes outside the lifecycle table.
	StrictTransitions bool
	Logger            *slog.Logger
}

func NewService(store Store, verifier PaymentVerifier, events Publisher, opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	if events == nil {
		events = nopPublisher{}
	}
	return &Service{
		store:    store,
		verifier: verifier,
		events:   events,
		strict:   opts.StrictTransitions,
		log:      log.With("component", "orders"),
		now:      time.Now,
	}
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, interface{}) {}

// CreateInput is a checkout submission.
type CreateInput struct {
	UserID          string               `json:"-"`
	IdempotencyKey  string               `json:"-"`
	Items           []Line               `json:"items" validate:"min=1,max=50,dive"`
	ShippingAddress models.Address       `json:"shippingAddress"`
	PaymentMethod   models.PaymentMethod `json:"paymentMethod" validate:"required,oneof=cod razorpay upi"`
	PaymentDetails  *PaymentProof        `json:"paymentDetails"`
	Notes           string               `json:"notes" validate:"max=500"`
}

// PaymentProof is what the client receives from the gateway checkout widget.
type PaymentProof struct {
	GatewayOrderID string `json:"gatewayOrderId"`
	PaymentID      string `json:"paymentId"`
	Signature      string `json:"signature"`
}

// Create validates and prices a checkout, reserves stock and stores the order.
// The returned bool is false when an earlier order with the same idempotency
// key was returned instead.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Order, bool, error) {
	if err := validation.Struct(in); err != nil {
		return nil, false, err
	}

	if in.IdempotencyKey != "" {
		existing, err := s.store.FindOrderByIdempotencyKey(ctx, in.UserID, in.IdempotencyKey)
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			return nil, false, err
		}
	}

	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return nil, false, err
	}
	if !methodEnabled(settings, in.PaymentMethod) {
		return nil, false, apperr.Invalid("paymentMethod", "payment method is not available")
	}

	details, err := s.checkPayment(in.PaymentMethod, in.PaymentDetails)
	if err != nil {
		return nil, false, err
	}

	products, err := s.store.GetProductsByIDs(ctx, lineIDs(in.Items))
	if err != nil {
		return nil, false, err
	}
	quote, err := BuildQuote(in.Items, catalogByID(products), settings)
	if err != nil {
		return nil, false, err
	}
	if details.GatewayOrderID != "" {
		if err := s.checkIntent(ctx, in.UserID, details.GatewayOrderID, quote); err != nil {
			return nil, false, err
		}
	}

	addr := in.ShippingAddress
	if strings.TrimSpace(addr.Country) == "" {
		addr.Country = "India"
	}

	orderStatus, paymentStatus := InitialStatus(in.PaymentMethod)
	now := s.now()
	order := &models.Order{
		OrderNumber:     utils.NewOrderNumber(now),
		UserID:          in.UserID,
		Items:           quote.Items,
		ShippingAddress: addr,
		PaymentMethod:   in.PaymentMethod,
		PaymentStatus:   paymentStatus,
		OrderStatus:     orderStatus,
		PaymentDetails:  details,
		Subtotal:        quote.Subtotal,
		ShippingCharge:  quote.ShippingCharge,
		Discount:        quote.Discount,
		TotalAmount:     quote.TotalAmount,
		FinalAmount:     quote.FinalAmount,
		Notes:           strings.TrimSpace(in.Notes),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if in.IdempotencyKey != "" {
		key := in.IdempotencyKey
		order.IdempotencyKey = &key
	}

	if err := s.store.CreateOrder(ctx, order); err != nil {
		// Lost a race with a concurrent submission carrying the same key
		if errors.Is(err, apperr.ErrDuplicate) && in.IdempotencyKey != "" {
			existing, ferr := s.store.FindOrderByIdempotencyKey(ctx, in.UserID, in.IdempotencyKey)
			if ferr == nil {
				return existing, false, nil
			}
		}
		return nil, false, err
	}

	if err := s.store.DeleteCart(ctx, in.UserID); err != nil {
		s.log.Warn("failed to clear cart after checkout", "user", in.UserID, "order", order.OrderNumber, "err", err)
	}

	s.log.Info("order created",
		"order", order.OrderNumber,
		"method", order.PaymentMethod,
		"amount", order.FinalAmount,
	)
	s.events.Publish(EventOrderCreated, order)
	return order, true, nil
}

// checkPayment applies the payment part of the checkout decision table.
func (s *Service) checkPayment(m models.PaymentMethod, d *PaymentProof) (models.PaymentDetails, error) {
	switch m {
	case models.PaymentMethodCOD:
		return models.PaymentDetails{}, nil

	case models.PaymentMethodRazorpay:
		if d == nil || d.GatewayOrderID == "" || d.PaymentID == "" || d.Signature == "" {
			return models.PaymentDetails{}, apperr.Invalid("paymentDetails", "payment details are required for razorpay")
		}

	case models.PaymentMethodUPI:
		if d == nil || (d.GatewayOrderID == "" && d.PaymentID == "" && d.Signature == "") {
			return models.PaymentDetails{}, nil
		}
	}

	if !s.verifier.VerifyPayment(d.GatewayOrderID, d.PaymentID, d.Signature) {
		return models.PaymentDetails{}, apperr.ErrInvalidSignature
	}
	return models.PaymentDetails{GatewayOrderID: d.GatewayOrderID, PaymentID: d.PaymentID, Signature: d.Signature}, nil
}

// checkIntent ties a verified payment to the gateway order this shopper opened
// and to the amount it was opened for. A verified payment pays for one order
// only; CreateOrder claims the intent atomically.
func (s *Service) checkIntent(ctx context.Context, userID, gatewayOrderID string, q *Quote) error {
	intent, err := s.store.GetPaymentIntent(ctx, gatewayOrderID)
	if errors.Is(err, apperr.ErrNotFound) {
		return apperr.Invalid("paymentDetails.gatewayOrderId", "payment was not started from this store")
	}
	if err != nil {
		return err
	}
	if intent.UserID != userID {
		return apperr.Invalid("paymentDetails.gatewayOrderId", "payment was started by another account")
	}
	if intent.OrderID != "" {
		return fmt.Errorf("%w: payment already used by another order", apperr.ErrConflict)
	}
	if paise := utils.ToPaise(q.FinalAmount); paise != intent.Amount {
		s.log.Warn("payment amount mismatch", "gatewayOrder", gatewayOrderID, "paid", intent.Amount, "due", paise)
		return apperr.Invalid("paymentDetails", "paid amount does not match the order total")
	}
	return nil
}

// RecordPaymentIntent remembers a gateway order opened for userID so that a
// checkout paying through it can be matched against the amount.
func (s *Service) RecordPaymentIntent(ctx context.Context, userID, gatewayOrderID string, amount int64, currency string) error {
	return s.store.SavePaymentIntent(ctx, &models.PaymentIntent{
		ID:        gatewayOrderID,
		UserID:    userID,
		Amount:    amount,
		Currency:  currency,
		CreatedAt: s.now(),
	})
}

func methodEnabled(st models.Settings, m models.PaymentMethod) bool {
	switch m {
	case models.PaymentMethodCOD:
		return st.CODEnabled
	case models.PaymentMethodRazorpay:
		return st.RazorpayEnabled
	case models.PaymentMethodUPI:
		return st.UPIEnabled
	}
	return false
}

// QuoteInput is a set of lines to price.
type QuoteInput struct {
	Items []Line `json:"items" validate:"min=1,max=50,dive"`
}

// Quote prices lines without placing an order.
func (s *Service) Quote(ctx context.Context, lines []Line) (*Quote, error) {
	if err := validation.Struct(QuoteInput{Items: lines}); err != nil {
		return nil, err
	}
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	products, err := s.store.GetProductsByIDs(ctx, lineIDs(lines))
	if err != nil {
		return nil, err
	}
	return BuildQuote(lines, catalogByID(products), settings)
}

// Get returns an order visible to the requester: its owner or an admin.
func (s *Service) Get(ctx context.Context, id, requesterID string, isAdmin bool) (*models.Order, error) {
	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && o.UserID != requesterID {
		return nil, apperr.ErrForbidden
	}
	return o, nil
}

func (s *Service) List(ctx context.Context, f database.OrderFilter) ([]models.Order, int64, error) {
	return s.store.ListOrders(ctx, f)
}

// Cancel lets the owner cancel an order that has not started fulfilment.
func (s *Service) Cancel(ctx context.Context, id, userID, reason string) (*models.Order, error) {
	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, apperr.ErrForbidden
	}
	if !Cancellable(o.OrderStatus) {
		return nil, apperr.ErrNotCancellable
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultCancelReason
	}

	updated, err := s.store.UpdateOrder(ctx, id,
		database.OrderMatch{OrderStatus: o.OrderStatus},
		s.cancelUpdate(o, reason),
	)
	if errors.Is(err, apperr.ErrConflict) {
		// Someone moved the order first; report why if it is now past the point of cancelling
		if cur, gerr := s.store.GetOrder(ctx, id); gerr == nil && !Cancellable(cur.OrderStatus) {
			return nil, apperr.ErrNotCancellable
		}
	}
	if err != nil {
		return nil, err
	}

	s.releaseStock(ctx, updated)
	s.log.Info("order cancelled by customer", "order", updated.OrderNumber)
	s.events.Publish(EventStatusChanged, statusChange(updated, o.OrderStatus))
	return updated, nil
}

func (s *Service) cancelUpdate(o *models.Order, reason string) database.OrderUpdate {
	status := models.OrderStatusCancelled
	now := s.now()
	upd := database.OrderUpdate{
		OrderStatus:        &status,
		CancellationReason: &reason,
		CancelledAt:        &now,
	}
	if o.PaymentStatus == models.PaymentStatusCompleted {
		refunded := models.PaymentStatusRefunded
		upd.PaymentStatus = &refunded
	}
	return upd
}

// StatusInput is an admin status change.
type StatusInput struct {
	OrderStatus    models.OrderStatus `json:"orderStatus" validate:"required"`
	TrackingNumber *string            `json:"trackingNumber" validate:"omitempty,max=64"`
	Reason         string             `json:"cancellationReason" validate:"max=500"`
}

// UpdateStatus moves an order to a new status on behalf of an admin.
func (s *Service) UpdateStatus(ctx context.Context, id string, in StatusInput) (*models.Order, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	to := in.OrderStatus
	if !to.Valid() {
		return nil, apperr.Invalid("orderStatus", "must be one of: pending, confirmed, processing, shipped, delivered, cancelled")
	}

	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	from := o.OrderStatus
	if s.strict && !CanTransition(from, to) {
		return nil, fmt.Errorf("%w: %s to %s", apperr.ErrInvalidTransition, from, to)
	}

	now := s.now()
	upd := database.OrderUpdate{OrderStatus: &to}
	if in.TrackingNumber != nil {
		tracking := strings.TrimSpace(*in.TrackingNumber)
		upd.TrackingNumber = &tracking
	}

	entering := from != to
	if entering && to == models.OrderStatusDelivered {
		upd.DeliveredAt = &now
		if o.PaymentMethod == models.PaymentMethodCOD && o.PaymentStatus == models.PaymentStatusPending {
			completed := models.PaymentStatusCompleted
			upd.PaymentStatus = &completed
		}
	}
	if entering && to == models.OrderStatusCancelled {
		reason := strings.TrimSpace(in.Reason)
		if reason == "" {
			reason = "cancelled by store"
		}
		cu := s.cancelUpdate(o, reason)
		upd.CancelledAt, upd.CancellationReason, upd.PaymentStatus = cu.CancelledAt, cu.CancellationReason, cu.PaymentStatus
	}

	// A revived order needs its units back off the shelf
	reviving := entering && from == models.OrderStatusCancelled
	if reviving {
		if err := s.store.ReserveStock(ctx, o.Items); err != nil {
			return nil, err
		}
	}

	updated, err := s.store.UpdateOrder(ctx, id, database.OrderMatch{OrderStatus: from}, upd)
	if err != nil {
		if reviving {
			s.releaseStock(ctx, o)
		}
		return nil, err
	}

	if entering && to == models.OrderStatusCancelled {
		s.releaseStock(ctx, updated)
	}
	if entering {
		s.log.Info("order status changed", "order", updated.OrderNumber, "from", from, "to", to)
		s.events.Publish(EventStatusChanged, statusChange(updated, from))
	}
	return updated, nil
}

// UpdatePaymentStatus lets an admin correct the payment status directly.
func (s *Service) UpdatePaymentStatus(ctx context.Context, id string, ps models.PaymentStatus) (*models.Order, error) {
	if !ps.Valid() {
		return nil, apperr.Invalid("paymentStatus", "must be one of: pending, completed, failed, refunded")
	}
	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := s.store.UpdateOrder(ctx, id,
		database.OrderMatch{PaymentStatus: o.PaymentStatus},
		database.OrderUpdate{PaymentStatus: &ps},
	)
	if err != nil {
		return nil, err
	}
	if o.PaymentStatus != ps {
		s.events.Publish(EventPaymentUpdated, updated)
	}
	return updated, nil
}

// PaymentEvent is a gateway-reported change to a payment.
type PaymentEvent string

const (
	PaymentCaptured PaymentEvent = "captured"
	PaymentFailed   PaymentEvent = "failed"
	PaymentRefunded PaymentEvent = "refunded"
)

// ApplyPaymentEvent updates the order paid through gatewayOrderID. It returns
// (nil, nil) when no order uses that gateway order or the event changes nothing.
func (s *Service) ApplyPaymentEvent(ctx context.Context, gatewayOrderID, paymentID string, ev PaymentEvent) (*models.Order, error) {
	o, err := s.store.FindOrderByGatewayOrderID(ctx, gatewayOrderID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var (
		match = database.OrderMatch{PaymentStatus: o.PaymentStatus}
		upd   database.OrderUpdate
	)
	switch ev {
	case PaymentCaptured:
		if o.PaymentStatus != models.PaymentStatusPending {
			return nil, nil
		}
		completed := models.PaymentStatusCompleted
		upd.PaymentStatus = &completed
		if o.OrderStatus == models.OrderStatusPending {
			confirmed := models.OrderStatusConfirmed
			upd.OrderStatus = &confirmed
			match.OrderStatus = models.OrderStatusPending
		}
	case PaymentFailed:
		if o.PaymentStatus != models.PaymentStatusPending {
			return nil, nil
		}
		failed := models.PaymentStatusFailed
		upd.PaymentStatus = &failed
	case PaymentRefunded:
		if o.PaymentStatus == models.PaymentStatusRefunded {
			return nil, nil
		}
		refunded := models.PaymentStatusRefunded
		upd.PaymentStatus = &refunded
	default:
		return nil, nil
	}

	if paymentID != "" && o.PaymentDetails.PaymentID == "" {
		details := o.PaymentDetails
		details.PaymentID = paymentID
		upd.PaymentDetails = &details
	}

	updated, err := s.store.UpdateOrder(ctx, o.ID, match, upd)
	if errors.Is(err, apperr.ErrConflict) {
		// A concurrent delivery already applied it
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	s.log.Info("payment event applied", "order", updated.OrderNumber, "event", ev, "paymentStatus", updated.PaymentStatus)
	s.events.Publish(EventPaymentUpdated, updated)
	return updated, nil
}

func (s *Service) releaseStock(ctx context.Context, o *models.Order) {
	if err := s.store.ReleaseStock(ctx, o.Items); err != nil {
		s.log.Error("failed to release stock", "order", o.OrderNumber, "err", err)
	}
}

// StatusChange is the payload of EventStatusChanged.
type StatusChange struct {
	Order *models.Order      `json:"order"`
	From  models.OrderStatus `json:"from"`
	To    models.OrderStatus `json:"to"`
}

func statusChange(o *models.Order, from models.OrderStatus) StatusChange {
	return StatusChange{Order: o, From: from, To: o.OrderStatus}
}
