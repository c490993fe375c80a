package orders

import "thekua-api/internal/models"

// transitions is the order lifecycle adjacency table. Terminal states map to
// an empty set.
var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:    {models.OrderStatusConfirmed, models.OrderStatusProcessing, models.OrderStatusCancelled},
	models.OrderStatusConfirmed:  {models.OrderStatusProcessing, models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusProcessing: {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped:    {models.OrderStatusDelivered},
	models.OrderStatusDelivered:  {},
	models.OrderStatusCancelled:  {},
}

// CanTransition reports whether from -> to is a legal lifecycle step.
// Staying in the same status is always allowed.
func CanTransition(from, to models.OrderStatus) bool {
	if from == to {
		return from.Valid()
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses lists where an order in status s may go next.
func NextStatuses(s models.OrderStatus) []models.OrderStatus {
	return append([]models.OrderStatus{}, transitions[s]...)
}

// Cancellable reports whether a customer may still cancel an order in status s.
func Cancellable(s models.OrderStatus) bool {
	return s == models.OrderStatusPending || s == models.OrderStatusConfirmed
}

// InitialStatus picks the starting order and payment status for a checkout.
// Gateway methods start settled because the payment is verified before the
// order is written.
func InitialStatus(m models.PaymentMethod) (models.OrderStatus, models.PaymentStatus) {
	switch m {
	case models.PaymentMethodRazorpay, models.PaymentMethodUPI:
		return models.OrderStatusConfirmed, models.PaymentStatusCompleted
	default:
		return models.OrderStatusPending, models.PaymentStatusPending
	}
}
