package models

import "time"

type OrderStatus string
type PaymentStatus string
type PaymentMethod string

const (
	OrderStatusPending    OrderStatus = "pending"    // Placed, awaiting confirmation
	OrderStatusConfirmed  OrderStatus = "confirmed"  // Payment settled or accepted by the shop
	OrderStatusProcessing OrderStatus = "processing" // Being packed
	OrderStatusShipped    OrderStatus = "shipped"    // Handed to the courier
	OrderStatusDelivered  OrderStatus = "delivered"  // Customer received it
	OrderStatusCancelled  OrderStatus = "cancelled"

	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"

	PaymentMethodCOD      PaymentMethod = "cod"
	PaymentMethodRazorpay PaymentMethod = "razorpay"
	PaymentMethodUPI      PaymentMethod = "upi"
)

var orderStatuses = []OrderStatus{
	OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
	OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled,
}

// OrderStatuses lists every order status in lifecycle order.
func OrderStatuses() []OrderStatus {
	return append([]OrderStatus(nil), orderStatuses...)
}

func (s OrderStatus) Valid() bool {
	for _, v := range orderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCOD, PaymentMethodRazorpay, PaymentMethodUPI:
		return true
	}
	return false
}

// ProductSnapshot - the product as it was when the order was placed
type ProductSnapshot struct {
	ID       string  `json:"id" bson:"id"`
	Name     string  `json:"name" bson:"name"`
	Price    float64 `json:"price" bson:"price"`
	Image    string  `json:"image" bson:"image"`
	Category string  `json:"category" bson:"category"`
}

// OrderItem - a purchased line; later product edits never touch it
type OrderItem struct {
	Product  ProductSnapshot `json:"product" bson:"product"`
	Quantity int             `json:"quantity" bson:"quantity"`
	Price    float64         `json:"price" bson:"price"`       // Unit price at time of purchase
	Subtotal float64         `json:"subtotal" bson:"subtotal"` // Price * Quantity
}

// PaymentDetails - gateway identifiers for an online payment
type PaymentDetails struct {
	GatewayOrderID string `gorm:"index;size:64" json:"gatewayOrderId,omitempty" bson:"gatewayOrderId,omitempty"`
	PaymentID      string `gorm:"size:64" json:"paymentId,omitempty" bson:"paymentId,omitempty"`
	Signature      string `gorm:"size:128" json:"-" bson:"signature,omitempty"`
}

// Order - one purchase transaction
type Order struct {
	ID             string  `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	OrderNumber    string  `gorm:"uniqueIndex;size:32" bson:"orderNumber" json:"orderNumber"`
	UserID         string  `gorm:"size:36;index;uniqueIndex:idx_orders_user_idem" bson:"userId" json:"userId"`
	IdempotencyKey *string `gorm:"size:100;uniqueIndex:idx_orders_user_idem" bson:"idempotencyKey,omitempty" json:"-"`

	Items           []OrderItem `gorm:"serializer:json" bson:"items" json:"items"`
	ShippingAddress Address     `gorm:"embedded;embeddedPrefix:shipping_" bson:"shippingAddress" json:"shippingAddress"`

	PaymentMethod  PaymentMethod  `gorm:"size:20" bson:"paymentMethod" json:"paymentMethod"`
	PaymentStatus  PaymentStatus  `gorm:"size:20;index" bson:"paymentStatus" json:"paymentStatus"`
	OrderStatus    OrderStatus    `gorm:"size:20;index" bson:"orderStatus" json:"orderStatus"`
	PaymentDetails PaymentDetails `gorm:"embedded;embeddedPrefix:payment_" bson:"paymentDetails" json:"paymentDetails"`

	Subtotal       float64 `bson:"subtotal" json:"subtotal"`
	ShippingCharge float64 `bson:"shippingCharge" json:"shippingCharge"`
	Discount       float64 `bson:"discount" json:"discount"`
	TotalAmount    float64 `bson:"totalAmount" json:"totalAmount"`
	FinalAmount    float64 `bson:"finalAmount" json:"finalAmount"`

	TrackingNumber     string `gorm:"size:64" bson:"trackingNumber,omitempty" json:"trackingNumber,omitempty"`
	CancellationReason string `bson:"cancellationReason,omitempty" json:"cancellationReason,omitempty"`
	Notes              string `bson:"notes,omitempty" json:"notes,omitempty"`

	CreatedAt   time.Time  `gorm:"index" bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt" json:"updatedAt"`
	DeliveredAt *time.Time `bson:"deliveredAt,omitempty" json:"deliveredAt,omitempty"`
	CancelledAt *time.Time `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
}

// ItemCount is the total number of units across all lines.
func (o Order) ItemCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}
