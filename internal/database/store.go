// Package database defines the persistence contract shared by the MongoDB and
// SQL backends.
package database

import (
	"context"
	"time"

	"thekua-api/internal/models"
)

const (
	DefaultPageSize = 12
	MaxPageSize     = 50
)

// Page is a 1-based page request.
type Page struct {
	Page  int
	Limit int
}

// Normalize clamps the page into the accepted range.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	return p
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// TotalPages returns how many pages total items span.
func (p Page) TotalPages(total int64) int64 {
	if p.Limit <= 0 {
		return 0
	}
	return (total + int64(p.Limit) - 1) / int64(p.Limit)
}

type ProductFilter struct {
	Search     string
	Category   string
	Featured   *bool
	ActiveOnly bool
	MinPrice   float64
	MaxPrice   float64
	Sort       string // newest, price_asc, price_desc, popular, rating
	Page
}

type OrderFilter struct {
	UserID        string
	OrderStatus   models.OrderStatus
	PaymentStatus models.PaymentStatus
	PaymentMethod models.PaymentMethod
	Search        string // order number fragment
	Page
}

type UserFilter struct {
	Search string
	Role   models.Role
	Page
}

// OrderMatch restricts a conditional order update. Empty fields match anything.
type OrderMatch struct {
	OrderStatus   models.OrderStatus
	PaymentStatus models.PaymentStatus
}

// OrderUpdate lists the fields to write; nil fields are left untouched.
type OrderUpdate struct {
	OrderStatus        *models.OrderStatus
	PaymentStatus      *models.PaymentStatus
	PaymentDetails     *models.PaymentDetails
	TrackingNumber     *string
	CancellationReason *string
	DeliveredAt        *time.Time
	CancelledAt        *time.Time
}

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByResetToken(ctx context.Context, tokenHash string) (*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context, f UserFilter) ([]models.User, int64, error)
}

type ProductStore interface {
	CreateProduct(ctx context.Context, p *models.Product) error
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	GetProductsByIDs(ctx context.Context, ids []string) ([]models.Product, error)
	UpdateProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id string) error
	ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, int64, error)
	ListCategories(ctx context.Context) ([]string, error)
	IncrementProductViews(ctx context.Context, id string) error
}

type OrderStore interface {
	// CreateOrder reserves stock for every line and inserts the order as one
	// unit. A shortfall on any line returns apperr.ErrInsufficientStock and
	// leaves stock untouched.
	CreateOrder(ctx context.Context, o *models.Order) error
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	FindOrderByIdempotencyKey(ctx context.Context, userID, key string) (*models.Order, error)
	FindOrderByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Order, error)
	ListOrders(ctx context.Context, f OrderFilter) ([]models.Order, int64, error)
	// UpdateOrder applies upd only if the stored order still satisfies match.
	// It returns apperr.ErrConflict when the order exists but no longer matches.
	UpdateOrder(ctx context.Context, id string, match OrderMatch, upd OrderUpdate) (*models.Order, error)
	// ReserveStock takes units off the shelf for every line, or for none of
	// them when any line falls short (apperr.ErrInsufficientStock).
	ReserveStock(ctx context.Context, items []models.OrderItem) error
	// ReleaseStock puts reserved units back on the shelf.
	ReleaseStock(ctx context.Context, items []models.OrderItem) error
}

// PaymentIntentStore keeps the gateway orders opened for checkouts. An order
// created with PaymentDetails.GatewayOrderID claims the intent inside
// CreateOrder; a claimed or unknown intent fails with apperr.ErrConflict.
type PaymentIntentStore interface {
	SavePaymentIntent(ctx context.Context, p *models.PaymentIntent) error
	GetPaymentIntent(ctx context.Context, id string) (*models.PaymentIntent, error)
}

type CartStore interface {
	// GetCart returns an empty cart when the user has none yet.
	GetCart(ctx context.Context, userID string) (*models.Cart, error)
	SaveCart(ctx context.Context, c *models.Cart) error
	DeleteCart(ctx context.Context, userID string) error
}

type SettingsStore interface {
	// GetSettings returns models.DefaultSettings until settings are saved.
	GetSettings(ctx context.Context) (models.Settings, error)
	SaveSettings(ctx context.Context, s *models.Settings) error
}

type WebhookStore interface {
	// RecordWebhookEvent stores the event and reports whether it was new.
	RecordWebhookEvent(ctx context.Context, e *models.WebhookEvent) (bool, error)
	// DeleteWebhookEvent forgets an event so a redelivery is processed again.
	DeleteWebhookEvent(ctx context.Context, id string) error
}

type ReportStore interface {
	Summary(ctx context.Context, lowStockAt int) (models.DashboardSummary, error)
	OrdersByStatus(ctx context.Context) ([]models.StatusCount, error)
	TopProducts(ctx context.Context, limit int) ([]models.TopProduct, error)
	// DailySales returns only days that have orders, oldest first.
	DailySales(ctx context.Context, since time.Time) ([]models.DailySales, error)
	SalesReport(ctx context.Context, from, to time.Time) (*models.SalesReport, error)
}

// Store is the full persistence surface the server runs on.
type Store interface {
	UserStore
	ProductStore
	OrderStore
	PaymentIntentStore
	CartStore
	SettingsStore
	WebhookStore
	ReportStore

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
