package models

import (
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Address - a delivery address, stored both on the user and as an order snapshot
type Address struct {
	FullName   string `json:"fullName" bson:"fullName" validate:"required,max=100"`
	Phone      string `json:"phone" bson:"phone" validate:"required,in_phone"`
	Email      string `json:"email" bson:"email" validate:"omitempty,email"`
	Street     string `json:"street" bson:"street" validate:"required,max=200"`
	City       string `json:"city" bson:"city" validate:"required,max=100"`
	State      string `json:"state" bson:"state" validate:"required,max=100"`
	PostalCode string `json:"postalCode" bson:"postalCode" validate:"required,postal"`
	Country    string `json:"country" bson:"country"`
}

// User - the account holder
type User struct {
	ID           string    `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	Name         string    `gorm:"size:100" bson:"name" json:"name"`
	Email        string    `gorm:"uniqueIndex;size:255" bson:"email" json:"email"`
	PasswordHash string    `bson:"passwordHash" json:"-"` // Never return this in JSON
	Phone        string    `gorm:"size:20" bson:"phone" json:"phone"`
	Avatar       string    `bson:"avatar" json:"avatar"`
	Role         Role      `gorm:"size:10" bson:"role" json:"role"`
	IsActive     bool      `bson:"isActive" json:"isActive"`
	Addresses    []Address `gorm:"serializer:json" bson:"addresses" json:"addresses"`
	Wishlist     []string  `gorm:"serializer:json" bson:"wishlist" json:"wishlist"`

	ResetTokenHash      string     `gorm:"index;size:64" bson:"resetTokenHash,omitempty" json:"-"`
	ResetTokenExpiresAt *time.Time `bson:"resetTokenExpiresAt,omitempty" json:"-"`

	LastLoginAt *time.Time `bson:"lastLoginAt,omitempty" json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// Product - the catalog entry
type Product struct {
	ID                 string   `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	Name               string   `gorm:"size:200;index" bson:"name" json:"name"`
	Description        string   `bson:"description" json:"description"`
	Price              float64  `bson:"price" json:"price"`
	DiscountPercentage float64  `bson:"discountPercentage" json:"discountPercentage"`
	Category           string   `gorm:"size:100;index" bson:"category" json:"category"`
	Images             []string `gorm:"serializer:json" bson:"images" json:"images"`
	Stock              int      `bson:"stock" json:"stock"`
	Weight             string   `gorm:"size:50" bson:"weight" json:"weight"`
	Ingredients        []string `gorm:"serializer:json" bson:"ingredients" json:"ingredients"`

	IsActive   bool `bson:"isActive" json:"isActive"`
	IsFeatured bool `bson:"isFeatured" json:"isFeatured"`

	SoldCount     int     `bson:"soldCount" json:"soldCount"`
	ViewCount     int     `bson:"viewCount" json:"viewCount"`
	RatingAverage float64 `bson:"ratingAverage" json:"ratingAverage"`
	RatingCount   int     `bson:"ratingCount" json:"ratingCount"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// MainImage returns the first image, or "" when the product has none.
func (p Product) MainImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// CartItem - one line in the server-side cart
type CartItem struct {
	ProductID string  `json:"productId" bson:"productId"`
	Name      string  `json:"name" bson:"name"`
	Price     float64 `json:"price" bson:"price"`
	Image     string  `json:"image" bson:"image"`
	Quantity  int     `json:"quantity" bson:"quantity"`
}

// Cart - one per user, keyed by user id
type Cart struct {
	UserID    string     `gorm:"primaryKey;size:36" bson:"_id" json:"userId"`
	Items     []CartItem `gorm:"serializer:json" bson:"items" json:"items"`
	UpdatedAt time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// Settings - store-wide configuration edited from the back-office
type Settings struct {
	ID                    string  `gorm:"primaryKey;size:36" bson:"_id" json:"-"`
	StoreName             string  `bson:"storeName" json:"storeName"`
	ContactEmail          string  `bson:"contactEmail" json:"contactEmail"`
	ContactPhone          string  `bson:"contactPhone" json:"contactPhone"`
	Currency              string  `gorm:"size:3" bson:"currency" json:"currency"`
	FreeShippingThreshold float64 `bson:"freeShippingThreshold" json:"freeShippingThreshold"`
	ShippingFee           float64 `bson:"shippingFee" json:"shippingFee"`
	CODEnabled            bool    `bson:"codEnabled" json:"codEnabled"`
	RazorpayEnabled       bool    `bson:"razorpayEnabled" json:"razorpayEnabled"`
	UPIEnabled            bool    `bson:"upiEnabled" json:"upiEnabled"`

	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

const SettingsID = "store"

// DefaultSettings are used until an admin saves their own.
func DefaultSettings() Settings {
	return Settings{
		ID:                    SettingsID,
		StoreName:             "TheKua",
		Currency:              "INR",
		FreeShippingThreshold: 500,
		ShippingFee:           50,
		CODEnabled:            true,
		RazorpayEnabled:       true,
		UPIEnabled:            true,
	}
}

// WebhookEvent - a processed payment gateway delivery, kept for deduplication
type WebhookEvent struct {
	ID             string    `gorm:"primaryKey;size:100" bson:"_id" json:"id"`
	Event          string    `gorm:"size:50" bson:"event" json:"event"`
	GatewayOrderID string    `gorm:"size:64" bson:"gatewayOrderId" json:"gatewayOrderId"`
	ProcessedAt    time.Time `bson:"processedAt" json:"processedAt"`
}

// PaymentIntent - a gateway order opened for a checkout, with the amount the
// shopper was asked to pay. OrderID is set once a checkout claims it.
type PaymentIntent struct {
	ID        string    `gorm:"primaryKey;size:64" bson:"_id" json:"gatewayOrderId"`
	UserID    string    `gorm:"size:36;index" bson:"userId" json:"userId"`
	Amount    int64     `bson:"amount" json:"amount"` // paise
	Currency  string    `gorm:"size:3" bson:"currency" json:"currency"`
	OrderID   string    `gorm:"size:36;not null;default:''" bson:"orderId" json:"orderId,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
