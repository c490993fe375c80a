package payment

import (
	"context"
	"errors"
	"fmt"

	"thekua-api/internal/utils"

	"github.com/google/uuid"
	"github.com/razorpay/razorpay-go"
)

var ErrGatewayDisabled = errors.New("payment gateway is not configured")

// GatewayOrder is the gateway-side order a checkout pays against.
type GatewayOrder struct {
	ID       string `json:"gatewayOrderId"`
	Amount   int64  `json:"amount"` // paise
	Currency string `json:"currency"`
	KeyID    string `json:"keyId"`
	Receipt  string `json:"receipt"`
}

// Gateway creates orders on the payment provider.
type Gateway interface {
	CreateOrder(ctx context.Context, amount float64, currency string) (*GatewayOrder, error)
}

// Razorpay is the Gateway backed by razorpay-go.
type Razorpay struct {
	keyID  string
	client *razorpay.Client
}

// NewRazorpay returns nil when no credentials are configured.
func NewRazorpay(keyID, keySecret string) *Razorpay {
	if keyID == "" || keySecret == "" {
		return nil
	}
	return &Razorpay{keyID: keyID, client: razorpay.NewClient(keyID, keySecret)}
}

func (r *Razorpay) CreateOrder(ctx context.Context, amount float64, currency string) (*GatewayOrder, error) {
	if r == nil {
		return nil, ErrGatewayDisabled
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	paise := utils.ToPaise(amount)
	receipt := "rcpt_" + uuid.NewString()[:18]
	data := map[string]interface{}{
		"amount":   paise,
		"currency": currency,
		"receipt":  receipt,
	}

	body, err := r.client.Order.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay: create order: %w", err)
	}
	id, _ := body["id"].(string)
	if id == "" {
		return nil, errors.New("razorpay: create order: response has no id")
	}

	return &GatewayOrder{
		ID:       id,
		Amount:   paise,
		Currency: currency,
		KeyID:    r.keyID,
		Receipt:  receipt,
	}, nil
}
