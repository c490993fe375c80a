package handlers

import (
	"io"
	"net/http"

	"thekua-api/internal/apperr"
	"thekua-api/internal/middleware"
	"thekua-api/internal/orders"
	"thekua-api/internal/payment"

	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 1 << 20

type razorpayOrderResponse struct {
	*payment.GatewayOrder
	Quote *orders.Quote `json:"quote"`
}

// CreateRazorpayOrder prices the submitted items and opens a gateway order for
// the final amount. The checkout that pays through it must come to the same
// amount.
func (h *Handler) CreateRazorpayOrder(c *gin.Context) {
	var req struct {
		Items []orders.Line `json:"items"`
	}
	if err := bind(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	ctx := c.Request.Context()

	settings, err := h.Settings.GetSettings(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !settings.RazorpayEnabled {
		h.fail(c, apperr.Invalid("paymentMethod", "razorpay payments are disabled"))
		return
	}
	if h.Gateway == nil {
		h.fail(c, payment.ErrGatewayDisabled)
		return
	}

	quote, err := h.Orders.Quote(ctx, req.Items)
	if err != nil {
		h.fail(c, err)
		return
	}
	gwOrder, err := h.Gateway.CreateOrder(ctx, quote.FinalAmount, quote.Currency)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.Orders.RecordPaymentIntent(ctx, middleware.UserID(c), gwOrder.ID, gwOrder.Amount, gwOrder.Currency); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, "", razorpayOrderResponse{GatewayOrder: gwOrder, Quote: quote})
}

// VerifyRazorpayPayment lets the client check a signature before it submits
// the order.
func (h *Handler) VerifyRazorpayPayment(c *gin.Context) {
	var req struct {
		GatewayOrderID string `json:"gatewayOrderId"`
		PaymentID      string `json:"paymentId"`
		Signature      string `json:"signature"`
	}
	if err := bind(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	if !h.Signer.VerifyPayment(req.GatewayOrderID, req.PaymentID, req.Signature) {
		h.fail(c, apperr.ErrInvalidSignature)
		return
	}
	ok(c, http.StatusOK, "Payment verified", gin.H{"verified": true})
}

// PaymentWebhook receives asynchronous gateway notifications. The signature
// covers the raw body, so it is read before any decoding.
func (h *Handler) PaymentWebhook(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		h.fail(c, apperr.Invalid("body", "could not read request body"))
		return
	}

	result, err := h.Webhooks.Process(c.Request.Context(), body,
		c.GetHeader("X-Razorpay-Signature"),
		c.GetHeader("X-Razorpay-Event-Id"),
	)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, result, gin.H{"status": result})
}
