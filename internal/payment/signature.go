// Package payment talks to the Razorpay gateway and checks its signatures.
package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Signer verifies Razorpay checkout and webhook signatures.
type Signer struct {
	keySecret     []byte
	webhookSecret []byte
}

func NewSigner(keySecret, webhookSecret string) *Signer {
	return &Signer{keySecret: []byte(keySecret), webhookSecret: []byte(webhookSecret)}
}

// Sign returns the checkout signature for a gateway order and payment id.
func (s *Signer) Sign(gatewayOrderID, paymentID string) string {
	return hmacHex(s.keySecret, []byte(gatewayOrderID+"|"+paymentID))
}

// VerifyPayment checks a checkout signature in constant time.
func (s *Signer) VerifyPayment(gatewayOrderID, paymentID, signature string) bool {
	if len(s.keySecret) == 0 || gatewayOrderID == "" || paymentID == "" || signature == "" {
		return false
	}
	return hmac.Equal([]byte(s.Sign(gatewayOrderID, paymentID)), []byte(signature))
}

// VerifyWebhook checks the X-Razorpay-Signature header against the raw body.
func (s *Signer) VerifyWebhook(body []byte, signature string) bool {
	if len(s.webhookSecret) == 0 || signature == "" {
		return false
	}
	return hmac.Equal([]byte(hmacHex(s.webhookSecret, body)), []byte(signature))
}

// SignWebhook is the counterpart of VerifyWebhook, used by tests and tooling.
func (s *Signer) SignWebhook(body []byte) string {
	return hmacHex(s.webhookSecret, body)
}

func hmacHex(key, msg []byte) string {
	h := hmac.New(sha256.New, key)
	h.Write(msg)
	return hex.EncodeToString(h.Sum(nil))
}
