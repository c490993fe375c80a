package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewOrderNumber returns a human readable order number like "TK-20260115-1A2B3C4D".
func NewOrderNumber(now time.Time) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "TK-" + now.UTC().Format("20060102") + "-" + strings.ToUpper(id[:8])
}

// NewToken returns a random opaque token suitable for password reset links.
func NewToken() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}

// HashToken hashes a token so only the digest is ever stored.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
