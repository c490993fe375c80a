package handlers

import (
	"net/http"
	"strings"

	"thekua-api/internal/middleware"
	"thekua-api/internal/models"
	"thekua-api/internal/validation"

	"github.com/gin-gonic/gin"
)

// SettingsInput is the editable store configuration.
type SettingsInput struct {
	StoreName             string  `json:"storeName" validate:"required,max=100"`
	ContactEmail          string  `json:"contactEmail" validate:"omitempty,email"`
	ContactPhone          string  `json:"contactPhone" validate:"omitempty,in_phone"`
	Currency              string  `json:"currency" validate:"required,len=3"`
	FreeShippingThreshold float64 `json:"freeShippingThreshold" validate:"gte=0"`
	ShippingFee           float64 `json:"shippingFee" validate:"gte=0"`
	CODEnabled            bool    `json:"codEnabled"`
	RazorpayEnabled       bool    `json:"razorpayEnabled"`
	UPIEnabled            bool    `json:"upiEnabled"`
}

// publicSettings is what the storefront needs to render checkout.
type publicSettings struct {
	StoreName             string  `json:"storeName"`
	Currency              string  `json:"currency"`
	FreeShippingThreshold float64 `json:"freeShippingThreshold"`
	ShippingFee           float64 `json:"shippingFee"`
	CODEnabled            bool    `json:"codEnabled"`
	RazorpayEnabled       bool    `json:"razorpayEnabled"`
	UPIEnabled            bool    `json:"upiEnabled"`
	RazorpayKeyID         string  `json:"razorpayKeyId,omitempty"`
}

func (h *Handler) GetPublicSettings(c *gin.Context) {
	st, err := h.Settings.GetSettings(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "", publicSettings{
		StoreName:             st.StoreName,
		Currency:              st.Currency,
		FreeShippingThreshold: st.FreeShippingThreshold,
		ShippingFee:           st.ShippingFee,
		CODEnabled:            st.CODEnabled,
		RazorpayEnabled:       st.RazorpayEnabled,
		UPIEnabled:            st.UPIEnabled,
		RazorpayKeyID:         h.RazorpayKeyID,
	})
}

func (h *Handler) GetSettings(c *gin.Context) {
	st, err := h.Settings.GetSettings(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "", st)
}

func (h *Handler) UpdateSettings(c *gin.Context) {
	var input SettingsInput
	if err := bind(c, &input); err != nil {
		h.fail(c, err)
		return
	}
	input.Currency = strings.ToUpper(input.Currency)
	if err := validation.Struct(input); err != nil {
		h.fail(c, err)
		return
	}

	st := models.Settings{
		ID:                    models.SettingsID,
		StoreName:             strings.TrimSpace(input.StoreName),
		ContactEmail:          input.ContactEmail,
		ContactPhone:          input.ContactPhone,
		Currency:              input.Currency,
		FreeShippingThreshold: input.FreeShippingThreshold,
		ShippingFee:           input.ShippingFee,
		CODEnabled:            input.CODEnabled,
		RazorpayEnabled:       input.RazorpayEnabled,
		UPIEnabled:            input.UPIEnabled,
	}
	if err := h.Settings.SaveSettings(c.Request.Context(), &st); err != nil {
		h.fail(c, err)
		return
	}
	h.log.Info("settings updated", "by", middleware.UserID(c))
	ok(c, http.StatusOK, "Settings saved", st)
}

// OrderFeed upgrades to a websocket that streams order events.
func (h *Handler) OrderFeed(c *gin.Context) {
	if err := h.Hub.ServeWS(c.Writer, c.Request); err != nil {
		h.log.Warn("websocket upgrade failed", "err", err)
	}
}
