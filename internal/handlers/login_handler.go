package handlers

import (
	"net/http"

	"thekua-api/internal/accounts"
	"thekua-api/internal/apperr"
	"thekua-api/internal/middleware"

	"github.com/gin-gonic/gin"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(c *gin.Context) {
	var input LoginRequest
	if err := bind(c, &input); err != nil {
		h.fail(c, err)
		return
	}
	if input.Email == "" || input.Password == "" {
		h.fail(c, apperr.Invalid("email", "email and password are required"))
		return
	}

	session, err := h.Accounts.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Login successful", session)
}

func (h *Handler) Register(c *gin.Context) {
	if !h.AllowRegistration {
		h.fail(c, apperr.ErrForbidden)
		return
	}

	var input accounts.RegisterInput
	if err := bind(c, &input); err != nil {
		h.fail(c, err)
		return
	}

	session, err := h.Accounts.Register(c.Request.Context(), input)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, "Account created", session)
}

func (h *Handler) Me(c *gin.Context) {
	u, err := h.Accounts.Me(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "", u)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var input accounts.ProfileInput
	if err := bind(c, &input); err != nil {
		h.fail(c, err)
		return
	}
	u, err := h.Accounts.UpdateProfile(c.Request.Context(), middleware.UserID(c), input)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Profile updated", u)
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var input accounts.PasswordInput
	if err := bind(c, &input); err != nil {
		h.fail(c, err)
		return
	}
	if err := h.Accounts.ChangePassword(c.Request.Context(), middleware.UserID(c), input); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Password changed", nil)
}

// ForgotPassword answers the same way whether or not the email is known.
func (h *Handler) ForgotPassword(c *gin.Context) {
	var input struct {
		Email string `json:"email"`
	}
	if err := bind(c, &input); err != nil {
		h.fail(c, err)
		return
	}
	if err := h.Accounts.ForgotPassword(c.Request.Context(), input.Email); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "If that email is registered, a reset link has been sent", nil)
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var input accounts.ResetInput
	if err := bind(c, &input); err != nil {
		h.fail(c, err)
		return
	}
	if err := h.Accounts.ResetPassword(c.Request.Context(), input); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Password has been reset", nil)
}
