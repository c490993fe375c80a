package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"thekua-api/internal/accounts"
	"thekua-api/internal/apperr"
	"thekua-api/internal/database"
	"thekua-api/internal/middleware"
	"thekua-api/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetWishlist(c *gin.Context) {
	products, err := h.Accounts.Wishlist(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "", products)
}

func (h *Handler) AddToWishlist(c *gin.Context) {
	var req struct {
		ProductID string `json:"productId"`
	}
	if err := bind(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	ids, err := h.Accounts.AddToWishlist(c.Request.Context(), middleware.UserID(c), req.ProductID)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Added to wishlist", ids)
}

func (h *Handler) RemoveFromWishlist(c *gin.Context) {
	ids, err := h.Accounts.RemoveFromWishlist(c.Request.Context(), middleware.UserID(c), c.Param("productId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Removed from wishlist", ids)
}

func (h *Handler) GetAddresses(c *gin.Context) {
	addrs, err := h.Accounts.Addresses(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "", addrs)
}

func (h *Handler) AddAddress(c *gin.Context) {
	var addr models.Address
	if err := bind(c, &addr); err != nil {
		h.fail(c, err)
		return
	}
	addrs, err := h.Accounts.AddAddress(c.Request.Context(), middleware.UserID(c), addr)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, "Address saved", addrs)
}

func (h *Handler) RemoveAddress(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		h.fail(c, apperr.Invalid("index", "must be a number"))
		return
	}
	addrs, err := h.Accounts.RemoveAddress(c.Request.Context(), middleware.UserID(c), index)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Address removed", addrs)
}

// --- admin ---

func (h *Handler) AdminListUsers(c *gin.Context) {
	f := database.UserFilter{
		Search: strings.TrimSpace(c.Query("search")),
		Role:   models.Role(c.Query("role")),
		Page:   pageOf(c),
	}
	users, total, err := h.Accounts.ListUsers(c.Request.Context(), f)
	if err != nil {
		h.fail(c, err)
		return
	}
	okPage(c, users, f.Page, total)
}

func (h *Handler) AdminGetUser(c *gin.Context) {
	u, err := h.Accounts.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "", u)
}

func (h *Handler) AdminUpdateUser(c *gin.Context) {
	var input accounts.AdminUserInput
	if err := bind(c, &input); err != nil {
		h.fail(c, err)
		return
	}
	u, err := h.Accounts.AdminUpdateUser(c.Request.Context(), middleware.UserID(c), c.Param("id"), input)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "User updated", u)
}

func (h *Handler) AdminDeleteUser(c *gin.Context) {
	if err := h.Accounts.DeleteUser(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "User deleted", nil)
}
