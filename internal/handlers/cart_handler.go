package handlers

import (
	"net/http"

	"thekua-api/internal/middleware"
	"thekua-api/internal/orders"

	"github.com/gin-gonic/gin"
)

type cartItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) GetCart(c *gin.Context) {
	view, err := h.Cart.Get(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "", view)
}

func (h *Handler) AddCartItem(c *gin.Context) {
	var req cartItemRequest
	if err := bind(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	view, err := h.Cart.Add(c.Request.Context(), middleware.UserID(c), req.ProductID, req.Quantity)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Added to cart", view)
}

// UpdateCartItem sets the quantity of a line; zero removes it.
func (h *Handler) UpdateCartItem(c *gin.Context) {
	var req cartItemRequest
	if err := bind(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	view, err := h.Cart.Update(c.Request.Context(), middleware.UserID(c), c.Param("productId"), req.Quantity)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Cart updated", view)
}

func (h *Handler) RemoveCartItem(c *gin.Context) {
	view, err := h.Cart.Remove(c.Request.Context(), middleware.UserID(c), c.Param("productId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Removed from cart", view)
}

func (h *Handler) ClearCart(c *gin.Context) {
	if err := h.Cart.Clear(c.Request.Context(), middleware.UserID(c)); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Cart cleared", nil)
}

// MergeCart folds the browser's offline cart into the server cart.
func (h *Handler) MergeCart(c *gin.Context) {
	var req struct {
		Items []orders.Line `json:"items"`
	}
	if err := bind(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	view, err := h.Cart.Merge(c.Request.Context(), middleware.UserID(c), req.Items)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Cart merged", view)
}
