package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"thekua-api/internal/database"
	"thekua-api/internal/middleware"
	"thekua-api/internal/models"
	"thekua-api/internal/orders"

	"github.com/gin-gonic/gin"
)

// QuoteOrder prices a list of items the way checkout will.
func (h *Handler) QuoteOrder(c *gin.Context) {
	var req struct {
		Items []orders.Line `json:"items"`
	}
	if err := bind(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	q, err := h.Orders.Quote(c.Request.Context(), req.Items)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "", q)
}

// CreateOrder places an order. A repeated Idempotency-Key returns the order
// created the first time.
func (h *Handler) CreateOrder(c *gin.Context) {
	var input orders.CreateInput
	if err := bind(c, &input); err != nil {
		h.fail(c, err)
		return
	}
	input.UserID = middleware.UserID(c)
	input.IdempotencyKey = strings.TrimSpace(c.GetHeader("Idempotency-Key"))

	order, created, err := h.Orders.Create(c.Request.Context(), input)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !created {
		ok(c, http.StatusOK, "Order already placed", order)
		return
	}
	ok(c, http.StatusCreated, "Order placed successfully", order)
}

func (h *Handler) MyOrders(c *gin.Context) {
	f := database.OrderFilter{
		UserID:      middleware.UserID(c),
		OrderStatus: models.OrderStatus(c.Query("status")),
		Page:        pageOf(c),
	}
	list, total, err := h.Orders.List(c.Request.Context(), f)
	if err != nil {
		h.fail(c, err)
		return
	}
	okPage(c, list, f.Page, total)
}

func (h *Handler) GetOrder(c *gin.Context) {
	isAdmin := middleware.Role(c) == string(models.RoleAdmin)
	order, err := h.Orders.Get(c.Request.Context(), c.Param("id"), middleware.UserID(c), isAdmin)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "", order)
}

// CancelOrder takes an optional {"reason": "..."} body.
func (h *Handler) CancelOrder(c *gin.Context) {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.fail(c, bindError(err))
		return
	}
	order, err := h.Orders.Cancel(c.Request.Context(), c.Param("id"), middleware.UserID(c), req.Reason)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Order cancelled", order)
}

// --- admin ---

func (h *Handler) AdminListOrders(c *gin.Context) {
	f := database.OrderFilter{
		OrderStatus:   models.OrderStatus(c.Query("status")),
		PaymentStatus: models.PaymentStatus(c.Query("paymentStatus")),
		PaymentMethod: models.PaymentMethod(c.Query("paymentMethod")),
		Search:        strings.TrimSpace(c.Query("search")),
		Page:          pageOf(c),
	}
	list, total, err := h.Orders.List(c.Request.Context(), f)
	if err != nil {
		h.fail(c, err)
		return
	}
	okPage(c, list, f.Page, total)
}

func (h *Handler) AdminGetOrder(c *gin.Context) {
	order, err := h.Orders.Get(c.Request.Context(), c.Param("id"), "", true)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "", order)
}

func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	var input orders.StatusInput
	if err := bind(c, &input); err != nil {
		h.fail(c, err)
		return
	}
	order, err := h.Orders.UpdateStatus(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Order status updated", order)
}

func (h *Handler) UpdatePaymentStatus(c *gin.Context) {
	var req struct {
		PaymentStatus models.PaymentStatus `json:"paymentStatus"`
	}
	if err := bind(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	order, err := h.Orders.UpdatePaymentStatus(c.Request.Context(), c.Param("id"), req.PaymentStatus)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Payment status updated", order)
}
