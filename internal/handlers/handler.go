// Package handlers is the REST surface of the store: gin handlers over the
// service layer.
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"thekua-api/internal/accounts"
	"thekua-api/internal/ai"
	"thekua-api/internal/auth"
	"thekua-api/internal/cart"
	"thekua-api/internal/catalog"
	"thekua-api/internal/dashboard"
	"thekua-api/internal/database"
	"thekua-api/internal/middleware"
	"thekua-api/internal/models"
	"thekua-api/internal/orders"
	"thekua-api/internal/payment"
	"thekua-api/internal/realtime"
	"thekua-api/internal/storage"

	"github.com/gin-gonic/gin"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps is everything the handlers call into.
type Deps struct {
	Accounts  *accounts.Service
	Catalog   *catalog.Service
	Cart      *cart.Service
	Orders    *orders.Service
	Dashboard *dashboard.Service
	Settings  database.SettingsStore
	Health    Pinger

	Gateway       payment.Gateway
	RazorpayKeyID string
	Signer        *payment.Signer
	Webhooks      *payment.WebhookProcessor

	Images    *storage.Local
	Hub       *realtime.Hub
	Assistant *ai.Agent

	Tokens            *auth.TokenManager
	AllowRegistration bool
	Log               *slog.Logger
}

type Handler struct {
	Deps
	log *slog.Logger
}

func New(d Deps) *Handler {
	log := d.Log
	if log == nil {
		log = slog.Default()
	}
	return &Handler{Deps: d, log: log.With("component", "http")}
}

// Routes mounts every endpoint under /api.
func (h *Handler) Routes(r gin.IRouter) {
	requireAuth := middleware.AuthMiddleware(h.Tokens)

	api := r.Group("/api")
	api.GET("/health", h.HealthCheck)
	api.GET("/settings", h.GetPublicSettings)

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", h.Register)
		authRoutes.POST("/login", h.Login)
		authRoutes.POST("/forgot-password", h.ForgotPassword)
		authRoutes.POST("/reset-password", h.ResetPassword)
		authRoutes.GET("/me", requireAuth, h.Me)
		authRoutes.PUT("/profile", requireAuth, h.UpdateProfile)
		authRoutes.PUT("/password", requireAuth, h.ChangePassword)
	}

	products := api.Group("/products")
	{
		products.GET("", h.GetProducts)
		products.GET("/categories", h.GetCategories)
		products.GET("/:id", h.GetProduct)
	}

	cartRoutes := api.Group("/cart", requireAuth)
	{
		cartRoutes.GET("", h.GetCart)
		cartRoutes.POST("/items", h.AddCartItem)
		cartRoutes.PUT("/items/:productId", h.UpdateCartItem)
		cartRoutes.DELETE("/items/:productId", h.RemoveCartItem)
		cartRoutes.DELETE("", h.ClearCart)
		cartRoutes.POST("/merge", h.MergeCart)
	}

	users := api.Group("/users", requireAuth)
	{
		users.GET("/wishlist", h.GetWishlist)
		users.POST("/wishlist", h.AddToWishlist)
		users.DELETE("/wishlist/:productId", h.RemoveFromWishlist)
		users.GET("/addresses", h.GetAddresses)
		users.POST("/addresses", h.AddAddress)
		users.DELETE("/addresses/:index", h.RemoveAddress)
	}

	orderRoutes := api.Group("/orders")
	{
		orderRoutes.POST("/quote", h.QuoteOrder)
		orderRoutes.POST("", requireAuth, h.CreateOrder)
		orderRoutes.GET("/my", requireAuth, h.MyOrders)
		orderRoutes.GET("/:id", requireAuth, h.GetOrder)
		orderRoutes.PUT("/:id/cancel", requireAuth, h.CancelOrder)
	}

	payments := api.Group("/payments")
	{
		payments.POST("/razorpay/order", requireAuth, h.CreateRazorpayOrder)
		payments.POST("/razorpay/verify", requireAuth, h.VerifyRazorpayPayment)
		payments.POST("/webhook", h.PaymentWebhook)
	}

	admin := api.Group("/admin", requireAuth, middleware.RequireRole(string(models.RoleAdmin)))
	{
		admin.GET("/dashboard", h.GetDashboard)
		admin.GET("/analytics", h.GetAnalytics)

		admin.GET("/orders", h.AdminListOrders)
		admin.GET("/orders/:id", h.AdminGetOrder)
		admin.PUT("/orders/:id/status", h.UpdateOrderStatus)
		admin.PUT("/orders/:id/payment-status", h.UpdatePaymentStatus)

		admin.GET("/users", h.AdminListUsers)
		admin.GET("/users/:id", h.AdminGetUser)
		admin.PUT("/users/:id", h.AdminUpdateUser)
		admin.DELETE("/users/:id", h.AdminDeleteUser)

		admin.GET("/products", h.AdminListProducts)
		admin.POST("/products", h.AddProduct)
		admin.PUT("/products/:id", h.UpdateProduct)
		admin.DELETE("/products/:id", h.DeleteProduct)

		admin.POST("/upload", h.UploadImage)
		admin.DELETE("/upload/:publicId", h.DeleteImage)

		admin.GET("/settings", h.GetSettings)
		admin.PUT("/settings", h.UpdateSettings)

		admin.GET("/ws", h.OrderFeed)
		admin.POST("/assistant", h.AskAI)
	}
}

// HealthCheck reports whether the database answers.
func (h *Handler) HealthCheck(c *gin.Context) {
	if h.Health != nil {
		if err := h.Health.Ping(c.Request.Context()); err != nil {
			h.log.Error("health check failed", "err", err)
			c.JSON(http.StatusServiceUnavailable, envelope{Message: "database unavailable"})
			return
		}
	}
	ok(c, http.StatusOK, "ok", nil)
}
