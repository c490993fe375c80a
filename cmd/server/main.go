package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"thekua-api/internal/accounts"
	"thekua-api/internal/ai"
	"thekua-api/internal/auth"
	"thekua-api/internal/cart"
	"thekua-api/internal/catalog"
	"thekua-api/internal/config"
	"thekua-api/internal/dashboard"
	"thekua-api/internal/database"
	"thekua-api/internal/database/mongostore"
	"thekua-api/internal/database/sqlstore"
	"thekua-api/internal/handlers"
	"thekua-api/internal/logger"
	"thekua-api/internal/mailer"
	"thekua-api/internal/middleware"
	"thekua-api/internal/orders"
	"thekua-api/internal/payment"
	"thekua-api/internal/realtime"
	"thekua-api/internal/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{Service: "thekua-api", Env: cfg.AppEnv, Level: cfg.LogLevel})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "err", err)
		os.Exit(1)
	}
}

func openStore(ctx context.Context, cfg config.Config) (database.Store, error) {
	if cfg.DBDriver == "mongo" {
		return mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
	}
	level := gormlogger.Warn
	if cfg.IsDev() {
		level = gormlogger.Info
	}
	return sqlstore.Open(cfg.DBDriver, cfg.DBDSN, level)
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			log.Error("failed to close database", "err", err)
		}
	}()
	log.Info("database connected", "driver", cfg.DBDriver)

	mail, err := mailer.New(mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	}, log)
	if err != nil {
		return err
	}

	images, err := storage.NewLocal(cfg.UploadDir, cfg.BaseURL)
	if err != nil {
		return err
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	signer := payment.NewSigner(cfg.RazorpayKeySecret, cfg.RazorpayWebhookSecret)
	hub := realtime.NewHub(cfg.CORSOrigins, log)

	orderSvc := orders.NewService(store, signer, hub, orders.Options{
		StrictTransitions: cfg.StrictTransitions,
		Logger:            log,
	})
	catalogSvc := catalog.NewService(store, log)
	accountSvc := accounts.NewService(store, tokens, mail, cfg.FrontendURL, log)

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if err := accountSvc.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return err
		}
	}

	deps := handlers.Deps{
		Accounts:          accountSvc,
		Catalog:           catalogSvc,
		Cart:              cart.NewService(store, orderSvc),
		Orders:            orderSvc,
		Dashboard:         dashboard.NewService(store),
		Settings:          store,
		Health:            store,
		RazorpayKeyID:     cfg.RazorpayKeyID,
		Signer:            signer,
		Webhooks:          payment.NewWebhookProcessor(signer, store, orderSvc, log),
		Images:            images,
		Hub:               hub,
		Assistant:         ai.NewAgent(cfg.GeminiAPIKey, ai.NewTools(catalogSvc, store, store), log),
		Tokens:            tokens,
		AllowRegistration: cfg.AllowRegistration,
		Log:               log,
	}
	// Leave the interface nil when Razorpay is not configured
	if rp := payment.NewRazorpay(cfg.RazorpayKeyID, cfg.RazorpayKeySecret); rp != nil {
		deps.Gateway = rp
	} else {
		log.Warn("razorpay is not configured; online payments are disabled")
	}
	if !cfg.AllowRegistration {
		log.Info("registration route is disabled")
	}

	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.Recovery(log), middleware.RequestLogger(log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Idempotency-Key"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Static("/uploads", images.Dir())

	handlers.New(deps).Routes(r)
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "route not found"})
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "addr", srv.Addr, "baseURL", cfg.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	hub.Close()
	return srv.Shutdown(shutdownCtx)
}
