package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Govind-619/PropertyHub/cache"
	"github.com/Govind-619/PropertyHub/config"
	"github.com/Govind-619/PropertyHub/gateway"
	"github.com/Govind-619/PropertyHub/repository"
	"github.com/Govind-619/PropertyHub/routes"
	"github.com/Govind-619/PropertyHub/services"
	"github.com/Govind-619/PropertyHub/telemetry"
	"github.com/Govind-619/PropertyHub/utils"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load environment variables
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Error loading config:", err)
	}

	// Initialize logger
	if err := utils.InitLogger(cfg.LogDir, !cfg.IsProduction()); err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer utils.SyncLogger()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	tracer, err := telemetry.Init(ctx, cfg.OTel, cfg.Env)
	if err != nil {
		utils.LogWarn("Tracing disabled: %v", err)
	}

	// Initialize database
	db, err := config.InitDB(cfg.DB, !cfg.IsProduction())
	if err != nil {
		utils.LogError("Failed to initialize database: %v", err)
		log.Fatal("Failed to initialize database:", err)
	}

	var appCache cache.Cache = cache.NewNop()
	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		rc, err := cache.NewRedisCache(cfg.Redis.URL, cfg.Redis.CacheTTL)
		if err != nil {
			utils.LogWarn("Redis unavailable, running without cache: %v", err)
		} else {
			defer rc.Close()
			appCache = rc
			redisClient = rc.Client()
		}
	}

	var gw gateway.Gateway
	switch cfg.Payments.Gateway {
	case "mock":
		utils.LogWarn("Using the mock payment gateway")
		gw = gateway.NewMockGateway(cfg.Payments.WebhookSecret)
	default:
		gw = gateway.NewRazorpayGateway(cfg.Payments.RazorpayKey, cfg.Payments.RazorpaySecret, cfg.Payments.WebhookSecret)
	}

	store := repository.NewStore(db)
	payments := services.NewPaymentService(store, gw, appCache, services.NewBookingStatusHook(store), services.PaymentConfig{
		SignatureSecret: cfg.Payments.RazorpaySecret,
		DefaultCurrency: cfg.Payments.DefaultCurrency,
		CacheTTL:        cfg.Redis.CacheTTL,
	})
	properties := services.NewPropertyService(store, appCache, cfg.Redis.CacheTTL)

	// Set up router
	router := routes.SetupRouter(routes.Deps{
		ServiceName:    cfg.OTel.ServiceName,
		JWTSecret:      cfg.JWT.Secret,
		DB:             db,
		Redis:          redisClient,
		IdempotencyTTL: cfg.Payments.IdempotencyTTL,
		Payments:       payments,
		Properties:     properties,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	go func() {
		utils.LogInfo("Server starting on port %s (gateway %s)", cfg.Port, gw.Name())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.LogError("Error starting server: %v", err)
			log.Fatal("Error starting server:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	utils.LogInfo("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.LogError("Server forced to shutdown: %v", err)
	}
	if tracer != nil {
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			utils.LogWarn("Failed to flush traces: %v", err)
		}
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	utils.LogInfo("Server stopped")
}
