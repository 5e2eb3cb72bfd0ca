package routes

import (
	"context"
	"time"

	"github.com/Govind-619/PropertyHub/controllers"
	"github.com/Govind-619/PropertyHub/middleware"
	"github.com/Govind-619/PropertyHub/repository"
	"github.com/Govind-619/PropertyHub/services"
	"github.com/Govind-619/PropertyHub/utils"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"
)

// Deps are the collaborators the router is built from
type Deps struct {
	ServiceName string
	JWTSecret   string
	DB          *gorm.DB
	// Redis is optional. Without it idempotency keys are ignored.
	Redis          *redis.Client
	IdempotencyTTL time.Duration
	Payments       *services.PaymentService
	Properties     *services.PropertyService
}

// SetupRouter initializes and returns the Gin router with all routes
func SetupRouter(deps Deps) *gin.Engine {
	router := gin.New()

	router.Use(utils.RecoveryMiddleware())
	router.Use(utils.RequestIDMiddleware())
	router.Use(otelgin.Middleware(deps.ServiceName))
	router.Use(utils.LoggerMiddleware())
	router.Use(utils.CORSMiddleware())
	router.Use(utils.SecurityHeadersMiddleware())

	var pinger controllers.Pinger
	var idempotencyStore middleware.RedisClient
	if deps.Redis != nil {
		pinger = redisPinger{deps.Redis}
		idempotencyStore = deps.Redis
	}
	health := controllers.NewHealthController(repository.NewStore(deps.DB), pinger)
	router.GET("/health", health.Health)

	auth := middleware.AuthMiddleware(deps.JWTSecret)
	idempotency := middleware.Idempotency(idempotencyStore, deps.IdempotencyTTL)

	api := router.Group("/api/v1")
	{
		initPaymentRoutes(api, deps.Payments, auth, idempotency)
		initPropertyRoutes(api, deps.Properties, auth)
	}

	return router
}

type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
