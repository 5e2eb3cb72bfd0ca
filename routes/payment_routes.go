package routes

import (
	"github.com/Govind-619/PropertyHub/controllers"
	"github.com/Govind-619/PropertyHub/middleware"
	"github.com/Govind-619/PropertyHub/services"
	"github.com/gin-gonic/gin"
)

// initPaymentRoutes initializes the payment routes
func initPaymentRoutes(router *gin.RouterGroup, payments *services.PaymentService, auth, idempotency gin.HandlerFunc) {
	pc := controllers.NewPaymentController(payments)
	wc := controllers.NewWebhookController(payments)
	elevated := middleware.RequireRole(middleware.RoleAdmin, middleware.RoleManager)

	group := router.Group("/payments")

	// Signed by the gateway, no bearer token
	group.POST("/webhook/:gateway", wc.HandleWebhook)

	secured := group.Group("", auth)
	{
		secured.POST("", idempotency, pc.CreatePayment)
		secured.POST("/create-order", idempotency, pc.CreateOrder)
		secured.POST("/verify", pc.VerifyPayment)
		secured.GET("", pc.ListPayments)
		secured.GET("/:id", pc.GetPayment)
		secured.GET("/:id/receipt", pc.DownloadReceipt)
	}

	// Manual settlement is done by staff who collected the money
	admin := secured.Group("", elevated)
	{
		admin.POST("/:id/process", pc.ProcessPayment)
		admin.POST("/:id/confirm", pc.ConfirmPayment)
		admin.POST("/:id/refund", pc.RefundPayment)
		admin.GET("/:id/audit", pc.GetAuditTrail)
		admin.GET("/reports/export", pc.ExportPayments)
	}
}
