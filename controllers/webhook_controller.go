package controllers

import (
	"github.com/Govind-619/PropertyHub/services"
	"github.com/Govind-619/PropertyHub/utils"
	"github.com/gin-gonic/gin"
)

// SignatureHeader carries the webhook signature
const SignatureHeader = "X-Razorpay-Signature"

// WebhookController receives gateway notifications
type WebhookController struct {
	payments *services.PaymentService
}

// NewWebhookController creates a WebhookController
func NewWebhookController(payments *services.PaymentService) *WebhookController {
	return &WebhookController{payments: payments}
}

// HandleWebhook acknowledges processed, duplicate and ignored events with 200.
// Anything else gets a non-2xx status so the gateway delivers again.
func (wc *WebhookController) HandleWebhook(c *gin.Context) {
	gatewayName := c.Param("gateway")

	body, err := c.GetRawData()
	if err != nil {
		utils.BadRequest(c, "Unable to read webhook body", nil)
		return
	}

	result, err := wc.payments.HandleWebhook(c.Request.Context(), gatewayName, body, c.GetHeader(SignatureHeader))
	if err != nil {
		utils.LogWarn("Webhook from %s rejected: %v", gatewayName, err)
		respondError(c, err, "Failed to process webhook")
		return
	}

	utils.Success(c, "Webhook "+result.Outcome, result)
}
