package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Govind-619/PropertyHub/middleware"
	"github.com/Govind-619/PropertyHub/models"
	"github.com/Govind-619/PropertyHub/repository"
	"github.com/Govind-619/PropertyHub/services"
	"github.com/Govind-619/PropertyHub/utils"
	"github.com/gin-gonic/gin"
)

// PaymentController serves the payment endpoints
type PaymentController struct {
	payments *services.PaymentService
	now      func() time.Time
}

// NewPaymentController creates a PaymentController
func NewPaymentController(payments *services.PaymentService) *PaymentController {
	return &PaymentController{payments: payments, now: time.Now}
}

// VerifyPaymentRequest is the body posted by the checkout after the customer pays
type VerifyPaymentRequest struct {
	PaymentID        string `json:"payment_id" binding:"required"`
	GatewayPaymentID string `json:"gateway_payment_id" binding:"required"`
	Signature        string `json:"signature" binding:"required"`
}

// RefundRequest is the body of a refund request
type RefundRequest struct {
	Amount float64 `json:"amount" binding:"required"`
	Reason string  `json:"reason"`
}

// ConfirmRequest is the body of a manual confirmation
type ConfirmRequest struct {
	Reference string `json:"reference"`
}

// CreatePayment records a PENDING payment
func (pc *PaymentController) CreatePayment(c *gin.Context) {
	var req services.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogWarn("Invalid create payment request: %v", err)
		utils.BadRequest(c, "Invalid request body", err.Error())
		return
	}

	payment, err := pc.payments.CreatePayment(c.Request.Context(), req, middleware.ActorID(c))
	if err != nil {
		respondError(c, err, "Failed to create payment")
		return
	}

	utils.Created(c, "Payment created", payment)
}

// CreateOrder registers a gateway order and its PENDING payment
func (pc *PaymentController) CreateOrder(c *gin.Context) {
	var req services.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogWarn("Invalid create order request: %v", err)
		utils.BadRequest(c, "Invalid request body", err.Error())
		return
	}

	order, err := pc.payments.CreateGatewayOrder(c.Request.Context(), req, middleware.ActorID(c))
	if err != nil {
		respondError(c, err, "Failed to create payment order")
		return
	}

	utils.Created(c, "Payment order created", order)
}

// VerifyPayment checks the checkout signature and settles the payment
func (pc *PaymentController) VerifyPayment(c *gin.Context) {
	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "payment_id, gateway_payment_id and signature are required", err.Error())
		return
	}

	payment, err := pc.payments.VerifyGatewayPayment(c.Request.Context(), req.PaymentID, req.GatewayPaymentID, req.Signature, middleware.ActorID(c))
	if err != nil {
		respondError(c, err, "Failed to verify payment")
		return
	}

	utils.Success(c, "Payment verified", payment)
}

// ListPayments returns a page of payments matching the query filters
func (pc *PaymentController) ListPayments(c *gin.Context) {
	filter, err := paymentFilterFromQuery(c)
	if err != nil {
		utils.BadRequest(c, err.Error(), nil)
		return
	}

	pagination := utils.NewPagination(c)
	filter.Limit = pagination.Limit
	filter.Offset = pagination.Offset

	page, err := pc.payments.ListPayments(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "Failed to list payments")
		return
	}

	utils.SuccessWithPagination(c, "Payments retrieved", page.Payments, page.Total, pagination)
}

// GetPayment returns a single payment
func (pc *PaymentController) GetPayment(c *gin.Context) {
	payment, err := pc.payments.GetPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to get payment")
		return
	}
	utils.Success(c, "Payment retrieved", payment)
}

// GetAuditTrail returns the audit entries of a payment, oldest first
func (pc *PaymentController) GetAuditTrail(c *gin.Context) {
	id := c.Param("id")
	if _, err := pc.payments.GetPayment(c.Request.Context(), id); err != nil {
		respondError(c, err, "Failed to get payment")
		return
	}

	entries, err := pc.payments.AuditTrail(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to get audit trail")
		return
	}
	utils.Success(c, "Audit trail retrieved", entries)
}

// ProcessPayment settles a manual payment. A failed processing attempt is
// persisted and returned alongside the error.
func (pc *PaymentController) ProcessPayment(c *gin.Context) {
	var req services.ProcessPaymentRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequest(c, "Invalid request body", err.Error())
			return
		}
	}

	payment, err := pc.payments.ProcessManualPayment(c.Request.Context(), c.Param("id"), req, middleware.ActorID(c))
	if err != nil {
		if errors.Is(err, services.ErrProcessingFailed) && payment != nil {
			c.JSON(http.StatusUnprocessableEntity, utils.StandardResponse{
				Success: false,
				Message: err.Error(),
				Data:    payment,
			})
			return
		}
		respondError(c, err, "Failed to process payment")
		return
	}

	utils.Success(c, "Payment processed", payment)
}

// ConfirmPayment completes a cheque or bank transfer once funds have cleared
func (pc *PaymentController) ConfirmPayment(c *gin.Context) {
	var req ConfirmRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequest(c, "Invalid request body", err.Error())
			return
		}
	}

	payment, err := pc.payments.ConfirmManualPayment(c.Request.Context(), c.Param("id"), req.Reference, middleware.ActorID(c))
	if err != nil {
		respondError(c, err, "Failed to confirm payment")
		return
	}
	utils.Success(c, "Payment confirmed", payment)
}

// RefundPayment refunds a completed payment and returns the refund record
func (pc *PaymentController) RefundPayment(c *gin.Context) {
	var req RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "amount is required", err.Error())
		return
	}

	refund, err := pc.payments.RefundPayment(c.Request.Context(), c.Param("id"), req.Amount, req.Reason, middleware.ActorID(c))
	if err != nil {
		respondError(c, err, "Failed to refund payment")
		return
	}

	utils.Created(c, "Payment refunded", refund)
}

func paymentFilterFromQuery(c *gin.Context) (repository.PaymentFilter, error) {
	filter := repository.PaymentFilter{
		Method:    models.PaymentMethod(strings.ToUpper(c.Query("method"))),
		Gateway:   strings.ToLower(c.Query("gateway")),
		BookingID: c.Query("booking_id"),
	}

	if status := c.Query("status"); status != "" {
		filter.Status = models.PaymentStatus(strings.ToUpper(status))
		switch filter.Status {
		case models.PaymentStatusPending, models.PaymentStatusCompleted, models.PaymentStatusFailed, models.PaymentStatusRefunded:
		default:
			return filter, errors.New("status must be one of PENDING, COMPLETED, FAILED, REFUNDED")
		}
	}

	if from := c.Query("from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return filter, errors.New("from must be a date in YYYY-MM-DD format")
		}
		filter.From = &t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return filter, errors.New("to must be a date in YYYY-MM-DD format")
		}
		end := t.Add(24*time.Hour - time.Nanosecond)
		filter.To = &end
	}
	return filter, nil
}
