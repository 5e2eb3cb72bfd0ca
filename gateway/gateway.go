package gateway

import (
	"context"
	"fmt"
	"math"
)

// Gateway is the payment provider capability the payment service depends on
type Gateway interface {
	// Name returns the gateway tag stored on payments
	Name() string

	// CreateOrder registers an order the customer pays against
	CreateOrder(ctx context.Context, req OrderRequest) (*OrderRef, error)

	// FetchPayment returns the provider's authoritative view of a payment
	FetchPayment(ctx context.Context, gatewayPaymentID string) (*PaymentRecord, error)

	// Refund returns amountMinor of a captured payment to the customer
	Refund(ctx context.Context, gatewayPaymentID string, amountMinor int64, notes map[string]string) (*RefundRef, error)

	// VerifyWebhookSignature checks the signature header of an asynchronous notification
	VerifyWebhookSignature(rawPayload []byte, signatureHeader string) bool
}

// OrderRequest represents an order creation request. Amounts are in minor units (paise, cents).
type OrderRequest struct {
	AmountMinor int64
	Currency    string
	Receipt     string
	Notes       map[string]string
}

// OrderRef represents a created gateway order
type OrderRef struct {
	ID          string                 `json:"id"`
	AmountMinor int64                  `json:"amount"`
	Currency    string                 `json:"currency"`
	Receipt     string                 `json:"receipt"`
	Status      string                 `json:"status"`
	Raw         map[string]interface{} `json:"-"`
}

// PaymentRecord represents the gateway's view of a payment
type PaymentRecord struct {
	ID               string                 `json:"id"`
	OrderID          string                 `json:"order_id"`
	Status           string                 `json:"status"`
	Method           string                 `json:"method"`
	AmountMinor      int64                  `json:"amount"`
	Currency         string                 `json:"currency"`
	ErrorCode        string                 `json:"error_code,omitempty"`
	ErrorDescription string                 `json:"error_description,omitempty"`
	Raw              map[string]interface{} `json:"-"`
}

// RefundRef represents a gateway refund
type RefundRef struct {
	ID          string                 `json:"id"`
	PaymentID   string                 `json:"payment_id"`
	AmountMinor int64                  `json:"amount"`
	Status      string                 `json:"status"`
	Raw         map[string]interface{} `json:"-"`
}

// Gateway payment statuses
const (
	StatusCreated    = "created"
	StatusAuthorized = "authorized"
	StatusCaptured   = "captured"
	StatusFailed     = "failed"
	StatusRefunded   = "refunded"
)

// Error wraps every failure reported by, or while talking to, a payment provider
type Error struct {
	Gateway string
	Op      string
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Gateway, e.Op, e.Err)
}

// Unwrap implements the unwrap interface
func (e *Error) Unwrap() error {
	return e.Err
}

// ToMinorUnits converts a major-unit amount to minor units, rounding half away from zero
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// FromMinorUnits converts minor units back to a major-unit amount
func FromMinorUnits(amount int64) float64 {
	return float64(amount) / 100
}
