package gateway

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Govind-619/PropertyHub/models"
	"github.com/google/uuid"
)

// MockGateway implements Gateway in memory for local runs and tests
type MockGateway struct {
	webhookSecret string
	defaultStatus string

	mu       sync.Mutex
	orders   map[string]*OrderRef
	payments map[string]*PaymentRecord
	refunds  map[string][]*RefundRef
	failures map[string]error
	calls    map[string]int
}

// NewMockGateway creates a new mock gateway. Payments that were never
// registered with SetPayment are reported as captured.
func NewMockGateway(webhookSecret string) *MockGateway {
	return &MockGateway{
		webhookSecret: webhookSecret,
		defaultStatus: StatusCaptured,
		orders:        make(map[string]*OrderRef),
		payments:      make(map[string]*PaymentRecord),
		refunds:       make(map[string][]*RefundRef),
		failures:      make(map[string]error),
		calls:         make(map[string]int),
	}
}

// Mock operation names used with FailNext and Calls
const (
	OpCreateOrder  = "create_order"
	OpFetchPayment = "fetch_payment"
	OpRefund       = "refund"
)

// Name returns the gateway tag
func (g *MockGateway) Name() string {
	return models.GatewayRazorpay
}

// CreateOrder registers an order in memory
func (g *MockGateway) CreateOrder(ctx context.Context, req OrderRequest) (*OrderRef, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.calls[OpCreateOrder]++
	if err := g.takeFailure(ctx, OpCreateOrder); err != nil {
		return nil, err
	}
	if req.AmountMinor <= 0 {
		return nil, g.wrap(OpCreateOrder, fmt.Errorf("amount must be at least 1"))
	}

	order := &OrderRef{
		ID:          "order_" + shortID(),
		AmountMinor: req.AmountMinor,
		Currency:    req.Currency,
		Receipt:     req.Receipt,
		Status:      StatusCreated,
	}
	order.Raw = map[string]interface{}{
		"id":       order.ID,
		"entity":   "order",
		"amount":   order.AmountMinor,
		"currency": order.Currency,
		"receipt":  order.Receipt,
		"status":   order.Status,
	}
	g.orders[order.ID] = order
	return order, nil
}

// FetchPayment returns the registered payment, or a payment in the default status
func (g *MockGateway) FetchPayment(ctx context.Context, gatewayPaymentID string) (*PaymentRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.calls[OpFetchPayment]++
	if err := g.takeFailure(ctx, OpFetchPayment); err != nil {
		return nil, err
	}
	if gatewayPaymentID == "" {
		return nil, g.wrap(OpFetchPayment, fmt.Errorf("payment id is required"))
	}

	if record, ok := g.payments[gatewayPaymentID]; ok {
		copied := *record
		return &copied, nil
	}
	return &PaymentRecord{
		ID:     gatewayPaymentID,
		Status: g.defaultStatus,
		Raw:    map[string]interface{}{"id": gatewayPaymentID, "status": g.defaultStatus},
	}, nil
}

// Refund records a refund in memory
func (g *MockGateway) Refund(ctx context.Context, gatewayPaymentID string, amountMinor int64, notes map[string]string) (*RefundRef, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.calls[OpRefund]++
	if err := g.takeFailure(ctx, OpRefund); err != nil {
		return nil, err
	}
	if gatewayPaymentID == "" {
		return nil, g.wrap(OpRefund, fmt.Errorf("payment id is required"))
	}

	refund := &RefundRef{
		ID:          "rfnd_" + shortID(),
		PaymentID:   gatewayPaymentID,
		AmountMinor: amountMinor,
		Status:      "processed",
	}
	refund.Raw = map[string]interface{}{
		"id":         refund.ID,
		"entity":     "refund",
		"payment_id": refund.PaymentID,
		"amount":     refund.AmountMinor,
		"status":     refund.Status,
	}
	g.refunds[gatewayPaymentID] = append(g.refunds[gatewayPaymentID], refund)
	return refund, nil
}

// VerifyWebhookSignature checks the signature against the configured webhook secret
func (g *MockGateway) VerifyWebhookSignature(rawPayload []byte, signatureHeader string) bool {
	if signatureHeader == "" {
		return false
	}
	return WebhookSignature(g.webhookSecret, rawPayload) == signatureHeader
}

// SetPayment registers the provider-side state of a payment
func (g *MockGateway) SetPayment(record PaymentRecord) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if record.Raw == nil {
		record.Raw = map[string]interface{}{
			"id":       record.ID,
			"order_id": record.OrderID,
			"status":   record.Status,
		}
	}
	g.payments[record.ID] = &record
}

// SetDefaultStatus changes the status reported for unregistered payments
func (g *MockGateway) SetDefaultStatus(status string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.defaultStatus = status
}

// FailNext makes the next call of op return err wrapped as a gateway error
func (g *MockGateway) FailNext(op string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failures[op] = err
}

// Calls returns how many times op was invoked
func (g *MockGateway) Calls(op string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[op]
}

// Refunds returns the refunds issued against a gateway payment
func (g *MockGateway) Refunds(gatewayPaymentID string) []RefundRef {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]RefundRef, 0, len(g.refunds[gatewayPaymentID]))
	for _, r := range g.refunds[gatewayPaymentID] {
		out = append(out, *r)
	}
	return out
}

func (g *MockGateway) takeFailure(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return g.wrap(op, err)
	}
	if err, ok := g.failures[op]; ok {
		delete(g.failures, op)
		return g.wrap(op, err)
	}
	return nil
}

func (g *MockGateway) wrap(op string, err error) error {
	return &Error{Gateway: "mock", Op: op, Err: err}
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:14]
}
