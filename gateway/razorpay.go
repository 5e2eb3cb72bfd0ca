package gateway

import (
	"context"
	"fmt"

	"github.com/Govind-619/PropertyHub/models"
	razorpay "github.com/razorpay/razorpay-go"
	rzputils "github.com/razorpay/razorpay-go/utils"
)

// RazorpayGateway implements Gateway on top of the Razorpay SDK
type RazorpayGateway struct {
	client        *razorpay.Client
	webhookSecret string
}

// NewRazorpayGateway creates a new Razorpay gateway client
func NewRazorpayGateway(keyID, keySecret, webhookSecret string) *RazorpayGateway {
	return &RazorpayGateway{
		client:        razorpay.NewClient(keyID, keySecret),
		webhookSecret: webhookSecret,
	}
}

// Name returns the gateway tag
func (g *RazorpayGateway) Name() string {
	return models.GatewayRazorpay
}

// CreateOrder creates a Razorpay order with automatic capture
func (g *RazorpayGateway) CreateOrder(ctx context.Context, req OrderRequest) (*OrderRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, g.wrap("create order", err)
	}

	orderData := map[string]interface{}{
		"amount":          req.AmountMinor,
		"currency":        req.Currency,
		"receipt":         req.Receipt,
		"payment_capture": 1,
	}
	if len(req.Notes) > 0 {
		orderData["notes"] = req.Notes
	}

	body, err := g.client.Order.Create(orderData, nil)
	if err != nil {
		return nil, g.wrap("create order", err)
	}

	order := &OrderRef{
		ID:          stringField(body, "id"),
		AmountMinor: int64Field(body, "amount"),
		Currency:    stringField(body, "currency"),
		Receipt:     stringField(body, "receipt"),
		Status:      stringField(body, "status"),
		Raw:         body,
	}
	if order.ID == "" {
		return nil, g.wrap("create order", fmt.Errorf("response has no order id"))
	}
	return order, nil
}

// FetchPayment fetches a payment by its Razorpay id (pay_...)
func (g *RazorpayGateway) FetchPayment(ctx context.Context, gatewayPaymentID string) (*PaymentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, g.wrap("fetch payment", err)
	}

	body, err := g.client.Payment.Fetch(gatewayPaymentID, nil, nil)
	if err != nil {
		return nil, g.wrap("fetch payment", err)
	}

	return &PaymentRecord{
		ID:               stringField(body, "id"),
		OrderID:          stringField(body, "order_id"),
		Status:           stringField(body, "status"),
		Method:           stringField(body, "method"),
		AmountMinor:      int64Field(body, "amount"),
		Currency:         stringField(body, "currency"),
		ErrorCode:        stringField(body, "error_code"),
		ErrorDescription: stringField(body, "error_description"),
		Raw:              body,
	}, nil
}

// Refund issues a (partial) refund against a captured payment
func (g *RazorpayGateway) Refund(ctx context.Context, gatewayPaymentID string, amountMinor int64, notes map[string]string) (*RefundRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, g.wrap("refund", err)
	}

	data := map[string]interface{}{}
	if len(notes) > 0 {
		data["notes"] = notes
	}

	body, err := g.client.Payment.Refund(gatewayPaymentID, int(amountMinor), data, nil)
	if err != nil {
		return nil, g.wrap("refund", err)
	}

	return &RefundRef{
		ID:          stringField(body, "id"),
		PaymentID:   stringField(body, "payment_id"),
		AmountMinor: int64Field(body, "amount"),
		Status:      stringField(body, "status"),
		Raw:         body,
	}, nil
}

// VerifyWebhookSignature checks the X-Razorpay-Signature header
func (g *RazorpayGateway) VerifyWebhookSignature(rawPayload []byte, signatureHeader string) bool {
	if g.webhookSecret == "" || signatureHeader == "" {
		return false
	}
	return rzputils.VerifyWebhookSignature(string(rawPayload), signatureHeader, g.webhookSecret)
}

func (g *RazorpayGateway) wrap(op string, err error) error {
	return &Error{Gateway: models.GatewayRazorpay, Op: op, Err: err}
}

func stringField(body map[string]interface{}, key string) string {
	switch v := body[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

func int64Field(body map[string]interface{}, key string) int64 {
	switch v := body[key].(type) {
	case float64:
		return int64(v)
	case int:
		return int64(v)
	case int64:
		return v
	}
	return 0
}
