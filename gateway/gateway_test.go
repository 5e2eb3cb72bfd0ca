package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		amount float64
		want   int64
	}{
		{500000, 50000000},
		{10.5, 1050},
		{19.99, 1999},
		{0.1 + 0.2, 30},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ToMinorUnits(tt.amount), "amount %v", tt.amount)
	}
	assert.Equal(t, 19.99, FromMinorUnits(1999))
}

func TestVerifyPaymentSignature(t *testing.T) {
	sig := PaymentSignature("secret", "order_1", "pay_1")

	assert.True(t, VerifyPaymentSignature("secret", "order_1", "pay_1", sig))
	assert.False(t, VerifyPaymentSignature("other", "order_1", "pay_1", sig))
	assert.False(t, VerifyPaymentSignature("secret", "order_1", "pay_2", sig))
	assert.False(t, VerifyPaymentSignature("secret", "order_2", "pay_1", sig))
	assert.False(t, VerifyPaymentSignature("secret", "", "pay_1", sig))
	assert.False(t, VerifyPaymentSignature("secret", "order_1", "pay_1", ""))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("timeout")
	err := error(&Error{Gateway: "razorpay", Op: "create order", Err: cause})

	var gwErr *Error
	require.True(t, errors.As(err, &gwErr))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "razorpay create order: timeout", err.Error())
}

func TestMockGatewayOrders(t *testing.T) {
	g := NewMockGateway("whsec")
	ctx := context.Background()

	order, err := g.CreateOrder(ctx, OrderRequest{AmountMinor: 1050, Currency: "INR", Receipt: "rcpt_1"})
	require.NoError(t, err)
	assert.Contains(t, order.ID, "order_")
	assert.Equal(t, int64(1050), order.AmountMinor)
	assert.Equal(t, "rcpt_1", order.Raw["receipt"])
	assert.Equal(t, 1, g.Calls(OpCreateOrder))

	_, err = g.CreateOrder(ctx, OrderRequest{AmountMinor: 0, Currency: "INR"})
	var gwErr *Error
	assert.True(t, errors.As(err, &gwErr))
}

func TestMockGatewayFailNext(t *testing.T) {
	g := NewMockGateway("whsec")
	ctx := context.Background()
	g.FailNext(OpCreateOrder, errors.New("503 from provider"))

	_, err := g.CreateOrder(ctx, OrderRequest{AmountMinor: 100, Currency: "INR"})
	var gwErr *Error
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, OpCreateOrder, gwErr.Op)

	_, err = g.CreateOrder(ctx, OrderRequest{AmountMinor: 100, Currency: "INR"})
	assert.NoError(t, err)
}

func TestMockGatewayFetchPayment(t *testing.T) {
	g := NewMockGateway("whsec")
	ctx := context.Background()

	record, err := g.FetchPayment(ctx, "pay_unknown")
	require.NoError(t, err)
	assert.Equal(t, StatusCaptured, record.Status)

	g.SetPayment(PaymentRecord{ID: "pay_f", OrderID: "order_1", Status: StatusFailed, ErrorDescription: "card declined"})
	record, err = g.FetchPayment(ctx, "pay_f")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, record.Status)
	assert.Equal(t, "card declined", record.ErrorDescription)

	g.SetDefaultStatus(StatusAuthorized)
	record, err = g.FetchPayment(ctx, "pay_other")
	require.NoError(t, err)
	assert.Equal(t, StatusAuthorized, record.Status)
}

func TestMockGatewayRefund(t *testing.T) {
	g := NewMockGateway("whsec")

	refund, err := g.Refund(context.Background(), "pay_1", 20000, map[string]string{"reason": "customer request"})
	require.NoError(t, err)
	assert.Contains(t, refund.ID, "rfnd_")

	refunds := g.Refunds("pay_1")
	require.Len(t, refunds, 1)
	assert.Equal(t, int64(20000), refunds[0].AmountMinor)
}

func TestMockGatewayWebhookSignature(t *testing.T) {
	g := NewMockGateway("whsec")
	body := []byte(`{"event":"payment.captured"}`)

	assert.True(t, g.VerifyWebhookSignature(body, WebhookSignature("whsec", body)))
	assert.False(t, g.VerifyWebhookSignature(body, WebhookSignature("other", body)))
	assert.False(t, g.VerifyWebhookSignature(body, ""))
}

func TestRazorpayWebhookSignatureMatchesHelper(t *testing.T) {
	g := NewRazorpayGateway("rzp_test_key", "rzp_test_secret", "whsec")
	body := []byte(`{"event":"order.paid"}`)

	assert.True(t, g.VerifyWebhookSignature(body, WebhookSignature("whsec", body)))
	assert.False(t, g.VerifyWebhookSignature(body, "deadbeef"))
	assert.Equal(t, "razorpay", g.Name())

	noSecret := NewRazorpayGateway("k", "s", "")
	assert.False(t, noSecret.VerifyWebhookSignature(body, WebhookSignature("", body)))
}
