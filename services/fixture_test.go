package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/Govind-619/PropertyHub/cache"
	"github.com/Govind-619/PropertyHub/gateway"
	"github.com/Govind-619/PropertyHub/models"
	"github.com/Govind-619/PropertyHub/repository"
	"github.com/Govind-619/PropertyHub/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testKeySecret     = "rzp_test_secret"
	testWebhookSecret = "whsec_test"
	testActor         = "agent-7"
)

type fixture struct {
	db    *gorm.DB
	store *repository.Store
	gw    *gateway.MockGateway
	svc   *PaymentService

	mu     sync.Mutex
	hooked []string
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithCache(t, nil)
}

func newFixtureWithCache(t *testing.T, c cache.Cache) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	f := &fixture{
		db:    db,
		store: repository.NewStore(db),
		gw:    gateway.NewMockGateway(testWebhookSecret),
	}
	bookings := NewBookingStatusHook(f.store)
	hook := BookingHookFunc(func(ctx context.Context, p *models.Payment) {
		f.mu.Lock()
		f.hooked = append(f.hooked, p.ID)
		f.mu.Unlock()
		bookings.PaymentCompleted(ctx, p)
	})
	f.svc = NewPaymentService(f.store, f.gw, c, hook, PaymentConfig{
		SignatureSecret: testKeySecret,
		DefaultCurrency: "INR",
	})
	return f
}

func (f *fixture) hookCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.hooked)
}

func (f *fixture) countPayments(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.Payment{}).Count(&n).Error)
	return n
}

func (f *fixture) countAudit(t *testing.T, paymentID, action string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.AuditLog{}).
		Where("entity_id = ? AND action = ?", paymentID, action).
		Count(&n).Error)
	return n
}

func (f *fixture) reload(t *testing.T, id string) *models.Payment {
	t.Helper()
	p, err := f.store.GetPayment(context.Background(), id)
	require.NoError(t, err)
	return p
}

func (f *fixture) createPayment(t *testing.T, amount float64, method models.PaymentMethod, bookingID *string) *models.Payment {
	t.Helper()
	p, err := f.svc.CreatePayment(context.Background(), CreatePaymentRequest{
		Amount:    amount,
		Currency:  "INR",
		Method:    string(method),
		BookingID: bookingID,
	}, testActor)
	require.NoError(t, err)
	return p
}

func (f *fixture) createOrder(t *testing.T, amount float64, bookingID *string) *OrderResult {
	t.Helper()
	order, err := f.svc.CreateGatewayOrder(context.Background(), CreateOrderRequest{
		Amount:    amount,
		Currency:  "INR",
		BookingID: bookingID,
	}, testActor)
	require.NoError(t, err)
	return order
}

// completedGatewayPayment returns a razorpay payment settled through verify
func (f *fixture) completedGatewayPayment(t *testing.T, amount float64) (*models.Payment, string) {
	t.Helper()
	order := f.createOrder(t, amount, nil)
	gatewayPaymentID := "pay_" + order.PaymentID[:8]
	p, err := f.svc.VerifyGatewayPayment(context.Background(), order.PaymentID, gatewayPaymentID,
		gateway.PaymentSignature(testKeySecret, order.OrderID, gatewayPaymentID), testActor)
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusCompleted, p.Status)
	return p, gatewayPaymentID
}

// completedCashPayment returns a manual payment settled through processing
func (f *fixture) completedCashPayment(t *testing.T, amount float64) *models.Payment {
	t.Helper()
	p := f.createPayment(t, amount, models.PaymentMethodCash, nil)
	p, err := f.svc.ProcessManualPayment(context.Background(), p.ID, ProcessPaymentRequest{}, testActor)
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusCompleted, p.Status)
	return p
}

func webhookBody(t *testing.T, event, orderID, paymentID, status string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"entity": "event",
		"event":  event,
		"payload": map[string]interface{}{
			"payment": map[string]interface{}{
				"entity": map[string]interface{}{
					"id":                paymentID,
					"order_id":          orderID,
					"status":            status,
					"amount":            100,
					"currency":          "INR",
					"error_description": "",
				},
			},
		},
	})
	require.NoError(t, err)
	return body
}

func strPtr(s string) *string {
	return &s
}
