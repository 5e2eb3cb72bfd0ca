package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/Govind-619/PropertyHub/cache"
	"github.com/Govind-619/PropertyHub/controllers"
	"github.com/Govind-619/PropertyHub/gateway"
	"github.com/Govind-619/PropertyHub/middleware"
	"github.com/Govind-619/PropertyHub/models"
	"github.com/Govind-619/PropertyHub/repository"
	"github.com/Govind-619/PropertyHub/services"
	"github.com/Govind-619/PropertyHub/testutil"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	keySecret     = "rzp_test_secret"
	webhookSecret = "whsec_test"
)

type server struct {
	router *gin.Engine
	db     *gorm.DB
	gw     *gateway.MockGateway
	mr     *miniredis.Miniredis
	agent  map[string]string
	admin  map[string]string
}

func newServer(t *testing.T) *server {
	t.Helper()
	db := testutil.NewTestDB(t)
	store := repository.NewStore(db)
	gw := gateway.NewMockGateway(webhookSecret)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	c := cache.NewRedisCacheFromClient(client, time.Minute)

	payments := services.NewPaymentService(store, gw, c, services.NewBookingStatusHook(store), services.PaymentConfig{
		SignatureSecret: keySecret,
		DefaultCurrency: "INR",
	})
	properties := services.NewPropertyService(store, c, time.Minute)

	router := SetupRouter(Deps{
		ServiceName:    "propertyhub-test",
		JWTSecret:      testutil.TestJWTSecret,
		DB:             db,
		Redis:          client,
		IdempotencyTTL: time.Hour,
		Payments:       payments,
		Properties:     properties,
	})

	return &server{
		router: router,
		db:     db,
		gw:     gw,
		mr:     mr,
		agent:  testutil.BearerHeader(testutil.GetTestToken(t, "agent-7", "agent")),
		admin:  testutil.BearerHeader(testutil.GetTestToken(t, "admin-1", middleware.RoleAdmin)),
	}
}

func (s *server) do(t *testing.T, method, path string, body interface{}, headers map[string]string) testutil.TestResponse {
	t.Helper()
	return testutil.MakeTestRequest(t, s.router, testutil.TestRequest{Method: method, Path: path, Body: body, Headers: headers})
}

func (s *server) countPayments(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, s.db.Model(&models.Payment{}).Count(&n).Error)
	return n
}

func withHeader(base map[string]string, key, value string) map[string]string {
	out := map[string]string{key: value}
	for k, v := range base {
		out[k] = v
	}
	return out
}

func (s *server) createCashPayment(t *testing.T, amount float64) string {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/api/v1/payments", gin.H{"amount": amount, "method": "CASH"}, s.agent)
	testutil.AssertResponse(t, resp, http.StatusCreated, true)
	return resp.Data()["id"].(string)
}

func TestHealth(t *testing.T) {
	s := newServer(t)
	resp := s.do(t, http.MethodGet, "/health", nil, nil)
	testutil.AssertResponse(t, resp, http.StatusOK, true)
	assert.Equal(t, "ok", resp.Data()["database"])
	assert.Equal(t, "ok", resp.Data()["cache"])

	s.mr.Close()
	resp = s.do(t, http.MethodGet, "/health", nil, nil)
	testutil.AssertResponse(t, resp, http.StatusOK, true)
	assert.Equal(t, "degraded", resp.Data()["cache"])
}

func TestPaymentsRequireAuthentication(t *testing.T) {
	s := newServer(t)
	resp := s.do(t, http.MethodGet, "/api/v1/payments", nil, nil)
	testutil.AssertResponse(t, resp, http.StatusUnauthorized, false)
	resp = s.do(t, http.MethodPost, "/api/v1/payments/create-order", gin.H{"amount": 100}, nil)
	testutil.AssertResponse(t, resp, http.StatusUnauthorized, false)
}

func TestGatewayCheckoutFlow(t *testing.T) {
	s := newServer(t)
	booking := testutil.CreateTestBooking(t, s.db, 500000)

	resp := s.do(t, http.MethodPost, "/api/v1/payments/create-order", gin.H{
		"amount": 500000, "currency": "INR", "method": "UPI", "booking_id": booking.ID,
	}, s.agent)
	testutil.AssertResponse(t, resp, http.StatusCreated, true)
	order := resp.Data()
	orderID := order["order_id"].(string)
	paymentID := order["payment_id"].(string)
	assert.Equal(t, float64(50000000), order["amount_minor"])

	resp = s.do(t, http.MethodGet, "/api/v1/payments/"+paymentID, nil, s.agent)
	testutil.AssertResponse(t, resp, http.StatusOK, true)
	assert.Equal(t, "PENDING", resp.Data()["status"])
	assert.Equal(t, models.GatewayRazorpay, resp.Data()["gateway"])

	resp = s.do(t, http.MethodPost, "/api/v1/payments/verify", gin.H{
		"payment_id": paymentID, "gateway_payment_id": "pay_1", "signature": "forged",
	}, s.agent)
	testutil.AssertResponse(t, resp, http.StatusBadRequest, false)

	resp = s.do(t, http.MethodPost, "/api/v1/payments/verify", gin.H{
		"payment_id":         paymentID,
		"gateway_payment_id": "pay_1",
		"signature":          gateway.PaymentSignature(keySecret, orderID, "pay_1"),
	}, s.agent)
	testutil.AssertResponse(t, resp, http.StatusOK, true)
	assert.Equal(t, "COMPLETED", resp.Data()["status"])

	// the cached PENDING view must not survive the transition
	resp = s.do(t, http.MethodGet, "/api/v1/payments/"+paymentID, nil, s.agent)
	assert.Equal(t, "COMPLETED", resp.Data()["status"])

	var b models.Booking
	require.NoError(t, s.db.First(&b, "id = ?", booking.ID).Error)
	assert.Equal(t, models.BookingPaymentCompleted, b.PaymentStatus)
}

func TestCreateOrderIdempotencyKey(t *testing.T) {
	s := newServer(t)
	headers := withHeader(s.agent, middleware.IdempotencyKeyHeader, "checkout-42")
	body := gin.H{"amount": 1500, "method": "CARD"}

	first := s.do(t, http.MethodPost, "/api/v1/payments/create-order", body, headers)
	testutil.AssertResponse(t, first, http.StatusCreated, true)
	second := s.do(t, http.MethodPost, "/api/v1/payments/create-order", body, headers)
	testutil.AssertResponse(t, second, http.StatusCreated, true)

	assert.Equal(t, first.Data()["order_id"], second.Data()["order_id"])
	assert.Equal(t, 1, s.gw.Calls(gateway.OpCreateOrder))
	assert.Equal(t, int64(1), s.countPayments(t))
}

func TestCreateOrderGatewayFailure(t *testing.T) {
	s := newServer(t)
	s.gw.FailNext(gateway.OpCreateOrder, errors.New("upstream timeout"))

	resp := s.do(t, http.MethodPost, "/api/v1/payments/create-order", gin.H{"amount": 1500}, s.agent)
	testutil.AssertResponse(t, resp, http.StatusBadGateway, false)
	assert.NotContains(t, string(resp.Raw), "upstream timeout")
	assert.Equal(t, int64(0), s.countPayments(t))
}

func TestCreatePaymentValidation(t *testing.T) {
	s := newServer(t)

	resp := s.do(t, http.MethodPost, "/api/v1/payments", gin.H{"amount": 0, "method": "CASH"}, s.agent)
	testutil.AssertResponse(t, resp, http.StatusBadRequest, false)
	resp = s.do(t, http.MethodPost, "/api/v1/payments", gin.H{"amount": 10, "method": "BITCOIN"}, s.agent)
	testutil.AssertResponse(t, resp, http.StatusBadRequest, false)
	resp = s.do(t, http.MethodPost, "/api/v1/payments", gin.H{"amount": 10, "method": "CASH", "booking_id": "nope"}, s.agent)
	testutil.AssertResponse(t, resp, http.StatusNotFound, false)
	assert.Equal(t, int64(0), s.countPayments(t))
}

func TestWebhookEndpoint(t *testing.T) {
	s := newServer(t)
	resp := s.do(t, http.MethodPost, "/api/v1/payments/create-order", gin.H{"amount": 2500}, s.agent)
	testutil.AssertResponse(t, resp, http.StatusCreated, true)
	orderID := resp.Data()["order_id"].(string)
	paymentID := resp.Data()["payment_id"].(string)

	payload := func(order string) []byte {
		b, err := json.Marshal(gin.H{
			"event": services.EventPaymentCaptured,
			"payload": gin.H{"payment": gin.H{"entity": gin.H{
				"id": "pay_wh", "order_id": order, "status": "captured", "amount": 250000, "currency": "INR",
			}}},
		})
		require.NoError(t, err)
		return b
	}
	post := func(body []byte, signature string) testutil.TestResponse {
		return testutil.MakeTestRequest(t, s.router, testutil.TestRequest{
			Method:  http.MethodPost,
			Path:    "/api/v1/payments/webhook/razorpay",
			RawBody: body,
			Headers: map[string]string{controllers.SignatureHeader: signature},
		})
	}

	body := payload(orderID)
	resp = post(body, "bad")
	testutil.AssertResponse(t, resp, http.StatusBadRequest, false)

	resp = post(body, gateway.WebhookSignature(webhookSecret, body))
	testutil.AssertResponse(t, resp, http.StatusOK, true)
	assert.Equal(t, services.WebhookProcessed, resp.Data()["outcome"])
	assert.Equal(t, paymentID, resp.Data()["payment_id"])

	resp = post(body, gateway.WebhookSignature(webhookSecret, body))
	testutil.AssertResponse(t, resp, http.StatusOK, true)
	assert.Equal(t, services.WebhookDuplicate, resp.Data()["outcome"])

	unknown := payload("order_unknown")
	resp = post(unknown, gateway.WebhookSignature(webhookSecret, unknown))
	testutil.AssertResponse(t, resp, http.StatusNotFound, false)

	resp = testutil.MakeTestRequest(t, s.router, testutil.TestRequest{
		Method: http.MethodPost, Path: "/api/v1/payments/webhook/paytabs", RawBody: body,
		Headers: map[string]string{controllers.SignatureHeader: gateway.WebhookSignature(webhookSecret, body)},
	})
	testutil.AssertResponse(t, resp, http.StatusNotFound, false)
}

func TestManualProcessingAndRefund(t *testing.T) {
	s := newServer(t)
	paymentID := s.createCashPayment(t, 400000)

	processPath := "/api/v1/payments/" + paymentID + "/process"
	resp := s.do(t, http.MethodPost, processPath, gin.H{"data": gin.H{"receipt_number": "R-1"}}, s.agent)
	testutil.AssertResponse(t, resp, http.StatusForbidden, false)
	resp = s.do(t, http.MethodGet, "/api/v1/payments/"+paymentID, nil, s.agent)
	assert.Equal(t, "PENDING", resp.Data()["status"])

	resp = s.do(t, http.MethodPost, processPath, gin.H{"data": gin.H{"receipt_number": "R-1"}}, s.admin)
	testutil.AssertResponse(t, resp, http.StatusOK, true)
	assert.Equal(t, "COMPLETED", resp.Data()["status"])
	assert.Equal(t, "cash_R-1", resp.Data()["gateway_id"])

	refundPath := "/api/v1/payments/" + paymentID + "/refund"
	resp = s.do(t, http.MethodPost, refundPath, gin.H{"amount": 200000, "reason": "cancelled"}, s.agent)
	testutil.AssertResponse(t, resp, http.StatusForbidden, false)

	resp = s.do(t, http.MethodPost, refundPath, gin.H{"amount": 200000, "reason": "cancelled"}, s.admin)
	testutil.AssertResponse(t, resp, http.StatusCreated, true)
	assert.Equal(t, float64(-200000), resp.Data()["amount"])
	assert.Equal(t, "COMPLETED", resp.Data()["status"])

	resp = s.do(t, http.MethodGet, "/api/v1/payments/"+paymentID, nil, s.agent)
	assert.Equal(t, "REFUNDED", resp.Data()["status"])

	resp = s.do(t, http.MethodPost, refundPath, gin.H{"amount": 400000}, s.admin)
	testutil.AssertResponse(t, resp, http.StatusConflict, false)

	resp = s.do(t, http.MethodGet, "/api/v1/payments/"+paymentID+"/audit", nil, s.admin)
	testutil.AssertResponse(t, resp, http.StatusOK, true)
	entries, ok := resp.Body["data"].([]interface{})
	require.True(t, ok)
	assert.Len(t, entries, 3)
}

func TestProcessFailureReturnsFailedPayment(t *testing.T) {
	s := newServer(t)
	resp := s.do(t, http.MethodPost, "/api/v1/payments", gin.H{"amount": 100, "method": "UPI"}, s.agent)
	testutil.AssertResponse(t, resp, http.StatusCreated, true)
	paymentID := resp.Data()["id"].(string)

	resp = s.do(t, http.MethodPost, "/api/v1/payments/"+paymentID+"/process", gin.H{"data": gin.H{"upi_id": "no-handle"}}, s.admin)
	testutil.AssertResponse(t, resp, http.StatusUnprocessableEntity, false)
	assert.Equal(t, "FAILED", resp.Data()["status"])
	assert.NotEmpty(t, resp.Data()["failure_reason"])

	resp = s.do(t, http.MethodPost, "/api/v1/payments/"+paymentID+"/process", nil, s.admin)
	testutil.AssertResponse(t, resp, http.StatusConflict, false)
}

func TestChequeConfirmation(t *testing.T) {
	s := newServer(t)
	resp := s.do(t, http.MethodPost, "/api/v1/payments", gin.H{"amount": 75000, "method": "CHEQUE"}, s.agent)
	testutil.AssertResponse(t, resp, http.StatusCreated, true)
	paymentID := resp.Data()["id"].(string)

	resp = s.do(t, http.MethodPost, "/api/v1/payments/"+paymentID+"/process", gin.H{"data": gin.H{"cheque_number": "000123"}}, s.admin)
	testutil.AssertResponse(t, resp, http.StatusOK, true)
	assert.Equal(t, "PENDING", resp.Data()["status"])

	resp = s.do(t, http.MethodPost, "/api/v1/payments/"+paymentID+"/process", gin.H{"data": gin.H{"cheque_number": "000124"}}, s.admin)
	testutil.AssertResponse(t, resp, http.StatusConflict, false)

	confirmPath := "/api/v1/payments/" + paymentID + "/confirm"
	resp = s.do(t, http.MethodPost, confirmPath, nil, s.agent)
	testutil.AssertResponse(t, resp, http.StatusForbidden, false)

	resp = s.do(t, http.MethodPost, confirmPath, gin.H{"reference": "CLR-9"}, s.admin)
	testutil.AssertResponse(t, resp, http.StatusOK, true)
	assert.Equal(t, "COMPLETED", resp.Data()["status"])
}

func TestListPayments(t *testing.T) {
	s := newServer(t)
	for i := 0; i < 3; i++ {
		s.createCashPayment(t, float64(100*(i+1)))
	}

	resp := s.do(t, http.MethodGet, "/api/v1/payments?limit=2&page=1&status=pending", nil, s.agent)
	testutil.AssertResponse(t, resp, http.StatusOK, true)
	items, ok := resp.Body["data"].([]interface{})
	require.True(t, ok)
	assert.Len(t, items, 2)
	pagination := resp.Body["pagination"].(map[string]interface{})
	assert.Equal(t, float64(3), pagination["total"])
	assert.Equal(t, float64(2), pagination["total_pages"])

	resp = s.do(t, http.MethodGet, "/api/v1/payments?status=LOST", nil, s.agent)
	testutil.AssertResponse(t, resp, http.StatusBadRequest, false)
	resp = s.do(t, http.MethodGet, "/api/v1/payments?method=BARTER", nil, s.agent)
	testutil.AssertResponse(t, resp, http.StatusBadRequest, false)
	resp = s.do(t, http.MethodGet, "/api/v1/payments?from=yesterday", nil, s.agent)
	testutil.AssertResponse(t, resp, http.StatusBadRequest, false)

	resp = s.do(t, http.MethodGet, "/api/v1/payments/missing", nil, s.agent)
	testutil.AssertResponse(t, resp, http.StatusNotFound, false)
}

func TestReceiptAndExport(t *testing.T) {
	s := newServer(t)
	paymentID := s.createCashPayment(t, 1200)

	resp := s.do(t, http.MethodGet, "/api/v1/payments/"+paymentID+"/receipt", nil, s.agent)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), fmt.Sprintf("receipt_%s.pdf", paymentID))

	resp = s.do(t, http.MethodGet, "/api/v1/payments/reports/export?period=week", nil, s.agent)
	testutil.AssertResponse(t, resp, http.StatusForbidden, false)

	resp = s.do(t, http.MethodGet, "/api/v1/payments/reports/export?period=week", nil, s.admin)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, resp.Raw)

	resp = s.do(t, http.MethodGet, "/api/v1/payments/reports/export?period=century", nil, s.admin)
	testutil.AssertResponse(t, resp, http.StatusBadRequest, false)
}

func TestPropertyCRUD(t *testing.T) {
	s := newServer(t)

	resp := s.do(t, http.MethodPost, "/api/v1/properties", gin.H{"title": "Villa", "city": "Goa", "price": 90000}, s.agent)
	testutil.AssertResponse(t, resp, http.StatusForbidden, false)

	resp = s.do(t, http.MethodPost, "/api/v1/properties", gin.H{"title": "Villa", "city": "Goa", "price": 90000, "bedrooms": 3}, s.admin)
	testutil.AssertResponse(t, resp, http.StatusCreated, true)
	id := resp.Data()["id"].(string)

	resp = s.do(t, http.MethodGet, "/api/v1/properties?city=Goa", nil, s.agent)
	testutil.AssertResponse(t, resp, http.StatusOK, true)
	items := resp.Body["data"].([]interface{})
	require.Len(t, items, 1)

	resp = s.do(t, http.MethodPut, "/api/v1/properties/"+id, gin.H{"price": 80000}, s.admin)
	testutil.AssertResponse(t, resp, http.StatusOK, true)
	assert.Equal(t, float64(80000), resp.Data()["price"])

	resp = s.do(t, http.MethodGet, "/api/v1/properties?city=Goa", nil, s.agent)
	items = resp.Body["data"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, float64(80000), items[0].(map[string]interface{})["price"])

	resp = s.do(t, http.MethodGet, "/api/v1/properties?min_price=abc", nil, s.agent)
	testutil.AssertResponse(t, resp, http.StatusBadRequest, false)

	resp = s.do(t, http.MethodDelete, "/api/v1/properties/"+id, nil, s.admin)
	testutil.AssertResponse(t, resp, http.StatusOK, true)
	resp = s.do(t, http.MethodGet, "/api/v1/properties/"+id, nil, s.agent)
	testutil.AssertResponse(t, resp, http.StatusNotFound, false)
}
