package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Govind-619/PropertyHub/models"
	"github.com/Govind-619/PropertyHub/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPayment(status models.PaymentStatus, method models.PaymentMethod, amount float64) *models.Payment {
	return &models.Payment{
		ID:       uuid.NewString(),
		Amount:   amount,
		Currency: "INR",
		Method:   method,
		Status:   status,
		Gateway:  models.GatewayForMethod(method),
		Metadata: models.JSONMap{"source": "test"},
	}
}

func TestPaymentRoundTrip(t *testing.T) {
	store := NewStore(testutil.NewTestDB(t))
	ctx := context.Background()

	p := newPayment(models.PaymentStatusPending, models.PaymentMethodUPI, 500000)
	p.SetGatewayID("order_abc")
	require.NoError(t, store.CreatePayment(ctx, p))

	got, err := store.GetPayment(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 500000.0, got.Amount)
	assert.Equal(t, "test", got.Metadata.String("source"))

	byGateway, err := store.GetPaymentByGatewayID(ctx, "order_abc")
	require.NoError(t, err)
	assert.Equal(t, p.ID, byGateway.ID)

	got.Status = models.PaymentStatusCompleted
	require.NoError(t, store.UpdatePayment(ctx, got))
	got, err = store.GetPayment(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, got.Status)

	_, err = store.GetPayment(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.GetPaymentByGatewayID(ctx, "order_missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListPaymentsFilters(t *testing.T) {
	store := NewStore(testutil.NewTestDB(t))
	ctx := context.Background()

	require.NoError(t, store.CreatePayment(ctx, newPayment(models.PaymentStatusPending, models.PaymentMethodUPI, 100)))
	require.NoError(t, store.CreatePayment(ctx, newPayment(models.PaymentStatusCompleted, models.PaymentMethodCash, 200)))
	require.NoError(t, store.CreatePayment(ctx, newPayment(models.PaymentStatusCompleted, models.PaymentMethodCard, 300)))

	all, total, err := store.ListPayments(ctx, PaymentFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, all, 3)

	completed, total, err := store.ListPayments(ctx, PaymentFilter{Status: models.PaymentStatusCompleted, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, completed, 1)

	razorpay, total, err := store.ListPayments(ctx, PaymentFilter{Gateway: models.GatewayRazorpay})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, razorpay, 2)

	future := time.Now().Add(time.Hour)
	_, total, err = store.ListPayments(ctx, PaymentFilter{From: &future})
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestTransactionRollsBack(t *testing.T) {
	store := NewStore(testutil.NewTestDB(t))
	ctx := context.Background()
	p := newPayment(models.PaymentStatusPending, models.PaymentMethodCash, 100)
	require.NoError(t, store.CreatePayment(ctx, p))

	boom := errors.New("boom")
	err := store.Transaction(ctx, func(tx Repository) error {
		locked, err := tx.LockPayment(ctx, p.ID)
		require.NoError(t, err)
		locked.Status = models.PaymentStatusCompleted
		require.NoError(t, tx.UpdatePayment(ctx, locked))
		require.NoError(t, tx.CreateAuditLog(ctx, &models.AuditLog{ActorID: "a", Action: models.AuditPaymentProcessed, EntityType: "payment", EntityID: p.ID}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.GetPayment(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, got.Status)
	logs, err := store.ListAuditLogs(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, logs)

	err = store.Transaction(ctx, func(tx Repository) error {
		_, err := tx.LockPayment(ctx, "missing")
		return err
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAuditLogsInOrder(t *testing.T) {
	store := NewStore(testutil.NewTestDB(t))
	ctx := context.Background()

	for _, action := range []string{models.AuditPaymentCreated, models.AuditPaymentProcessed, models.AuditPaymentRefunded} {
		require.NoError(t, store.CreateAuditLog(ctx, &models.AuditLog{ActorID: "agent-7", Action: action, EntityType: "payment", EntityID: "p1"}))
	}
	require.NoError(t, store.CreateAuditLog(ctx, &models.AuditLog{ActorID: "agent-7", Action: models.AuditPaymentCreated, EntityType: "payment", EntityID: "p2"}))

	logs, err := store.ListAuditLogs(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, models.AuditPaymentCreated, logs[0].Action)
	assert.Equal(t, models.AuditPaymentRefunded, logs[2].Action)
}

func TestBookingPaymentStatus(t *testing.T) {
	db := testutil.NewTestDB(t)
	store := NewStore(db)
	ctx := context.Background()
	booking := testutil.CreateTestBooking(t, db, 1000)

	require.NoError(t, store.UpdateBookingPaymentStatus(ctx, booking.ID, models.BookingPaymentCompleted))
	got, err := store.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingPaymentCompleted, got.PaymentStatus)

	assert.ErrorIs(t, store.UpdateBookingPaymentStatus(ctx, "missing", models.BookingPaymentCompleted), ErrNotFound)
	_, err = store.GetBooking(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPropertyStore(t *testing.T) {
	store := NewStore(testutil.NewTestDB(t))
	ctx := context.Background()

	villa := &models.Property{ID: uuid.NewString(), Title: "Villa", City: "Goa", PropertyType: "VILLA", Status: models.PropertyStatusAvailable, Price: 90000, Bedrooms: 4}
	flat := &models.Property{ID: uuid.NewString(), Title: "Flat", City: "Pune", PropertyType: "APARTMENT", Status: models.PropertyStatusAvailable, Price: 15000, Bedrooms: 2}
	require.NoError(t, store.CreateProperty(ctx, villa))
	require.NoError(t, store.CreateProperty(ctx, flat))

	list, total, err := store.ListProperties(ctx, PropertyFilter{City: "GOA"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, villa.ID, list[0].ID)

	_, total, err = store.ListProperties(ctx, PropertyFilter{MinPrice: 10000, MaxPrice: 20000})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	require.NoError(t, store.DeleteProperty(ctx, villa.ID))
	assert.ErrorIs(t, store.DeleteProperty(ctx, villa.ID), ErrNotFound)
	_, err = store.GetProperty(ctx, villa.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, store.Ping(ctx))
}
