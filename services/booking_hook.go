package services

import (
	"context"

	"github.com/Govind-619/PropertyHub/models"
	"github.com/Govind-619/PropertyHub/repository"
	"github.com/Govind-619/PropertyHub/utils"
)

// BookingHook is notified after a payment commits as COMPLETED. It runs
// outside the payment transaction and cannot fail the payment.
type BookingHook interface {
	PaymentCompleted(ctx context.Context, payment *models.Payment)
}

// BookingHookFunc adapts a function to BookingHook
type BookingHookFunc func(ctx context.Context, payment *models.Payment)

// PaymentCompleted calls f
func (f BookingHookFunc) PaymentCompleted(ctx context.Context, payment *models.Payment) {
	f(ctx, payment)
}

// BookingStatusHook marks the booking of a completed payment as paid
type BookingStatusHook struct {
	bookings repository.BookingRepository
}

// NewBookingStatusHook creates a hook writing through bookings
func NewBookingStatusHook(bookings repository.BookingRepository) *BookingStatusHook {
	return &BookingStatusHook{bookings: bookings}
}

// PaymentCompleted sets Booking.PaymentStatus to COMPLETED. Failures are logged and dropped.
func (h *BookingStatusHook) PaymentCompleted(ctx context.Context, payment *models.Payment) {
	if payment == nil || payment.BookingID == nil || *payment.BookingID == "" {
		return
	}
	if payment.Status != models.PaymentStatusCompleted {
		return
	}

	bookingID := *payment.BookingID
	if err := h.bookings.UpdateBookingPaymentStatus(ctx, bookingID, models.BookingPaymentCompleted); err != nil {
		utils.LogWarn("Failed to mark booking %s paid for payment %s: %v", bookingID, payment.ID, err)
		return
	}
	utils.LogInfo("Booking %s marked paid by payment %s", bookingID, payment.ID)
}
