package repository

import (
	"context"

	"github.com/Govind-619/PropertyHub/models"
)

// CreateBooking inserts a booking row
func (s *Store) CreateBooking(ctx context.Context, b *models.Booking) error {
	return s.db.WithContext(ctx).Create(b).Error
}

// GetBooking retrieves a booking by ID
func (s *Store) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	if err := s.db.WithContext(ctx).First(&booking, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &booking, nil
}

// UpdateBookingPaymentStatus sets the payment status of a booking
func (s *Store) UpdateBookingPaymentStatus(ctx context.Context, id, status string) error {
	result := s.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", id).
		Update("payment_status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
