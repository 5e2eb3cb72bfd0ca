package repository

import (
	"context"

	"github.com/Govind-619/PropertyHub/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreatePayment inserts a payment row
func (s *Store) CreatePayment(ctx context.Context, p *models.Payment) error {
	return s.db.WithContext(ctx).Create(p).Error
}

// GetPayment retrieves a payment by ID
func (s *Store) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	var payment models.Payment
	if err := s.db.WithContext(ctx).First(&payment, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &payment, nil
}

// GetPaymentByGatewayID retrieves the payment created for a gateway order
func (s *Store) GetPaymentByGatewayID(ctx context.Context, gatewayID string) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.WithContext(ctx).
		Where("gateway_id = ?", gatewayID).
		Order("created_at ASC").
		First(&payment).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &payment, nil
}

// LockPayment retrieves a payment by ID holding a row lock until the transaction ends
func (s *Store) LockPayment(ctx context.Context, id string) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&payment, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &payment, nil
}

// UpdatePayment writes every column of p
func (s *Store) UpdatePayment(ctx context.Context, p *models.Payment) error {
	result := s.db.WithContext(ctx).Save(p)
	if result.Error != nil {
		return result.Error
	}
	return nil
}

// ListPayments returns the page of payments matching filter and the total match count
func (s *Store) ListPayments(ctx context.Context, filter PaymentFilter) ([]models.Payment, int64, error) {
	query := applyPaymentFilter(s.db.WithContext(ctx).Model(&models.Payment{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var payments []models.Payment
	query = query.Order("created_at DESC").Order("id")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}
	if err := query.Find(&payments).Error; err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}

func applyPaymentFilter(query *gorm.DB, filter PaymentFilter) *gorm.DB {
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Method != "" {
		query = query.Where("method = ?", filter.Method)
	}
	if filter.Gateway != "" {
		query = query.Where("gateway = ?", filter.Gateway)
	}
	if filter.BookingID != "" {
		query = query.Where("booking_id = ?", filter.BookingID)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at <= ?", *filter.To)
	}
	return query
}
