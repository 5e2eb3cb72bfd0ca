package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Govind-619/PropertyHub/models"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = errors.New("record not found")

// PaymentFilter narrows payment listings. Limit 0 returns every match.
type PaymentFilter struct {
	Status    models.PaymentStatus `json:"status,omitempty"`
	Method    models.PaymentMethod `json:"method,omitempty"`
	Gateway   string               `json:"gateway,omitempty"`
	BookingID string               `json:"booking_id,omitempty"`
	From      *time.Time           `json:"from,omitempty"`
	To        *time.Time           `json:"to,omitempty"`
	Limit     int                  `json:"limit,omitempty"`
	Offset    int                  `json:"offset,omitempty"`
}

// PropertyFilter narrows property listings
type PropertyFilter struct {
	City         string  `json:"city,omitempty"`
	PropertyType string  `json:"property_type,omitempty"`
	Status       string  `json:"status,omitempty"`
	MinPrice     float64 `json:"min_price,omitempty"`
	MaxPrice     float64 `json:"max_price,omitempty"`
	Limit        int     `json:"limit,omitempty"`
	Offset       int     `json:"offset,omitempty"`
}

// PaymentRepository persists payment attempts
type PaymentRepository interface {
	CreatePayment(ctx context.Context, p *models.Payment) error
	GetPayment(ctx context.Context, id string) (*models.Payment, error)
	GetPaymentByGatewayID(ctx context.Context, gatewayID string) (*models.Payment, error)
	// LockPayment reads the row with SELECT ... FOR UPDATE. Only meaningful inside Transaction.
	LockPayment(ctx context.Context, id string) (*models.Payment, error)
	UpdatePayment(ctx context.Context, p *models.Payment) error
	ListPayments(ctx context.Context, filter PaymentFilter) ([]models.Payment, int64, error)
}

// BookingRepository exposes the slice of the booking table the payment flow needs
type BookingRepository interface {
	CreateBooking(ctx context.Context, b *models.Booking) error
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	UpdateBookingPaymentStatus(ctx context.Context, id, status string) error
}

// AuditRepository appends audit entries
type AuditRepository interface {
	CreateAuditLog(ctx context.Context, entry *models.AuditLog) error
	ListAuditLogs(ctx context.Context, entityID string) ([]models.AuditLog, error)
}

// PropertyRepository persists property listings
type PropertyRepository interface {
	CreateProperty(ctx context.Context, p *models.Property) error
	GetProperty(ctx context.Context, id string) (*models.Property, error)
	UpdateProperty(ctx context.Context, p *models.Property) error
	DeleteProperty(ctx context.Context, id string) error
	ListProperties(ctx context.Context, filter PropertyFilter) ([]models.Property, int64, error)
}

// Repository is the durable store. Transaction runs fn against a store bound
// to a single database transaction.
type Repository interface {
	PaymentRepository
	BookingRepository
	AuditRepository
	PropertyRepository
	Transaction(ctx context.Context, fn func(tx Repository) error) error
}

// Store is the gorm implementation of Repository
type Store struct {
	db *gorm.DB
}

// NewStore creates a new Store
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Transaction runs fn inside a database transaction. Returning an error rolls back.
func (s *Store) Transaction(ctx context.Context, fn func(tx Repository) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// Ping checks database connectivity
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
