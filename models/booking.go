package models

import (
	"time"
)

// Booking status constants
const (
	BookingStatusPending   = "PENDING"
	BookingStatusConfirmed = "CONFIRMED"
	BookingStatusCancelled = "CANCELLED"
)

// Booking payment status constants
const (
	BookingPaymentPending   = "PENDING"
	BookingPaymentCompleted = "COMPLETED"
)

// Booking is owned by the property domain. The payment subsystem only
// writes PaymentStatus.
type Booking struct {
	ID            string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	PropertyID    string     `gorm:"type:varchar(36);index" json:"property_id"`
	CustomerID    string     `gorm:"type:varchar(64);index" json:"customer_id"`
	Status        string     `gorm:"type:varchar(20);default:'PENDING'" json:"status"`
	PaymentStatus string     `gorm:"type:varchar(20);default:'PENDING'" json:"payment_status"`
	Amount        float64    `gorm:"type:decimal(15,2)" json:"amount"`
	CheckIn       *time.Time `json:"check_in,omitempty"`
	CheckOut      *time.Time `json:"check_out,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
