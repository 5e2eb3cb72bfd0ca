package models

import (
	"fmt"
	"strings"
	"time"
)

// PaymentStatus is the lifecycle state of a payment attempt
type PaymentStatus string

// PaymentStatus constants
const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

// PaymentMethod is the instrument the customer paid with
type PaymentMethod string

// PaymentMethod constants
const (
	PaymentMethodUPI          PaymentMethod = "UPI"
	PaymentMethodCard         PaymentMethod = "CARD"
	PaymentMethodNetBanking   PaymentMethod = "NET_BANKING"
	PaymentMethodWallet       PaymentMethod = "WALLET"
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodCheque       PaymentMethod = "CHEQUE"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
)

// Gateway tags
const (
	GatewayRazorpay = "razorpay"
	GatewayPaytabs  = "paytabs"
	GatewayManual   = "manual"
)

// Metadata keys used on refund rows
const (
	MetadataType              = "type"
	MetadataOriginalPaymentID = "original_payment_id"
	MetadataRefundReason      = "reason"
	MetadataTypeRefund        = "refund"
)

var methodGateways = map[PaymentMethod]string{
	PaymentMethodUPI:          GatewayRazorpay,
	PaymentMethodCard:         GatewayRazorpay,
	PaymentMethodNetBanking:   GatewayRazorpay,
	PaymentMethodWallet:       GatewayRazorpay,
	PaymentMethodCash:         GatewayManual,
	PaymentMethodCheque:       GatewayManual,
	PaymentMethodBankTransfer: GatewayManual,
}

// Payment is a single payment attempt. Refunds are stored as separate
// payments with a negative amount.
type Payment struct {
	ID               string        `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Amount           float64       `gorm:"type:decimal(15,2);not null" json:"amount"`
	Currency         string        `gorm:"type:varchar(3);not null" json:"currency"`
	Method           PaymentMethod `gorm:"type:varchar(20);not null" json:"method"`
	Status           PaymentStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Gateway          string        `gorm:"type:varchar(20);not null" json:"gateway"`
	GatewayID        *string       `gorm:"type:varchar(100);index" json:"gateway_id"`
	GatewayPaymentID *string       `gorm:"type:varchar(100)" json:"gateway_payment_id,omitempty"`
	GatewayData      JSONMap       `gorm:"type:jsonb" json:"gateway_data,omitempty"`
	BookingID        *string       `gorm:"type:varchar(36);index" json:"booking_id,omitempty"`
	Description      string        `json:"description,omitempty"`
	Metadata         JSONMap       `gorm:"type:jsonb" json:"metadata,omitempty"`
	FailureReason    *string       `json:"failure_reason,omitempty"`
	ProcessedAt      *time.Time    `json:"processed_at,omitempty"`
	CreatedBy        string        `gorm:"type:varchar(64)" json:"created_by"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// IsValid reports whether the method is one of the known payment methods
func (m PaymentMethod) IsValid() bool {
	_, ok := methodGateways[m]
	return ok
}

// ParsePaymentMethod normalizes user input into a PaymentMethod
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(strings.ToUpper(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", fmt.Errorf("unknown payment method %q", s)
	}
	return m, nil
}

// GatewayForMethod returns the gateway tag a method is settled through
func GatewayForMethod(m PaymentMethod) string {
	return methodGateways[m]
}

// IsTerminal reports whether no further transition may be applied to the status,
// ignoring the COMPLETED -> REFUNDED edge which only refunds may take.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed || s == PaymentStatusRefunded
}

// CanTransitionTo implements the payment state machine:
//
//	PENDING   -> COMPLETED | FAILED
//	COMPLETED -> REFUNDED
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	switch s {
	case PaymentStatusPending:
		return next == PaymentStatusCompleted || next == PaymentStatusFailed
	case PaymentStatusCompleted:
		return next == PaymentStatusRefunded
	}
	return false
}

// IsTerminal reports whether the payment has left PENDING
func (p *Payment) IsTerminal() bool {
	return p.Status.IsTerminal()
}

// IsRefund reports whether this row is a refund of another payment
func (p *Payment) IsRefund() bool {
	return p.Metadata.String(MetadataType) == MetadataTypeRefund
}

// SetGatewayID assigns the external reference. The reference is write-once.
func (p *Payment) SetGatewayID(id string) bool {
	if p.GatewayID != nil || id == "" {
		return false
	}
	p.GatewayID = &id
	return true
}

// GatewayRef returns the external reference or an empty string
func (p *Payment) GatewayRef() string {
	if p.GatewayID == nil {
		return ""
	}
	return *p.GatewayID
}
