package models

import (
	"time"
)

// Audit actions written by the payment service
const (
	AuditPaymentCreated       = "payment.created"
	AuditOrderCreated         = "payment.order_created"
	AuditPaymentVerified      = "payment.verified"
	AuditPaymentProcessed     = "payment.processed"
	AuditPaymentConfirmed     = "payment.confirmed"
	AuditPaymentFailed        = "payment.failed"
	AuditPaymentAttemptFailed = "payment.attempt_failed"
	AuditPaymentRefunded      = "payment.refunded"
	AuditPaymentWebhook       = "payment.webhook"
)

// AuditLog is an append-only record of who did what to which entity
type AuditLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ActorID    string    `gorm:"type:varchar(64);index" json:"actor_id"`
	Action     string    `gorm:"type:varchar(50);index" json:"action"`
	EntityType string    `gorm:"type:varchar(30)" json:"entity_type"`
	EntityID   string    `gorm:"type:varchar(36);index" json:"entity_id"`
	Details    JSONMap   `gorm:"type:jsonb" json:"details,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
