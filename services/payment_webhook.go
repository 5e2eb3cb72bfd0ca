package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Govind-619/PropertyHub/gateway"
	"github.com/Govind-619/PropertyHub/models"
	"github.com/Govind-619/PropertyHub/repository"
	"github.com/Govind-619/PropertyHub/telemetry"
	"github.com/Govind-619/PropertyHub/utils"
	"go.opentelemetry.io/otel/attribute"
)

// Webhook events acted on. Anything else is acknowledged and ignored.
const (
	EventPaymentCaptured = "payment.captured"
	EventPaymentFailed   = "payment.failed"
	EventOrderPaid       = "order.paid"
)

// Webhook outcomes
const (
	WebhookProcessed = "processed"
	WebhookRecorded  = "recorded"
	WebhookDuplicate = "duplicate"
	WebhookIgnored   = "ignored"
)

// WebhookActor is recorded as the actor of webhook driven transitions
const WebhookActor = "system:webhook"

// WebhookResult describes what a webhook delivery did
type WebhookResult struct {
	Event     string               `json:"event"`
	Outcome   string               `json:"outcome"`
	PaymentID string               `json:"payment_id,omitempty"`
	Status    models.PaymentStatus `json:"status,omitempty"`
}

type webhookEnvelope struct {
	Event   string `json:"event"`
	Payload struct {
		Payment *struct {
			Entity json.RawMessage `json:"entity"`
		} `json:"payment"`
		Order *struct {
			Entity struct {
				ID     string `json:"id"`
				Status string `json:"status"`
			} `json:"entity"`
		} `json:"order"`
	} `json:"payload"`
}

type webhookPayment struct {
	ID               string `json:"id"`
	OrderID          string `json:"order_id"`
	Status           string `json:"status"`
	Method           string `json:"method"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
	ErrorCode        string `json:"error_code"`
	ErrorDescription string `json:"error_description"`
}

// HandleWebhook verifies and applies an asynchronous gateway notification.
// Redelivery of an event for a settled payment is a successful no-op.
// A payment.failed event reports one attempt on the order; the customer can
// still retry, so the payment stays PENDING and the attempt is recorded.
func (s *PaymentService) HandleWebhook(ctx context.Context, gatewayName string, rawBody []byte, signature string) (*WebhookResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "payments.webhook", attribute.String("gateway", gatewayName))
	var err error
	defer func() { telemetry.EndSpan(span, err) }()

	if gatewayName != s.gateway.Name() {
		err = fmt.Errorf("%w: %s", ErrUnknownGateway, gatewayName)
		return nil, err
	}
	if !s.gateway.VerifyWebhookSignature(rawBody, signature) {
		utils.LogWarn("Rejected %s webhook with bad signature", gatewayName)
		err = ErrInvalidSignature
		return nil, err
	}

	var envelope webhookEnvelope
	if err = json.Unmarshal(rawBody, &envelope); err != nil {
		err = fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("webhook.event", envelope.Event))

	switch envelope.Event {
	case EventPaymentCaptured, EventPaymentFailed, EventOrderPaid:
	default:
		utils.LogDebug("Ignoring %s webhook event %q", gatewayName, envelope.Event)
		return &WebhookResult{Event: envelope.Event, Outcome: WebhookIgnored}, nil
	}

	record, err := webhookRecord(envelope)
	if err != nil {
		return nil, err
	}

	found, err := s.repo.GetPaymentByGatewayID(ctx, record.OrderID)
	if err != nil {
		err = paymentLookupErr(err)
		return nil, err
	}

	unlock := s.locks.Lock(found.ID)
	defer unlock()

	result := &WebhookResult{Event: envelope.Event, PaymentID: found.ID}
	var payment *models.Payment
	err = s.repo.Transaction(ctx, func(tx repository.Repository) error {
		p, err := tx.LockPayment(ctx, found.ID)
		if err != nil {
			return paymentLookupErr(err)
		}
		payment = p
		if p.IsTerminal() {
			result.Outcome = WebhookDuplicate
			return nil
		}
		if envelope.Event == EventPaymentFailed {
			result.Outcome = WebhookRecorded
			return s.recordFailedAttempt(ctx, tx, p, record)
		}
		result.Outcome = WebhookProcessed
		return s.applyGatewayResult(ctx, tx, p, record, WebhookActor, models.AuditPaymentWebhook)
	})
	if err != nil {
		return nil, err
	}

	result.Status = payment.Status
	switch result.Outcome {
	case WebhookDuplicate:
		utils.LogInfo("Duplicate %s webhook %s for payment %s (already %s)", gatewayName, envelope.Event, payment.ID, payment.Status)
		return result, nil
	case WebhookRecorded:
		s.invalidate(ctx)
		utils.LogInfo("Failed attempt %s recorded for payment %s", record.ID, payment.ID)
		return result, nil
	}

	s.afterTransition(ctx, payment)
	return result, nil
}

// recordFailedAttempt keeps the payment PENDING and notes the attempt in its
// gateway data and the audit trail.
func (s *PaymentService) recordFailedAttempt(ctx context.Context, tx repository.Repository, p *models.Payment, record *gateway.PaymentRecord) error {
	attempts := failedAttempts(p.GatewayData) + 1
	p.GatewayData = p.GatewayData.Merge(map[string]interface{}{
		gatewayDataFailedAttempts:    attempts,
		gatewayDataLastFailedAttempt: record.Raw,
	})
	if err := tx.UpdatePayment(ctx, p); err != nil {
		return fmt.Errorf("update payment: %w", err)
	}

	return s.audit(ctx, tx, WebhookActor, models.AuditPaymentAttemptFailed, p, map[string]interface{}{
		"gateway_payment_id": record.ID,
		"gateway_status":     record.Status,
		"failure_reason":     failureReason(record),
		"attempt":            attempts,
	})
}

const (
	gatewayDataFailedAttempts    = "failed_attempts"
	gatewayDataLastFailedAttempt = "last_failed_attempt"
)

func failedAttempts(data models.JSONMap) int {
	switch n := data[gatewayDataFailedAttempts].(type) {
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}

func webhookRecord(envelope webhookEnvelope) (*gateway.PaymentRecord, error) {
	record := &gateway.PaymentRecord{}

	if envelope.Payload.Payment != nil && len(envelope.Payload.Payment.Entity) > 0 {
		var entity webhookPayment
		if err := json.Unmarshal(envelope.Payload.Payment.Entity, &entity); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		var raw map[string]interface{}
		if err := json.Unmarshal(envelope.Payload.Payment.Entity, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		record.ID = entity.ID
		record.OrderID = entity.OrderID
		record.Status = entity.Status
		record.Method = entity.Method
		record.AmountMinor = entity.Amount
		record.Currency = entity.Currency
		record.ErrorCode = entity.ErrorCode
		record.ErrorDescription = entity.ErrorDescription
		record.Raw = raw
	}

	if record.OrderID == "" && envelope.Payload.Order != nil {
		record.OrderID = envelope.Payload.Order.Entity.ID
	}
	if envelope.Event == EventOrderPaid && record.Status == "" {
		record.Status = gateway.StatusCaptured
	}

	if record.OrderID == "" {
		return nil, fmt.Errorf("%w: event carries no order id", ErrInvalidPayload)
	}
	return record, nil
}
