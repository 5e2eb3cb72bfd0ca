package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/Govind-619/PropertyHub/models"
	"github.com/Govind-619/PropertyHub/repository"
	"github.com/Govind-619/PropertyHub/telemetry"
	"github.com/Govind-619/PropertyHub/utils"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// ProcessPaymentRequest carries the method specific details of a manual payment.
// Method, when set, must match the method the payment was created with.
type ProcessPaymentRequest struct {
	Method string            `json:"method"`
	Data   map[string]string `json:"data"`
}

// manualOutcome is what a method handler decided for a payment
type manualOutcome struct {
	status    models.PaymentStatus
	reference string
	details   map[string]interface{}
}

type manualHandler func(data map[string]string) (*manualOutcome, error)

var manualHandlers = map[models.PaymentMethod]manualHandler{
	models.PaymentMethodUPI:          processUPI,
	models.PaymentMethodCard:         processCard,
	models.PaymentMethodNetBanking:   processNetBanking,
	models.PaymentMethodWallet:       processWallet,
	models.PaymentMethodCash:         processCash,
	models.PaymentMethodCheque:       processCheque,
	models.PaymentMethodBankTransfer: processBankTransfer,
}

var gatewayIDPrefixes = map[models.PaymentMethod]string{
	models.PaymentMethodUPI:          "upi_",
	models.PaymentMethodCard:         "card_",
	models.PaymentMethodNetBanking:   "nb_",
	models.PaymentMethodWallet:       "wallet_",
	models.PaymentMethodCash:         "cash_",
	models.PaymentMethodCheque:       "chq_",
	models.PaymentMethodBankTransfer: "bank_",
}

// ProcessManualPayment runs the method handler for a PENDING payment. A handler
// failure is stored as FAILED with its reason and then returned to the caller.
func (s *PaymentService) ProcessManualPayment(ctx context.Context, paymentID string, req ProcessPaymentRequest, actorID string) (*models.Payment, error) {
	ctx, span := telemetry.StartSpan(ctx, "payments.process", attribute.String("payment.id", paymentID))
	var err error
	defer func() { telemetry.EndSpan(span, err) }()

	var requested models.PaymentMethod
	if req.Method != "" {
		requested, err = models.ParsePaymentMethod(req.Method)
		if err != nil {
			err = fmt.Errorf("%w: %v", ErrInvalidMethod, err)
			return nil, err
		}
	}

	unlock := s.locks.Lock(paymentID)
	defer unlock()

	var (
		payment    *models.Payment
		handlerErr error
	)
	err = s.repo.Transaction(ctx, func(tx repository.Repository) error {
		p, err := tx.LockPayment(ctx, paymentID)
		if err != nil {
			return paymentLookupErr(err)
		}
		if p.Status != models.PaymentStatusPending {
			return fmt.Errorf("%w: payment is %s", ErrInvalidState, p.Status)
		}
		if awaitingClearance(p) {
			return fmt.Errorf("%w: %s %s is awaiting confirmation", ErrInvalidState, p.Method, p.Metadata.String("reference"))
		}
		if requested != "" && requested != p.Method {
			return fmt.Errorf("%w: payment was created for %s, got %s", ErrInvalidMethod, p.Method, requested)
		}
		handler, ok := manualHandlers[p.Method]
		if !ok {
			return fmt.Errorf("%w: no handler for %s", ErrInvalidMethod, p.Method)
		}

		payment = p
		now := s.now()
		outcome, herr := handler(req.Data)
		if herr != nil {
			handlerErr = herr
			reason := herr.Error()
			p.Status = models.PaymentStatusFailed
			p.FailureReason = &reason
			p.ProcessedAt = &now
			if err := tx.UpdatePayment(ctx, p); err != nil {
				return fmt.Errorf("update payment: %w", err)
			}
			return s.audit(ctx, tx, actorID, models.AuditPaymentFailed, p, map[string]interface{}{
				"method":         p.Method,
				"failure_reason": reason,
			})
		}

		if p.SetGatewayID(gatewayIDPrefixes[p.Method] + outcome.reference) {
			utils.LogDebug("Payment %s assigned reference %s", p.ID, p.GatewayRef())
		}
		p.GatewayData = p.GatewayData.Merge(map[string]interface{}{"manual": outcome.details})
		p.Metadata = p.Metadata.Merge(map[string]interface{}{"reference": outcome.reference})
		if outcome.status != p.Status {
			p.Status = outcome.status
			p.ProcessedAt = &now
		}
		if err := tx.UpdatePayment(ctx, p); err != nil {
			return fmt.Errorf("update payment: %w", err)
		}
		return s.audit(ctx, tx, actorID, models.AuditPaymentProcessed, p, map[string]interface{}{
			"method":    p.Method,
			"status":    p.Status,
			"reference": outcome.reference,
		})
	})
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, payment)
	if handlerErr != nil {
		utils.LogWarn("Manual processing of payment %s failed: %v", payment.ID, handlerErr)
		err = fmt.Errorf("%w: %v", ErrProcessingFailed, handlerErr)
		return payment, err
	}
	return payment, nil
}

// ConfirmManualPayment settles a CHEQUE or BANK_TRANSFER payment once the funds cleared
func (s *PaymentService) ConfirmManualPayment(ctx context.Context, paymentID, reference, actorID string) (*models.Payment, error) {
	ctx, span := telemetry.StartSpan(ctx, "payments.confirm", attribute.String("payment.id", paymentID))
	var err error
	defer func() { telemetry.EndSpan(span, err) }()

	unlock := s.locks.Lock(paymentID)
	defer unlock()

	var payment *models.Payment
	err = s.repo.Transaction(ctx, func(tx repository.Repository) error {
		p, err := tx.LockPayment(ctx, paymentID)
		if err != nil {
			return paymentLookupErr(err)
		}
		if !clearsLater(p.Method) {
			return fmt.Errorf("%w: %s payments are not confirmed manually", ErrInvalidMethod, p.Method)
		}
		if !p.Status.CanTransitionTo(models.PaymentStatusCompleted) {
			return fmt.Errorf("%w: payment is %s", ErrInvalidState, p.Status)
		}

		reference = strings.TrimSpace(reference)
		if reference == "" {
			reference = p.Metadata.String("reference")
		}
		if reference == "" {
			reference = shortReference()
		}

		now := s.now()
		p.SetGatewayID(gatewayIDPrefixes[p.Method] + reference)
		p.Status = models.PaymentStatusCompleted
		p.ProcessedAt = &now
		p.FailureReason = nil
		p.Metadata = p.Metadata.Merge(map[string]interface{}{
			"confirmation_reference": reference,
			"confirmed_by":           actorID,
		})
		if err := tx.UpdatePayment(ctx, p); err != nil {
			return fmt.Errorf("update payment: %w", err)
		}

		payment = p
		return s.audit(ctx, tx, actorID, models.AuditPaymentConfirmed, p, map[string]interface{}{
			"reference": reference,
		})
	})
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, payment)
	return payment, nil
}

func processUPI(data map[string]string) (*manualOutcome, error) {
	vpa := strings.TrimSpace(data["upi_id"])
	if vpa == "" || !strings.Contains(vpa, "@") {
		return nil, fmt.Errorf("a valid upi_id is required for UPI payments")
	}
	return completed(data["transaction_id"], map[string]interface{}{"upi_id": vpa}), nil
}

func processCard(data map[string]string) (*manualOutcome, error) {
	details := map[string]interface{}{}
	if last4 := data["last4"]; last4 != "" {
		if len(last4) != 4 {
			return nil, fmt.Errorf("last4 must have 4 digits")
		}
		details["last4"] = last4
	}
	return completed(data["transaction_id"], details), nil
}

func processNetBanking(data map[string]string) (*manualOutcome, error) {
	return completed(data["transaction_id"], map[string]interface{}{"bank": data["bank"]}), nil
}

func processWallet(data map[string]string) (*manualOutcome, error) {
	return completed(data["transaction_id"], map[string]interface{}{"wallet": data["wallet"]}), nil
}

func processCash(data map[string]string) (*manualOutcome, error) {
	return completed(data["receipt_number"], map[string]interface{}{"received_by": data["received_by"]}), nil
}

func processCheque(data map[string]string) (*manualOutcome, error) {
	number := strings.TrimSpace(data["cheque_number"])
	if number == "" {
		return nil, fmt.Errorf("cheque_number is required for cheque payments")
	}
	return &manualOutcome{
		status:    models.PaymentStatusPending,
		reference: number,
		details:   map[string]interface{}{"cheque_number": number, "bank": data["bank"]},
	}, nil
}

func processBankTransfer(data map[string]string) (*manualOutcome, error) {
	ref := strings.TrimSpace(data["reference"])
	if ref == "" {
		return nil, fmt.Errorf("reference is required for bank transfers")
	}
	return &manualOutcome{
		status:    models.PaymentStatusPending,
		reference: ref,
		details:   map[string]interface{}{"reference": ref, "bank": data["bank"]},
	}, nil
}

func completed(reference string, details map[string]interface{}) *manualOutcome {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		reference = shortReference()
	}
	return &manualOutcome{
		status:    models.PaymentStatusCompleted,
		reference: reference,
		details:   details,
	}
}

func shortReference() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

// clearsLater reports whether method settles only after a manual confirmation
func clearsLater(method models.PaymentMethod) bool {
	return method == models.PaymentMethodCheque || method == models.PaymentMethodBankTransfer
}

// awaitingClearance is true once a cheque or transfer has been recorded
func awaitingClearance(p *models.Payment) bool {
	return clearsLater(p.Method) && p.Metadata.String("reference") != ""
}
