package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Govind-619/PropertyHub/cache"
	"github.com/Govind-619/PropertyHub/gateway"
	"github.com/Govind-619/PropertyHub/models"
	"github.com/Govind-619/PropertyHub/repository"
	"github.com/Govind-619/PropertyHub/telemetry"
	"github.com/Govind-619/PropertyHub/utils"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

const auditEntityPayment = "payment"

// PaymentConfig holds the settings PaymentService needs
type PaymentConfig struct {
	// SignatureSecret is the gateway key secret used for checkout signatures
	SignatureSecret string
	DefaultCurrency string
	CacheTTL        time.Duration
}

// PaymentService runs the payment lifecycle: PENDING -> COMPLETED | FAILED, COMPLETED -> REFUNDED
type PaymentService struct {
	repo    repository.Repository
	gateway gateway.Gateway
	cache   cache.Cache
	hook    BookingHook
	cfg     PaymentConfig
	locks   *KeyedMutex
	now     func() time.Time
}

// NewPaymentService creates a new PaymentService. A nil cache or hook disables that collaborator.
func NewPaymentService(repo repository.Repository, gw gateway.Gateway, c cache.Cache, hook BookingHook, cfg PaymentConfig) *PaymentService {
	if c == nil {
		c = cache.NewNop()
	}
	if hook == nil {
		hook = BookingHookFunc(func(context.Context, *models.Payment) {})
	}
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "INR"
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = cache.DefaultTTL
	}
	return &PaymentService{
		repo:    repo,
		gateway: gw,
		cache:   c,
		hook:    hook,
		cfg:     cfg,
		locks:   NewKeyedMutex(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CreatePaymentRequest is the input of CreatePayment
type CreatePaymentRequest struct {
	Amount      float64                `json:"amount"`
	Currency    string                 `json:"currency"`
	Method      string                 `json:"method"`
	BookingID   *string                `json:"booking_id"`
	Description string                 `json:"description"`
	Metadata    map[string]interface{} `json:"metadata"`
}

// CreateOrderRequest is the input of CreateGatewayOrder. Method defaults to UPI.
type CreateOrderRequest struct {
	Amount      float64           `json:"amount"`
	Currency    string            `json:"currency"`
	Method      string            `json:"method"`
	BookingID   *string           `json:"booking_id"`
	Description string            `json:"description"`
	Notes       map[string]string `json:"notes"`
}

// OrderResult is returned to the client to open the gateway checkout
type OrderResult struct {
	OrderID     string  `json:"order_id"`
	PaymentID   string  `json:"payment_id"`
	Amount      float64 `json:"amount"`
	AmountMinor int64   `json:"amount_minor"`
	Currency    string  `json:"currency"`
	Gateway     string  `json:"gateway"`
}

// PaymentPage is one page of a payment listing
type PaymentPage struct {
	Payments []models.Payment `json:"payments"`
	Total    int64            `json:"total"`
}

// CreatePayment records a PENDING payment intent. Nothing is written when validation fails.
func (s *PaymentService) CreatePayment(ctx context.Context, req CreatePaymentRequest, actorID string) (*models.Payment, error) {
	ctx, span := telemetry.StartSpan(ctx, "payments.create")
	var err error
	defer func() { telemetry.EndSpan(span, err) }()

	payment, err := s.newPayment(ctx, req.Amount, req.Currency, req.Method, req.BookingID, actorID)
	if err != nil {
		return nil, err
	}
	payment.Description = req.Description
	if len(req.Metadata) > 0 {
		payment.Metadata = models.JSONMap(req.Metadata)
	}

	err = s.repo.Transaction(ctx, func(tx repository.Repository) error {
		if err := tx.CreatePayment(ctx, payment); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
		return s.audit(ctx, tx, actorID, models.AuditPaymentCreated, payment, map[string]interface{}{
			"amount": payment.Amount,
			"method": payment.Method,
		})
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	utils.LogInfo("Payment %s created: %.2f %s via %s by %s", payment.ID, payment.Amount, payment.Currency, payment.Method, actorID)
	return payment, nil
}

// CreateGatewayOrder creates the remote order first and persists the local
// PENDING row only when the gateway accepted it.
func (s *PaymentService) CreateGatewayOrder(ctx context.Context, req CreateOrderRequest, actorID string) (*OrderResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "payments.create_order")
	var err error
	defer func() { telemetry.EndSpan(span, err) }()

	method := req.Method
	if method == "" {
		method = string(models.PaymentMethodUPI)
	}
	payment, err := s.newPayment(ctx, req.Amount, req.Currency, method, req.BookingID, actorID)
	if err != nil {
		return nil, err
	}
	if payment.Gateway != s.gateway.Name() {
		err = fmt.Errorf("%w: %s is not settled through %s", ErrInvalidMethod, payment.Method, s.gateway.Name())
		return nil, err
	}
	payment.Description = req.Description

	notes := map[string]string{"payment_id": payment.ID}
	for k, v := range req.Notes {
		notes[k] = v
	}
	if payment.BookingID != nil {
		notes["booking_id"] = *payment.BookingID
	}

	amountMinor := gateway.ToMinorUnits(payment.Amount)
	order, err := s.gateway.CreateOrder(ctx, gateway.OrderRequest{
		AmountMinor: amountMinor,
		Currency:    payment.Currency,
		Receipt:     "rcpt_" + payment.ID,
		Notes:       notes,
	})
	if err != nil {
		utils.LogError("Gateway order creation failed for payment %s: %v", payment.ID, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("gateway.order_id", order.ID))

	payment.SetGatewayID(order.ID)
	payment.GatewayData = models.JSONMap{"order": order.Raw}

	err = s.repo.Transaction(ctx, func(tx repository.Repository) error {
		if err := tx.CreatePayment(ctx, payment); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
		return s.audit(ctx, tx, actorID, models.AuditOrderCreated, payment, map[string]interface{}{
			"order_id":     order.ID,
			"amount_minor": amountMinor,
		})
	})
	if err != nil {
		utils.LogError("Gateway order %s created but payment %s was not stored: %v", order.ID, payment.ID, err)
		return nil, err
	}

	s.invalidate(ctx)
	utils.LogInfo("Gateway order %s created for payment %s", order.ID, payment.ID)
	return &OrderResult{
		OrderID:     order.ID,
		PaymentID:   payment.ID,
		Amount:      payment.Amount,
		AmountMinor: amountMinor,
		Currency:    payment.Currency,
		Gateway:     payment.Gateway,
	}, nil
}

// VerifyGatewayPayment checks the checkout signature and settles the payment
// from the gateway's own view of it. Calling it again on a settled payment
// returns the payment unchanged.
func (s *PaymentService) VerifyGatewayPayment(ctx context.Context, paymentID, gatewayPaymentID, signature, actorID string) (*models.Payment, error) {
	ctx, span := telemetry.StartSpan(ctx, "payments.verify", attribute.String("payment.id", paymentID))
	var err error
	defer func() { telemetry.EndSpan(span, err) }()

	unlock := s.locks.Lock(paymentID)
	defer unlock()

	var (
		payment *models.Payment
		changed bool
	)
	err = s.repo.Transaction(ctx, func(tx repository.Repository) error {
		p, err := tx.LockPayment(ctx, paymentID)
		if err != nil {
			return paymentLookupErr(err)
		}

		if p.GatewayRef() == "" || p.Gateway != s.gateway.Name() {
			return fmt.Errorf("%w: payment has no gateway order", ErrInvalidState)
		}
		if !gateway.VerifyPaymentSignature(s.cfg.SignatureSecret, p.GatewayRef(), gatewayPaymentID, signature) {
			utils.LogWarn("Signature mismatch verifying payment %s", paymentID)
			return ErrInvalidSignature
		}

		payment = p
		if p.IsTerminal() {
			return nil
		}

		record, err := s.gateway.FetchPayment(ctx, gatewayPaymentID)
		if err != nil {
			return err
		}
		changed = true
		return s.applyGatewayResult(ctx, tx, p, record, actorID, models.AuditPaymentVerified)
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		utils.LogDebug("Payment %s already %s, verification is a no-op", payment.ID, payment.Status)
		return payment, nil
	}

	s.afterTransition(ctx, payment)
	return payment, nil
}

// RefundPayment refunds part or all of a COMPLETED payment. The refund row,
// the REFUNDED flip of the original and the audit entry commit together.
func (s *PaymentService) RefundPayment(ctx context.Context, paymentID string, amount float64, reason, actorID string) (*models.Payment, error) {
	ctx, span := telemetry.StartSpan(ctx, "payments.refund", attribute.String("payment.id", paymentID))
	var err error
	defer func() { telemetry.EndSpan(span, err) }()

	if amount <= 0 || gateway.ToMinorUnits(amount) <= 0 {
		err = fmt.Errorf("%w: refund amount must be greater than zero", ErrInvalidAmount)
		return nil, err
	}
	// store exactly what the gateway refunds
	amount = gateway.FromMinorUnits(gateway.ToMinorUnits(amount))

	unlock := s.locks.Lock(paymentID)
	defer unlock()

	var (
		refund         *models.Payment
		issuedRefundID string
	)
	err = s.repo.Transaction(ctx, func(tx repository.Repository) error {
		original, err := tx.LockPayment(ctx, paymentID)
		if err != nil {
			return paymentLookupErr(err)
		}
		if original.Status != models.PaymentStatusCompleted || original.IsRefund() {
			return fmt.Errorf("%w: cannot refund a %s payment", ErrInvalidState, original.Status)
		}
		if gateway.ToMinorUnits(amount) > gateway.ToMinorUnits(original.Amount) {
			return fmt.Errorf("%w: refund %.2f exceeds payment amount %.2f", ErrInvalidAmount, amount, original.Amount)
		}

		now := s.now()
		refund = &models.Payment{
			ID:          uuid.NewString(),
			Amount:      -amount,
			Currency:    original.Currency,
			Method:      original.Method,
			Status:      models.PaymentStatusCompleted,
			Gateway:     original.Gateway,
			BookingID:   original.BookingID,
			Description: "Refund of payment " + original.ID,
			Metadata: models.JSONMap{
				models.MetadataType:              models.MetadataTypeRefund,
				models.MetadataOriginalPaymentID: original.ID,
				models.MetadataRefundReason:      reason,
			},
			ProcessedAt: &now,
			CreatedBy:   actorID,
		}

		var gatewayID string
		if original.Gateway == s.gateway.Name() && original.GatewayPaymentID != nil {
			ref, err := s.gateway.Refund(ctx, *original.GatewayPaymentID, gateway.ToMinorUnits(amount), map[string]string{
				"payment_id": original.ID,
				"reason":     reason,
			})
			if err != nil {
				utils.LogError("Gateway refund failed for payment %s: %v", original.ID, err)
				return err
			}
			gatewayID = ref.ID
			issuedRefundID = ref.ID
			refund.GatewayData = models.JSONMap{"refund": ref.Raw}
		} else {
			gatewayID = "refund_" + uuid.NewString()
		}
		refund.SetGatewayID(gatewayID)

		if err := tx.CreatePayment(ctx, refund); err != nil {
			return fmt.Errorf("create refund: %w", err)
		}

		original.Status = models.PaymentStatusRefunded
		original.Metadata = original.Metadata.Merge(map[string]interface{}{
			"refund_payment_id": refund.ID,
			"refunded_amount":   amount,
		})
		if err := tx.UpdatePayment(ctx, original); err != nil {
			return fmt.Errorf("update payment: %w", err)
		}

		return s.audit(ctx, tx, actorID, models.AuditPaymentRefunded, original, map[string]interface{}{
			"refund_payment_id": refund.ID,
			"amount":            amount,
			"reason":            reason,
			"gateway_refund_id": gatewayID,
		})
	})
	if err != nil {
		if issuedRefundID != "" {
			utils.LogError("Gateway refund %s issued for payment %s but not recorded: %v", issuedRefundID, paymentID, err)
		}
		return nil, err
	}

	s.invalidate(ctx)
	utils.LogInfo("Payment %s refunded %.2f by %s (refund %s)", paymentID, amount, actorID, refund.ID)
	return refund, nil
}

// GetPayment returns a payment by ID, read through the cache
func (s *PaymentService) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	key := cache.Key(cache.PrefixPayments, map[string]string{"id": id})
	return cache.GetOrLoad(ctx, s.cache, key, s.cfg.CacheTTL, func() (*models.Payment, error) {
		p, err := s.repo.GetPayment(ctx, id)
		if err != nil {
			return nil, paymentLookupErr(err)
		}
		return p, nil
	})
}

// ListPayments returns a page of payments matching filter, read through the cache
func (s *PaymentService) ListPayments(ctx context.Context, filter repository.PaymentFilter) (*PaymentPage, error) {
	if filter.Method != "" && !filter.Method.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMethod, filter.Method)
	}
	key := cache.Key(cache.PrefixPayments, filter)
	return cache.GetOrLoad(ctx, s.cache, key, s.cfg.CacheTTL, func() (*PaymentPage, error) {
		payments, total, err := s.repo.ListPayments(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("list payments: %w", err)
		}
		return &PaymentPage{Payments: payments, Total: total}, nil
	})
}

// AuditTrail returns the audit entries written for a payment
func (s *PaymentService) AuditTrail(ctx context.Context, paymentID string) ([]models.AuditLog, error) {
	return s.repo.ListAuditLogs(ctx, paymentID)
}

func (s *PaymentService) newPayment(ctx context.Context, amount float64, currency, method string, bookingID *string, actorID string) (*models.Payment, error) {
	if amount <= 0 || gateway.ToMinorUnits(amount) <= 0 {
		return nil, fmt.Errorf("%w: amount must be greater than zero", ErrInvalidAmount)
	}

	m, err := models.ParsePaymentMethod(method)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMethod, err)
	}

	if currency == "" {
		currency = s.cfg.DefaultCurrency
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if len(currency) != 3 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCurrency, currency)
	}

	if bookingID != nil && *bookingID == "" {
		bookingID = nil
	}
	if bookingID != nil {
		if _, err := s.repo.GetBooking(ctx, *bookingID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrBookingNotFound
			}
			return nil, fmt.Errorf("get booking: %w", err)
		}
	}

	return &models.Payment{
		ID:        uuid.NewString(),
		Amount:    amount,
		Currency:  currency,
		Method:    m,
		Status:    models.PaymentStatusPending,
		Gateway:   models.GatewayForMethod(m),
		BookingID: bookingID,
		CreatedBy: actorID,
	}, nil
}

// applyGatewayResult moves a PENDING payment to COMPLETED or FAILED from the
// gateway's record and writes the audit entry in the same transaction.
func (s *PaymentService) applyGatewayResult(ctx context.Context, tx repository.Repository, p *models.Payment, record *gateway.PaymentRecord, actorID, action string) error {
	next := models.PaymentStatusFailed
	if record.Status == gateway.StatusCaptured {
		next = models.PaymentStatusCompleted
	}
	if !p.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidState, p.Status, next)
	}

	now := s.now()
	p.Status = next
	p.ProcessedAt = &now
	if record.ID != "" {
		gatewayPaymentID := record.ID
		p.GatewayPaymentID = &gatewayPaymentID
	}
	p.GatewayData = p.GatewayData.Merge(map[string]interface{}{"payment": record.Raw})
	if next == models.PaymentStatusFailed {
		reason := failureReason(record)
		p.FailureReason = &reason
	} else {
		p.FailureReason = nil
	}

	if err := tx.UpdatePayment(ctx, p); err != nil {
		return fmt.Errorf("update payment: %w", err)
	}

	details := map[string]interface{}{
		"gateway_payment_id": record.ID,
		"gateway_status":     record.Status,
		"status":             p.Status,
	}
	if p.FailureReason != nil {
		details["failure_reason"] = *p.FailureReason
	}
	return s.audit(ctx, tx, actorID, action, p, details)
}

// afterTransition runs the post-commit side effects of a status change
func (s *PaymentService) afterTransition(ctx context.Context, p *models.Payment) {
	s.invalidate(ctx)
	if p.Status == models.PaymentStatusCompleted {
		s.hook.PaymentCompleted(ctx, p)
	}
	utils.LogInfo("Payment %s is now %s", p.ID, p.Status)
}

func (s *PaymentService) audit(ctx context.Context, tx repository.Repository, actorID, action string, p *models.Payment, details map[string]interface{}) error {
	entry := &models.AuditLog{
		ActorID:    actorID,
		Action:     action,
		EntityType: auditEntityPayment,
		EntityID:   p.ID,
		Details:    models.JSONMap(details),
	}
	if err := tx.CreateAuditLog(ctx, entry); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

func (s *PaymentService) invalidate(ctx context.Context) {
	s.cache.InvalidatePrefix(ctx, cache.PrefixPayments)
}

func failureReason(record *gateway.PaymentRecord) string {
	switch {
	case record.ErrorDescription != "":
		return record.ErrorDescription
	case record.ErrorCode != "":
		return record.ErrorCode
	case record.Status != "":
		return "gateway reported status " + record.Status
	}
	return "gateway reported no status"
}

func paymentLookupErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("get payment: %w", err)
}
