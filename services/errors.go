package services

import "github.com/Govind-619/PropertyHub/utils"

// Domain errors. Callers match them with errors.Is; handlers map them to
// HTTP statuses through their AppError code.
var (
	ErrInvalidAmount    = utils.BadRequestError("invalid amount", nil)
	ErrInvalidMethod    = utils.BadRequestError("invalid payment method", nil)
	ErrInvalidCurrency  = utils.BadRequestError("invalid currency", nil)
	ErrInvalidSignature = utils.BadRequestError("invalid signature", nil)
	ErrInvalidPayload   = utils.BadRequestError("invalid webhook payload", nil)
	ErrInvalidProperty  = utils.BadRequestError("invalid property", nil)
	ErrInvalidState     = utils.ConflictError("payment is not in a valid state for this action", nil)
	ErrNotFound         = utils.NotFoundError("payment not found", nil)
	ErrBookingNotFound  = utils.NotFoundError("booking not found", nil)
	ErrPropertyNotFound = utils.NotFoundError("property not found", nil)
	ErrUnknownGateway   = utils.NotFoundError("unknown payment gateway", nil)
	ErrProcessingFailed = utils.UnprocessableError("payment processing failed", nil)
)
