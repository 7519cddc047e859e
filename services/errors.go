package services

import (
	"fmt"

	"fiambond/backend/models"

	"github.com/shopspring/decimal"
)

// Domain error taxonomy. Handlers translate these to HTTP statuses:
// ValidationError 422, AuthorizationError 403, NotFoundError 404,
// ConflictError 409, OverpaymentError 422, InvalidStateError 409.
// Anything else is a 500 with a generic message.

type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string {
	return e.Message
}

type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

type InvalidStateError struct {
	Message string
}

func (e *InvalidStateError) Error() string {
	return e.Message
}

// ConflictError is returned when an expense would undercut active goals in
// the same scope. It carries the conflicting goals so the caller can decide
// whether to force-create.
type ConflictError struct {
	Message string
	Goals   []models.Goal
}

func (e *ConflictError) Error() string {
	return e.Message
}

// OverpaymentError is returned when a repayment exceeds what is still owed.
type OverpaymentError struct {
	Outstanding decimal.Decimal
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("repayment exceeds outstanding balance of %s", e.Outstanding.StringFixed(2))
}
