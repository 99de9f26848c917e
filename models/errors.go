package models

import (
	"errors"
	"fmt"
)

// Domain error kinds. Handlers map these to HTTP status codes; services wrap
// them with context via fmt.Errorf("...: %w", Err...).
var (
	// ErrValidation marks malformed or empty caller input.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a missing order, menu item or user.
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransition marks an order status change the state machine
	// does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrConstraint marks an order number uniqueness clash surfaced by
	// the store.
	ErrConstraint = errors.New("order number already in use")
)

// PaymentError wraps a gateway decline or timeout. It is surfaced verbatim
// to the caller; retrying is the caller's decision.
type PaymentError struct {
	OrderID string
	Err     error
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("payment failed for order %s: %v", e.OrderID, e.Err)
}

func (e *PaymentError) Unwrap() error { return e.Err }
