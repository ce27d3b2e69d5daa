/*
errors.go - Centralized error types for the lease engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The billing package wraps these with request context where useful.

ERROR CATEGORIES:
  1. Validation errors - Business rule violations, rejected before any
     ledger append
  2. Store errors - Persistence failures, including timeouts
  3. Not-found errors - Missing leases or payments

USAGE:
    if errors.Is(err, lease.ErrOverRefund) { ... }

    var over *lease.OverRefundError
    if errors.As(err, &over) {
        fmt.Println(over.Remaining)
    }
*/
package lease

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrLeaseNotFound is returned when a referenced lease doesn't exist.
	ErrLeaseNotFound = errors.New("lease not found")

	// ErrLeaseNotActive is returned when a mutation is attempted on a
	// terminated lease. Read-only schedule computation still works.
	ErrLeaseNotActive = errors.New("lease not active")

	// ErrPaymentNotFound is returned when a refund references a payment
	// that doesn't exist or isn't a paid rent entry.
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrOverRefund is returned when a refund exceeds the remaining
	// refundable balance of its payment.
	ErrOverRefund = errors.New("refund exceeds refundable balance")

	// ErrAlreadyRefunded is returned when a payment has no refundable
	// balance left at all.
	ErrAlreadyRefunded = errors.New("payment already fully refunded")

	// ErrInvalidAmount is returned for non-positive amounts.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrReasonRequired is returned when a refund carries no reason.
	ErrReasonRequired = errors.New("refund reason required")

	// ErrDuplicateIdempotencyKey is returned when an entry with the same
	// idempotency key already exists. Expected behavior for retries.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

	// ErrStoreUnavailable is returned when the ledger store rejected or
	// timed out an append. The pre-mutation schedule remains valid.
	ErrStoreUnavailable = errors.New("ledger store unavailable")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// OverRefundError details a refundable-balance violation.
type OverRefundError struct {
	PaymentID EntryID
	Requested decimal.Decimal
	Remaining decimal.Decimal
}

func (e *OverRefundError) Error() string {
	return fmt.Sprintf("refund of %s exceeds remaining refundable balance %s on payment %s",
		e.Requested, e.Remaining, e.PaymentID)
}

func (e *OverRefundError) Unwrap() error {
	if e.Remaining.IsZero() {
		return ErrAlreadyRefunded
	}
	return ErrOverRefund
}

// StoreError wraps a persistence failure with the attempted operation.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *StoreError) Unwrap() error { return ErrStoreUnavailable }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrReasonRequired) ||
		errors.Is(err, ErrOverRefund) ||
		errors.Is(err, ErrAlreadyRefunded) ||
		errors.Is(err, ErrLeaseNotActive) ||
		errors.Is(err, ErrDuplicateIdempotencyKey)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrLeaseNotFound) ||
		errors.Is(err, ErrPaymentNotFound)
}
