/*
Package billing coordinates ledger mutations for leases.

PURPOSE:
  Exposes the two mutating operations of the payment engine -- record a
  payment and process a refund -- and keeps the derived schedule
  consistent by recomputing it from a fresh read of the ledger after
  every successful append.

CONTROL FLOW:
  caller -> Coordinator -> validate -> ledger append -> re-read ledger
         -> schedule calculator -> fresh Calculations returned

CONSISTENCY MODEL:
  The append and the recompute are not atomic. The recompute always
  re-reads the ledger rather than trusting in-memory state, so a
  concurrent append from another actor lands in the same recompute.
  Mutations for the same lease are serialized with a per-lease mutex so
  two refunds cannot race past the same refundable-balance check.

FAILURE MODEL:
  Validation failures are rejected before any append. Store failures
  (including the bounded append timeout) surface as StoreError; no
  partial derived state is ever returned. Unattributable refunds are a
  logged data-quality condition, never a user-facing failure.

SEE ALSO:
  - lease/schedule.go: The pure calculator this package re-invokes
  - lease/errors.go: The failure taxonomy
*/
package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/seintelly36/rent-manager/lease"
)

// DefaultAppendTimeout bounds the network-bound ledger append.
const DefaultAppendTimeout = 5 * time.Second

// =============================================================================
// COORDINATOR
// =============================================================================

// Coordinator validates mutations, appends ledger entries and returns a
// freshly recomputed schedule.
type Coordinator struct {
	store  lease.Store
	leases lease.LeaseSource
	calc   *lease.Calculator
	logger *slog.Logger

	validate      *validator.Validate
	appendTimeout time.Duration

	// Serializes mutations per lease. The refundable-balance check is
	// check-then-append; without this two refunds could both pass it.
	mu    sync.Mutex
	locks map[lease.LeaseID]*sync.Mutex
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithAllocationConfig overrides the calculator's lookahead bounds.
func WithAllocationConfig(cfg lease.AllocationConfig) Option {
	return func(c *Coordinator) { c.calc = lease.NewCalculator(cfg) }
}

// WithAppendTimeout overrides the bounded append timeout.
func WithAppendTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.appendTimeout = d }
}

func NewCoordinator(store lease.Store, leases lease.LeaseSource, logger *slog.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:         store,
		leases:        leases,
		calc:          lease.NewCalculator(lease.DefaultAllocationConfig()),
		logger:        logger,
		validate:      validator.New(),
		appendTimeout: DefaultAppendTimeout,
		locks:         make(map[lease.LeaseID]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

func (c *Coordinator) leaseLock(id lease.LeaseID) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[id]
	if !ok {
		l = &sync.Mutex{}
		c.locks[id] = l
	}
	return l
}

// =============================================================================
// INPUTS
// =============================================================================

// PaymentInput describes a rent payment to record.
type PaymentInput struct {
	Amount         decimal.Decimal `validate:"required"`
	Date           time.Time       `validate:"required"`
	Note           string          `validate:"max=1000"`
	IdempotencyKey string          `validate:"max=128"`
}

// RefundInput describes a refund against a previously recorded payment.
type RefundInput struct {
	PaymentID      lease.EntryID   `validate:"required"`
	Amount         decimal.Decimal `validate:"required"`
	Reason         string          `validate:"required,max=1000"`
	IdempotencyKey string          `validate:"max=128"`
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Schedule recomputes the derived schedule for a lease from a fresh
// ledger read. Works unconditionally, including on terminated leases.
func (c *Coordinator) Schedule(ctx context.Context, leaseID lease.LeaseID, now time.Time) (*lease.Calculations, error) {
	l, err := c.getLease(ctx, leaseID)
	if err != nil {
		return nil, err
	}
	return c.recompute(ctx, l, now)
}

// RecordPayment appends a paid rent entry and returns the refreshed
// schedule. The lease must be active and the amount positive.
func (c *Coordinator) RecordPayment(ctx context.Context, leaseID lease.LeaseID, in PaymentInput) (*lease.Calculations, error) {
	lock := c.leaseLock(leaseID)
	lock.Lock()
	defer lock.Unlock()

	l, err := c.getLease(ctx, leaseID)
	if err != nil {
		return nil, err
	}
	if !l.Active() {
		return nil, lease.ErrLeaseNotActive
	}
	if !in.Amount.IsPositive() {
		return nil, lease.ErrInvalidAmount
	}
	if err := c.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("invalid payment: %w", err)
	}

	entry := lease.Entry{
		ID:             lease.EntryID(uuid.NewString()),
		LeaseID:        leaseID,
		Amount:         in.Amount,
		Date:           lease.TruncateToDay(in.Date),
		Kind:           lease.KindRent,
		Status:         lease.EntryPaid,
		Note:           strings.TrimSpace(in.Note),
		IdempotencyKey: in.IdempotencyKey,
		CreatedAt:      time.Now().UTC(),
	}

	if err := c.append(ctx, entry); err != nil {
		return nil, err
	}

	c.logger.Info("payment recorded",
		slog.String("lease_id", string(leaseID)),
		slog.String("entry_id", string(entry.ID)),
		slog.String("amount", in.Amount.String()))

	return c.recompute(ctx, l, time.Now().UTC())
}

// ProcessRefund appends a paid refund entry referencing the original
// payment and returns the refreshed schedule.
//
// Preconditions: the lease is active, the amount is positive, the
// reason is non-empty, the referenced payment is a paid rent entry of
// this lease, and the amount does not exceed the payment's remaining
// refundable balance.
func (c *Coordinator) ProcessRefund(ctx context.Context, leaseID lease.LeaseID, in RefundInput) (*lease.Calculations, error) {
	lock := c.leaseLock(leaseID)
	lock.Lock()
	defer lock.Unlock()

	l, err := c.getLease(ctx, leaseID)
	if err != nil {
		return nil, err
	}
	if !l.Active() {
		return nil, lease.ErrLeaseNotActive
	}
	if !in.Amount.IsPositive() {
		return nil, lease.ErrInvalidAmount
	}
	if strings.TrimSpace(in.Reason) == "" {
		return nil, lease.ErrReasonRequired
	}
	if err := c.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("invalid refund: %w", err)
	}

	entries, err := c.store.ListByLease(ctx, leaseID)
	if err != nil {
		return nil, &lease.StoreError{Op: "list ledger", Err: err}
	}

	payment := findPayment(entries, in.PaymentID)
	if payment == nil {
		return nil, lease.ErrPaymentNotFound
	}

	calc := c.calc.Compute(l, entries, time.Now().UTC())
	remaining := calc.RemainingRefundable(payment.ID, payment.Amount)
	if in.Amount.GreaterThan(remaining) {
		return nil, &lease.OverRefundError{
			PaymentID: payment.ID,
			Requested: in.Amount,
			Remaining: remaining,
		}
	}

	entry := lease.Entry{
		ID:               lease.EntryID(uuid.NewString()),
		LeaseID:          leaseID,
		Amount:           in.Amount,
		Date:             lease.TruncateToDay(time.Now().UTC()),
		Kind:             lease.KindRefund,
		Status:           lease.EntryPaid,
		Note:             refundNote(payment.ID, in.Reason),
		RefundsPaymentID: payment.ID,
		IdempotencyKey:   in.IdempotencyKey,
		CreatedAt:        time.Now().UTC(),
	}

	if err := c.append(ctx, entry); err != nil {
		return nil, err
	}

	c.logger.Info("refund processed",
		slog.String("lease_id", string(leaseID)),
		slog.String("payment_id", string(payment.ID)),
		slog.String("amount", in.Amount.String()))

	return c.recompute(ctx, l, time.Now().UTC())
}

// =============================================================================
// INTERNALS
// =============================================================================

func (c *Coordinator) getLease(ctx context.Context, id lease.LeaseID) (*lease.Lease, error) {
	l, err := c.leases.GetLease(ctx, id)
	if err != nil {
		return nil, &lease.StoreError{Op: "get lease", Err: err}
	}
	if l == nil {
		return nil, lease.ErrLeaseNotFound
	}
	return l, nil
}

// append writes through the store with a bounded timeout so a hung
// backend surfaces as a store failure, never as success.
func (c *Coordinator) append(ctx context.Context, e lease.Entry) error {
	ctx, cancel := context.WithTimeout(ctx, c.appendTimeout)
	defer cancel()

	if err := c.store.Append(ctx, e); err != nil {
		if errors.Is(err, lease.ErrDuplicateIdempotencyKey) {
			return err
		}
		return &lease.StoreError{Op: "append entry", Err: err}
	}
	return nil
}

// recompute re-reads the ledger and runs the calculator. Never trusts
// the entries it may already hold in memory.
func (c *Coordinator) recompute(ctx context.Context, l *lease.Lease, now time.Time) (*lease.Calculations, error) {
	entries, err := c.store.ListByLease(ctx, l.ID)
	if err != nil {
		return nil, &lease.StoreError{Op: "list ledger", Err: err}
	}

	calc := c.calc.Compute(l, entries, now)
	if calc.UnattributedRefund.IsPositive() {
		c.logger.Warn("refunds without recoverable payment reference",
			slog.String("lease_id", string(l.ID)),
			slog.String("amount", calc.UnattributedRefund.String()))
	}
	return calc, nil
}

func findPayment(entries []lease.Entry, id lease.EntryID) *lease.Entry {
	for i := range entries {
		e := &entries[i]
		if e.ID == id && e.CountsAsRentPaid() {
			return e
		}
	}
	return nil
}

// refundNote embeds the payment id so ledgers stay traceable even for
// readers that only see free text.
func refundNote(paymentID lease.EntryID, reason string) string {
	return fmt.Sprintf("Refund of payment %s: %s", paymentID, strings.TrimSpace(reason))
}
