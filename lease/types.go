/*
Package lease contains the lease billing engine.

PURPOSE:
  This package holds the domain model for leases and their payment
  ledgers, plus the pure schedule calculator that derives a complete
  period-by-period billing schedule from them. The ledger is the only
  source of truth: the schedule is never persisted, always recomputed.

KEY CONCEPTS IN THIS FILE (types.go):
  - Lease: Immutable business terms for a tenancy
  - Entry: An immutable financial event (rent, deposit, refund)
  - PeriodUnit: The billing interval granularity (minute .. year)
  - PeriodDue / Calculations: Derived schedule output

DESIGN PRINCIPLES:
  1. Immutability: Ledger entries are never modified, only reversed
     by new refund entries
  2. Precision: Uses decimal.Decimal for all money arithmetic
  3. Determinism: The calculator takes "now" as an argument and never
     reads a global clock

SEE ALSO:
  - period.go: Due-date and elapsed-period arithmetic
  - schedule.go: The schedule calculator
  - store.go: Ledger persistence interface
*/
package lease

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type LeaseID string
type EntryID string
type TenantID string
type PropertyID string

// =============================================================================
// PERIOD UNIT - Billing interval granularity
// =============================================================================

type PeriodUnit string

const (
	UnitMinute PeriodUnit = "minute"
	UnitHour   PeriodUnit = "hour"
	UnitDay    PeriodUnit = "day"
	UnitWeek   PeriodUnit = "week"
	UnitMonth  PeriodUnit = "month"
	UnitYear   PeriodUnit = "year"
)

// SubDay reports whether the unit is finer than a calendar day.
// Sub-day units use exact elapsed time; day-or-coarser units use
// calendar arithmetic.
func (u PeriodUnit) SubDay() bool {
	return u == UnitMinute || u == UnitHour
}

// Valid reports whether u is a known period unit.
func (u PeriodUnit) Valid() bool {
	switch u {
	case UnitMinute, UnitHour, UnitDay, UnitWeek, UnitMonth, UnitYear:
		return true
	}
	return false
}

// =============================================================================
// LEASE - Immutable business terms for a tenancy
// =============================================================================

type LeaseStatus string

const (
	StatusActive     LeaseStatus = "active"
	StatusTerminated LeaseStatus = "terminated"
)

// Lease holds the billing terms of a tenancy.
//
// INVARIANT: if AutoCalculateEnd is true, PeriodCount must be set and is
// the authoritative total-period count. Otherwise the total is derived
// from EndDate when present, or the lease is open-ended.
type Lease struct {
	ID           LeaseID
	TenantID     TenantID
	PropertyID   PropertyID
	StartDate    time.Time
	EndDate      *time.Time
	PeriodAmount decimal.Decimal
	PeriodUnit   PeriodUnit
	PeriodCount  *int
	AutoCalcEnd  bool
	Status       LeaseStatus

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Active reports whether the lease accepts new ledger mutations.
func (l *Lease) Active() bool { return l.Status == StatusActive }

// =============================================================================
// LEDGER ENTRY - Immutable financial event belonging to one lease
// =============================================================================

type EntryKind string

const (
	KindRent    EntryKind = "rent"
	KindDeposit EntryKind = "deposit"
	KindRefund  EntryKind = "refund"
)

type EntryStatus string

const (
	EntryPaid    EntryStatus = "paid"
	EntryPending EntryStatus = "pending"
	EntryFailed  EntryStatus = "failed"
)

// Entry is one financial event in a lease's ledger. Entries are created
// once and never updated or deleted; a reversal is a new refund entry.
//
// Amount is stored as a positive magnitude for all kinds; refunds are
// semantically deductions. Only rent entries with status paid count
// toward amounts owed, and only paid refunds reduce net paid.
type Entry struct {
	ID      EntryID
	LeaseID LeaseID
	Amount  decimal.Decimal
	Date    time.Time
	Kind    EntryKind
	Status  EntryStatus
	Note    string

	// RefundsPaymentID links a refund to the payment it reverses.
	// Set at creation time for refunds recorded through the billing
	// coordinator. Older ledgers may only carry the reference inside
	// Note; the calculator falls back to scanning it.
	RefundsPaymentID EntryID

	IdempotencyKey string
	CreatedAt      time.Time
}

// CountsAsRentPaid reports whether the entry contributes to the pool of
// money allocated to billing periods.
func (e *Entry) CountsAsRentPaid() bool {
	return e.Kind == KindRent && e.Status == EntryPaid
}

// CountsAsRefund reports whether the entry reduces net paid.
func (e *Entry) CountsAsRefund() bool {
	return e.Kind == KindRefund && e.Status == EntryPaid
}

// =============================================================================
// DERIVED SCHEDULE - Never persisted, recomputed from the ledger
// =============================================================================

// PeriodDue is one row of the derived billing schedule.
//
// INVARIANTS:
//   - IsPaid and IsOverdue are mutually exclusive
//   - IsAdvance may only be true when IsPaid is true
type PeriodDue struct {
	PeriodNumber int
	DueDate      time.Time
	AmountDue    decimal.Decimal
	IsPaid       bool
	IsOverdue    bool
	IsAdvance    bool
	PaidDate     *time.Time
	PaidAmount   *decimal.Decimal
}

// Calculations is the derived aggregate view of a lease's ledger.
// It is recomputed on every call and never cached across mutations.
type Calculations struct {
	TotalPeriods     int // 0 = unbounded
	PeriodsElapsed   int
	PeriodsRemaining int

	TotalAmountDue decimal.Decimal
	TotalPaid      decimal.Decimal
	AmountDue      decimal.Decimal

	NextDueDate     *time.Time
	DaysUntilNextDue int

	Schedule []PeriodDue

	// RefundedByPayment maps a rent payment's entry id to the total
	// refunded against it. Refunds whose originating payment cannot be
	// recovered are accumulated in UnattributedRefund instead; they
	// still reduce the aggregate pool.
	RefundedByPayment  map[EntryID]decimal.Decimal
	UnattributedRefund decimal.Decimal
}

// RemainingRefundable returns how much of a payment can still be
// refunded given the attributions in c.
func (c *Calculations) RemainingRefundable(paymentID EntryID, paymentAmount decimal.Decimal) decimal.Decimal {
	return paymentAmount.Sub(c.RefundedByPayment[paymentID])
}
