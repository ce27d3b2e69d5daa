/*
schedule.go - The schedule calculator

PURPOSE:
  Computes the full period-by-period billing schedule and aggregate
  financial metrics for a lease from its raw ledger. This is the central
  calculation that answers "what does this tenant owe, and when?"

ALLOCATION POLICY ("sequential waterfall"):
  All paid rent is treated as one fungible pool, reduced by paid
  refunds, and drained by the earliest unsatisfied period first. There
  is no per-transaction matching of payments to periods; the pool model
  mirrors how landlords read a ledger. Alternative policies can replace
  Compute without disturbing the rest of the engine.

PURITY:
  Compute is a pure function of (lease, entries, now). No I/O, no
  side effects, no global clock. Calling it twice with the same inputs
  yields identical output, so it is safe to call concurrently.

UNBOUNDED LEASES:
  Leases with no end date get a rolling lookahead window instead of a
  fixed schedule length. The window and the early-stop bound are
  configurable via AllocationConfig.

SEE ALSO:
  - period.go: Due-date arithmetic
  - types.go: PeriodDue / Calculations output types
*/
package lease

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

// AllocationConfig bounds schedule generation for unbounded leases.
type AllocationConfig struct {
	// LookaheadFloor is the minimum number of periods materialized for
	// an open-ended lease.
	LookaheadFloor int

	// LookaheadMargin is how many periods past the elapsed count the
	// rolling window extends.
	LookaheadMargin int

	// OverrunStop ends generation early once the pool is exhausted and
	// the current period is more than this many periods past the
	// elapsed count.
	OverrunStop int
}

// DefaultAllocationConfig returns the standard lookahead bounds.
func DefaultAllocationConfig() AllocationConfig {
	return AllocationConfig{
		LookaheadFloor:  24,
		LookaheadMargin: 12,
		OverrunStop:     6,
	}
}

// =============================================================================
// CALCULATOR
// =============================================================================

// Calculator derives schedules from ledgers. The zero value is not
// usable; construct with NewCalculator.
type Calculator struct {
	cfg AllocationConfig
}

func NewCalculator(cfg AllocationConfig) *Calculator {
	if cfg.LookaheadFloor <= 0 {
		cfg = DefaultAllocationConfig()
	}
	return &Calculator{cfg: cfg}
}

// Compute builds the full schedule and aggregates for a lease.
//
// Entries may arrive in any order; they are sorted by date (then
// creation time) before allocation. Malformed attribution data never
// causes an error: refunds that cannot be traced to a payment still
// reduce the pool and are reported in UnattributedRefund.
func (c *Calculator) Compute(l *Lease, entries []Entry, now time.Time) *Calculations {
	rentPaid := make([]Entry, 0, len(entries))
	refunds := make([]Entry, 0)
	for _, e := range entries {
		switch {
		case e.CountsAsRentPaid():
			rentPaid = append(rentPaid, e)
		case e.CountsAsRefund():
			refunds = append(refunds, e)
		}
	}
	sort.SliceStable(rentPaid, func(i, j int) bool {
		if !rentPaid[i].Date.Equal(rentPaid[j].Date) {
			return rentPaid[i].Date.Before(rentPaid[j].Date)
		}
		return rentPaid[i].CreatedAt.Before(rentPaid[j].CreatedAt)
	})

	totalRentPaid := decimal.Zero
	for _, e := range rentPaid {
		totalRentPaid = totalRentPaid.Add(e.Amount)
	}

	refundedBy, unattributed, totalRefunded := attributeRefunds(rentPaid, refunds)

	totalPeriods := TotalPeriods(l)
	elapsed := ElapsedPeriods(l.StartDate, now, l.PeriodUnit, totalPeriods)

	calc := &Calculations{
		TotalPeriods:       totalPeriods,
		PeriodsElapsed:     elapsed,
		TotalAmountDue:     l.PeriodAmount.Mul(decimal.NewFromInt(int64(elapsed))),
		TotalPaid:          totalRentPaid.Sub(totalRefunded),
		RefundedByPayment:  refundedBy,
		UnattributedRefund: unattributed,
	}
	if totalPeriods > 0 {
		calc.PeriodsRemaining = totalPeriods - elapsed
	}

	// Clamp before deriving AmountDue: a refund surplus means nothing is
	// paid, not that extra rent is owed.
	if calc.TotalPaid.IsNegative() {
		calc.TotalPaid = decimal.Zero
	}

	calc.Schedule = c.buildSchedule(l, rentPaid, calc.TotalPaid, elapsed, totalPeriods, now)

	calc.AmountDue = calc.TotalAmountDue.Sub(calc.TotalPaid)
	if calc.AmountDue.IsNegative() {
		calc.AmountDue = decimal.Zero
	}

	calc.NextDueDate, calc.DaysUntilNextDue = nextDue(calc.Schedule, now)
	return calc
}

// buildSchedule walks periods in order, draining the pool into the
// earliest unpaid period first.
func (c *Calculator) buildSchedule(l *Lease, rentPaid []Entry, pool decimal.Decimal, elapsed, totalPeriods int, now time.Time) []PeriodDue {
	unbounded := totalPeriods == 0
	n := totalPeriods
	if unbounded {
		n = elapsed + c.cfg.LookaheadMargin
		if n < c.cfg.LookaheadFloor {
			n = c.cfg.LookaheadFloor
		}
	}

	schedule := make([]PeriodDue, 0, n)

	// Attribution cursor over rent entries. Each entry funds at most its
	// own amount; the entry supplying the first unit of a period is the
	// one the period is attributed to.
	idx := 0
	var funded decimal.Decimal // amount already drawn from rentPaid[idx]

	for p := 1; p <= n; p++ {
		dueDate := DueDateForPeriod(l.StartDate, l.PeriodUnit, p)
		paid := pool.GreaterThanOrEqual(l.PeriodAmount)

		if unbounded && !paid && p > elapsed+c.cfg.OverrunStop {
			break
		}

		due := PeriodDue{
			PeriodNumber: p,
			DueDate:      dueDate,
			AmountDue:    l.PeriodAmount,
		}

		if paid {
			due.IsPaid = true
			pool = pool.Sub(l.PeriodAmount)

			cutoff := dueDate
			if p > elapsed {
				cutoff = now
			}
			for idx < len(rentPaid) && funded.GreaterThanOrEqual(rentPaid[idx].Amount) {
				idx++
				funded = decimal.Zero
			}
			if idx < len(rentPaid) && !rentPaid[idx].Date.After(cutoff) {
				src := rentPaid[idx]
				d := src.Date
				a := src.Amount
				due.PaidDate = &d
				due.PaidAmount = &a
				due.IsAdvance = src.Date.Before(dueDate)
				funded = funded.Add(l.PeriodAmount)
			}
		} else {
			due.IsOverdue = p <= elapsed && dueDate.Before(now)
		}

		schedule = append(schedule, due)
	}
	return schedule
}

// attributeRefunds maps each paid refund back to the payment it
// reverses: first via the explicit RefundsPaymentID reference, then by
// scanning the note for an embedded payment id. Refunds with no
// recoverable reference count toward the total but stay unattributed.
func attributeRefunds(rentPaid []Entry, refunds []Entry) (map[EntryID]decimal.Decimal, decimal.Decimal, decimal.Decimal) {
	byPayment := make(map[EntryID]decimal.Decimal, len(refunds))
	unattributed := decimal.Zero
	total := decimal.Zero

	for _, r := range refunds {
		amount := r.Amount.Abs()
		total = total.Add(amount)

		pid := r.RefundsPaymentID
		if pid == "" {
			pid = paymentIDFromNote(r.Note, rentPaid)
		}
		if pid == "" {
			unattributed = unattributed.Add(amount)
			continue
		}
		byPayment[pid] = byPayment[pid].Add(amount)
	}
	return byPayment, unattributed, total
}

// paymentIDFromNote recovers the originating payment id from free text.
// Legacy ledgers embed the id in the refund note instead of setting the
// explicit reference.
func paymentIDFromNote(note string, rentPaid []Entry) EntryID {
	if note == "" {
		return ""
	}
	for _, e := range rentPaid {
		if strings.Contains(note, string(e.ID)) {
			return e.ID
		}
	}
	return ""
}

// nextDue picks the earliest unpaid period. The schedule is in period
// order, so a delinquent lease reports the oldest overdue date with a
// negative day count.
func nextDue(schedule []PeriodDue, now time.Time) (*time.Time, int) {
	for i := range schedule {
		p := &schedule[i]
		if p.IsPaid {
			continue
		}
		d := p.DueDate
		return &d, DaysBetween(now, d)
	}
	return nil, 0
}
