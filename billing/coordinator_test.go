package billing_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seintelly36/rent-manager/billing"
	"github.com/seintelly36/rent-manager/lease"
	"github.com/seintelly36/rent-manager/lease/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestCoordinator(t *testing.T) (*billing.Coordinator, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return billing.NewCoordinator(mem, mem, logger), mem
}

// putMonthlyLease registers a 12-month lease at 1000/month that started
// two months ago, so mutations land on an active, partially elapsed
// lease regardless of wall clock.
func putMonthlyLease(mem *store.Memory, id lease.LeaseID) lease.Lease {
	count := 12
	start := lease.TruncateToDay(time.Now().UTC().AddDate(0, -2, 0))
	l := lease.Lease{
		ID:           id,
		TenantID:     "tenant-1",
		PropertyID:   "prop-1",
		StartDate:    start,
		PeriodAmount: decimal.NewFromInt(1000),
		PeriodUnit:   lease.UnitMonth,
		PeriodCount:  &count,
		AutoCalcEnd:  true,
		Status:       lease.StatusActive,
	}
	mem.PutLease(l)
	return l
}

func money(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}

func payInput(amount int64) billing.PaymentInput {
	return billing.PaymentInput{
		Amount: money(amount),
		Date:   time.Now().UTC(),
	}
}

// recordedPaymentID returns the id of the single rent entry in the
// lease's ledger.
func recordedPaymentID(t *testing.T, mem *store.Memory, leaseID lease.LeaseID) lease.EntryID {
	t.Helper()
	entries, err := mem.ListByLease(context.Background(), leaseID)
	require.NoError(t, err)
	for _, e := range entries {
		if e.Kind == lease.KindRent {
			return e.ID
		}
	}
	t.Fatal("no rent entry in ledger")
	return ""
}

// =============================================================================
// RECORD PAYMENT
// =============================================================================

func TestRecordPayment_AppendsAndRecomputes(t *testing.T) {
	// GIVEN: An active lease with an empty ledger
	// WHEN: Recording a 1000 payment
	// THEN: The ledger gains one paid rent entry and the returned
	//       schedule reflects it

	coord, mem := newTestCoordinator(t)
	putMonthlyLease(mem, "lease-1")
	ctx := context.Background()

	calc, err := coord.RecordPayment(ctx, "lease-1", payInput(1000))
	require.NoError(t, err)
	assert.True(t, calc.TotalPaid.Equal(money(1000)))

	entries, err := mem.ListByLease(ctx, "lease-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, lease.KindRent, entries[0].Kind)
	assert.Equal(t, lease.EntryPaid, entries[0].Status)
	assert.True(t, entries[0].Amount.Equal(money(1000)))
	assert.NotEmpty(t, entries[0].ID)
}

func TestRecordPayment_RejectsNonPositiveAmount(t *testing.T) {
	coord, mem := newTestCoordinator(t)
	putMonthlyLease(mem, "lease-1")
	ctx := context.Background()

	for _, amount := range []int64{0, -100} {
		_, err := coord.RecordPayment(ctx, "lease-1", payInput(amount))
		assert.ErrorIs(t, err, lease.ErrInvalidAmount, "amount %d should be rejected", amount)
	}

	entries, _ := mem.ListByLease(ctx, "lease-1")
	assert.Empty(t, entries, "rejected payments must not touch the ledger")
}

func TestRecordPayment_UnknownLease(t *testing.T) {
	coord, _ := newTestCoordinator(t)

	_, err := coord.RecordPayment(context.Background(), "nope", payInput(1000))
	assert.ErrorIs(t, err, lease.ErrLeaseNotFound)
}

func TestRecordPayment_TerminatedLease_Rejected(t *testing.T) {
	// GIVEN: A terminated lease
	// WHEN: Recording a payment
	// THEN: The mutation is rejected; history stays readable

	coord, mem := newTestCoordinator(t)
	l := putMonthlyLease(mem, "lease-1")
	l.Status = lease.StatusTerminated
	mem.PutLease(l)

	_, err := coord.RecordPayment(context.Background(), "lease-1", payInput(1000))
	assert.ErrorIs(t, err, lease.ErrLeaseNotActive)

	// Reads still work on terminated leases.
	_, err = coord.Schedule(context.Background(), "lease-1", time.Now().UTC())
	assert.NoError(t, err)
}

func TestRecordPayment_DuplicateIdempotencyKey(t *testing.T) {
	// GIVEN: A payment recorded with an idempotency key
	// WHEN: Submitting the same key again
	// THEN: The retry is rejected and the ledger keeps a single entry

	coord, mem := newTestCoordinator(t)
	putMonthlyLease(mem, "lease-1")
	ctx := context.Background()

	in := payInput(1000)
	in.IdempotencyKey = "retry-1"

	_, err := coord.RecordPayment(ctx, "lease-1", in)
	require.NoError(t, err)

	_, err = coord.RecordPayment(ctx, "lease-1", in)
	assert.ErrorIs(t, err, lease.ErrDuplicateIdempotencyKey)

	entries, _ := mem.ListByLease(ctx, "lease-1")
	assert.Len(t, entries, 1)
}

// =============================================================================
// PROCESS REFUND
// =============================================================================

func TestProcessRefund_LinksToPayment(t *testing.T) {
	// GIVEN: A 1000 payment
	// WHEN: Refunding 300 of it
	// THEN: The refund entry carries the payment reference, a traceable
	//       note, and net paid drops to 700

	coord, mem := newTestCoordinator(t)
	putMonthlyLease(mem, "lease-1")
	ctx := context.Background()

	_, err := coord.RecordPayment(ctx, "lease-1", payInput(1000))
	require.NoError(t, err)
	paymentID := recordedPaymentID(t, mem, "lease-1")

	calc, err := coord.ProcessRefund(ctx, "lease-1", billing.RefundInput{
		PaymentID: paymentID,
		Amount:    money(300),
		Reason:    "overcharge",
	})
	require.NoError(t, err)

	assert.True(t, calc.TotalPaid.Equal(money(700)))
	assert.True(t, calc.RefundedByPayment[paymentID].Equal(money(300)))

	entries, _ := mem.ListByLease(ctx, "lease-1")
	require.Len(t, entries, 2)
	var refund *lease.Entry
	for i := range entries {
		if entries[i].Kind == lease.KindRefund {
			refund = &entries[i]
		}
	}
	require.NotNil(t, refund)
	assert.Equal(t, paymentID, refund.RefundsPaymentID)
	assert.Contains(t, refund.Note, string(paymentID))
	assert.Contains(t, refund.Note, "overcharge")
}

func TestProcessRefund_OverRefund_Rejected(t *testing.T) {
	// GIVEN: A 1000 payment already refunded 600
	// WHEN: Requesting another 500
	// THEN: Rejected with the remaining refundable balance of 400

	coord, mem := newTestCoordinator(t)
	putMonthlyLease(mem, "lease-1")
	ctx := context.Background()

	_, err := coord.RecordPayment(ctx, "lease-1", payInput(1000))
	require.NoError(t, err)
	paymentID := recordedPaymentID(t, mem, "lease-1")

	_, err = coord.ProcessRefund(ctx, "lease-1", billing.RefundInput{
		PaymentID: paymentID, Amount: money(600), Reason: "partial",
	})
	require.NoError(t, err)

	_, err = coord.ProcessRefund(ctx, "lease-1", billing.RefundInput{
		PaymentID: paymentID, Amount: money(500), Reason: "rest",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, lease.ErrOverRefund)

	var overErr *lease.OverRefundError
	require.ErrorAs(t, err, &overErr)
	assert.True(t, overErr.Remaining.Equal(money(400)))
	assert.True(t, overErr.Requested.Equal(money(500)))

	// The exact remaining amount is still refundable.
	_, err = coord.ProcessRefund(ctx, "lease-1", billing.RefundInput{
		PaymentID: paymentID, Amount: money(400), Reason: "rest",
	})
	assert.NoError(t, err)
}

func TestProcessRefund_FullyRefundedPayment(t *testing.T) {
	// GIVEN: A payment refunded in full
	// WHEN: Requesting any further refund
	// THEN: Rejected as already refunded

	coord, mem := newTestCoordinator(t)
	putMonthlyLease(mem, "lease-1")
	ctx := context.Background()

	_, err := coord.RecordPayment(ctx, "lease-1", payInput(1000))
	require.NoError(t, err)
	paymentID := recordedPaymentID(t, mem, "lease-1")

	_, err = coord.ProcessRefund(ctx, "lease-1", billing.RefundInput{
		PaymentID: paymentID, Amount: money(1000), Reason: "cancelled",
	})
	require.NoError(t, err)

	_, err = coord.ProcessRefund(ctx, "lease-1", billing.RefundInput{
		PaymentID: paymentID, Amount: money(1), Reason: "again",
	})
	assert.ErrorIs(t, err, lease.ErrAlreadyRefunded)
}

func TestProcessRefund_ValidationFailures(t *testing.T) {
	coord, mem := newTestCoordinator(t)
	putMonthlyLease(mem, "lease-1")
	ctx := context.Background()

	_, err := coord.RecordPayment(ctx, "lease-1", payInput(1000))
	require.NoError(t, err)
	paymentID := recordedPaymentID(t, mem, "lease-1")

	tests := []struct {
		name    string
		input   billing.RefundInput
		wantErr error
	}{
		{
			"zero amount",
			billing.RefundInput{PaymentID: paymentID, Amount: money(0), Reason: "x"},
			lease.ErrInvalidAmount,
		},
		{
			"negative amount",
			billing.RefundInput{PaymentID: paymentID, Amount: money(-50), Reason: "x"},
			lease.ErrInvalidAmount,
		},
		{
			"missing reason",
			billing.RefundInput{PaymentID: paymentID, Amount: money(100), Reason: "   "},
			lease.ErrReasonRequired,
		},
		{
			"unknown payment",
			billing.RefundInput{PaymentID: "ghost", Amount: money(100), Reason: "x"},
			lease.ErrPaymentNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := coord.ProcessRefund(ctx, "lease-1", tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	entries, _ := mem.ListByLease(ctx, "lease-1")
	assert.Len(t, entries, 1, "rejected refunds must not touch the ledger")
}

func TestProcessRefund_RefundEntryIsNotRefundable(t *testing.T) {
	// GIVEN: A refund entry in the ledger
	// WHEN: Trying to refund the refund itself
	// THEN: Rejected; only paid rent entries are refund targets

	coord, mem := newTestCoordinator(t)
	putMonthlyLease(mem, "lease-1")
	ctx := context.Background()

	_, err := coord.RecordPayment(ctx, "lease-1", payInput(1000))
	require.NoError(t, err)
	paymentID := recordedPaymentID(t, mem, "lease-1")

	_, err = coord.ProcessRefund(ctx, "lease-1", billing.RefundInput{
		PaymentID: paymentID, Amount: money(200), Reason: "partial",
	})
	require.NoError(t, err)

	entries, _ := mem.ListByLease(ctx, "lease-1")
	var refundID lease.EntryID
	for _, e := range entries {
		if e.Kind == lease.KindRefund {
			refundID = e.ID
		}
	}
	require.NotEmpty(t, refundID)

	_, err = coord.ProcessRefund(ctx, "lease-1", billing.RefundInput{
		PaymentID: refundID, Amount: money(50), Reason: "meta",
	})
	assert.ErrorIs(t, err, lease.ErrPaymentNotFound)
}

func TestProcessRefund_BoundIsPerPayment(t *testing.T) {
	// GIVEN: Two payments of 1000 each
	// WHEN: Refunding 1000 against the first, then another 1000 against it
	// THEN: The second is rejected even though net lease funds remain

	coord, mem := newTestCoordinator(t)
	putMonthlyLease(mem, "lease-1")
	ctx := context.Background()

	in1 := payInput(1000)
	in1.IdempotencyKey = "p1"
	_, err := coord.RecordPayment(ctx, "lease-1", in1)
	require.NoError(t, err)
	firstID := recordedPaymentID(t, mem, "lease-1")

	in2 := payInput(1000)
	in2.IdempotencyKey = "p2"
	_, err = coord.RecordPayment(ctx, "lease-1", in2)
	require.NoError(t, err)

	_, err = coord.ProcessRefund(ctx, "lease-1", billing.RefundInput{
		PaymentID: firstID, Amount: money(1000), Reason: "full",
	})
	require.NoError(t, err)

	_, err = coord.ProcessRefund(ctx, "lease-1", billing.RefundInput{
		PaymentID: firstID, Amount: money(1000), Reason: "again",
	})
	assert.ErrorIs(t, err, lease.ErrAlreadyRefunded)
}

// =============================================================================
// STORE FAILURES
// =============================================================================

// brokenStore fails every append while delegating reads.
type brokenStore struct {
	*store.Memory
}

func (b *brokenStore) Append(context.Context, lease.Entry) error {
	return errors.New("disk on fire")
}

func TestRecordPayment_StoreFailure(t *testing.T) {
	// GIVEN: A store whose appends fail
	// WHEN: Recording a payment
	// THEN: A store error surfaces and no derived state is returned

	mem := store.NewMemory()
	broken := &brokenStore{Memory: mem}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	coord := billing.NewCoordinator(broken, mem, logger)
	putMonthlyLease(mem, "lease-1")

	calc, err := coord.RecordPayment(context.Background(), "lease-1", payInput(1000))
	assert.Nil(t, calc)
	assert.ErrorIs(t, err, lease.ErrStoreUnavailable)
}

// slowStore blocks every append until the caller's context gives up,
// while delegating reads.
type slowStore struct {
	*store.Memory
}

func (s *slowStore) Append(ctx context.Context, _ lease.Entry) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestRecordPayment_AppendTimeout(t *testing.T) {
	// GIVEN: A store whose appends hang past the bounded timeout
	// WHEN: Recording a payment
	// THEN: The deadline surfaces as a store failure, never as success

	mem := store.NewMemory()
	slow := &slowStore{Memory: mem}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	coord := billing.NewCoordinator(slow, mem, logger,
		billing.WithAppendTimeout(10*time.Millisecond))
	putMonthlyLease(mem, "lease-1")

	calc, err := coord.RecordPayment(context.Background(), "lease-1", payInput(1000))
	assert.Nil(t, calc)
	assert.ErrorIs(t, err, lease.ErrStoreUnavailable)

	entries, lerr := mem.ListByLease(context.Background(), "lease-1")
	require.NoError(t, lerr)
	assert.Empty(t, entries, "a timed-out append must not land in the ledger")
}

// =============================================================================
// SCHEDULE READS
// =============================================================================

func TestSchedule_RereadsLedger(t *testing.T) {
	// GIVEN: A ledger mutated outside the coordinator
	// WHEN: Asking for the schedule
	// THEN: The fresh entry is reflected (no stale cache)

	coord, mem := newTestCoordinator(t)
	l := putMonthlyLease(mem, "lease-1")
	ctx := context.Background()

	calc, err := coord.Schedule(ctx, "lease-1", time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, calc.TotalPaid.IsZero())

	require.NoError(t, mem.Append(ctx, lease.Entry{
		ID: "ext-1", LeaseID: "lease-1", Amount: money(1000),
		Date: l.StartDate, Kind: lease.KindRent, Status: lease.EntryPaid,
	}))

	calc, err = coord.Schedule(ctx, "lease-1", time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, calc.TotalPaid.Equal(money(1000)))
}

func TestSchedule_UnknownLease(t *testing.T) {
	coord, _ := newTestCoordinator(t)

	_, err := coord.Schedule(context.Background(), "ghost", time.Now().UTC())
	assert.ErrorIs(t, err, lease.ErrLeaseNotFound)
}
