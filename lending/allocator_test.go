package lending

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// recordingLedger captures emitted payment events in order.
type recordingLedger struct {
	events []Payment
}

func (l *recordingLedger) Append(_ context.Context, p Payment) error {
	l.events = append(l.events, p)
	return nil
}

func (l *recordingLedger) All(_ context.Context) ([]Payment, error) { return l.events, nil }

func (l *recordingLedger) PurgeLoan(_ context.Context, id LoanID) error {
	kept := l.events[:0]
	for _, p := range l.events {
		if p.LoanID != id {
			kept = append(kept, p)
		}
	}
	l.events = kept
	return nil
}

// flatLoan builds a loan whose installments all carry the given balance,
// bypassing the amortization formula for round numbers.
func flatLoan(count int, amount float64) *Loan {
	l := &Loan{
		ID:        "0001",
		ClientID:  "30111222",
		Principal: money(amount * float64(count)),
		TermCount: count,
		StartDate: NewDate(2025, time.January, 1),
	}
	due := l.StartDate.AddMonths(1)
	for n := 1; n <= count; n++ {
		l.installments = append(l.installments, newInstallment(l.ID, n, money(amount), due))
		due = due.AddMonths(1)
	}
	return l
}

func newTestAllocator(ledger PaymentLedger) *PaymentAllocator {
	a := NewPaymentAllocator(ledger)
	a.Now = func() Date { return NewDate(2025, time.June, 15) }
	return a
}

// =============================================================================
// SPILLOVER PROTOCOL
// =============================================================================

func TestAllocate_ExactAmount_NoSpillover(t *testing.T) {
	loan := flatLoan(5, 100)
	allocator := newTestAllocator(&recordingLedger{})

	result, err := allocator.Allocate(context.Background(), loan, 1, money(100))

	require.NoError(t, err)
	require.Len(t, result.Applications, 1)
	assert.Equal(t, StatePaid, result.Applications[0].ResultingState)
	assert.True(t, result.Residual.IsZero())
}

func TestAllocate_PartialAmount_NoSpillover(t *testing.T) {
	loan := flatLoan(5, 100)
	allocator := newTestAllocator(&recordingLedger{})

	result, err := allocator.Allocate(context.Background(), loan, 2, money(40))

	require.NoError(t, err)
	require.Len(t, result.Applications, 1)
	assert.Equal(t, 2, result.Applications[0].InstallmentNumber)
	assert.Equal(t, StatePartiallyPaid, result.Applications[0].ResultingState)
	assert.True(t, loan.installments[1].Outstanding().Equal(money(60)))
	// Neighbors untouched.
	assert.Equal(t, StatePending, loan.installments[0].State)
	assert.Equal(t, StatePending, loan.installments[2].State)
}

func TestAllocate_Overpayment_CascadesAscending(t *testing.T) {
	// GIVEN: Installments 1..5, all unpaid with balance 100 each
	// WHEN: Allocating 250 starting at installment 1
	// THEN: 1 and 2 settle, 3 keeps a balance of 50, 4-5 are untouched,
	//       and the residual is zero

	loan := flatLoan(5, 100)
	ledger := &recordingLedger{}
	allocator := newTestAllocator(ledger)

	result, err := allocator.Allocate(context.Background(), loan, 1, money(250))

	require.NoError(t, err)
	require.Len(t, result.Applications, 3)

	assert.Equal(t, StatePaid, loan.installments[0].State)
	assert.Equal(t, StatePaid, loan.installments[1].State)
	assert.True(t, loan.installments[2].Outstanding().Equal(money(50)))
	assert.Equal(t, StatePartiallyPaid, loan.installments[2].State)
	assert.Equal(t, StatePending, loan.installments[3].State)
	assert.Equal(t, StatePending, loan.installments[4].State)
	assert.True(t, result.Residual.IsZero())

	// One ledger event per applied step, in ascending order.
	require.Len(t, ledger.events, 3)
	for i, expected := range []int{1, 2, 3} {
		assert.Equal(t, expected, ledger.events[i].InstallmentNumber)
	}
	assert.True(t, ledger.events[2].Amount.Equal(money(50)))
}

func TestAllocate_SkipsSettledInstallments(t *testing.T) {
	loan := flatLoan(4, 100)
	require.NoError(t, loan.installments[1].ApplyPayment(money(100)))
	allocator := newTestAllocator(&recordingLedger{})

	result, err := allocator.Allocate(context.Background(), loan, 1, money(150))

	require.NoError(t, err)
	// 100 settles #1, the remaining 50 skips settled #2 and lands on #3.
	require.Len(t, result.Applications, 2)
	assert.Equal(t, 1, result.Applications[0].InstallmentNumber)
	assert.Equal(t, 3, result.Applications[1].InstallmentNumber)
	assert.True(t, loan.installments[2].Outstanding().Equal(money(50)))
}

func TestAllocate_ExhaustedPlan_ReportsResidual(t *testing.T) {
	// GIVEN: A two-installment plan
	// WHEN: Tendering more than the whole plan's balance
	// THEN: Both settle and the surplus comes back as the residual

	loan := flatLoan(2, 100)
	allocator := newTestAllocator(&recordingLedger{})

	result, err := allocator.Allocate(context.Background(), loan, 1, money(275))

	require.NoError(t, err)
	assert.Equal(t, StatePaid, loan.installments[0].State)
	assert.Equal(t, StatePaid, loan.installments[1].State)
	assert.True(t, result.Residual.Equal(money(75)))
}

func TestAllocate_OverdueBalancesIncludePenalty(t *testing.T) {
	// Spillover settles overdue installments at their penalty-inclusive
	// balance, and settlement forgives the penalty.

	loan := flatLoan(3, 100)
	loan.EvaluateDelinquency(NewDate(2026, time.January, 1)) // all overdue, 105 each
	allocator := newTestAllocator(&recordingLedger{})

	result, err := allocator.Allocate(context.Background(), loan, 1, money(210))

	require.NoError(t, err)
	require.Len(t, result.Applications, 2)
	assert.True(t, result.Applications[0].Amount.Equal(money(105)))
	assert.True(t, result.Applications[1].Amount.Equal(money(105)))
	assert.Equal(t, StatePaid, loan.installments[0].State)
	assert.True(t, loan.installments[0].AccruedPenalty.IsZero())
	assert.Equal(t, StateOverdue, loan.installments[2].State)
}

// =============================================================================
// REJECTIONS
// =============================================================================

func TestAllocate_SettledTarget_RejectedWithoutEvents(t *testing.T) {
	loan := flatLoan(3, 100)
	require.NoError(t, loan.installments[0].ApplyPayment(money(100)))
	ledger := &recordingLedger{}
	allocator := newTestAllocator(ledger)

	_, err := allocator.Allocate(context.Background(), loan, 1, money(50))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInstallmentSettled)
	assert.Empty(t, ledger.events, "rejected allocation must not emit events")
}

func TestAllocate_OutOfRangeTarget_Rejected(t *testing.T) {
	loan := flatLoan(3, 100)
	allocator := newTestAllocator(&recordingLedger{})

	for _, number := range []int{0, -1, 4} {
		_, err := allocator.Allocate(context.Background(), loan, number, money(50))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInstallmentOutOfRange)
	}
}

func TestAllocate_NonPositiveTender_Rejected(t *testing.T) {
	loan := flatLoan(3, 100)
	allocator := newTestAllocator(&recordingLedger{})

	_, err := allocator.Allocate(context.Background(), loan, 1, money(0))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, StatePending, loan.installments[0].State)
}
