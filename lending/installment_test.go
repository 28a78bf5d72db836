package lending

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func money(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func testInstallment(amount float64, due Date) *Installment {
	return newInstallment("0001", 1, money(amount), due)
}

var (
	due2025Mar10 = NewDate(2025, time.March, 10)
	ref2025Apr01 = NewDate(2025, time.April, 1)
)

// =============================================================================
// PAYMENT APPLICATION
// =============================================================================

func TestInstallment_PartialPayment_TracksBalance(t *testing.T) {
	// GIVEN: A pending installment of 100
	// WHEN: Applying 30
	// THEN: Paid amount and outstanding stay conserved, state is partial

	inst := testInstallment(100, due2025Mar10)

	require.NoError(t, inst.ApplyPayment(money(30)))

	assert.True(t, inst.AmountPaid.Equal(money(30)))
	assert.True(t, inst.Outstanding().Equal(money(70)))
	assert.Equal(t, StatePartiallyPaid, inst.State)
}

func TestInstallment_PaymentSequence_ConservesBalance(t *testing.T) {
	// Balance conservation: every applied amount adds exactly to AmountPaid
	// and the outstanding balance never goes negative.

	inst := testInstallment(100, due2025Mar10)

	for _, amount := range []float64{10, 25.5, 12.25, 40} {
		before := inst.AmountPaid
		require.NoError(t, inst.ApplyPayment(money(amount)))
		assert.True(t, inst.AmountPaid.Equal(before.Add(money(amount))))
		assert.False(t, inst.Outstanding().IsNegative())
	}

	assert.True(t, inst.Outstanding().Equal(money(12.25)))
}

func TestInstallment_FullPayment_Settles(t *testing.T) {
	inst := testInstallment(100, due2025Mar10)

	require.NoError(t, inst.ApplyPayment(money(100)))

	assert.Equal(t, StatePaid, inst.State)
	assert.True(t, inst.Outstanding().IsZero())
}

func TestInstallment_ExcessPayment_AbsorbsOnlyBalance(t *testing.T) {
	// The installment absorbs at most its outstanding balance; redirecting
	// the surplus is the allocator's job.
	inst := testInstallment(100, due2025Mar10)

	require.NoError(t, inst.ApplyPayment(money(250)))

	assert.Equal(t, StatePaid, inst.State)
	assert.True(t, inst.AmountPaid.Equal(money(100)))
}

func TestInstallment_SettledInstallment_RejectsFurtherPayments(t *testing.T) {
	// GIVEN: A settled installment
	// WHEN: Applying another payment
	// THEN: It fails with a conflict and every field is unchanged

	inst := testInstallment(100, due2025Mar10)
	require.NoError(t, inst.ApplyPayment(money(100)))
	snapshot := *inst

	err := inst.ApplyPayment(money(10))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInstallmentSettled)
	assert.True(t, IsConflict(err))
	assert.Equal(t, snapshot, *inst)
}

func TestInstallment_NonPositiveAmount_Rejected(t *testing.T) {
	inst := testInstallment(100, due2025Mar10)
	snapshot := *inst

	for _, amount := range []float64{0, -5} {
		err := inst.ApplyPayment(money(amount))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrValidation)
		assert.Equal(t, snapshot, *inst, "failed payment must not mutate")
	}
}

// =============================================================================
// DELINQUENCY AND PENALTY
// =============================================================================

func TestInstallment_PastDue_AccruesPenaltyOnce(t *testing.T) {
	// GIVEN: An installment of 100 due March 10
	// WHEN: Evaluating delinquency on April 1, twice
	// THEN: It is overdue with exactly one 5% penalty

	inst := testInstallment(100, due2025Mar10)

	inst.EvaluateDelinquency(ref2025Apr01)
	assert.Equal(t, StateOverdue, inst.State)
	assert.True(t, inst.AccruedPenalty.Equal(money(5)))
	assert.True(t, inst.Outstanding().Equal(money(105)))

	// Re-evaluating the same delinquency event is a no-op.
	inst.EvaluateDelinquency(ref2025Apr01)
	inst.EvaluateDelinquency(NewDate(2025, time.June, 1))
	assert.True(t, inst.AccruedPenalty.Equal(money(5)), "penalty must not compound")
}

func TestInstallment_NotYetDue_NoPenalty(t *testing.T) {
	inst := testInstallment(100, due2025Mar10)

	// On the due date itself the installment is not yet late.
	inst.EvaluateDelinquency(due2025Mar10)
	assert.Equal(t, StatePending, inst.State)

	inst.EvaluateDelinquency(NewDate(2025, time.February, 1))
	assert.Equal(t, StatePending, inst.State)
	assert.True(t, inst.AccruedPenalty.IsZero())
}

func TestInstallment_SettledInstallment_NeverGoesOverdue(t *testing.T) {
	inst := testInstallment(100, due2025Mar10)
	require.NoError(t, inst.ApplyPayment(money(100)))

	inst.EvaluateDelinquency(ref2025Apr01)

	assert.Equal(t, StatePaid, inst.State)
	assert.True(t, inst.AccruedPenalty.IsZero())
}

func TestInstallment_OverduePartialPayment_StaysOverdue(t *testing.T) {
	// A partial payment on an overdue installment never falls back to
	// partially-paid; the delinquency sticks until fully settled.

	inst := testInstallment(100, due2025Mar10)
	inst.EvaluateDelinquency(ref2025Apr01)

	require.NoError(t, inst.ApplyPayment(money(50)))

	assert.Equal(t, StateOverdue, inst.State)
	assert.True(t, inst.Outstanding().Equal(money(55)))
}

func TestInstallment_FullPaymentForgivesPenalty(t *testing.T) {
	// GIVEN: An overdue installment with an accrued penalty
	// WHEN: Settling the full balance (amount + penalty)
	// THEN: The installment is paid and the penalty is cleared

	inst := testInstallment(100, due2025Mar10)
	inst.EvaluateDelinquency(ref2025Apr01)
	require.True(t, inst.Outstanding().Equal(money(105)))

	require.NoError(t, inst.ApplyPayment(money(105)))

	assert.Equal(t, StatePaid, inst.State)
	assert.True(t, inst.AccruedPenalty.IsZero(), "penalty is forgiven on full settlement")
	assert.True(t, inst.Outstanding().IsZero())
}
