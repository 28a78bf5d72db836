/*
installment.go - One scheduled obligation and its state machine

PURPOSE:
  An Installment is a single periodic obligation within a loan's repayment
  plan. It owns its own bookkeeping: how much was originally due, how much
  has been paid so far, and any penalty accrued while overdue.

STATE MACHINE:
  Pending ──payment──> PartiallyPaid ──full payment──> Paid (terminal)
     │                      │
     └──due date passed─────┴──> Overdue ──full payment──> Paid

  A partial payment on an overdue installment keeps it Overdue; it never
  falls back to PartiallyPaid. Paid is terminal.

PENALTY ACCRUAL:
  Entering Overdue accrues a one-time penalty of 5% of the original
  amount. Re-evaluating an already-overdue installment is a no-op, so the
  penalty never compounds across repeated sweeps. Settling the full
  balance forgives the accrued penalty.

INVARIANTS:
  - Outstanding() = max(0, original + penalty - paid), never negative
  - AmountPaid is monotonically non-decreasing
  - State == Paid  <=>  Outstanding() == 0
  - AccruedPenalty is non-zero only if the installment has been Overdue

MUTATION:
  Only ApplyPayment and EvaluateDelinquency mutate an installment, and
  only through the allocator and the delinquency sweep. Failed operations
  leave every field unchanged.
*/
package lending

import "github.com/shopspring/decimal"

// =============================================================================
// INSTALLMENT STATE
// =============================================================================

type InstallmentState string

const (
	// StatePending: not yet due, no payment applied.
	StatePending InstallmentState = "pending"
	// StatePartiallyPaid: a payment was applied but a balance remains,
	// and the installment has never been overdue.
	StatePartiallyPaid InstallmentState = "partially_paid"
	// StateOverdue: the due date passed while a balance remained.
	StateOverdue InstallmentState = "overdue"
	// StatePaid: balance fully settled. Terminal.
	StatePaid InstallmentState = "paid"
)

// =============================================================================
// INSTALLMENT
// =============================================================================

// Installment is one scheduled obligation, identified by (LoanID, Number).
type Installment struct {
	LoanID         LoanID
	Number         int
	OriginalAmount decimal.Decimal
	AmountPaid     decimal.Decimal
	DueDate        Date
	State          InstallmentState
	AccruedPenalty decimal.Decimal
}

func newInstallment(loanID LoanID, number int, amount decimal.Decimal, due Date) *Installment {
	return &Installment{
		LoanID:         loanID,
		Number:         number,
		OriginalAmount: amount,
		AmountPaid:     decimal.Zero,
		DueDate:        due,
		State:          StatePending,
		AccruedPenalty: decimal.Zero,
	}
}

// Outstanding returns the balance still owed on this installment:
// max(0, original + accrued penalty - paid).
func (i *Installment) Outstanding() decimal.Decimal {
	balance := i.OriginalAmount.Add(i.AccruedPenalty).Sub(i.AmountPaid)
	if balance.IsNegative() {
		return decimal.Zero
	}
	return balance
}

// ApplyPayment applies an amount to this installment.
//
// Fails without mutation if the installment is already settled or the
// amount is not positive. An amount covering the full outstanding balance
// settles the installment and forgives the accrued penalty. The caller is
// responsible for capping the amount at Outstanding(); any surplus beyond
// the balance is not absorbed here (see PaymentAllocator for spillover).
func (i *Installment) ApplyPayment(amount decimal.Decimal) error {
	if i.State == StatePaid {
		return &SettledError{LoanID: i.LoanID, Number: i.Number}
	}
	if !amount.IsPositive() {
		return &ValidationError{Field: "amount", Message: "payment amount must be positive"}
	}

	outstanding := i.Outstanding()
	if amount.GreaterThanOrEqual(outstanding) {
		i.AmountPaid = i.AmountPaid.Add(outstanding)
		i.State = StatePaid
		i.AccruedPenalty = decimal.Zero // forgiven on full settlement
		return nil
	}

	i.AmountPaid = i.AmountPaid.Add(amount)
	// An overdue installment stays overdue on a partial payment.
	if i.State != StateOverdue {
		i.State = StatePartiallyPaid
	}
	return nil
}

// EvaluateDelinquency transitions the installment to Overdue when its due
// date has passed, accruing the one-time penalty on the transition.
// No-op when already settled, not yet due, or already overdue.
func (i *Installment) EvaluateDelinquency(ref Date) {
	if i.State == StatePaid || i.DueDate.AfterOrEqual(ref) {
		return
	}
	if i.State != StateOverdue {
		i.State = StateOverdue
		i.AccruedPenalty = i.AccruedPenalty.Add(i.OriginalAmount.Mul(PenaltyRate))
	}
}
