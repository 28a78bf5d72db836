/*
allocator.go - Payment allocation with overpayment spillover

PURPOSE:
  The PaymentAllocator applies a tendered amount to a loan, starting at a
  chosen installment. Anything beyond that installment's balance cascades
  forward into subsequent unpaid installments, strictly in ascending
  number order: oldest obligations settle first. That ordering is a
  correctness requirement of the allocation policy, not an optimization.

PROTOCOL:
  1. Reject if the starting installment is out of range or settled,
     or if the tendered amount is not positive.
  2. Apply at most the target's outstanding balance to the target.
  3. Walk forward from the next installment, skipping settled ones:
     settle each in full while the remainder covers it, apply the final
     partial remainder, and stop.
  4. Whatever could not be placed (every installment already settled
     along the way) is reported back as the residual. Accepting or
     rejecting a positive residual is the caller's policy decision.

AUDIT:
  Every applied step emits exactly one payment event to the ledger,
  dated with the allocator's clock, for the amount applied in that step.

SEE ALSO:
  - installment.go: The per-installment payment rules
  - ledger.go: The audit collaborator
*/
package lending

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ALLOCATION RESULT
// =============================================================================

// Application is one step of an allocation: an amount applied to one
// installment and the state it left it in.
type Application struct {
	InstallmentNumber int
	Amount            decimal.Decimal
	ResultingState    InstallmentState
}

// AllocationResult reports every step of one allocation plus the residual
// amount that could not be placed anywhere.
type AllocationResult struct {
	Applications []Application
	Residual     decimal.Decimal
}

// =============================================================================
// PAYMENT ALLOCATOR
// =============================================================================

// PaymentAllocator distributes tendered payments across a loan's plan.
type PaymentAllocator struct {
	Ledger PaymentLedger

	// Now supplies the date stamped onto emitted payment events.
	Now func() Date
}

func NewPaymentAllocator(ledger PaymentLedger) *PaymentAllocator {
	return &PaymentAllocator{Ledger: ledger, Now: Today}
}

// Allocate applies a tendered amount to the loan starting at the given
// installment, spilling any excess into subsequent unpaid installments.
//
// On a rejected starting installment nothing is mutated and no events are
// emitted. Once allocation begins, each applied step is recorded in the
// ledger before the walk continues.
func (a *PaymentAllocator) Allocate(ctx context.Context, loan *Loan, startNumber int, tendered decimal.Decimal) (AllocationResult, error) {
	if !tendered.IsPositive() {
		return AllocationResult{}, &ValidationError{Field: "amount", Message: "tendered amount must be positive"}
	}

	target, err := loan.installment(startNumber)
	if err != nil {
		return AllocationResult{}, err
	}
	if target.State == StatePaid {
		return AllocationResult{}, &SettledError{LoanID: loan.ID, Number: startNumber}
	}

	result := AllocationResult{Residual: decimal.Zero}

	// The target absorbs at most its own outstanding balance.
	due := target.Outstanding()
	applied := decimal.Min(tendered, due)
	if err := a.apply(ctx, target, applied, &result); err != nil {
		return AllocationResult{}, err
	}
	remainder := tendered.Sub(applied)

	// Cascade the remainder forward, oldest obligation first.
	for n := startNumber + 1; n <= loan.TermCount && remainder.IsPositive(); n++ {
		inst, err := loan.installment(n)
		if err != nil {
			return result, err
		}
		if inst.State == StatePaid {
			continue
		}

		need := inst.Outstanding()
		step := decimal.Min(remainder, need)
		if err := a.apply(ctx, inst, step, &result); err != nil {
			return result, err
		}
		remainder = remainder.Sub(step)
	}

	result.Residual = remainder
	return result, nil
}

// apply mutates one installment and records the matching ledger event.
func (a *PaymentAllocator) apply(ctx context.Context, inst *Installment, amount decimal.Decimal, result *AllocationResult) error {
	if err := inst.ApplyPayment(amount); err != nil {
		return err
	}
	result.Applications = append(result.Applications, Application{
		InstallmentNumber: inst.Number,
		Amount:            amount,
		ResultingState:    inst.State,
	})
	if a.Ledger != nil {
		return a.Ledger.Append(ctx, Payment{
			LoanID:            inst.LoanID,
			InstallmentNumber: inst.Number,
			Amount:            amount,
			PaidAt:            a.Now(),
		})
	}
	return nil
}
