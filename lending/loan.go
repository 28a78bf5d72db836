/*
loan.go - The loan aggregate

PURPOSE:
  A Loan owns the ordered sequence of installments generated from its
  terms. The schedule is built exactly once at construction by the
  amortization calculator and is never regenerated or reordered; all
  later state changes flow through the installments themselves.

IMMUTABILITY:
  Principal, term count, loan type and start date are fixed at
  construction. The interest rate is derived from the loan type, never
  stored. Installments() returns value copies so callers can inspect the
  plan without being able to mutate it.

SEE ALSO:
  - amortize.go: Payment calculation
  - installment.go: Per-installment state
  - registry.go: Creation, lookup and deletion of loans
*/
package lending

import "github.com/shopspring/decimal"

// =============================================================================
// LOAN
// =============================================================================

// Loan is a single installment loan and its repayment plan.
type Loan struct {
	ID        LoanID
	ClientID  ClientID
	Principal decimal.Decimal
	TermCount int
	Mortgage  bool
	StartDate Date

	installments []*Installment
}

// NewLoan validates the terms, computes the fixed periodic payment and
// generates the full installment plan with monthly due dates, the first
// one month after the start date.
func NewLoan(id LoanID, clientID ClientID, principal decimal.Decimal, termCount int, mortgage bool, start Date) (*Loan, error) {
	if !principal.IsPositive() {
		return nil, &ValidationError{Field: "principal", Message: "must be positive"}
	}
	if termCount <= 0 {
		return nil, &ValidationError{Field: "termCount", Message: "must be positive"}
	}

	l := &Loan{
		ID:        id,
		ClientID:  clientID,
		Principal: principal,
		TermCount: termCount,
		Mortgage:  mortgage,
		StartDate: start,
	}

	payment := PeriodicPayment(principal, termCount, l.Rate())
	due := start.AddMonths(1)
	l.installments = make([]*Installment, 0, termCount)
	for n := 1; n <= termCount; n++ {
		l.installments = append(l.installments, newInstallment(id, n, payment, due))
		due = due.AddMonths(1)
	}
	return l, nil
}

// Rate returns the flat per-period interest rate for this loan's type.
func (l *Loan) Rate() decimal.Decimal {
	if l.Mortgage {
		return RateMortgage
	}
	return RatePersonal
}

// PeriodicPayment returns the fixed amount of each installment.
func (l *Loan) PeriodicPayment() decimal.Decimal {
	return PeriodicPayment(l.Principal, l.TermCount, l.Rate())
}

// clone returns a deep copy of the loan, installments included. The
// registry hands out clones so callers can read balances without holding
// its lock.
func (l *Loan) clone() *Loan {
	c := *l
	c.installments = make([]*Installment, len(l.installments))
	for i, inst := range l.installments {
		copied := *inst
		c.installments[i] = &copied
	}
	return &c
}

// Installments returns a copy of the repayment plan. Mutations must go
// through the registry's payment and sweep operations.
func (l *Loan) Installments() []Installment {
	out := make([]Installment, len(l.installments))
	for i, inst := range l.installments {
		out[i] = *inst
	}
	return out
}

// Outstanding returns the total balance still owed across all unpaid
// installments, penalties included.
func (l *Loan) Outstanding() decimal.Decimal {
	total := decimal.Zero
	for _, inst := range l.installments {
		if inst.State != StatePaid {
			total = total.Add(inst.Outstanding())
		}
	}
	return total
}

// LateInstallments returns copies of the installments currently overdue.
func (l *Loan) LateInstallments() []Installment {
	var late []Installment
	for _, inst := range l.installments {
		if inst.State == StateOverdue {
			late = append(late, *inst)
		}
	}
	return late
}

// TotalPenalty returns the sum of accrued penalties across the plan.
func (l *Loan) TotalPenalty() decimal.Decimal {
	total := decimal.Zero
	for _, inst := range l.installments {
		total = total.Add(inst.AccruedPenalty)
	}
	return total
}

// EvaluateDelinquency forwards the reference date to every installment.
// Pure fan-out; there is no loan-level delinquency state.
func (l *Loan) EvaluateDelinquency(ref Date) {
	for _, inst := range l.installments {
		inst.EvaluateDelinquency(ref)
	}
}

// ApplyToInstallment applies a payment amount to one installment,
// bounds-checking the installment number first.
func (l *Loan) ApplyToInstallment(number int, amount decimal.Decimal) error {
	inst, err := l.installment(number)
	if err != nil {
		return err
	}
	return inst.ApplyPayment(amount)
}

func (l *Loan) installment(number int) (*Installment, error) {
	if number < 1 || number > len(l.installments) {
		return nil, &OutOfRangeError{LoanID: l.ID, Number: number, TermCount: l.TermCount}
	}
	return l.installments[number-1], nil
}
