/*
Package lending provides the core installment loan engine.

PURPOSE:
  This package contains the domain types and algorithms for tracking
  installment loans: amortization schedule generation, installment state
  transitions, penalty accrual for late installments, and the allocation
  of tendered payments across a loan's repayment plan.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money values: decimal.Decimal everywhere, formatted to two decimals
    only at the display edge
  - Date: A calendar date (day granularity) used for due dates and
    delinquency checks
  - Loan/Client IDs: Type-safe identifiers

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point drift in
     balances that are added to and subtracted from many times
  2. Replayability: Installment state is never persisted; it is rebuilt
     by replaying the payment ledger against a regenerated schedule
  3. Type Safety: Strong typing for IDs prevents mixing loan/client IDs
  4. Explicit collaboration: persistence and audit are interfaces owned
     by the callers, never reached for directly from the domain

SEE ALSO:
  - installment.go: The installment state machine
  - loan.go: The loan aggregate and schedule generation
  - allocator.go: Payment allocation with overpayment spillover
  - registry.go: Loan collection, id allocation, restore protocol
*/
package lending

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type LoanID string
type ClientID string

// =============================================================================
// RATES - Flat per-period percentages
// =============================================================================

var (
	// RatePersonal is the fixed interest rate for personal loans.
	RatePersonal = decimal.NewFromFloat(15.5)

	// RateMortgage is the fixed interest rate for mortgage loans.
	RateMortgage = decimal.NewFromFloat(8.0)

	// PenaltyRate is the fraction of an installment's original amount
	// accrued as a penalty when it first enters the overdue state.
	// Applied at most once per delinquency event; it never compounds.
	PenaltyRate = decimal.NewFromFloat(0.05)
)

// =============================================================================
// MONEY HELPERS
// =============================================================================

// NewMoney builds a decimal amount from a float input (API boundary only;
// internal arithmetic stays in decimal).
func NewMoney(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

// FormatMoney renders an amount for display with two decimals.
func FormatMoney(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// =============================================================================
// DATE - Calendar date at day granularity
// =============================================================================

// Date is a calendar date. Due dates, payment dates and delinquency
// reference dates all live at day granularity; normalizing here keeps
// comparisons independent of wall-clock time and time zones.
type Date struct {
	Time time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func Today() Date {
	now := time.Now()
	return NewDate(now.Year(), now.Month(), now.Day())
}

// ParseDate parses an ISO-8601 calendar date (2006-01-02).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func (d Date) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Comparison
func (d Date) Before(other Date) bool       { return d.normalize().Before(other.normalize()) }
func (d Date) Equal(other Date) bool        { return d.normalize().Equal(other.normalize()) }
func (d Date) After(other Date) bool        { return d.normalize().After(other.normalize()) }
func (d Date) AfterOrEqual(other Date) bool { return d.After(other) || d.Equal(other) }

// Arithmetic
func (d Date) AddMonths(n int) Date { return Date{Time: d.Time.AddDate(0, n, 0)} }
func (d Date) AddDays(n int) Date   { return Date{Time: d.Time.AddDate(0, 0, n)} }

func (d Date) String() string { return d.Time.Format("2006-01-02") }
