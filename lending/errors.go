/*
errors.go - Centralized error types for the lending engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers classify failures with errors.Is / errors.As; the structured
  types carry enough context to report which field or rule failed.

ERROR CATEGORIES:
  1. Validation errors - Malformed or out-of-range input, rejected
     before any mutation
  2. Not-found errors  - Unknown loan id
  3. Conflict errors   - Business-rule violations (settled installment,
     deleting a loan that still carries a balance)
  4. Persistence errors - I/O failures in a surrounding store; the
     in-memory state remains authoritative

USAGE:
  if lending.IsConflict(err) {
      // reject with 409, nothing was mutated
  }
*/
package lending

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrLoanNotFound is returned when a referenced loan does not exist.
	ErrLoanNotFound = errors.New("loan not found")

	// ErrInstallmentOutOfRange is returned when an installment number falls
	// outside [1, termCount].
	ErrInstallmentOutOfRange = errors.New("installment number out of range")

	// ErrInstallmentSettled is returned when a payment targets an
	// installment that is already fully paid.
	ErrInstallmentSettled = errors.New("installment already settled")

	// ErrOutstandingBalance is returned when deleting a loan that still
	// has unpaid installments.
	ErrOutstandingBalance = errors.New("loan has outstanding balance")

	// ErrValidation is the root of all input validation failures.
	ErrValidation = errors.New("validation failed")

	// ErrPersistence is the root of store I/O failures. The in-memory
	// collection stays authoritative when one of these surfaces.
	ErrPersistence = errors.New("persistence failed")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports which input field was rejected.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// OutOfRangeError reports an installment number outside the loan's plan.
type OutOfRangeError struct {
	LoanID    LoanID
	Number    int
	TermCount int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("installment %d out of range for loan %s (1..%d)",
		e.Number, e.LoanID, e.TermCount)
}

func (e *OutOfRangeError) Unwrap() error { return ErrInstallmentOutOfRange }

// SettledError reports a payment against an already-paid installment.
type SettledError struct {
	LoanID LoanID
	Number int
}

func (e *SettledError) Error() string {
	return fmt.Sprintf("installment %d of loan %s is already settled", e.Number, e.LoanID)
}

func (e *SettledError) Unwrap() error { return ErrInstallmentSettled }

// DeleteBlockedError reports a deletion attempt on a loan with debt.
type DeleteBlockedError struct {
	LoanID      LoanID
	Outstanding decimal.Decimal
}

func (e *DeleteBlockedError) Error() string {
	return fmt.Sprintf("cannot delete loan %s: outstanding balance %s",
		e.LoanID, FormatMoney(e.Outstanding))
}

func (e *DeleteBlockedError) Unwrap() error { return ErrOutstandingBalance }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation returns true if the error is due to invalid caller input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInstallmentOutOfRange)
}

// IsNotFound returns true if the error indicates a missing loan.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrLoanNotFound)
}

// IsConflict returns true if the error is a business-rule violation
// rather than malformed input.
func IsConflict(err error) bool {
	return errors.Is(err, ErrInstallmentSettled) ||
		errors.Is(err, ErrOutstandingBalance)
}
