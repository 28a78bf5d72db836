/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract. Money fields
  are serialized as fixed two-decimal strings; clients never see raw
  floating point balances.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done by the domain (lending package), not in DTOs.
  DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/warp/lending-engine/lending"
)

// =============================================================================
// LOANS
// =============================================================================

// LoanDTO represents a loan in API responses, including derived state.
type LoanDTO struct {
	ID              string `json:"id"`
	ClientID        string `json:"client_id"`
	Principal       string `json:"principal"`
	TermCount       int    `json:"term_count"`
	Type            string `json:"type"`
	Rate            string `json:"rate"`
	StartDate       string `json:"start_date"`
	PeriodicPayment string `json:"periodic_payment"`
	Outstanding     string `json:"outstanding"`
	LateCount       int    `json:"late_count"`
	TotalPenalty    string `json:"total_penalty"`
}

// CreateLoanRequest is the request to create a loan.
type CreateLoanRequest struct {
	ClientID  string  `json:"client_id"`
	Principal float64 `json:"principal"`
	TermCount int     `json:"term_count"`
	Mortgage  bool    `json:"mortgage"`
	StartDate string  `json:"start_date"`
}

func toLoanDTO(l *lending.Loan) LoanDTO {
	kind := "personal"
	if l.Mortgage {
		kind = "mortgage"
	}
	return LoanDTO{
		ID:              string(l.ID),
		ClientID:        string(l.ClientID),
		Principal:       l.Principal.StringFixed(2),
		TermCount:       l.TermCount,
		Type:            kind,
		Rate:            l.Rate().StringFixed(2),
		StartDate:       l.StartDate.String(),
		PeriodicPayment: l.PeriodicPayment().StringFixed(2),
		Outstanding:     l.Outstanding().StringFixed(2),
		LateCount:       len(l.LateInstallments()),
		TotalPenalty:    l.TotalPenalty().StringFixed(2),
	}
}

// =============================================================================
// INSTALLMENTS
// =============================================================================

// InstallmentDTO represents one installment of a loan's plan.
type InstallmentDTO struct {
	Number         int    `json:"number"`
	OriginalAmount string `json:"original_amount"`
	AmountPaid     string `json:"amount_paid"`
	AccruedPenalty string `json:"accrued_penalty"`
	Outstanding    string `json:"outstanding"`
	DueDate        string `json:"due_date"`
	State          string `json:"state"`
}

func toInstallmentDTO(inst lending.Installment) InstallmentDTO {
	return InstallmentDTO{
		Number:         inst.Number,
		OriginalAmount: inst.OriginalAmount.StringFixed(2),
		AmountPaid:     inst.AmountPaid.StringFixed(2),
		AccruedPenalty: inst.AccruedPenalty.StringFixed(2),
		Outstanding:    inst.Outstanding().StringFixed(2),
		DueDate:        inst.DueDate.String(),
		State:          string(inst.State),
	}
}

// =============================================================================
// PAYMENTS
// =============================================================================

// PaymentRequest tenders an amount against one installment. Any excess
// spills forward into subsequent unpaid installments.
type PaymentRequest struct {
	InstallmentNumber int     `json:"installment_number"`
	Amount            float64 `json:"amount"`
}

// ApplicationDTO is one step of an allocation.
type ApplicationDTO struct {
	InstallmentNumber int    `json:"installment_number"`
	Amount            string `json:"amount"`
	ResultingState    string `json:"resulting_state"`
}

// AllocationDTO reports how a tendered payment was distributed.
type AllocationDTO struct {
	Applications []ApplicationDTO `json:"applications"`
	Residual     string           `json:"residual"`
}

func toAllocationDTO(result lending.AllocationResult) AllocationDTO {
	apps := make([]ApplicationDTO, len(result.Applications))
	for i, a := range result.Applications {
		apps[i] = ApplicationDTO{
			InstallmentNumber: a.InstallmentNumber,
			Amount:            a.Amount.StringFixed(2),
			ResultingState:    string(a.ResultingState),
		}
	}
	return AllocationDTO{
		Applications: apps,
		Residual:     result.Residual.StringFixed(2),
	}
}

// PaymentDTO is one immutable ledger entry.
type PaymentDTO struct {
	LoanID            string `json:"loan_id"`
	InstallmentNumber int    `json:"installment_number"`
	Amount            string `json:"amount"`
	PaidAt            string `json:"paid_at"`
}

func toPaymentDTO(p lending.Payment) PaymentDTO {
	return PaymentDTO{
		LoanID:            string(p.LoanID),
		InstallmentNumber: p.InstallmentNumber,
		Amount:            p.Amount.StringFixed(2),
		PaidAt:            p.PaidAt.String(),
	}
}

// =============================================================================
// QUOTES
// =============================================================================

// QuoteRequest asks for an amortization preview without creating a loan.
type QuoteRequest struct {
	Principal float64 `json:"principal"`
	TermCount int     `json:"term_count"`
	Mortgage  bool    `json:"mortgage"`
}

// QuoteDTO is the computed preview.
type QuoteDTO struct {
	Type            string `json:"type"`
	Rate            string `json:"rate"`
	PeriodicPayment string `json:"periodic_payment"`
	TotalPayment    string `json:"total_payment"`
	TotalInterest   string `json:"total_interest"`
}

// =============================================================================
// SWEEP
// =============================================================================

// SweepRequest optionally pins the reference date of a delinquency sweep.
// An empty date means "today".
type SweepRequest struct {
	ReferenceDate string `json:"reference_date,omitempty"`
}
