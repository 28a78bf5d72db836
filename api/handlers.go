/*
handlers.go - HTTP API handlers for the lending engine

PURPOSE:
  Exposes the loan registry via REST. Handles HTTP request/response and
  JSON serialization, and delegates everything else to the domain.

ENDPOINTS:
  Loans:
    GET    /api/loans                      List all loans
    POST   /api/loans                      Create loan
    GET    /api/loans/{id}                 Get loan details
    DELETE /api/loans/{id}                 Delete loan (blocked while balance > 0)
    GET    /api/loans/{id}/installments    Repayment plan
    POST   /api/loans/{id}/payments        Allocate a payment (with spillover)
    GET    /api/loans/{id}/payments        Payment history (ledger)

  Clients:
    GET    /api/clients/{id}/loans         Loans by client

  Quotes:
    POST   /api/quotes                     Amortization preview (cached)

  Admin:
    POST   /api/admin/sweep                Delinquency sweep

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Loan not found
  - 409: Conflict (settled installment, deletion with balance)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/warp/lending-engine/lending"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Registry *lending.Registry
	Quotes   QuoteCache
}

// NewHandler creates a new handler around the registry. A nil cache
// falls back to a process-local quote cache.
func NewHandler(registry *lending.Registry, quotes QuoteCache) *Handler {
	if quotes == nil {
		quotes = NewMemoryQuoteCache()
	}
	return &Handler{Registry: registry, Quotes: quotes}
}

// =============================================================================
// LOAN HANDLERS
// =============================================================================

// CreateLoan registers a new loan and returns it with its derived state.
func (h *Handler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var req CreateLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	start, err := lending.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date, expected YYYY-MM-DD", err)
		return
	}

	loan, err := h.Registry.Create(r.Context(),
		lending.ClientID(req.ClientID),
		lending.NewMoney(req.Principal),
		req.TermCount,
		req.Mortgage,
		start,
	)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLoanDTO(loan))
}

// ListLoans returns every loan, delinquency-swept.
func (h *Handler) ListLoans(w http.ResponseWriter, r *http.Request) {
	loans := h.Registry.List()
	dtos := make([]LoanDTO, len(loans))
	for i, l := range loans {
		dtos[i] = toLoanDTO(l)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetLoan returns a single loan.
func (h *Handler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loan, err := h.Registry.Get(lending.LoanID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLoanDTO(loan))
}

// DeleteLoan removes a loan and purges its payment history. Rejected with
// 409 while the loan carries a balance.
func (h *Handler) DeleteLoan(w http.ResponseWriter, r *http.Request) {
	if err := h.Registry.Delete(r.Context(), lending.LoanID(chi.URLParam(r, "id"))); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListInstallments returns the loan's full repayment plan.
func (h *Handler) ListInstallments(w http.ResponseWriter, r *http.Request) {
	loan, err := h.Registry.Get(lending.LoanID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	installments := loan.Installments()
	dtos := make([]InstallmentDTO, len(installments))
	for i, inst := range installments {
		dtos[i] = toInstallmentDTO(inst)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// LoansByClient returns every loan belonging to one client.
func (h *Handler) LoansByClient(w http.ResponseWriter, r *http.Request) {
	loans := h.Registry.ByClient(lending.ClientID(chi.URLParam(r, "id")))
	dtos := make([]LoanDTO, len(loans))
	for i, l := range loans {
		dtos[i] = toLoanDTO(l)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// PAYMENT HANDLERS
// =============================================================================

// AllocatePayment applies a tendered amount to one installment, cascading
// any excess into subsequent unpaid installments.
func (h *Handler) AllocatePayment(w http.ResponseWriter, r *http.Request) {
	var req PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := h.Registry.Pay(r.Context(),
		lending.LoanID(chi.URLParam(r, "id")),
		req.InstallmentNumber,
		lending.NewMoney(req.Amount),
	)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAllocationDTO(result))
}

// ListPayments returns the loan's ledger history in event order.
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.Registry.Payments(r.Context(), lending.LoanID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	dtos := make([]PaymentDTO, len(payments))
	for i, p := range payments {
		dtos[i] = toPaymentDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// QUOTE HANDLER
// =============================================================================

// QuoteSchedule computes an amortization preview without creating a loan.
// Quotes are pure functions of the terms, so responses are cached.
func (h *Handler) QuoteSchedule(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	principal := lending.NewMoney(req.Principal)
	if !principal.IsPositive() {
		writeError(w, http.StatusBadRequest, "principal must be positive", nil)
		return
	}
	if req.TermCount <= 0 {
		writeError(w, http.StatusBadRequest, "term_count must be positive", nil)
		return
	}

	key := fmt.Sprintf("quote:%s:%d:%t", principal.String(), req.TermCount, req.Mortgage)
	if cached, ok := h.Quotes.Get(r.Context(), key); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(cached))
		return
	}

	rate := lending.RatePersonal
	kind := "personal"
	if req.Mortgage {
		rate = lending.RateMortgage
		kind = "mortgage"
	}
	payment := lending.PeriodicPayment(principal, req.TermCount, rate)
	total := payment.Mul(lending.NewMoney(float64(req.TermCount)))
	quote := QuoteDTO{
		Type:            kind,
		Rate:            rate.StringFixed(2),
		PeriodicPayment: payment.StringFixed(2),
		TotalPayment:    total.StringFixed(2),
		TotalInterest:   total.Sub(principal).StringFixed(2),
	}

	body, err := json.Marshal(quote)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode quote", err)
		return
	}
	// Cache failures are non-fatal; the quote is still served.
	_ = h.Quotes.Set(r.Context(), key, string(body))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// RunSweep triggers a delinquency sweep over every loan. The reference
// date defaults to today and can be pinned for replays and backfills.
func (h *Handler) RunSweep(w http.ResponseWriter, r *http.Request) {
	ref := lending.Today()
	if r.Body != nil && r.ContentLength != 0 {
		var req SweepRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
		if req.ReferenceDate != "" {
			var err error
			if ref, err = lending.ParseDate(req.ReferenceDate); err != nil {
				writeError(w, http.StatusBadRequest, "Invalid reference_date, expected YYYY-MM-DD", err)
				return
			}
		}
	}

	h.Registry.SweepAt(ref)
	writeJSON(w, http.StatusOK, map[string]string{"reference_date": ref.String()})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	resp := errorResponse{Error: msg}
	if err != nil {
		resp.Detail = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps the engine's error taxonomy onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case lending.IsValidation(err):
		writeError(w, http.StatusBadRequest, "Validation failed", err)
	case lending.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Loan not found", err)
	case lending.IsConflict(err):
		writeError(w, http.StatusConflict, "Operation conflicts with loan state", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}
