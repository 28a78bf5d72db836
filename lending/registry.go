/*
registry.go - The loan collection and its lifecycle rules

PURPOSE:
  The Registry owns every loan in the system. It allocates sequential
  loan ids, answers lookups, guards deletion, and orchestrates the two
  collaborators: the loan store (durable loan records) and the payment
  ledger (durable payment history).

RESTORE PROTOCOL:
  Installment state is never persisted. On startup the registry:
    1. loads the persisted loan records and rebuilds each loan, which
       regenerates its full installment plan from the immutable terms,
    2. seeds the id counter from the highest numeric id seen, so ids are
       never reused even after deletions,
    3. replays the complete payment history, in event order, against the
       regenerated plans,
    4. runs a delinquency sweep so penalties accrued since the last run
       are applied before anything is shown or paid.

CONCURRENCY:
  One mutex serializes every operation. Allocation order within a loan
  and single-increment id assignment are invariants of the engine, and a
  global lock is the simplest way to keep them when the engine is exposed
  over HTTP. Every loan handed out is a deep clone taken under the lock,
  so callers read balances and plans without racing later mutations. The
  workload is one interactive operator; contention is not a concern.

PERSISTENCE FAILURES:
  Writes are full rewrites of the affected collection. A failed write is
  logged and surfaced through the logger only; the in-memory collection
  stays authoritative for the rest of the session.
*/
package lending

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultSentinelClient is the reserved client id whose loans are kept in
// memory but excluded from loan persistence (seed/demo data). Configurable
// via the Registry field of the same name.
const DefaultSentinelClient ClientID = "00000000"

// =============================================================================
// LOAN STORE
// =============================================================================

// LoanRecord is the persisted shape of a loan: just its immutable terms.
// Everything else is rebuilt from these plus the payment ledger.
type LoanRecord struct {
	ID        LoanID
	ClientID  ClientID
	Principal decimal.Decimal
	TermCount int
	Mortgage  bool
	StartDate Date
}

// LoanStore persists loan records. Writes replace the whole collection.
type LoanStore interface {
	LoadLoans(ctx context.Context) ([]LoanRecord, error)
	SaveLoans(ctx context.Context, records []LoanRecord) error
}

// =============================================================================
// REGISTRY
// =============================================================================

// Registry owns the loan collection, the id counter and the deletion rules.
type Registry struct {
	mu     sync.Mutex
	loans  []*Loan
	nextID int

	store    LoanStore
	ledger   PaymentLedger
	enforcer DelinquencyEnforcer
	logger   *zap.Logger

	// SentinelClient's loans are excluded from persistence.
	SentinelClient ClientID
}

func NewRegistry(store LoanStore, ledger PaymentLedger, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		store:          store,
		ledger:         ledger,
		enforcer:       NewDelinquencyEnforcer(),
		logger:         logger,
		SentinelClient: DefaultSentinelClient,
	}
}

// Restore rebuilds the in-memory state from the loan store and the payment
// ledger: load records, regenerate plans, seed the id counter, replay the
// payment history in order, then sweep for delinquency.
func (r *Registry) Restore(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.store.LoadLoans(ctx)
	if err != nil {
		return fmt.Errorf("%w: loading loans: %v", ErrPersistence, err)
	}

	maxID := 0
	r.loans = r.loans[:0]
	for _, rec := range records {
		loan, err := NewLoan(rec.ID, rec.ClientID, rec.Principal, rec.TermCount, rec.Mortgage, rec.StartDate)
		if err != nil {
			r.logger.Warn("skipping invalid loan record",
				zap.String("loan_id", string(rec.ID)), zap.Error(err))
			continue
		}
		r.loans = append(r.loans, loan)

		if n, ok := numericID(rec.ID); ok {
			if n > maxID {
				maxID = n
			}
		} else {
			r.logger.Warn("non-numeric loan id excluded from counter seeding",
				zap.String("loan_id", string(rec.ID)))
		}
	}
	r.nextID = maxID

	if err := r.replayLocked(ctx); err != nil {
		return err
	}
	r.enforcer.Sweep(r.loans)
	return nil
}

// replayLocked applies the full payment history to the regenerated plans.
// Entries that no longer match a loan (or target a settled installment)
// are logged and skipped; history is never rewritten.
func (r *Registry) replayLocked(ctx context.Context) error {
	payments, err := r.ledger.All(ctx)
	if err != nil {
		return fmt.Errorf("%w: loading payment history: %v", ErrPersistence, err)
	}

	for _, p := range payments {
		loan := r.findLocked(p.LoanID)
		if loan == nil {
			r.logger.Warn("payment references unknown loan, skipped",
				zap.String("loan_id", string(p.LoanID)),
				zap.Int("installment", p.InstallmentNumber))
			continue
		}
		if err := loan.ApplyToInstallment(p.InstallmentNumber, p.Amount); err != nil {
			r.logger.Warn("payment could not be replayed, skipped",
				zap.String("loan_id", string(p.LoanID)),
				zap.Int("installment", p.InstallmentNumber),
				zap.Error(err))
		}
	}
	return nil
}

// Create allocates the next sequential id and registers a new loan.
func (r *Registry) Create(ctx context.Context, clientID ClientID, principal decimal.Decimal, termCount int, mortgage bool, start Date) (*Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := LoanID(fmt.Sprintf("%04d", r.nextID+1))
	loan, err := NewLoan(id, clientID, principal, termCount, mortgage, start)
	if err != nil {
		return nil, err
	}
	r.nextID++
	r.loans = append(r.loans, loan)
	r.persistLocked(ctx)

	r.logger.Info("loan created",
		zap.String("loan_id", string(id)),
		zap.String("client_id", string(clientID)),
		zap.String("principal", principal.StringFixed(2)),
		zap.Int("term_count", termCount),
		zap.Bool("mortgage", mortgage))
	return loan.clone(), nil
}

// Get returns a snapshot of one loan, swept against the current date
// first. The snapshot is detached: later payments and sweeps do not show
// through it.
func (r *Registry) Get(id LoanID) (*Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	loan := r.findLocked(id)
	if loan == nil {
		return nil, ErrLoanNotFound
	}
	r.enforcer.Sweep([]*Loan{loan})
	return loan.clone(), nil
}

// List returns a snapshot of every loan in creation order, swept first.
func (r *Registry) List() []*Loan {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.enforcer.Sweep(r.loans)
	out := make([]*Loan, len(r.loans))
	for i, loan := range r.loans {
		out[i] = loan.clone()
	}
	return out
}

// ByClient returns snapshots of the client's loans, order-preserving and
// swept.
func (r *Registry) ByClient(clientID ClientID) []*Loan {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.enforcer.Sweep(r.loans)
	var out []*Loan
	for _, loan := range r.loans {
		if loan.ClientID == clientID {
			out = append(out, loan.clone())
		}
	}
	return out
}

// Delete removes a loan and purges its payment history. Blocked while the
// loan still carries any outstanding balance.
func (r *Registry) Delete(ctx context.Context, id LoanID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, loan := range r.loans {
		if loan.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrLoanNotFound
	}

	loan := r.loans[idx]
	r.enforcer.Sweep([]*Loan{loan})
	if outstanding := loan.Outstanding(); outstanding.IsPositive() {
		return &DeleteBlockedError{LoanID: id, Outstanding: outstanding}
	}

	if err := r.ledger.PurgeLoan(ctx, id); err != nil {
		return fmt.Errorf("%w: purging payments for loan %s: %v", ErrPersistence, id, err)
	}
	r.loans = append(r.loans[:idx], r.loans[idx+1:]...)
	r.persistLocked(ctx)

	r.logger.Info("loan deleted", zap.String("loan_id", string(id)))
	return nil
}

// Pay allocates a tendered amount against one of the loan's installments,
// spilling any excess forward. The loan is swept first so overdue
// penalties are part of the balances being paid.
func (r *Registry) Pay(ctx context.Context, id LoanID, startNumber int, amount decimal.Decimal) (AllocationResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	loan := r.findLocked(id)
	if loan == nil {
		return AllocationResult{}, ErrLoanNotFound
	}
	r.enforcer.Sweep([]*Loan{loan})

	allocator := NewPaymentAllocator(r.ledger)
	allocator.Now = r.enforcer.Clock
	result, err := allocator.Allocate(ctx, loan, startNumber, amount)
	if err != nil {
		return AllocationResult{}, err
	}

	if result.Residual.IsPositive() {
		r.logger.Warn("payment residual could not be applied to any installment",
			zap.String("loan_id", string(id)),
			zap.String("residual", result.Residual.StringFixed(2)))
	}
	return result, nil
}

// Payments returns the ledger history for one loan, in event order.
func (r *Registry) Payments(ctx context.Context, id LoanID) ([]Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.findLocked(id) == nil {
		return nil, ErrLoanNotFound
	}
	all, err := r.ledger.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: loading payment history: %v", ErrPersistence, err)
	}
	var out []Payment
	for _, p := range all {
		if p.LoanID == id {
			out = append(out, p)
		}
	}
	return out, nil
}

// SweepAt runs a delinquency sweep over every loan against an explicit
// reference date. Exposed for the admin sweep operation and for tests;
// day-to-day operations sweep implicitly.
func (r *Registry) SweepAt(ref Date) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enforcer.SweepAt(ref, r.loans)
}

// WithClock replaces the date source used for sweeps and payment events.
// Tests use this to move "now".
func (r *Registry) WithClock(clock func() Date) *Registry {
	r.enforcer.Clock = clock
	return r
}

func (r *Registry) findLocked(id LoanID) *Loan {
	for _, loan := range r.loans {
		if loan.ID == id {
			return loan
		}
	}
	return nil
}

// persistLocked rewrites the persisted loan collection, excluding loans
// belonging to the sentinel client. Failures are logged; the in-memory
// collection stays authoritative.
func (r *Registry) persistLocked(ctx context.Context) {
	records := make([]LoanRecord, 0, len(r.loans))
	for _, loan := range r.loans {
		if loan.ClientID == r.SentinelClient {
			continue
		}
		records = append(records, LoanRecord{
			ID:        loan.ID,
			ClientID:  loan.ClientID,
			Principal: loan.Principal,
			TermCount: loan.TermCount,
			Mortgage:  loan.Mortgage,
			StartDate: loan.StartDate,
		})
	}
	if err := r.store.SaveLoans(ctx, records); err != nil {
		r.logger.Error("failed to persist loans",
			zap.Int("loans", len(records)), zap.Error(err))
	}
}

// numericID extracts the numeric part of a loan id for counter seeding.
// Accepts both bare zero-padded ids ("0042") and prefixed ones ("P-0042").
func numericID(id LoanID) (int, bool) {
	s := strings.TrimPrefix(string(id), "P-")
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
