/*
ledger.go - Payment event log

PURPOSE:
  The PaymentLedger is the audit record of every successful payment
  allocation. One tendered payment can yield several ledger entries (one
  per installment it touched). Entries are immutable and are used for two
  things only: audit, and replaying history to rebuild installment state
  at startup. Balances always live on the installments themselves.

WHY REPLAY INSTEAD OF PERSISTING STATE?
  Installment state is a pure function of (loan terms, payment history,
  current date). Persisting it separately would create two representations
  that can drift apart. Regenerating the schedule and replaying the
  ledger keeps a single source of truth.

PERSISTENCE:
  The ledger keeps the authoritative copy in memory and asks its
  PaymentStore for a full rewrite on every mutation. A failed write is
  logged and the session continues; changes since the last successful
  write may be lost on abnormal exit. That trade-off is accepted for a
  single-operator system.

SEE ALSO:
  - allocator.go: Emits one entry per allocation step
  - registry.go: Replays entries on restore, purges them on deletion
*/
package lending

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// =============================================================================
// PAYMENT EVENT
// =============================================================================

// Payment is one immutable ledger entry: an amount applied to one
// installment on one date.
type Payment struct {
	LoanID            LoanID
	InstallmentNumber int
	Amount            decimal.Decimal
	PaidAt            Date
}

// =============================================================================
// PAYMENT LEDGER
// =============================================================================

// PaymentLedger records payment events for audit and replay.
type PaymentLedger interface {
	// Append records one payment event.
	Append(ctx context.Context, p Payment) error

	// All returns every recorded event in insertion order.
	All(ctx context.Context) ([]Payment, error)

	// PurgeLoan removes every event belonging to a deleted loan.
	PurgeLoan(ctx context.Context, id LoanID) error
}

// PaymentStore persists the full set of payment events. Writes replace
// the whole collection; the ledger, not the store, owns ordering.
type PaymentStore interface {
	LoadPayments(ctx context.Context) ([]Payment, error)
	SavePayments(ctx context.Context, payments []Payment) error
}

// =============================================================================
// DEFAULT LEDGER - In-memory collection over a PaymentStore
// =============================================================================

// Ledger is the default PaymentLedger: an in-memory, insertion-ordered
// collection backed by a PaymentStore for durability.
type Ledger struct {
	mu       sync.Mutex
	payments []Payment
	store    PaymentStore
	logger   *zap.Logger
}

func NewLedger(store PaymentStore, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{store: store, logger: logger}
}

// Restore loads previously persisted events into memory. Called once at
// startup, before any replay.
func (l *Ledger) Restore(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	payments, err := l.store.LoadPayments(ctx)
	if err != nil {
		return err
	}
	l.payments = payments
	return nil
}

func (l *Ledger) Append(ctx context.Context, p Payment) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.payments = append(l.payments, p)
	l.save(ctx)
	return nil
}

func (l *Ledger) All(_ context.Context) ([]Payment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Payment, len(l.payments))
	copy(out, l.payments)
	return out, nil
}

func (l *Ledger) PurgeLoan(ctx context.Context, id LoanID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.payments[:0]
	purged := 0
	for _, p := range l.payments {
		if p.LoanID == id {
			purged++
			continue
		}
		kept = append(kept, p)
	}
	l.payments = kept
	if purged > 0 {
		l.save(ctx)
	}
	return nil
}

// save rewrites the persisted collection. The in-memory copy stays
// authoritative on failure.
func (l *Ledger) save(ctx context.Context) {
	if err := l.store.SavePayments(ctx, l.payments); err != nil {
		l.logger.Error("failed to persist payment ledger",
			zap.Int("payments", len(l.payments)), zap.Error(err))
	}
}
