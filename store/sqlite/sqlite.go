/*
Package sqlite provides a SQLite-backed implementation of the lending
store interfaces.

PURPOSE:
  Implements lending.LoanStore and lending.PaymentStore on SQLite. The
  same patterns apply to PostgreSQL - only minor SQL dialect differences.

TABLES:
  loans:    One row per loan's immutable terms. Installment state is NOT
            stored; it is rebuilt by replaying payments at load time.
  payments: One row per payment event, insertion-ordered via a rowid
            surrogate key. Purged when the owning loan is deleted.

WRITE MODEL:
  The engine rewrites the affected collection on every mutation, so both
  Save methods replace the full table contents inside one transaction.
  At this system's scale (one interactive operator) that is simpler and
  safer than diffing.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/lending.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - lending/registry.go: Restore protocol consuming these records
  - store/csvfile: The flat-file implementation of the same interfaces
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/lending-engine/lending"
)

// Store implements the lending store interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Loan terms. Everything else is derived.
	CREATE TABLE IF NOT EXISTS loans (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL,
		principal TEXT NOT NULL,
		term_count INTEGER NOT NULL,
		mortgage BOOLEAN NOT NULL,
		start_date TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_loans_client ON loans(client_id);

	-- Payment events, insertion-ordered by seq for deterministic replay.
	CREATE TABLE IF NOT EXISTS payments (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		loan_id TEXT NOT NULL,
		installment_number INTEGER NOT NULL,
		amount TEXT NOT NULL,
		paid_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_payments_loan ON payments(loan_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// LOAN STORE (lending.LoanStore interface)
// =============================================================================

func (s *Store) LoadLoans(ctx context.Context) ([]lending.LoanRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, client_id, principal, term_count, mortgage, start_date
		 FROM loans ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []lending.LoanRecord
	for rows.Next() {
		var (
			rec                  lending.LoanRecord
			principal, startDate string
		)
		if err := rows.Scan(&rec.ID, &rec.ClientID, &principal, &rec.TermCount, &rec.Mortgage, &startDate); err != nil {
			return nil, err
		}
		if rec.Principal, err = decimal.NewFromString(principal); err != nil {
			return nil, fmt.Errorf("loan %s: principal: %w", rec.ID, err)
		}
		if rec.StartDate, err = lending.ParseDate(startDate); err != nil {
			return nil, fmt.Errorf("loan %s: start date: %w", rec.ID, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *Store) SaveLoans(ctx context.Context, records []lending.LoanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM loans`); err != nil {
			return err
		}
		for _, rec := range records {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO loans (id, client_id, principal, term_count, mortgage, start_date)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				rec.ID, rec.ClientID, rec.Principal.String(), rec.TermCount, rec.Mortgage, rec.StartDate.String())
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// =============================================================================
// PAYMENT STORE (lending.PaymentStore interface)
// =============================================================================

func (s *Store) LoadPayments(ctx context.Context) ([]lending.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT loan_id, installment_number, amount, paid_at
		 FROM payments ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []lending.Payment
	for rows.Next() {
		var (
			p              lending.Payment
			amount, paidAt string
		)
		if err := rows.Scan(&p.LoanID, &p.InstallmentNumber, &amount, &paidAt); err != nil {
			return nil, err
		}
		if p.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("payment for loan %s: amount: %w", p.LoanID, err)
		}
		if p.PaidAt, err = lending.ParseDate(paidAt); err != nil {
			return nil, fmt.Errorf("payment for loan %s: date: %w", p.LoanID, err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (s *Store) SavePayments(ctx context.Context, payments []lending.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM payments`); err != nil {
			return err
		}
		for _, p := range payments {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO payments (loan_id, installment_number, amount, paid_at)
				 VALUES (?, ?, ?, ?)`,
				p.LoanID, p.InstallmentNumber, p.Amount.String(), p.PaidAt.String())
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// withTx runs fn inside a transaction, committing on nil and rolling back
// on error.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
