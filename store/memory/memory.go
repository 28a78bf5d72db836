// Package memory provides in-memory implementations of the lending store
// interfaces, used for tests and throwaway runs.
package memory

import (
	"context"
	"sync"

	"github.com/warp/lending-engine/lending"
)

// Store implements lending.LoanStore and lending.PaymentStore in memory.
type Store struct {
	mu       sync.RWMutex
	loans    []lending.LoanRecord
	payments []lending.Payment
}

func New() *Store {
	return &Store{}
}

func (s *Store) LoadLoans(_ context.Context) ([]lending.LoanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]lending.LoanRecord, len(s.loans))
	copy(out, s.loans)
	return out, nil
}

func (s *Store) SaveLoans(_ context.Context, records []lending.LoanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loans = make([]lending.LoanRecord, len(records))
	copy(s.loans, records)
	return nil
}

func (s *Store) LoadPayments(_ context.Context) ([]lending.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]lending.Payment, len(s.payments))
	copy(out, s.payments)
	return out, nil
}

func (s *Store) SavePayments(_ context.Context, payments []lending.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.payments = make([]lending.Payment, len(payments))
	copy(s.payments, payments)
	return nil
}
