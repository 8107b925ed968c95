// Package memory is the in-memory export target used in tests and as the
// default backend when no spreadsheet is configured.
package memory

import (
	"context"
	"sync"

	"tesoreria/internal/core"
	ports "tesoreria/internal/sheets"
)

type Store struct {
	mu      sync.Mutex
	txs     []core.Transaction
	summary core.BudgetSummary
	wrote   bool
}

var (
	_ ports.TransactionAppender = (*Store)(nil)
	_ ports.SummaryWriter       = (*Store)(nil)
)

func New() *Store {
	return &Store{}
}

// AppendTransactions stores the rows in order of arrival.
func (s *Store) AppendTransactions(_ context.Context, txs []core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs = append(s.txs, txs...)
	return nil
}

// WriteSummary keeps only the latest summary, like the sheet block it mimics.
func (s *Store) WriteSummary(_ context.Context, sum core.BudgetSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary = sum
	s.wrote = true
	return nil
}

// Transactions returns a copy of everything appended so far.
func (s *Store) Transactions() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.txs...)
}

// Summary returns the last written summary and whether one was written.
func (s *Store) Summary() (core.BudgetSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary, s.wrote
}
