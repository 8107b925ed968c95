// Package ledger derives the budget views from the three raw record
// collections: global summary, per-musician balances, the unified
// transaction log and its statistics.
//
// Every query recomputes its result in full from a fresh snapshot of the
// collections. No derived state is persisted or cached, so correctness
// depends only on the raw records, never on stale aggregates.
package ledger

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"tesoreria/internal/core"
)

// Store is the persistence collaborator the ledger reads from. Snapshot
// must return all three collections from one consistent read so a
// multi-collection view never observes interleaved writes.
type Store interface {
	Snapshot(ctx context.Context) (core.Snapshot, error)
}

// Ledger answers derived-view queries over a Store. It holds no mutable
// state, so one instance serves concurrent requests.
type Ledger struct {
	store Store
}

// New creates a Ledger over the given store.
func New(store Store) *Ledger {
	return &Ledger{store: store}
}

// Summary computes the global budget summary: revenue split by channel
// (deposits included), paid-out cachets and refunded expenses, and the
// derived balances.
//
// The channel netting is deliberately asymmetric: the cash balance nets
// against cash-method paidouts, while the bank balance nets bank-transfer
// revenue against cachet-method paidouts. Cachets are conventionally paid
// by bank transfer in this domain; do not "fix" this without the treasurer.
func (l *Ledger) Summary(ctx context.Context) (core.BudgetSummary, error) {
	snap, err := l.store.Snapshot(ctx)
	if err != nil {
		return core.BudgetSummary{}, fmt.Errorf("load collections: %w", err)
	}

	var s core.BudgetSummary
	for _, c := range snap.Concerts {
		s.TotalRevenue += c.TotalAmount
		s.TotalCash += c.CashAmount + c.DepositCash
		s.TotalBankTransfer += c.BankTransferAmount + c.DepositTransfer

		for _, p := range c.Payments {
			if !p.Paid {
				continue
			}
			s.TotalPaidOut += p.Amount
			if p.PaymentMethod == core.MethodCash {
				s.TotalCashPaidOut += p.Amount
			} else {
				s.TotalCachetPaidOut += p.Amount
			}
		}
	}

	for _, e := range snap.Expenses {
		if !e.Refunded {
			continue
		}
		s.TotalPaidOut += e.Amount
		if e.PaymentMethod == core.MethodCash {
			s.TotalCashPaidOut += e.Amount
		} else {
			s.TotalCachetPaidOut += e.Amount
		}
	}

	s.CurrentBalance = s.TotalRevenue - s.TotalPaidOut
	s.CurrentCashBalance = s.TotalCash - s.TotalCashPaidOut
	s.CurrentBankBalance = s.TotalBankTransfer - s.TotalCachetPaidOut
	return s, nil
}

// MusicianBalances streams concert payments, expense refunds and invoices
// into a per-musician accumulation keyed by name, then computes the two
// derived fields for every entry. The result is sorted by musician name.
func (l *Ledger) MusicianBalances(ctx context.Context) ([]core.MusicianBalance, error) {
	snap, err := l.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load collections: %w", err)
	}

	byName := make(map[string]*core.MusicianBalance)
	upsert := func(name string) *core.MusicianBalance {
		if b, ok := byName[name]; ok {
			return b
		}
		b := &core.MusicianBalance{MusicianName: name}
		byName[name] = b
		return b
	}

	for _, c := range snap.Concerts {
		for _, p := range c.Payments {
			b := upsert(p.MusicianName)
			b.TotalEarned += p.Amount
			if p.PaymentMethod == core.MethodCash {
				b.TotalCash += p.Amount
			} else {
				b.TotalCachet += p.Amount
			}
			if p.Paid {
				b.TotalPaid += p.Amount
			}
		}
	}
	for _, e := range snap.Expenses {
		upsert(e.RefundedTo).TotalExpenseRefunds += e.Amount
	}
	for _, inv := range snap.Invoices {
		upsert(inv.MusicianName).TotalInvoices += inv.Amount
	}

	balances := make([]core.MusicianBalance, 0, len(byName))
	for _, b := range byName {
		b.RemainingToPay = b.TotalEarned + b.TotalExpenseRefunds - b.TotalPaid
		b.InvoiceDifference = b.TotalEarned - b.TotalInvoices
		balances = append(balances, *b)
	}
	// Names sort under French collation, matching how the balance sheet is
	// read. A Collator carries mutable iterator state and is not safe for
	// concurrent use, so every call builds its own.
	coll := collate.New(language.French)
	sort.Slice(balances, func(i, j int) bool {
		return coll.CompareString(balances[i].MusicianName, balances[j].MusicianName) < 0
	})
	return balances, nil
}

// Stats aggregates the full, unfiltered transaction set. TotalExpenses is
// the completed-outflow subtotal and therefore equals CompletedPayments;
// the redundancy is part of the contract.
func (l *Ledger) Stats(ctx context.Context) (core.TransactionStats, error) {
	txs, err := l.Transactions(ctx)
	if err != nil {
		return core.TransactionStats{}, err
	}

	var stats core.TransactionStats
	stats.TransactionCount = len(txs)
	for _, t := range txs {
		if t.IsIncome {
			stats.TotalIncome += t.Amount
			continue
		}
		if t.Status == core.StatusCompleted {
			stats.TotalExpenses += t.Amount
			stats.CompletedPayments += t.Amount
		} else {
			stats.PendingPayments += t.Amount
		}
	}
	return stats, nil
}
