package ledger

import (
	"context"
	"fmt"
	"sort"

	"tesoreria/internal/core"
)

// Filter restricts a transaction query. Zero-valued fields are inactive;
// active fields combine conjunctively. StartDate/EndDate are inclusive ISO
// date strings compared lexicographically, so callers must supply
// zero-padded dates.
type Filter struct {
	Type      core.TransactionType
	Musician  string
	Status    core.TransactionStatus
	StartDate string
	EndDate   string
}

func (f Filter) matches(t core.Transaction) bool {
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if f.Musician != "" && t.RelatedMusician != f.Musician {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.StartDate != "" && t.Date < f.StartDate {
		return false
	}
	if f.EndDate != "" && t.Date > f.EndDate {
		return false
	}
	return true
}

// Transactions generates the unified transaction log from the current
// snapshot, ordered by date descending with createdAt descending as the
// tie-breaker.
func (l *Ledger) Transactions(ctx context.Context) ([]core.Transaction, error) {
	snap, err := l.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load collections: %w", err)
	}

	var txs []core.Transaction
	for _, c := range snap.Concerts {
		txs = append(txs, concertTransactions(c)...)
	}
	for _, e := range snap.Expenses {
		txs = append(txs, expenseTransaction(e))
	}
	for _, inv := range snap.Invoices {
		txs = append(txs, invoiceTransaction(inv))
	}

	sort.SliceStable(txs, func(i, j int) bool {
		if txs[i].Date != txs[j].Date {
			return txs[i].Date > txs[j].Date
		}
		return txs[i].CreatedAt.After(txs[j].CreatedAt)
	})
	return txs, nil
}

// FilterTransactions returns the transactions matching every active field
// of the filter.
func (l *Ledger) FilterTransactions(ctx context.Context, f Filter) ([]core.Transaction, error) {
	txs, err := l.Transactions(ctx)
	if err != nil {
		return nil, err
	}
	filtered := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if f.matches(t) {
			filtered = append(filtered, t)
		}
	}
	return filtered, nil
}

// TransactionsByType returns transactions of one kind.
func (l *Ledger) TransactionsByType(ctx context.Context, typ core.TransactionType) ([]core.Transaction, error) {
	return l.FilterTransactions(ctx, Filter{Type: typ})
}

// TransactionsByMusician returns transactions related to one musician.
func (l *Ledger) TransactionsByMusician(ctx context.Context, name string) ([]core.Transaction, error) {
	return l.FilterTransactions(ctx, Filter{Musician: name})
}

// TransactionsByDateRange returns transactions with start <= date <= end.
func (l *Ledger) TransactionsByDateRange(ctx context.Context, start, end string) ([]core.Transaction, error) {
	return l.FilterTransactions(ctx, Filter{StartDate: start, EndDate: end})
}

// concertTransactions emits up to one income entry for the concert-day
// revenue, one deposit entry per positive deposit channel, and one outflow
// entry per embedded payment.
func concertTransactions(c core.Concert) []core.Transaction {
	var txs []core.Transaction

	if c.CashAmount > 0 || c.BankTransferAmount > 0 {
		// Payment method stays unset when revenue arrived on both channels.
		// The split is genuinely lost in this view; the concert record keeps it.
		var method core.PaymentMethod
		switch {
		case c.CashAmount > 0 && c.BankTransferAmount > 0:
			method = ""
		case c.CashAmount > 0:
			method = core.MethodCash
		default:
			method = core.MethodTransfer
		}
		txs = append(txs, core.Transaction{
			ID:             fmt.Sprintf("concert-income-%d", c.ID),
			Date:           c.Date,
			Type:           core.TxConcertIncome,
			Description:    fmt.Sprintf("Concert: %s", c.Location),
			Amount:         c.CashAmount + c.BankTransferAmount,
			PaymentMethod:  method,
			RelatedConcert: c.Location,
			IsIncome:       true,
			Status:         core.StatusCompleted,
			CreatedAt:      c.CreatedAt,
		})
	}

	if c.DepositCash > 0 {
		txs = append(txs, core.Transaction{
			ID:             fmt.Sprintf("deposit-cash-%d", c.ID),
			Date:           c.Date,
			Type:           core.TxDepositIncome,
			Description:    fmt.Sprintf("Acompte (Espèces): %s", c.Location),
			Amount:         c.DepositCash,
			PaymentMethod:  core.MethodCash,
			RelatedConcert: c.Location,
			IsIncome:       true,
			Status:         core.StatusCompleted,
			CreatedAt:      c.CreatedAt,
		})
	}
	if c.DepositTransfer > 0 {
		txs = append(txs, core.Transaction{
			ID:             fmt.Sprintf("deposit-transfer-%d", c.ID),
			Date:           c.Date,
			Type:           core.TxDepositIncome,
			Description:    fmt.Sprintf("Acompte (Virement): %s", c.Location),
			Amount:         c.DepositTransfer,
			PaymentMethod:  core.MethodTransfer,
			RelatedConcert: c.Location,
			IsIncome:       true,
			Status:         core.StatusCompleted,
			CreatedAt:      c.CreatedAt,
		})
	}

	for _, p := range c.Payments {
		status := core.StatusPending
		if p.Paid {
			status = core.StatusCompleted
		}
		txs = append(txs, core.Transaction{
			ID:              fmt.Sprintf("payment-%d-%s", c.ID, p.MusicianName),
			Date:            c.Date,
			Type:            core.TxPaymentOut,
			Description:     fmt.Sprintf("Cachet: %s (%s)", p.MusicianName, c.Location),
			Amount:          p.Amount,
			PaymentMethod:   p.PaymentMethod,
			RelatedMusician: p.MusicianName,
			RelatedConcert:  c.Location,
			IsIncome:        false,
			Status:          status,
			CreatedAt:       c.CreatedAt,
		})
	}
	return txs
}

func expenseTransaction(e core.Expense) core.Transaction {
	status := core.StatusPending
	if e.Refunded {
		status = core.StatusCompleted
	}
	return core.Transaction{
		ID:              fmt.Sprintf("expense-%d", e.ID),
		Date:            e.Date,
		Type:            core.TxExpenseOut,
		Description:     fmt.Sprintf("Remboursement: %s", e.Description),
		Amount:          e.Amount,
		PaymentMethod:   e.PaymentMethod,
		RelatedMusician: e.RefundedTo,
		IsIncome:        false,
		Status:          status,
		CreatedAt:       e.CreatedAt,
	}
}

// invoiceTransaction is informational only: an invoice is not direct cash
// flow, so it is never flagged as income.
func invoiceTransaction(inv core.MusicianInvoice) core.Transaction {
	status := core.StatusPending
	if inv.Verified {
		status = core.StatusCompleted
	}
	return core.Transaction{
		ID:              fmt.Sprintf("invoice-%d", inv.ID),
		Date:            inv.Date,
		Type:            core.TxInvoiceSubmitted,
		Description:     fmt.Sprintf("Facture: %s", inv.Description),
		Amount:          inv.Amount,
		RelatedMusician: inv.MusicianName,
		IsIncome:        false,
		Status:          status,
		CreatedAt:       inv.CreatedAt,
	}
}
