package ledger

import (
	"context"
	"testing"

	"tesoreria/internal/core"
)

func TestTransactionsEmpty(t *testing.T) {
	l := New(&stubStore{})
	txs, err := l.Transactions(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(txs) != 0 {
		t.Errorf("empty store produced %d transactions", len(txs))
	}
}

func TestTransactionsFromConcert(t *testing.T) {
	l := New(&stubStore{snap: fixtureSnapshot()})
	txs, err := l.Transactions(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	byID := make(map[string]core.Transaction, len(txs))
	for _, tx := range txs {
		byID[tx.ID] = tx
	}

	income, ok := byID["concert-income-1"]
	if !ok {
		t.Fatal("missing concert-income-1")
	}
	if income.Description != "Concert: Lorient" {
		t.Errorf("description = %q", income.Description)
	}
	if income.Amount != 1500 || !income.IsIncome || income.Status != core.StatusCompleted {
		t.Errorf("income = %+v", income)
	}
	// Both channels are positive, so the method is genuinely unknown here.
	if income.PaymentMethod != "" {
		t.Errorf("mixed-channel income method = %q, want unset", income.PaymentMethod)
	}

	if cashOnly := byID["concert-income-2"]; cashOnly.PaymentMethod != core.MethodCash {
		t.Errorf("cash-only income method = %q, want cash", cashOnly.PaymentMethod)
	}

	deposit, ok := byID["deposit-cash-1"]
	if !ok {
		t.Fatal("missing deposit-cash-1")
	}
	if deposit.Description != "Acompte (Espèces): Lorient" || deposit.Amount != 50 {
		t.Errorf("deposit = %+v", deposit)
	}
	if byID["deposit-transfer-1"].Description != "Acompte (Virement): Lorient" {
		t.Errorf("transfer deposit = %+v", byID["deposit-transfer-1"])
	}
	// Concert 2 has no deposits, so no deposit entries for it.
	if _, ok := byID["deposit-cash-2"]; ok {
		t.Error("deposit-cash-2 emitted for a deposit-free concert")
	}

	payment, ok := byID["payment-1-Marine"]
	if !ok {
		t.Fatal("missing payment-1-Marine")
	}
	if payment.Description != "Cachet: Marine (Lorient)" {
		t.Errorf("description = %q", payment.Description)
	}
	if payment.Status != core.StatusCompleted || payment.IsIncome {
		t.Errorf("paid payment = %+v", payment)
	}
	if unpaid := byID["payment-1-Sophie"]; unpaid.Status != core.StatusPending {
		t.Errorf("unpaid payment status = %q", unpaid.Status)
	}

	expense := byID["expense-1"]
	if expense.Description != "Remboursement: Cordes" || expense.RelatedMusician != "Sophie" {
		t.Errorf("expense = %+v", expense)
	}

	invoice := byID["invoice-1"]
	if invoice.Description != "Facture: Mars" || invoice.IsIncome {
		t.Errorf("invoice = %+v", invoice)
	}
	if invoice.PaymentMethod != "" {
		t.Errorf("invoice carries a payment method: %q", invoice.PaymentMethod)
	}
}

func TestTransactionsOrdering(t *testing.T) {
	snap := core.Snapshot{
		Concerts: []core.Concert{
			// Inserted out of date order on purpose.
			{ID: 1, Date: "2026-01-10", Location: "A", CashAmount: 100, CreatedAt: at(1)},
			{ID: 2, Date: "2026-02-10", Location: "B", CashAmount: 100, CreatedAt: at(2)},
		},
		Expenses: []core.Expense{
			// Same date as concert 2, created later: must come first.
			{ID: 7, Date: "2026-02-10", Description: "Essence", Amount: 10, RefundedTo: "Paul", CreatedAt: at(20)},
		},
	}
	l := New(&stubStore{snap: snap})
	txs, err := l.Transactions(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	wantOrder := []string{"expense-7", "concert-income-2", "concert-income-1"}
	if len(txs) != len(wantOrder) {
		t.Fatalf("got %d transactions, want %d", len(txs), len(wantOrder))
	}
	for i, id := range wantOrder {
		if txs[i].ID != id {
			t.Errorf("txs[%d] = %s, want %s", i, txs[i].ID, id)
		}
	}
}

func TestFilterTransactionsConjunctive(t *testing.T) {
	l := New(&stubStore{snap: fixtureSnapshot()})

	// Musician + status together: only Marine's completed entries.
	txs, err := l.FilterTransactions(context.Background(), Filter{
		Musician: "Marine",
		Status:   core.StatusCompleted,
	})
	if err != nil {
		t.Fatal(err)
	}
	// payment-1-Marine, payment-2-Marine, invoice-1. Not expense-2 (pending).
	if len(txs) != 3 {
		t.Fatalf("got %d transactions: %v", len(txs), ids(txs))
	}
	for _, tx := range txs {
		if tx.RelatedMusician != "Marine" || tx.Status != core.StatusCompleted {
			t.Errorf("filter leak: %+v", tx)
		}
	}
}

func TestTransactionsByType(t *testing.T) {
	l := New(&stubStore{snap: fixtureSnapshot()})
	txs, err := l.TransactionsByType(context.Background(), core.TxDepositIncome)
	if err != nil {
		t.Fatal(err)
	}
	if len(txs) != 2 {
		t.Fatalf("got %d deposits: %v", len(txs), ids(txs))
	}
}

func TestTransactionsByDateRange(t *testing.T) {
	l := New(&stubStore{snap: fixtureSnapshot()})

	// Inclusive on both ends, lexicographic on ISO strings.
	txs, err := l.TransactionsByDateRange(context.Background(), "2026-03-01", "2026-03-14")
	if err != nil {
		t.Fatal(err)
	}
	for _, tx := range txs {
		if tx.Date < "2026-03-01" || tx.Date > "2026-03-14" {
			t.Errorf("date %s outside range", tx.Date)
		}
	}
	// Concert 1 (5 entries) plus both expenses; invoice of the 20th excluded.
	if len(txs) != 7 {
		t.Errorf("got %d transactions: %v", len(txs), ids(txs))
	}
}

func TestTransactionsByMusician(t *testing.T) {
	l := New(&stubStore{snap: fixtureSnapshot()})
	txs, err := l.TransactionsByMusician(context.Background(), "Sophie")
	if err != nil {
		t.Fatal(err)
	}
	// payment-1-Sophie and expense-1.
	if len(txs) != 2 {
		t.Fatalf("got %d transactions: %v", len(txs), ids(txs))
	}
	for _, tx := range txs {
		if tx.RelatedMusician != "Sophie" {
			t.Errorf("filter leak: %+v", tx)
		}
	}
}

func ids(txs []core.Transaction) []string {
	out := make([]string, len(txs))
	for i, tx := range txs {
		out[i] = tx.ID
	}
	return out
}

// Regenerating the log must not depend on mutation order of the source
// snapshot; two reads of the same snapshot give identical output.
func TestTransactionsAreRecomputedDeterministically(t *testing.T) {
	store := &stubStore{snap: fixtureSnapshot()}
	l := New(store)

	first, err := l.Transactions(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	second, err := l.Transactions(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("txs[%d] differ: %+v vs %+v", i, first[i], second[i])
		}
	}
}
