package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"tesoreria/internal/amqp"
	"tesoreria/internal/core"
	"tesoreria/internal/ledger"
	"tesoreria/internal/sheets/memory"
)

type stubStore struct {
	snap core.Snapshot
}

func (s *stubStore) Snapshot(context.Context) (core.Snapshot, error) {
	return s.snap, nil
}

func concertAt(id int64, date string) core.Concert {
	return core.Concert{
		ID:         id,
		Date:       date,
		Location:   "Rennes",
		CashAmount: 100,
		CreatedAt:  time.Date(2026, 3, int(id), 12, 0, 0, 0, time.UTC),
		Payments: []core.ConcertPayment{
			{MusicianName: "Marine", Amount: 40, PaymentMethod: core.MethodCash},
		},
	}
}

func TestExportDeduplicates(t *testing.T) {
	store := &stubStore{snap: core.Snapshot{
		Concerts: []core.Concert{concertAt(1, "2026-03-01")},
	}}
	target := memory.New()
	w := NewExportWorker(ledger.New(store), target, target, 50)

	if err := w.Export(context.Background()); err != nil {
		t.Fatalf("first export: %v", err)
	}
	first := len(target.Transactions())
	if first != 2 { // concert income + one payment
		t.Fatalf("first export wrote %d rows", first)
	}

	// Nothing changed: a second export appends nothing.
	if err := w.Export(context.Background()); err != nil {
		t.Fatalf("second export: %v", err)
	}
	if got := len(target.Transactions()); got != first {
		t.Errorf("re-export appended rows: %d -> %d", first, got)
	}

	// A new record produces exactly the new rows.
	store.snap.Concerts = append(store.snap.Concerts, concertAt(2, "2026-03-02"))
	if err := w.Export(context.Background()); err != nil {
		t.Fatalf("third export: %v", err)
	}
	if got := len(target.Transactions()); got != first+2 {
		t.Errorf("incremental export wrote %d rows, want %d", got, first+2)
	}

	if _, ok := target.Summary(); !ok {
		t.Error("summary never written")
	}
}

// A payment keeps its transaction id when it is marked paid; only the
// status changes. The completed row must still reach the export target.
func TestExportReexportsOnStatusChange(t *testing.T) {
	store := &stubStore{snap: core.Snapshot{
		Concerts: []core.Concert{concertAt(1, "2026-03-01")},
	}}
	target := memory.New()
	w := NewExportWorker(ledger.New(store), target, target, 50)

	if err := w.Export(context.Background()); err != nil {
		t.Fatalf("first export: %v", err)
	}

	store.snap.Concerts[0].Payments[0].Paid = true
	if err := w.Export(context.Background()); err != nil {
		t.Fatalf("export after status change: %v", err)
	}

	var completed int
	for _, tx := range target.Transactions() {
		if tx.Type == core.TxPaymentOut && tx.Status == core.StatusCompleted {
			completed++
		}
	}
	if completed != 1 {
		t.Errorf("completed payment rows = %d, want 1", completed)
	}
	// The unchanged income row must not be duplicated.
	if got := len(target.Transactions()); got != 3 {
		t.Errorf("rows = %d, want 3", got)
	}
}

func TestExportBatchesAppends(t *testing.T) {
	var concerts []core.Concert
	for i := int64(1); i <= 7; i++ {
		concerts = append(concerts, concertAt(i, "2026-03-0"+string(rune('0'+i))))
	}
	store := &stubStore{snap: core.Snapshot{Concerts: concerts}}

	target := &countingAppender{Store: memory.New()}
	w := NewExportWorker(ledger.New(store), target, target.Store, 5)

	if err := w.Export(context.Background()); err != nil {
		t.Fatal(err)
	}
	// 14 rows at batch size 5 means 3 append calls.
	if target.calls != 3 {
		t.Errorf("append calls = %d, want 3", target.calls)
	}
	if len(target.Transactions()) != 14 {
		t.Errorf("rows = %d, want 14", len(target.Transactions()))
	}
}

type countingAppender struct {
	*memory.Store
	calls int
}

func (c *countingAppender) AppendTransactions(ctx context.Context, txs []core.Transaction) error {
	c.calls++
	return c.Store.AppendTransactions(ctx, txs)
}

// failingAppender rejects every append so the retry path can be observed.
type failingAppender struct{}

func (failingAppender) AppendTransactions(context.Context, []core.Transaction) error {
	return errors.New("sheet unavailable")
}

func TestExportForgetsOnFailure(t *testing.T) {
	store := &stubStore{snap: core.Snapshot{
		Concerts: []core.Concert{concertAt(1, "2026-03-01")},
	}}
	target := memory.New()
	w := NewExportWorker(ledger.New(store), failingAppender{}, target, 50)

	if err := w.Export(context.Background()); err == nil {
		t.Fatal("export should fail with a failing appender")
	}

	// The failed rows must not be remembered as exported: switching to a
	// working target delivers them on the next run.
	w.appender = target
	if err := w.Export(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := len(target.Transactions()); got != 2 {
		t.Errorf("rows after recovery = %d, want 2", got)
	}
}

func TestHandleSyncMessageTriggersExport(t *testing.T) {
	store := &stubStore{snap: core.Snapshot{
		Expenses: []core.Expense{{
			ID: 1, Date: "2026-03-05", Description: "Essence",
			Amount: 60, RefundedTo: "Paul", PaymentMethod: core.MethodCash,
		}},
	}}
	target := memory.New()
	w := NewExportWorker(ledger.New(store), target, target, 50)

	msg := amqp.NewRecordSyncMessage(amqp.CollectionExpenses, 1, amqp.ActionCreated)
	if err := w.HandleSyncMessage(msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if got := len(target.Transactions()); got != 1 {
		t.Errorf("rows = %d, want 1", got)
	}
}
