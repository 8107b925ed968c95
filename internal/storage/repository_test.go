package storage

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"tesoreria/internal/core"
)

func testRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testConcert() *core.Concert {
	return &core.Concert{
		Date:               "2026-03-14",
		Location:           "Lorient",
		CashAmount:         500,
		BankTransferAmount: 1000,
		DepositCash:        50,
		DepositTransfer:    150,
		Notes:              "fin de tournée",
		CreatedAt:          time.Unix(1770000000, 0),
		Payments: []core.ConcertPayment{
			{MusicianName: "Marine", Amount: 369, PaymentMethod: core.MethodCachet},
			{MusicianName: "Sophie", Amount: 211, PaymentMethod: core.MethodCash},
		},
	}
}

func TestConcertRoundTrip(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	c := testConcert()
	id, err := repo.AddConcert(ctx, c)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if id == 0 || c.ID != id {
		t.Fatalf("id not assigned: id=%d c.ID=%d", id, c.ID)
	}
	if c.TotalAmount != 1500 || c.TotalDeposit != 200 {
		t.Errorf("derived totals not filled: %+v", c)
	}

	got, err := repo.GetConcert(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !reflect.DeepEqual(got, c) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, c)
	}
}

func TestConcertUpdateReplacesPayments(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	c := testConcert()
	if _, err := repo.AddConcert(ctx, c); err != nil {
		t.Fatal(err)
	}

	c.Location = "Brest"
	c.Payments = []core.ConcertPayment{
		{MusicianName: "Paul", Amount: 100, PaymentMethod: core.MethodCash, Paid: true},
	}
	if err := repo.UpdateConcert(ctx, c); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := repo.GetConcert(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Location != "Brest" {
		t.Errorf("location = %q", got.Location)
	}
	if len(got.Payments) != 1 || got.Payments[0].MusicianName != "Paul" {
		t.Errorf("payments not replaced: %+v", got.Payments)
	}
}

func TestMarkPaymentPaidTouchesOneRow(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	first := testConcert()
	if _, err := repo.AddConcert(ctx, first); err != nil {
		t.Fatal(err)
	}
	second := testConcert()
	second.Date = "2026-04-01"
	if _, err := repo.AddConcert(ctx, second); err != nil {
		t.Fatal(err)
	}

	if err := repo.MarkPaymentPaid(ctx, first.ID, "Marine"); err != nil {
		t.Fatalf("mark paid: %v", err)
	}

	got, err := repo.GetConcert(ctx, first.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Payments[0].Paid {
		t.Error("Marine's payment not marked paid")
	}
	if got.Payments[1].Paid {
		t.Error("Sophie's payment changed")
	}

	other, err := repo.GetConcert(ctx, second.ID)
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range other.Payments {
		if p.Paid {
			t.Errorf("other concert's payment changed: %+v", p)
		}
	}

	if err := repo.MarkPaymentPaid(ctx, first.ID, "Inconnu"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown musician: err = %v, want ErrNotFound", err)
	}
}

func TestConcertDeleteCascades(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	c := testConcert()
	if _, err := repo.AddConcert(ctx, c); err != nil {
		t.Fatal(err)
	}
	if err := repo.DeleteConcert(ctx, c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetConcert(ctx, c.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after delete: err = %v, want ErrNotFound", err)
	}
	if err := repo.DeleteConcert(ctx, c.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("double delete: err = %v, want ErrNotFound", err)
	}

	snap, err := repo.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Concerts) != 0 {
		t.Errorf("concert survived delete: %+v", snap.Concerts)
	}
}

func TestAllConcertsOrdering(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	older := testConcert()
	older.Date = "2026-01-05"
	newer := testConcert()
	newer.Date = "2026-05-20"
	// Insert newest first to prove ordering comes from dates, not insertion.
	if _, err := repo.AddConcert(ctx, newer); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.AddConcert(ctx, older); err != nil {
		t.Fatal(err)
	}

	concerts, err := repo.AllConcerts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(concerts) != 2 || concerts[0].Date != "2026-05-20" || concerts[1].Date != "2026-01-05" {
		t.Errorf("ordering wrong: %+v", concerts)
	}
}

func TestExpenseLifecycle(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	e := &core.Expense{
		Date:          "2026-03-02",
		Description:   "Cordes",
		Amount:        35.9,
		RefundedTo:    "Paul",
		PaymentMethod: core.MethodCash,
		CreatedAt:     time.Unix(1770000100, 0),
	}
	id, err := repo.AddExpense(ctx, e)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	got, err := repo.GetExpense(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, e) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, e)
	}

	if err := repo.MarkExpenseRefunded(ctx, id); err != nil {
		t.Fatalf("mark refunded: %v", err)
	}
	got, err = repo.GetExpense(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Refunded {
		t.Error("refunded flag not set")
	}

	got.Amount = 42
	if err := repo.UpdateExpense(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := repo.DeleteExpense(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetExpense(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after delete: err = %v", err)
	}
}

func TestInvoiceLifecycle(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	inv := &core.MusicianInvoice{
		MusicianName: "Claire",
		Date:         "2026-03-20",
		Description:  "Mars",
		Amount:       400,
		CreatedAt:    time.Unix(1770000200, 0),
	}
	id, err := repo.AddInvoice(ctx, inv)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	other := &core.MusicianInvoice{
		MusicianName: "Paul",
		Date:         "2026-03-21",
		Description:  "Mars",
		Amount:       250,
		CreatedAt:    time.Unix(1770000300, 0),
	}
	if _, err := repo.AddInvoice(ctx, other); err != nil {
		t.Fatal(err)
	}

	byMusician, err := repo.InvoicesByMusician(ctx, "Claire")
	if err != nil {
		t.Fatal(err)
	}
	if len(byMusician) != 1 || byMusician[0].ID != id {
		t.Errorf("byMusician = %+v", byMusician)
	}

	if err := repo.MarkInvoiceVerified(ctx, id); err != nil {
		t.Fatalf("mark verified: %v", err)
	}
	got, err := repo.GetInvoice(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Verified {
		t.Error("verified flag not set")
	}
}

func TestSnapshotReturnsAllCollections(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	if _, err := repo.AddConcert(ctx, testConcert()); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.AddExpense(ctx, &core.Expense{
		Date: "2026-03-02", Description: "Essence", Amount: 60, RefundedTo: "Marine",
		PaymentMethod: core.MethodTransfer, CreatedAt: time.Unix(1770000400, 0),
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.AddInvoice(ctx, &core.MusicianInvoice{
		MusicianName: "Marine", Date: "2026-03-20", Description: "Mars", Amount: 500,
		CreatedAt: time.Unix(1770000500, 0),
	}); err != nil {
		t.Fatal(err)
	}

	snap, err := repo.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap.Concerts) != 1 || len(snap.Expenses) != 1 || len(snap.Invoices) != 1 {
		t.Errorf("snapshot sizes = %d/%d/%d", len(snap.Concerts), len(snap.Expenses), len(snap.Invoices))
	}
	if len(snap.Concerts[0].Payments) != 2 {
		t.Errorf("snapshot concert lost payments: %+v", snap.Concerts[0])
	}
}

func TestClearAll(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	if _, err := repo.AddConcert(ctx, testConcert()); err != nil {
		t.Fatal(err)
	}
	if err := repo.ClearAll(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	snap, err := repo.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Concerts)+len(snap.Expenses)+len(snap.Invoices) != 0 {
		t.Errorf("collections not empty after clear")
	}
}
