package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tesoreria/internal/auth"
	"tesoreria/internal/core"
	"tesoreria/internal/ledger"
	applog "tesoreria/internal/log"
	"tesoreria/internal/services"
	"tesoreria/internal/storage"
)

func testServer(t *testing.T, password string) *Server {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	srv := NewServer(":0",
		services.NewPayrollService(),
		services.NewBudgetService(repo, nil),
		ledger.New(repo),
		auth.NewGate(password, time.Hour),
		applog.New(applog.DefaultConfig()),
	)
	t.Cleanup(func() { srv.limiter.Stop() })
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	srv := testServer(t, "")
	if rec := doJSON(t, srv, http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK {
		t.Errorf("healthz = %d", rec.Code)
	}
	if rec := doJSON(t, srv, http.MethodGet, "/readyz", nil); rec.Code != http.StatusOK {
		t.Errorf("readyz = %d", rec.Code)
	}
}

func TestPayrollCalculateEndpoint(t *testing.T) {
	srv := testServer(t, "")
	req := services.PayrollRequest{
		GrossAmount: 1500,
		FinderName:  "Marine",
		Musicians: []services.RosterEntry{
			{Name: "Antoine", SeniorityYears: 4, IsDriver: true},
			{Name: "Benoît", SeniorityYears: 4, IsDriver: true},
			{Name: "Claire", SeniorityYears: 4},
			{Name: "Marine", SeniorityYears: 2, IsDriver: true},
			{Name: "Paul", SeniorityYears: 1},
			{Name: "Sophie", SeniorityYears: 0},
		},
	}
	rec := doJSON(t, srv, http.MethodPost, "/api/payroll/calculate", req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var outcome services.PayrollOutcome
	if err := json.NewDecoder(rec.Body).Decode(&outcome); err != nil {
		t.Fatal(err)
	}
	if outcome.Result.EqualSharePerPerson != 211 || !outcome.Reconciled {
		t.Errorf("outcome = %+v", outcome)
	}

	// Empty roster is a client error, not a server one.
	rec = doJSON(t, srv, http.MethodPost, "/api/payroll/calculate", services.PayrollRequest{GrossAmount: 100})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("empty roster status = %d", rec.Code)
	}
}

func TestConcertEndpoints(t *testing.T) {
	srv := testServer(t, "")

	concert := core.Concert{
		Date:       "2026-03-14",
		Location:   "Lorient",
		CashAmount: 500,
		Payments: []core.ConcertPayment{
			{MusicianName: "Marine", Amount: 150, PaymentMethod: core.MethodCash},
		},
	}
	rec := doJSON(t, srv, http.MethodPost, "/api/concerts", concert)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var created core.Concert
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	if created.ID == 0 || created.TotalAmount != 500 {
		t.Errorf("created = %+v", created)
	}

	if rec := doJSON(t, srv, http.MethodGet, "/api/concerts", nil); rec.Code != http.StatusOK {
		t.Errorf("list status = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/concerts/1/payments/Marine/paid", nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("mark paid status = %d, body = %s", rec.Code, rec.Body.String())
	}

	// Derived views see the write immediately.
	rec = doJSON(t, srv, http.MethodGet, "/api/budget/summary", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary status = %d", rec.Code)
	}
	var summary core.BudgetSummary
	if err := json.NewDecoder(rec.Body).Decode(&summary); err != nil {
		t.Fatal(err)
	}
	if summary.TotalRevenue != 500 || summary.TotalPaidOut != 150 {
		t.Errorf("summary = %+v", summary)
	}

	if rec := doJSON(t, srv, http.MethodGet, "/api/concerts/99", nil); rec.Code != http.StatusNotFound {
		t.Errorf("missing concert status = %d", rec.Code)
	}
	if rec := doJSON(t, srv, http.MethodPost, "/api/concerts", core.Concert{Date: "bad", Location: "X"}); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid concert status = %d", rec.Code)
	}
}

func TestExpenseAmountAcceptsCommaString(t *testing.T) {
	srv := testServer(t, "")

	rec := doJSON(t, srv, http.MethodPost, "/api/expenses", map[string]any{
		"date": "2026-03-02", "description": "Cordes", "amount": "12,50",
		"refundedTo": "Sophie", "paymentMethod": "cash",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	var e core.Expense
	if err := json.NewDecoder(rec.Body).Decode(&e); err != nil {
		t.Fatal(err)
	}
	if e.Amount != 12.5 {
		t.Errorf("amount = %v, want 12.5", e.Amount)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/expenses", map[string]any{
		"date": "2026-03-02", "description": "Cordes", "amount": "douze",
		"refundedTo": "Sophie", "paymentMethod": "cash",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("garbled amount status = %d", rec.Code)
	}
}

func TestTransactionEndpoints(t *testing.T) {
	srv := testServer(t, "")

	doJSON(t, srv, http.MethodPost, "/api/concerts", core.Concert{
		Date: "2026-03-14", Location: "Lorient", CashAmount: 500,
		Payments: []core.ConcertPayment{
			{MusicianName: "Marine", Amount: 150, PaymentMethod: core.MethodCash},
		},
	})
	doJSON(t, srv, http.MethodPost, "/api/expenses", core.Expense{
		Date: "2026-03-02", Description: "Cordes", Amount: 40,
		RefundedTo: "Sophie", PaymentMethod: core.MethodCash,
	})

	rec := doJSON(t, srv, http.MethodGet, "/api/transactions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var txs []core.Transaction
	if err := json.NewDecoder(rec.Body).Decode(&txs); err != nil {
		t.Fatal(err)
	}
	if len(txs) != 3 {
		t.Errorf("got %d transactions", len(txs))
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/transactions?musician=Marine&status=pending", nil)
	var filtered []core.Transaction
	if err := json.NewDecoder(rec.Body).Decode(&filtered); err != nil {
		t.Fatal(err)
	}
	if len(filtered) != 1 || filtered[0].ID != "payment-1-Marine" {
		t.Errorf("filtered = %+v", filtered)
	}

	if rec := doJSON(t, srv, http.MethodGet, "/api/transactions?type=bogus", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("bad type status = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/transactions/export", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("export content type = %q", ct)
	}
	if lines := strings.Count(strings.TrimSpace(rec.Body.String()), "\n"); lines != 3 {
		t.Errorf("export has %d data lines, want 3", lines)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/transactions/stats", nil)
	var stats core.TransactionStats
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatal(err)
	}
	if stats.TransactionCount != 3 || stats.TotalIncome != 500 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestAuthGateOnAPI(t *testing.T) {
	srv := testServer(t, "secret")

	if rec := doJSON(t, srv, http.MethodGet, "/api/concerts", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d", rec.Code)
	}
	// Health stays open.
	if rec := doJSON(t, srv, http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d", rec.Code)
	}

	rec := doJSON(t, srv, http.MethodPost, "/api/login", map[string]string{"password": "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong password status = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/login", map[string]string{"password": "secret"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d", rec.Code)
	}
	var login struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&login); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/concerts", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	out := httptest.NewRecorder()
	srv.Handler.ServeHTTP(out, req)
	if out.Code != http.StatusOK {
		t.Errorf("authenticated status = %d, body = %s", out.Code, out.Body.String())
	}
}
