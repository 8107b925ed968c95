// Package http exposes the treasury over a JSON API. All derived views
// (summary, balances, transactions) are computed fresh on every request.
package http

import (
	"context"
	"net/http"
	"sync"

	"tesoreria/internal/auth"
	"tesoreria/internal/ledger"
	applog "tesoreria/internal/log"
	"tesoreria/internal/middleware/ratelimit"
	"tesoreria/internal/middleware/trace"
	"tesoreria/internal/services"
)

type Server struct {
	http.Server

	payroll *services.PayrollService
	budget  *services.BudgetService
	ledger  *ledger.Ledger
	gate    *auth.Gate
	logger  *applog.Logger

	limiter      *ratelimit.Limiter
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, payroll *services.PayrollService, budget *services.BudgetService, lgr *ledger.Ledger, gate *auth.Gate, logger *applog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		payroll: payroll,
		budget:  budget,
		ledger:  lgr,
		gate:    gate,
		logger:  logger.WithComponent(applog.ComponentHTTP),
		limiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("POST /api/logout", s.handleLogout)

	api := http.NewServeMux()

	api.HandleFunc("POST /api/payroll/calculate", s.handlePayrollCalculate)

	api.HandleFunc("POST /api/concerts", s.handleCreateConcert)
	api.HandleFunc("GET /api/concerts", s.handleListConcerts)
	api.HandleFunc("GET /api/concerts/{id}", s.handleGetConcert)
	api.HandleFunc("PUT /api/concerts/{id}", s.handleUpdateConcert)
	api.HandleFunc("DELETE /api/concerts/{id}", s.handleDeleteConcert)
	api.HandleFunc("POST /api/concerts/{id}/payments/{musician}/paid", s.handleMarkPaymentPaid)

	api.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	api.HandleFunc("GET /api/expenses", s.handleListExpenses)
	api.HandleFunc("PUT /api/expenses/{id}", s.handleUpdateExpense)
	api.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)
	api.HandleFunc("POST /api/expenses/{id}/refunded", s.handleMarkExpenseRefunded)

	api.HandleFunc("POST /api/invoices", s.handleCreateInvoice)
	api.HandleFunc("GET /api/invoices", s.handleListInvoices)
	api.HandleFunc("PUT /api/invoices/{id}", s.handleUpdateInvoice)
	api.HandleFunc("DELETE /api/invoices/{id}", s.handleDeleteInvoice)
	api.HandleFunc("POST /api/invoices/{id}/verified", s.handleMarkInvoiceVerified)

	api.HandleFunc("GET /api/budget/summary", s.handleBudgetSummary)
	api.HandleFunc("GET /api/budget/balances", s.handleMusicianBalances)

	api.HandleFunc("GET /api/transactions", s.handleListTransactions)
	api.HandleFunc("GET /api/transactions/stats", s.handleTransactionStats)
	api.HandleFunc("GET /api/transactions/export", s.handleExportTransactions)

	mux.Handle("/api/", gate.Middleware(api))

	chain := trace.Middleware(s.logger.Logger)(
		s.limiter.Middleware(trace.ClientIP)(mux))

	s.Server = http.Server{
		Addr:    addr,
		Handler: chain,
	}
	return s
}

// Shutdown stops the limiter cleanup goroutine and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

type loginRequest struct {
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	token, err := s.gate.Login(req.Password)
	if err != nil {
		s.logger.WarnContext(r.Context(), "Login rejected", "remote", trace.ClientIP(r))
		writeError(w, http.StatusUnauthorized, "invalid password")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if h := r.Header.Get("Authorization"); len(h) > 7 && h[:7] == "Bearer " {
		s.gate.Logout(h[7:])
	}
	w.WriteHeader(http.StatusNoContent)
}
