package http

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"strings"

	"tesoreria/internal/core"
	"tesoreria/internal/ledger"
	applog "tesoreria/internal/log"
)

// transactionFilter builds a ledger filter from query parameters. All
// parameters are optional and combine conjunctively.
func transactionFilter(r *http.Request) (ledger.Filter, error) {
	q := r.URL.Query()
	f := ledger.Filter{
		Musician:  strings.TrimSpace(q.Get("musician")),
		StartDate: strings.TrimSpace(q.Get("startDate")),
		EndDate:   strings.TrimSpace(q.Get("endDate")),
	}

	if v := strings.TrimSpace(q.Get("type")); v != "" {
		typ := core.TransactionType(v)
		if !typ.IsValid() {
			return ledger.Filter{}, errInvalidParam{"type", v}
		}
		f.Type = typ
	}
	if v := strings.TrimSpace(q.Get("status")); v != "" {
		if v != string(core.StatusCompleted) && v != string(core.StatusPending) {
			return ledger.Filter{}, errInvalidParam{"status", v}
		}
		f.Status = core.TransactionStatus(v)
	}
	if f.StartDate != "" {
		if err := core.ValidateISODate(f.StartDate); err != nil {
			return ledger.Filter{}, errInvalidParam{"startDate", f.StartDate}
		}
	}
	if f.EndDate != "" {
		if err := core.ValidateISODate(f.EndDate); err != nil {
			return ledger.Filter{}, errInvalidParam{"endDate", f.EndDate}
		}
	}
	return f, nil
}

type errInvalidParam struct {
	name  string
	value string
}

func (e errInvalidParam) Error() string {
	return "invalid " + e.name + " parameter: " + e.value
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := transactionFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	txs, err := s.ledger.FilterTransactions(r.Context(), f)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Transaction query failed",
			applog.FieldOperation, applog.OpList, applog.FieldError, err)
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleTransactionStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.ledger.Stats(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Stats computation failed",
			applog.FieldOperation, applog.OpRead, applog.FieldError, err)
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleExportTransactions streams the filtered transaction log as CSV.
func (s *Server) handleExportTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := transactionFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	txs, err := s.ledger.FilterTransactions(r.Context(), f)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Transaction export failed",
			applog.FieldOperation, applog.OpExport, applog.FieldError, err)
		writeStorageError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"id", "date", "type", "description", "amount", "paymentMethod", "relatedMusician", "relatedConcert", "isIncome", "status"})
	for _, t := range txs {
		_ = cw.Write([]string{
			t.ID,
			t.Date,
			string(t.Type),
			t.Description,
			strconv.FormatFloat(t.Amount, 'f', 2, 64),
			string(t.PaymentMethod),
			t.RelatedMusician,
			t.RelatedConcert,
			strconv.FormatBool(t.IsIncome),
			string(t.Status),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		s.logger.ErrorContext(r.Context(), "CSV write failed",
			applog.FieldOperation, applog.OpExport, applog.FieldError, err)
	}
	s.logger.InfoContext(r.Context(), "Transactions exported",
		applog.FieldOperation, applog.OpExport,
		applog.FieldTxCount, len(txs))
}
