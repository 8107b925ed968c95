package http

import (
	"net/http"

	applog "tesoreria/internal/log"
)

// handleBudgetSummary recomputes the global summary from the raw
// collections on every call.
func (s *Server) handleBudgetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.ledger.Summary(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Summary computation failed",
			applog.FieldOperation, applog.OpRead, applog.FieldError, err)
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleMusicianBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := s.ledger.MusicianBalances(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Balance computation failed",
			applog.FieldOperation, applog.OpRead, applog.FieldError, err)
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balances)
}
