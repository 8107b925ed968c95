package http

import (
	"errors"
	"net/http"

	"tesoreria/internal/core"
	applog "tesoreria/internal/log"
	"tesoreria/internal/services"
)

// handlePayrollCalculate runs the allocator on a posted roster and returns
// the full breakdown. Nothing is persisted.
func (s *Server) handlePayrollCalculate(w http.ResponseWriter, r *http.Request) {
	var req services.PayrollRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	outcome, err := s.payroll.Run(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNoMusicians), errors.Is(err, core.ErrNegativeAmount):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			s.logger.ErrorContext(r.Context(), "Payroll calculation failed",
				applog.FieldOperation, applog.OpCalculate,
				applog.FieldError, err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	s.logger.InfoContext(r.Context(), "Payroll calculated",
		applog.FieldOperation, applog.OpCalculate,
		applog.FieldGrossAmount, outcome.Result.GrossAmount,
		"musicians", len(outcome.Result.Payments),
		"reconciled", outcome.Reconciled)
	writeJSON(w, http.StatusOK, outcome)
}
