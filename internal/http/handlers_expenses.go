package http

import (
	"net/http"

	"tesoreria/internal/core"
	applog "tesoreria/internal/log"
)

// expenseRequest shadows the amount so hand-typed values like "12,50"
// are accepted alongside JSON numbers.
type expenseRequest struct {
	core.Expense
	Amount jsonAmount `json:"amount"`
}

func (req expenseRequest) record() core.Expense {
	e := req.Expense
	e.Amount = float64(req.Amount)
	return e
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	e := req.record()
	e.Description = sanitizeInput(e.Description)
	e.RefundedTo = sanitizeInput(e.RefundedTo)
	e.Notes = sanitizeInput(e.Notes)

	id, err := s.budget.AddExpense(r.Context(), &e)
	if err != nil {
		if status := validationStatus(err); status != 0 {
			writeError(w, status, err.Error())
			return
		}
		s.logger.ErrorContext(r.Context(), "Expense create failed",
			applog.FieldOperation, applog.OpCreate, applog.FieldError, err)
		writeStorageError(w, err)
		return
	}

	s.logger.InfoContext(r.Context(), "Expense created",
		applog.FieldExpenseID, id,
		applog.FieldAmount, e.Amount,
		applog.FieldMusician, e.RefundedTo)
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.budget.ListExpenses(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Expense list failed",
			applog.FieldOperation, applog.OpList, applog.FieldError, err)
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, expenses)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	e := req.record()
	e.ID = id
	e.Description = sanitizeInput(e.Description)
	e.RefundedTo = sanitizeInput(e.RefundedTo)
	e.Notes = sanitizeInput(e.Notes)

	if err := s.budget.UpdateExpense(r.Context(), &e); err != nil {
		if status := validationStatus(err); status != 0 {
			writeError(w, status, err.Error())
			return
		}
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := s.budget.DeleteExpense(r.Context(), id); err != nil {
		writeStorageError(w, err)
		return
	}
	s.logger.InfoContext(r.Context(), "Expense deleted", applog.FieldExpenseID, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMarkExpenseRefunded(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := s.budget.MarkExpenseRefunded(r.Context(), id); err != nil {
		writeStorageError(w, err)
		return
	}
	s.logger.InfoContext(r.Context(), "Expense marked refunded", applog.FieldExpenseID, id)
	w.WriteHeader(http.StatusNoContent)
}
