package http

import (
	"net/http"
	"strings"

	"tesoreria/internal/core"
	applog "tesoreria/internal/log"
)

// invoiceRequest shadows the amount so hand-typed values like "12,50"
// are accepted alongside JSON numbers.
type invoiceRequest struct {
	core.MusicianInvoice
	Amount jsonAmount `json:"amount"`
}

func (req invoiceRequest) record() core.MusicianInvoice {
	inv := req.MusicianInvoice
	inv.Amount = float64(req.Amount)
	return inv
}

func (s *Server) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req invoiceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	inv := req.record()
	inv.MusicianName = sanitizeInput(inv.MusicianName)
	inv.Description = sanitizeInput(inv.Description)
	inv.Notes = sanitizeInput(inv.Notes)

	id, err := s.budget.AddInvoice(r.Context(), &inv)
	if err != nil {
		if status := validationStatus(err); status != 0 {
			writeError(w, status, err.Error())
			return
		}
		s.logger.ErrorContext(r.Context(), "Invoice create failed",
			applog.FieldOperation, applog.OpCreate, applog.FieldError, err)
		writeStorageError(w, err)
		return
	}

	s.logger.InfoContext(r.Context(), "Invoice created",
		applog.FieldInvoiceID, id,
		applog.FieldMusician, inv.MusicianName,
		applog.FieldAmount, inv.Amount)
	writeJSON(w, http.StatusCreated, inv)
}

// handleListInvoices lists all invoices, or one musician's with ?musician=.
func (s *Server) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	var (
		invoices []core.MusicianInvoice
		err      error
	)
	if name := strings.TrimSpace(r.URL.Query().Get("musician")); name != "" {
		invoices, err = s.budget.ListInvoicesByMusician(r.Context(), name)
	} else {
		invoices, err = s.budget.ListInvoices(r.Context())
	}
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Invoice list failed",
			applog.FieldOperation, applog.OpList, applog.FieldError, err)
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, invoices)
}

func (s *Server) handleUpdateInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req invoiceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	inv := req.record()
	inv.ID = id
	inv.MusicianName = sanitizeInput(inv.MusicianName)
	inv.Description = sanitizeInput(inv.Description)
	inv.Notes = sanitizeInput(inv.Notes)

	if err := s.budget.UpdateInvoice(r.Context(), &inv); err != nil {
		if status := validationStatus(err); status != 0 {
			writeError(w, status, err.Error())
			return
		}
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (s *Server) handleDeleteInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := s.budget.DeleteInvoice(r.Context(), id); err != nil {
		writeStorageError(w, err)
		return
	}
	s.logger.InfoContext(r.Context(), "Invoice deleted", applog.FieldInvoiceID, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMarkInvoiceVerified(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := s.budget.MarkInvoiceVerified(r.Context(), id); err != nil {
		writeStorageError(w, err)
		return
	}
	s.logger.InfoContext(r.Context(), "Invoice marked verified", applog.FieldInvoiceID, id)
	w.WriteHeader(http.StatusNoContent)
}
