package http

import (
	"net/http"

	"tesoreria/internal/core"
	applog "tesoreria/internal/log"
)

func (s *Server) handleCreateConcert(w http.ResponseWriter, r *http.Request) {
	var c core.Concert
	if err := decodeJSON(r, &c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c.Location = sanitizeInput(c.Location)
	c.Notes = sanitizeInput(c.Notes)

	id, err := s.budget.AddConcert(r.Context(), &c)
	if err != nil {
		if validationStatus(err) != 0 {
			writeError(w, validationStatus(err), err.Error())
			return
		}
		s.logger.ErrorContext(r.Context(), "Concert create failed",
			applog.FieldOperation, applog.OpCreate, applog.FieldError, err)
		writeStorageError(w, err)
		return
	}

	s.logger.InfoContext(r.Context(), "Concert created",
		applog.FieldConcertID, id,
		applog.FieldDate, c.Date,
		applog.FieldLocation, c.Location)
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleListConcerts(w http.ResponseWriter, r *http.Request) {
	concerts, err := s.budget.ListConcerts(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Concert list failed",
			applog.FieldOperation, applog.OpList, applog.FieldError, err)
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, concerts)
}

func (s *Server) handleGetConcert(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	c, err := s.budget.GetConcert(r.Context(), id)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleUpdateConcert(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var c core.Concert
	if err := decodeJSON(r, &c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c.ID = id
	c.Location = sanitizeInput(c.Location)
	c.Notes = sanitizeInput(c.Notes)

	if err := s.budget.UpdateConcert(r.Context(), &c); err != nil {
		if validationStatus(err) != 0 {
			writeError(w, validationStatus(err), err.Error())
			return
		}
		s.logger.ErrorContext(r.Context(), "Concert update failed",
			applog.FieldOperation, applog.OpUpdate,
			applog.FieldConcertID, id, applog.FieldError, err)
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteConcert(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := s.budget.DeleteConcert(r.Context(), id); err != nil {
		writeStorageError(w, err)
		return
	}
	s.logger.InfoContext(r.Context(), "Concert deleted", applog.FieldConcertID, id)
	w.WriteHeader(http.StatusNoContent)
}

// handleMarkPaymentPaid flips exactly one settlement entry to paid.
func (s *Server) handleMarkPaymentPaid(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	musician := sanitizeInput(r.PathValue("musician"))
	if musician == "" {
		writeError(w, http.StatusBadRequest, "missing musician name")
		return
	}
	if err := s.budget.MarkPaymentPaid(r.Context(), id, musician); err != nil {
		writeStorageError(w, err)
		return
	}
	s.logger.InfoContext(r.Context(), "Payment marked paid",
		applog.FieldConcertID, id, applog.FieldMusician, musician)
	w.WriteHeader(http.StatusNoContent)
}
