package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"tesoreria/internal/core"
	"tesoreria/internal/storage"
)

// jsonAmount accepts a monetary field either as a JSON number or as the
// string form users type, with dot or comma decimal separator ("12,50").
// String values go through core.ParseAmount and share its validation.
type jsonAmount float64

func (a *jsonAmount) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := core.ParseAmount(s)
		if err != nil {
			return err
		}
		*a = jsonAmount(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*a = jsonAmount(v)
	return nil
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Response encoding failed", "error", err)
	}
}

// writeError sends a JSON error payload.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStorageError maps storage errors onto HTTP statuses.
func writeStorageError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}
	writeError(w, http.StatusInternalServerError, "internal error")
}

// validationStatus returns 422 for record validation errors, 0 otherwise.
func validationStatus(err error) int {
	for _, sentinel := range []error{
		core.ErrInvalidDate, core.ErrNegativeAmount, core.ErrInvalidAmount,
		core.ErrEmptyLocation, core.ErrEmptyName, core.ErrEmptyDescription,
		core.ErrInvalidMethod,
	} {
		if errors.Is(err, sentinel) {
			return http.StatusUnprocessableEntity
		}
	}
	return 0
}

// decodeJSON reads the request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// pathID parses the {id} path segment as an int64.
func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
