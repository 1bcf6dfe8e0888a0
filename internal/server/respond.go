package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/mrahman/messbook/internal/service"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
}

// writeError maps the service error taxonomy onto HTTP statuses. Unknown
// errors become 500 with a generic body; the detail goes to the log only.
func writeError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrNoOpenCycle):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrDuplicate),
		errors.Is(err, service.ErrCycleClosed),
		errors.Is(err, service.ErrAlreadyFinalized):
		status = http.StatusConflict
	case errors.Is(err, service.ErrMealLocked):
		status = http.StatusLocked
	default:
		slog.Error("internal error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// decode parses the JSON body into v and runs struct validation.
func (s *Server) decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Join(service.ErrInvalidInput, err)
	}
	if err := s.validate.Struct(v); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return err
		}
		return errors.Join(service.ErrInvalidInput, err)
	}
	return nil
}
