package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/librarydesk/lms/internal/library"
	"go.uber.org/zap"
)

// Envelope is the JSON body of every response except the read API
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}, log *zap.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error("Failed to encode JSON response", zap.Error(err))
	}
}

func (s *Server) ok(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, Envelope{Success: true, Data: data}, s.log)
}

func (s *Server) created(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusCreated, Envelope{Success: true, Data: data}, s.log)
}

func (s *Server) fail(w http.ResponseWriter, status int, message string, details interface{}) {
	writeJSON(w, status, Envelope{Success: false, Error: message, Details: details}, s.log)
}

// handleError maps service errors to HTTP statuses
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var validation *library.ValidationError
	switch {
	case errors.As(err, &validation):
		s.fail(w, http.StatusBadRequest, validation.Message, validation)
	case errors.Is(err, library.ErrNotFound):
		s.fail(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, library.ErrUsernameTaken):
		s.fail(w, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, library.ErrInvalidCredentials):
		s.fail(w, http.StatusUnauthorized, err.Error(), nil)
	default:
		s.log.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		s.fail(w, http.StatusInternalServerError, "internal server error", nil)
	}
}
