package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/CreativeUnicorns/extprefs"
)

// statusFor maps a Manager or Registry error to an HTTP status.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, extprefs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, extprefs.ErrInvalidInput),
		errors.Is(err, extprefs.ErrTypeMismatch),
		errors.Is(err, extprefs.ErrInvalidValue),
		errors.Is(err, extprefs.ErrSyntax):
		return http.StatusBadRequest
	case errors.Is(err, extprefs.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondWithError is a helper to send JSON error responses.
func (s *Server) respondWithError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	body := map[string]string{"message": message}
	if err != nil {
		body["details"] = err.Error()
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("API Error", "status", status, "message", message, "path", r.URL.Path, "error", err)
	} else {
		s.logger.Debug("API Error", "status", status, "message", message, "path", r.URL.Path, "error", err)
	}
	s.respondWithJSON(w, r, status, map[string]interface{}{"error": body})
}

// respondWithJSON is a helper to send JSON responses.
func (s *Server) respondWithJSON(w http.ResponseWriter, _ *http.Request, status int, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("Failed to marshal JSON response", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"Failed to marshal response"}}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
