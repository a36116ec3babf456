// Package api provides HTTP handlers for the productlens API.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ashureev/productlens/internal/domain"
)

const maxBodyBytes = 1 << 20

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// decodeBody decodes a bounded JSON request body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return err
	}
	return nil
}

// writeServiceError maps service errors to HTTP responses.
func writeServiceError(w http.ResponseWriter, err error, op, sessionID string) {
	var verr *domain.ValidationError
	var perr *domain.PersistenceError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		Error(w, http.StatusNotFound, "session not found")
	case errors.As(err, &verr):
		JSON(w, http.StatusBadRequest, map[string]any{
			"error":  "invalid session data",
			"fields": verr.Fields,
		})
	case errors.As(err, &perr):
		slog.Error("Failed to persist session", "op", op, "session_id", sessionID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to save analysis")
	default:
		slog.Error("Session operation failed", "op", op, "session_id", sessionID, "error", err)
		Error(w, http.StatusInternalServerError, "internal server error")
	}
}
