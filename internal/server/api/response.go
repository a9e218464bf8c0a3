// Package api provides the HTTP handlers for templates, their samples and
// actions, and recognition.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ayusman/unistroke/internal/gesture"
	"github.com/ayusman/unistroke/internal/plugin"
	"github.com/ayusman/unistroke/internal/store"
)

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// methodNotAllowed answers a request whose path has routes but none for
// its method.
func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, plugin.ErrPluginNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrConflict), errors.Is(err, gesture.ErrNoTemplates):
		return http.StatusConflict
	case errors.Is(err, gesture.ErrInsufficientPoints),
		errors.Is(err, gesture.ErrEmptyPath),
		errors.Is(err, gesture.ErrInvalidName),
		errors.Is(err, plugin.ErrUnsupportedAction):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// writeDomainError writes err with the status statusFor picks. Internal
// errors are reported with a fixed message.
func writeDomainError(w http.ResponseWriter, err error, internal string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		writeError(w, status, internal)
		return
	}
	writeError(w, status, err.Error())
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

// decodeJSON decodes a request body, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// maxBodyBytes bounds request bodies; a stroke is a few kilobytes.
const maxBodyBytes = 8 << 20
