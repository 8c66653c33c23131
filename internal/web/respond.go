package web

import (
	"encoding/json"
	"net/http"

	"github.com/rkotak/bookimport/internal/logging"
)

// errorResponse is the JSON error body for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("encode response", "error", err)
	}
}

// writeError logs the failure with request context and returns a JSON error
// body to the client.
func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path, "method", r.Method, "status", status, "message", message)
	writeJSON(w, r, status, errorResponse{Error: message})
}
