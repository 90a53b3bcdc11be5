// Package shared holds the response helpers used by every HTTP handler.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "complyline/pkg/domain-errors"
)

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes v as the JSON response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a coded error onto its HTTP status and writes the standard
// error body. Errors without a code come out as 500 internal.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := dErrors.HTTPStatus(code)
	message := err.Error()
	if status == http.StatusInternalServerError {
		// Do not leak internals to clients.
		message = "internal error"
	}
	WriteJSON(w, status, ErrorResponse{Error: string(code), Message: message})
}
