// Package web holds the JSON response shapes shared by the delivery services.
// Success bodies carry a message next to named fields; error bodies carry an
// error string with optional details.
package web

import (
	"encoding/json"
	"net/http"
)

// MaxBodyBytes caps request bodies read by handlers.
const MaxBodyBytes = 1 << 20

// Body is a success payload. Message is merged with Fields.
type Body map[string]any

// ErrorBody is the failure payload.
type ErrorBody struct {
	Error   string `json:"error"`
	Reason  string `json:"reason,omitempty"`
	Details any    `json:"details,omitempty"`
}

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Message writes {message, ...fields}.
func Message(w http.ResponseWriter, status int, message string, fields Body) {
	body := Body{"message": message}
	for k, v := range fields {
		body[k] = v
	}
	JSON(w, status, body)
}

// Error writes {error}.
func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, ErrorBody{Error: msg})
}

// ErrorDetails writes {error, details}.
func ErrorDetails(w http.ResponseWriter, status int, msg string, details any) {
	JSON(w, status, ErrorBody{Error: msg, Details: details})
}

// ErrorReason writes {error, reason}.
func ErrorReason(w http.ResponseWriter, status int, msg, reason string) {
	JSON(w, status, ErrorBody{Error: msg, Reason: reason})
}
