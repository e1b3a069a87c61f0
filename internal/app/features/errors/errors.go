// internal/app/features/errors/errors.go
package errors

import (
	"encoding/json"
	"net/http"
)

// errorBody is the JSON envelope every error response uses.
type errorBody struct {
	Error string `json:"error"`
}

// Render writes a JSON error with the given status code.
func Render(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: msg})
}

// RenderUnauthorized writes a 401 "sign in required" error.
func RenderUnauthorized(w http.ResponseWriter, r *http.Request) {
	Render(w, http.StatusUnauthorized, "sign in required")
}

// RenderForbidden writes a 403 error with the given message.
func RenderForbidden(w http.ResponseWriter, r *http.Request, msg string) {
	if msg == "" {
		msg = "forbidden"
	}
	Render(w, http.StatusForbidden, msg)
}

// RenderNotFound writes a 404 error with the given message.
func RenderNotFound(w http.ResponseWriter, r *http.Request, msg string) {
	if msg == "" {
		msg = "not found"
	}
	Render(w, http.StatusNotFound, msg)
}
