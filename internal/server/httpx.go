package server

import (
	"encoding/json"
	"log"
	"net/http"
)

// messageResponse is the generic JSON body for non-payload responses.
type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("server: write response: %v", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageResponse{Message: message})
}

// writeValidationFailed reports field-level validation errors. fields must be
// JSON-serializable objects with field and message keys.
func writeValidationFailed(w http.ResponseWriter, fields any) {
	writeJSON(w, http.StatusBadRequest, map[string]any{"errors": fields})
}

// writeUnauthenticated is the uniform 401 for requests with no usable
// identity. It never says whether a session or token was present.
func writeUnauthenticated(w http.ResponseWriter) {
	writeMessage(w, http.StatusUnauthorized, "authentication required")
}

// writeInvalidCredentials is the uniform 401 for failed logins regardless of
// which credential field was wrong.
func writeInvalidCredentials(w http.ResponseWriter) {
	writeMessage(w, http.StatusUnauthorized, "invalid credentials")
}

// writeForbiddenForgery rejects unsafe requests that fail double-submit
// verification.
func writeForbiddenForgery(w http.ResponseWriter) {
	writeMessage(w, http.StatusForbidden, "invalid csrf token")
}

func writeForbidden(w http.ResponseWriter) {
	writeMessage(w, http.StatusForbidden, "forbidden")
}

func writeNotFound(w http.ResponseWriter, message string) {
	writeMessage(w, http.StatusNotFound, message)
}

func writeConflict(w http.ResponseWriter, message string) {
	writeMessage(w, http.StatusConflict, message)
}

// writeInternal logs the real error server-side and returns a generic body.
func writeInternal(w http.ResponseWriter, err error) {
	log.Printf("server: internal error: %v", err)
	writeMessage(w, http.StatusInternalServerError, "server error")
}
