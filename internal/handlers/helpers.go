// File: internal/handlers/helpers.go
package handlers

import (
	"encoding/json"
	"net/http"

	chatsvc "github.com/partshub/chat-service/internal/services/chat"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError is a helper for sending JSON error responses.
func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeDomainError maps a service error to an HTTP status. Internal
// causes stay in the logs; the caller only ever sees the public message.
func writeDomainError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch chatsvc.TypeOf(err) {
	case chatsvc.ErrTypeNotFound:
		status = http.StatusNotFound
	case chatsvc.ErrTypeBadRequest:
		status = http.StatusBadRequest
	case chatsvc.ErrTypeAccessDenied:
		status = http.StatusForbidden
	case chatsvc.ErrTypeConflict:
		status = http.StatusConflict
	}
	writeError(w, chatsvc.PublicMessage(err), status)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}
