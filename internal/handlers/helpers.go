package handlers

import (
	"encoding/json"
	"net/http"
	"time"
	"unicode/utf8"
)

// writeJSON sends body as-is. Used where the frontend depends on an exact shape.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// respondJSON sends a JSON response wrapped in the success envelope
func respondJSON(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, map[string]any{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

const maxErrorMessageRunes = 200

// sanitizeErrorMessage bounds generic error messages returned to clients
// without splitting a UTF-8 sequence.
func sanitizeErrorMessage(message string) string {
	if utf8.RuneCountInString(message) <= maxErrorMessageRunes {
		return message
	}
	return string([]rune(message)[:maxErrorMessageRunes]) + "..."
}

// respondJSONError sends the {error, details} body with bounded details.
func respondJSONError(w http.ResponseWriter, status int, summary, details string) {
	writeJSON(w, status, map[string]string{
		"error":   summary,
		"details": sanitizeErrorMessage(details),
	})
}
