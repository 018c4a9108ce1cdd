package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return body
}

func TestWriteJSON_ExactShape(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusTeapot, map[string]string{"message": "hi"})

	if rec.Code != http.StatusTeapot {
		t.Errorf("Expected status 418, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected Content-Type 'application/json', got '%s'", ct)
	}
	body := decodeBody(t, rec)
	if len(body) != 1 || body["message"] != "hi" {
		t.Errorf("Expected body {message: hi}, got %v", body)
	}
}

func TestRespondJSON_Envelope(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	respondJSON(rec, http.StatusOK, []string{"a", "b"})

	body := decodeBody(t, rec)
	if body["success"] != true {
		t.Error("Expected success to be true")
	}
	if data, ok := body["data"].([]any); !ok || len(data) != 2 {
		t.Errorf("Expected two-element data array, got %v", body["data"])
	}
	ts, _ := body["timestamp"].(string)
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		t.Errorf("Expected RFC3339 timestamp, got %q", ts)
	}
}

func TestRespondJSONError_TruncatesMessage(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	respondJSONError(rec, http.StatusBadGateway, "Bad Gateway", strings.Repeat("x", 300))

	if rec.Code != http.StatusBadGateway {
		t.Errorf("Expected status 502, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if len(body) != 2 || body["error"] != "Bad Gateway" {
		t.Errorf("Unexpected envelope %v", body)
	}
	if details, _ := body["details"].(string); len(details) != 203 {
		t.Errorf("Expected details truncated to 203 chars, got %d", len(details))
	}
}

func TestSanitizeErrorMessage_KeepsRunesWhole(t *testing.T) {
	t.Parallel()
	msg := sanitizeErrorMessage(strings.Repeat("é", 250))

	if !utf8.ValidString(msg) {
		t.Fatalf("Expected valid UTF-8, got %q", msg)
	}
	if n := utf8.RuneCountInString(msg); n != 203 {
		t.Errorf("Expected 203 runes, got %d", n)
	}
}
