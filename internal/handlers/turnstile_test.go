package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/benvon/portfolio-api/internal/services/turnstile"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVerifier struct {
	result   *turnstile.Result
	err      error
	token    string
	remoteIP string
}

func (f *fakeVerifier) Verify(_ context.Context, token, remoteIP string) (*turnstile.Result, error) {
	f.token, f.remoteIP = token, remoteIP
	return f.result, f.err
}

func postTurnstile(v TokenVerifier, body string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	NewTurnstileHandler(v, nil).RegisterRoutes(r)
	req := httptest.NewRequest(http.MethodPost, "/api/verify-turnstile", strings.NewReader(body))
	req.Header.Set("CF-Connecting-IP", "203.0.113.7")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestTurnstileHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		verifier *fakeVerifier
		status   int
		want     map[string]any
	}{
		{
			name:     "missing token",
			body:     `{}`,
			verifier: &fakeVerifier{},
			status:   http.StatusBadRequest,
			want:     map[string]any{"success": false, "error": "Token is required"},
		},
		{
			name:     "malformed body",
			body:     `{"token":`,
			verifier: &fakeVerifier{},
			status:   http.StatusBadRequest,
			want:     map[string]any{"success": false, "error": "Token is required"},
		},
		{
			name:     "secret not configured",
			body:     `{"token":"abc"}`,
			verifier: &fakeVerifier{result: &turnstile.Result{Success: true, Skipped: true}},
			status:   http.StatusOK,
			want:     map[string]any{"success": true, "message": "Secret key not configured"},
		},
		{
			name: "verified",
			body: `{"token":"abc"}`,
			verifier: &fakeVerifier{result: &turnstile.Result{
				Success: true, ChallengeTS: "2026-03-01T12:00:00Z", Hostname: "example.com",
			}},
			status: http.StatusOK,
			want:   map[string]any{"success": true, "challenge_ts": "2026-03-01T12:00:00Z", "hostname": "example.com"},
		},
		{
			name:     "rejected",
			body:     `{"token":"abc"}`,
			verifier: &fakeVerifier{result: &turnstile.Result{ErrorCodes: []string{"invalid-input-response"}}},
			status:   http.StatusBadRequest,
			want: map[string]any{
				"success":     false,
				"error":       "Token verification failed",
				"error-codes": []any{"invalid-input-response"},
			},
		},
		{
			name:     "transport error",
			body:     `{"token":"abc"}`,
			verifier: &fakeVerifier{err: errors.New("dial tcp: timeout")},
			status:   http.StatusInternalServerError,
			want:     map[string]any{"success": false, "error": "Internal server error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := postTurnstile(tt.verifier, tt.body)
			require.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.want, decodeBody(t, rec))
		})
	}
}

func TestTurnstileHandler_PassesClientIP(t *testing.T) {
	t.Parallel()
	v := &fakeVerifier{result: &turnstile.Result{Success: true}}
	postTurnstile(v, `{"token":"tok"}`)
	assert.Equal(t, "tok", v.token)
	assert.Equal(t, "203.0.113.7", v.remoteIP)
}
