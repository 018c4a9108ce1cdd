package turnstile

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifier_NoSecretSkips(t *testing.T) {
	t.Parallel()
	v := NewVerifier("", "")
	assert.False(t, v.Enabled())

	res, err := v.Verify(context.Background(), "token", "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.True(t, res.Skipped)
}

func TestVerifier_Success(t *testing.T) {
	t.Parallel()

	var got verifyRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"challenge_ts":"2026-03-01T12:00:00.000Z","hostname":"example.com","error-codes":[]}`))
	}))
	defer srv.Close()

	res, err := NewVerifier("secret", srv.URL).Verify(context.Background(), "tok", "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.False(t, res.Skipped)
	assert.Equal(t, "example.com", res.Hostname)
	assert.Equal(t, verifyRequest{Secret: "secret", Response: "tok", RemoteIP: "1.2.3.4"}, got)
}

func TestVerifier_Failure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// siteverify answers failures with 200 and a JSON body
		_, _ = w.Write([]byte(`{"success":false,"error-codes":["invalid-input-response"]}`))
	}))
	defer srv.Close()

	res, err := NewVerifier("secret", srv.URL).Verify(context.Background(), "bad", "")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, []string{"invalid-input-response"}, res.ErrorCodes)
}

func TestVerifier_TransportError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewVerifier("secret", srv.URL).Verify(context.Background(), "tok", "")
	assert.Error(t, err)
}
