package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/benvon/portfolio-api/internal/request"
	"github.com/benvon/portfolio-api/internal/services/turnstile"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const maxTurnstileBodyBytes = 4 << 10

// TokenVerifier checks a Turnstile token for a client.
type TokenVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) (*turnstile.Result, error)
}

// TurnstileHandler serves POST /api/verify-turnstile.
type TurnstileHandler struct {
	verifier TokenVerifier
	logger   *zap.Logger
}

// NewTurnstileHandler creates a new turnstile handler
func NewTurnstileHandler(verifier TokenVerifier, logger *zap.Logger) *TurnstileHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TurnstileHandler{verifier: verifier, logger: logger}
}

// RegisterRoutes registers turnstile routes
func (h *TurnstileHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/verify-turnstile", h.Verify).Methods(http.MethodPost)
}

type turnstileRequest struct {
	Token string `json:"token"`
}

type turnstileResponse struct {
	Success     bool     `json:"success"`
	Message     string   `json:"message,omitempty"`
	Error       string   `json:"error,omitempty"`
	ChallengeTS string   `json:"challenge_ts,omitempty"`
	Hostname    string   `json:"hostname,omitempty"`
	ErrorCodes  []string `json:"error-codes,omitempty"`
}

// Verify handles POST /api/verify-turnstile. A body that does not decode is
// treated the same as a missing token.
func (h *TurnstileHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req turnstileRequest
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxTurnstileBodyBytes))
	if err == nil {
		err = json.Unmarshal(body, &req)
	}
	if err != nil || req.Token == "" {
		writeJSON(w, http.StatusBadRequest, turnstileResponse{Error: "Token is required"})
		return
	}

	result, err := h.verifier.Verify(r.Context(), req.Token, request.ClientIP(r))
	if err != nil {
		h.logger.Error("turnstile_verify_failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, turnstileResponse{Error: "Internal server error"})
		return
	}

	switch {
	case result.Skipped:
		h.logger.Warn("turnstile_secret_not_configured")
		writeJSON(w, http.StatusOK, turnstileResponse{Success: true, Message: "Secret key not configured"})
	case result.Success:
		writeJSON(w, http.StatusOK, turnstileResponse{
			Success:     true,
			ChallengeTS: result.ChallengeTS,
			Hostname:    result.Hostname,
		})
	default:
		h.logger.Info("turnstile_token_rejected", zap.Strings("error_codes", result.ErrorCodes))
		codes := result.ErrorCodes
		if codes == nil {
			codes = []string{}
		}
		writeJSON(w, http.StatusBadRequest, turnstileResponse{
			Error:      "Token verification failed",
			ErrorCodes: codes,
		})
	}
}
