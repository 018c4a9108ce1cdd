package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/benvon/portfolio-api/internal/contact"
	"github.com/benvon/portfolio-api/internal/logger"
	"github.com/benvon/portfolio-api/internal/ratelimit"
	"github.com/benvon/portfolio-api/internal/request"
	"github.com/benvon/portfolio-api/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Response messages the contact form client matches on.
const (
	contactSuccessMessage   = "Contact form submitted successfully"
	contactRateLimitMessage = "Too many requests. Please try again later."
	contactInvalidMessage   = "Invalid form data"
	contactFailedMessage    = "Failed to submit contact form"
)

// maxContactBodyBytes comfortably fits the largest valid submission.
const maxContactBodyBytes = 16 << 10

// Submitter runs the contact pipeline.
type Submitter interface {
	Submit(ctx context.Context, identifier string, body []byte) (*contact.Receipt, error)
}

// ContactHandler serves POST /api/contact.
type ContactHandler struct {
	service Submitter
	logger  *zap.Logger
}

// NewContactHandler creates a new contact handler
func NewContactHandler(service Submitter, logger *zap.Logger) *ContactHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContactHandler{service: service, logger: logger}
}

// RegisterRoutes registers contact routes
func (h *ContactHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/contact", h.Submit).Methods(http.MethodPost)
}

type contactSuccessResponse struct {
	Message string `json:"message"`
}

type contactRateLimitResponse struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retryAfter"`
}

type contactInvalidResponse struct {
	Error   string             `json:"error"`
	Details []validation.Issue `json:"details"`
}

type contactFailedResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// Submit handles POST /api/contact.
// An unreadable or oversized body still goes through the pipeline so the
// attempt is counted before it is rejected as invalid.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	identifier := request.ClientIP(r)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxContactBodyBytes))
	if err != nil {
		h.logger.Info("contact_body_read_failed",
			zap.String("client", logger.SanitizeIdentifier(identifier)),
			zap.Error(err))
		body = nil
	}

	receipt, err := h.service.Submit(r.Context(), identifier, body)
	if err == nil {
		setRateLimitHeaders(w, receipt.RateLimit)
		writeJSON(w, http.StatusOK, contactSuccessResponse{Message: contactSuccessMessage})
		return
	}

	var rlErr *contact.RateLimitError
	var vErr *contact.ValidationError
	var pErr *contact.PersistenceError
	switch {
	case errors.As(err, &rlErr):
		w.Header().Set("Retry-After", strconv.Itoa(rlErr.RetryAfter))
		setRateLimitHeaders(w, rlErr.Result)
		writeJSON(w, http.StatusTooManyRequests, contactRateLimitResponse{
			Error:      contactRateLimitMessage,
			RetryAfter: rlErr.RetryAfter,
		})
	case errors.As(err, &vErr):
		writeJSON(w, http.StatusBadRequest, contactInvalidResponse{
			Error:   contactInvalidMessage,
			Details: vErr.Issues,
		})
	case errors.As(err, &pErr):
		writeJSON(w, http.StatusInternalServerError, contactFailedResponse{
			Error:   contactFailedMessage,
			Details: pErr.Error(),
		})
	default:
		h.logger.Error("contact_unexpected_error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, contactFailedResponse{
			Error:   contactFailedMessage,
			Details: "Unknown error",
		})
	}
}

// setRateLimitHeaders writes the limiter state; Reset is a Unix timestamp in seconds.
func setRateLimitHeaders(w http.ResponseWriter, rl ratelimit.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(rl.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetUnix(rl.ResetTime), 10))
}

func resetUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
