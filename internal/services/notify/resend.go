package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/benvon/portfolio-api/internal/models"
	"github.com/go-resty/resty/v2"
)

// DefaultResendURL is the Resend API base URL.
const DefaultResendURL = "https://api.resend.com"

// ResendError is a non-2xx answer from the Resend API.
type ResendError struct {
	StatusCode int    `json:"statusCode"`
	Name       string `json:"name"`
	Message    string `json:"message"`
}

func (e *ResendError) Error() string {
	return fmt.Sprintf("resend: %d %s: %s", e.StatusCode, e.Name, e.Message)
}

// Temporary reports whether a retry may succeed (rate limited or server side).
func (e *ResendError) Temporary() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	ReplyTo string   `json:"reply_to,omitempty"`
}

type resendResponse struct {
	ID string `json:"id"`
}

// ResendSender delivers mail through the Resend HTTP API.
type ResendSender struct {
	http *resty.Client
}

// NewResendSender creates a sender. An empty baseURL selects DefaultResendURL.
func NewResendSender(apiKey, baseURL string) *ResendSender {
	if baseURL == "" {
		baseURL = DefaultResendURL
	}
	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetAuthToken(apiKey).
		SetTimeout(10*time.Second).
		SetHeader("Content-Type", "application/json")
	return &ResendSender{http: rc}
}

// Send posts email to /emails.
func (s *ResendSender) Send(ctx context.Context, email models.NotificationEmail) error {
	var result resendResponse
	var apiErr ResendError
	resp, err := s.http.R().
		SetContext(ctx).
		SetBody(resendRequest(email)).
		SetResult(&result).
		SetError(&apiErr).
		Post("/emails")
	if err != nil {
		return fmt.Errorf("resend request failed: %w", err)
	}
	if resp.IsError() {
		if apiErr.StatusCode == 0 {
			apiErr.StatusCode = resp.StatusCode()
		}
		if apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(resp.String())
		}
		return &apiErr
	}
	return nil
}

var _ Sender = (*ResendSender)(nil)
