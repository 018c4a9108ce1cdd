// Package supabase persists contact submissions through the Supabase REST (PostgREST) API.
package supabase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/benvon/portfolio-api/internal/models"
	"github.com/go-resty/resty/v2"
)

const (
	submissionsTable = "/contact_submissions"
	defaultTimeout   = 10 * time.Second
)

// APIError is a non-2xx answer from PostgREST.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Details    string
	Hint       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("supabase returned status %d", e.StatusCode)
}

// postgrestError mirrors the PostgREST error body.
type postgrestError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

type insertRow struct {
	Name    string                  `json:"name"`
	Email   string                  `json:"email"`
	Message string                  `json:"message"`
	Status  models.SubmissionStatus `json:"status"`
}

// Client talks to one Supabase project.
type Client struct {
	http *resty.Client
}

// New creates a client for the project at projectURL authenticated with the anon key.
func New(projectURL, anonKey string) *Client {
	rc := resty.New().
		SetBaseURL(strings.TrimRight(projectURL, "/")+"/rest/v1").
		SetTimeout(defaultTimeout).
		SetHeader("apikey", anonKey).
		SetAuthToken(anonKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &Client{http: rc}
}

// Create inserts sub into contact_submissions and copies back the stored row
// (id and timestamps are assigned by the database).
func (c *Client) Create(ctx context.Context, sub *models.ContactSubmission) error {
	status := sub.Status
	if status == "" {
		status = models.SubmissionStatusUnread
	}

	var created []models.ContactSubmission
	var apiErr postgrestError
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetBody([]insertRow{{Name: sub.Name, Email: sub.Email, Message: sub.Message, Status: status}}).
		SetResult(&created).
		SetError(&apiErr).
		Post(submissionsTable)
	if err != nil {
		return fmt.Errorf("supabase insert failed: %w", err)
	}
	if resp.IsError() {
		return newAPIError(resp, apiErr)
	}
	if len(created) == 0 {
		return errors.New("supabase insert returned no rows")
	}

	*sub = created[0]
	return nil
}

// Ping checks that the table is reachable with the configured key.
func (c *Client) Ping(ctx context.Context) error {
	var apiErr postgrestError
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"select": "id", "limit": "1"}).
		SetError(&apiErr).
		Get(submissionsTable)
	if err != nil {
		return fmt.Errorf("supabase ping failed: %w", err)
	}
	if resp.IsError() {
		return newAPIError(resp, apiErr)
	}
	return nil
}

func newAPIError(resp *resty.Response, body postgrestError) *APIError {
	e := &APIError{
		StatusCode: resp.StatusCode(),
		Code:       body.Code,
		Message:    body.Message,
		Details:    body.Details,
		Hint:       body.Hint,
	}
	if e.Message == "" {
		e.Message = strings.TrimSpace(resp.String())
	}
	return e
}
