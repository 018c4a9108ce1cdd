// Package turnstile verifies Cloudflare Turnstile tokens server side.
package turnstile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultVerifyURL is Cloudflare's siteverify endpoint.
const DefaultVerifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

// Result is the siteverify answer.
type Result struct {
	Success     bool     `json:"success"`
	ChallengeTS string   `json:"challenge_ts,omitempty"`
	Hostname    string   `json:"hostname,omitempty"`
	ErrorCodes  []string `json:"error-codes,omitempty"`
	Action      string   `json:"action,omitempty"`
	CData       string   `json:"cdata,omitempty"`

	// Skipped is set when no secret is configured and nothing was checked.
	Skipped bool `json:"-"`
}

type verifyRequest struct {
	Secret   string `json:"secret"`
	Response string `json:"response"`
	RemoteIP string `json:"remoteip,omitempty"`
}

// Verifier checks tokens against siteverify.
type Verifier struct {
	secret    string
	verifyURL string
	http      *resty.Client
}

// NewVerifier creates a verifier. An empty secret disables verification;
// an empty verifyURL selects DefaultVerifyURL.
func NewVerifier(secret, verifyURL string) *Verifier {
	if verifyURL == "" {
		verifyURL = DefaultVerifyURL
	}
	return &Verifier{
		secret:    secret,
		verifyURL: verifyURL,
		http: resty.New().
			SetTimeout(10*time.Second).
			SetHeader("Content-Type", "application/json"),
	}
}

// Enabled reports whether a secret is configured.
func (v *Verifier) Enabled() bool {
	return v.secret != ""
}

// Verify checks token for the client at remoteIP. A failed check is a Result
// with Success false; the error is reserved for transport and decoding failures.
func (v *Verifier) Verify(ctx context.Context, token, remoteIP string) (*Result, error) {
	if !v.Enabled() {
		return &Result{Success: true, Skipped: true}, nil
	}

	var result Result
	resp, err := v.http.R().
		SetContext(ctx).
		SetBody(verifyRequest{Secret: v.secret, Response: token, RemoteIP: remoteIP}).
		SetResult(&result).
		ForceContentType("application/json").
		Post(v.verifyURL)
	if err != nil {
		return nil, fmt.Errorf("turnstile siteverify request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("turnstile siteverify returned %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	return &result, nil
}
