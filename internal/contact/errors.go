package contact

import (
	"errors"
	"fmt"

	"github.com/benvon/portfolio-api/internal/ratelimit"
	"github.com/benvon/portfolio-api/internal/validation"
)

// RateLimitError means the caller exhausted its window. It carries the
// post-increment limiter state and the whole seconds until the window resets.
type RateLimitError struct {
	Result     ratelimit.Result
	RetryAfter int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %ds", e.RetryAfter)
}

// ValidationError lists every field problem in the request body.
type ValidationError struct {
	Issues []validation.Issue
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid form data: %d issue(s)", len(e.Issues))
}

// PersistenceError wraps a storage failure. Its message is the underlying
// error's message, which is what the caller sees as details.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// NotificationError wraps a notifier failure. It never leaves the service.
type NotificationError struct {
	Err error
}

func (e *NotificationError) Error() string {
	return "notification failed: " + e.Err.Error()
}

func (e *NotificationError) Unwrap() error {
	return e.Err
}

// IsRateLimited reports whether err is a *RateLimitError.
func IsRateLimited(err error) bool {
	var target *RateLimitError
	return errors.As(err, &target)
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsPersistence reports whether err is a *PersistenceError.
func IsPersistence(err error) bool {
	var target *PersistenceError
	return errors.As(err, &target)
}
