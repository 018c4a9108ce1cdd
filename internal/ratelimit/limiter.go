// Package ratelimit implements the fixed-window counter that guards the contact
// endpoint.
//
// Each identifier gets a window of Window length starting at its first request.
// Requests inside the window are counted; the request that pushes Count past
// MaxRequests and every later one in the same window are rejected. Rejected
// requests still count. A client can get up to 2*MaxRequests through in a span
// that straddles two windows; that is the accepted cost of a fixed window.
package ratelimit

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultMaxRequests is the number of accepted requests per window.
	DefaultMaxRequests = 5
	// DefaultWindow is the window length (15 minutes).
	DefaultWindow = 15 * time.Minute
)

// Result is the outcome of a single Check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetTime time.Time
}

// RetryAfterSeconds returns the whole seconds until ResetTime, rounded up, never negative.
func (r Result) RetryAfterSeconds(now time.Time) int {
	d := r.ResetTime.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}

// Limiter applies the fixed-window policy on top of a Store.
type Limiter struct {
	store       Store
	maxRequests int
	window      time.Duration
	now         func() time.Time
	logger      *zap.Logger
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithMaxRequests sets the per-window limit. Non-positive values are ignored.
func WithMaxRequests(n int) Option {
	return func(l *Limiter) {
		if n > 0 {
			l.maxRequests = n
		}
	}
}

// WithWindow sets the window length. Non-positive values are ignored.
func WithWindow(d time.Duration) Option {
	return func(l *Limiter) {
		if d > 0 {
			l.window = d
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// WithLogger sets the logger used when the store fails.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Limiter) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates a Limiter backed by store, defaulting to 5 requests per 15 minutes.
func New(store Store, opts ...Option) *Limiter {
	l := &Limiter{
		store:       store,
		maxRequests: DefaultMaxRequests,
		window:      DefaultWindow,
		now:         time.Now,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Limit returns the per-window request limit.
func (l *Limiter) Limit() int { return l.maxRequests }

// Window returns the window length.
func (l *Limiter) Window() time.Duration { return l.window }

// Now returns the limiter's current time.
func (l *Limiter) Now() time.Time { return l.now() }

// Check records one request for identifier and reports whether it is allowed.
// It never returns an error: if the store is unavailable the request is let
// through (fail open) and the failure is logged.
func (l *Limiter) Check(ctx context.Context, identifier string) Result {
	now := l.now()

	entry, err := l.store.Increment(ctx, identifier, l.window, now)
	if err != nil {
		l.logger.Error("rate_limit_store_failed_allowing_request",
			zap.String("identifier", identifier),
			zap.Error(err),
		)
		return Result{
			Allowed:   true,
			Limit:     l.maxRequests,
			Remaining: max(0, l.maxRequests-1),
			ResetTime: now.Add(l.window),
		}
	}

	return Result{
		Allowed:   entry.Count <= l.maxRequests,
		Limit:     l.maxRequests,
		Remaining: max(0, l.maxRequests-entry.Count),
		ResetTime: entry.ResetTime,
	}
}
