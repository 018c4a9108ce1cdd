package ratelimit

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultSweepInterval is how often the janitor removes expired entries.
const DefaultSweepInterval = time.Minute

// Janitor periodically sweeps expired entries out of a Store so abandoned
// identifiers do not accumulate. It runs beside request handling and never
// blocks it for longer than one Sweep call holds the store.
type Janitor struct {
	store    Store
	interval time.Duration
	now      func() time.Time
	logger   *zap.Logger
	onSweep  func(removed int)
}

// JanitorOption configures a Janitor.
type JanitorOption func(*Janitor)

// WithSweepObserver registers a callback invoked after every successful sweep.
func WithSweepObserver(fn func(removed int)) JanitorOption {
	return func(j *Janitor) { j.onSweep = fn }
}

// WithJanitorClock replaces time.Now, mainly for tests.
func WithJanitorClock(now func() time.Time) JanitorOption {
	return func(j *Janitor) {
		if now != nil {
			j.now = now
		}
	}
}

// NewJanitor creates a janitor for store. A non-positive interval selects DefaultSweepInterval.
func NewJanitor(store Store, interval time.Duration, logger *zap.Logger, opts ...JanitorOption) *Janitor {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	j := &Janitor{
		store:    store,
		interval: interval,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Start runs the sweep loop until ctx is cancelled.
func (j *Janitor) Start(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *Janitor) sweep(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, j.interval)
	defer cancel()

	removed, err := j.store.Sweep(ctx, j.now())
	if err != nil {
		j.logger.Warn("rate_limit_sweep_failed", zap.Error(err))
		return 0
	}
	if removed > 0 {
		j.logger.Debug("rate_limit_entries_swept", zap.Int("removed", removed))
	}
	if j.onSweep != nil {
		j.onSweep(removed)
	}
	return removed
}
