package queue

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const purgeTimeout = 2 * time.Minute

// GarbageCollector periodically drops dead-lettered notifications older than retention.
// A notification that never reached the owner stays inspectable in the DLQ for
// the retention period.
type GarbageCollector struct {
	dlqPurger DLQPurger
	interval  time.Duration
	retention time.Duration
	logger    *zap.Logger
	onPurge   func(purged int)
}

// GCOption configures a GarbageCollector.
type GCOption func(*GarbageCollector)

// WithPurgeObserver is called with the count of every successful purge, e.g. metrics.DLQPurged.
func WithPurgeObserver(fn func(purged int)) GCOption {
	return func(gc *GarbageCollector) { gc.onPurge = fn }
}

// NewGarbageCollector creates a new garbage collector. A nil purger makes collection a no-op.
func NewGarbageCollector(purger DLQPurger, interval, retention time.Duration, logger *zap.Logger, opts ...GCOption) *GarbageCollector {
	if logger == nil {
		logger = zap.NewNop()
	}
	gc := &GarbageCollector{
		dlqPurger: purger,
		interval:  interval,
		retention: retention,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(gc)
	}
	return gc
}

// Start runs the GC loop until ctx is cancelled.
func (gc *GarbageCollector) Start(ctx context.Context) error {
	ticker := time.NewTicker(gc.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := gc.collect(ctx); err != nil {
				gc.logger.Warn("dlq_gc_failed", zap.Error(err))
			}
		}
	}
}

func (gc *GarbageCollector) collect(ctx context.Context) error {
	if gc.dlqPurger == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, purgeTimeout)
	defer cancel()
	n, err := gc.dlqPurger.PurgeOlderThan(ctx, gc.retention)
	if gc.onPurge != nil {
		gc.onPurge(n)
	}
	if err != nil {
		return fmt.Errorf("DLQ purge after %d notification(s): %w", n, err)
	}
	if n > 0 {
		gc.logger.Info("dlq_notifications_purged",
			zap.Int("count", n),
			zap.Duration("retention", gc.retention))
	}
	return nil
}
