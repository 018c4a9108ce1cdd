package queue

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultConnectAttempts covers a broker that is still starting alongside the service.
	DefaultConnectAttempts = 10
	// DefaultConnectDelay is the first backoff step; it doubles up to maxConnectDelay.
	DefaultConnectDelay = 2 * time.Second

	maxConnectDelay = 30 * time.Second
)

// DialFunc opens a queue connection.
type DialFunc func() (JobQueue, error)

// ConnectWithRetry calls dial until it succeeds, attempts run out or ctx is done,
// backing off exponentially between tries.
func ConnectWithRetry(ctx context.Context, dial DialFunc, attempts int, initialDelay time.Duration, logger *zap.Logger) (JobQueue, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		q, err := dial()
		if err == nil {
			logger.Info("connected_to_rabbitmq", zap.Int("attempt", attempt+1))
			return q, nil
		}
		lastErr = err
		if attempt == attempts-1 {
			break
		}

		delay := initialDelay * time.Duration(1<<uint(attempt))
		if delay > maxConnectDelay {
			delay = maxConnectDelay
		}
		logger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", attempts),
			zap.Error(err),
			zap.Duration("retry_delay", delay),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", attempts, lastErr)
}
