// Package workers holds the queue consumers run by cmd/worker.
package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/portfolio-api/internal/metrics"
	"github.com/benvon/portfolio-api/internal/queue"
	"github.com/benvon/portfolio-api/internal/services/notify"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultSendRate stays under Resend's default API limit of 2 requests per second.
	DefaultSendRate rate.Limit = 2
	// DefaultRetryBase is the first retry delay; later retries double it.
	DefaultRetryBase = 30 * time.Second
)

// ErrMalformedJob marks a job that can never succeed and goes straight to the DLQ.
var ErrMalformedJob = errors.New("malformed notification job")

// NotificationWorker delivers queued owner notifications.
type NotificationWorker struct {
	sender    notify.Sender
	publisher queue.Publisher
	limiter   *rate.Limiter
	metrics   *metrics.Metrics
	logger    *zap.Logger
	retryBase time.Duration
	now       func() time.Time
}

// NotificationOption configures a NotificationWorker.
type NotificationOption func(*NotificationWorker)

// WithSendRate caps deliveries at r per second with the given burst.
func WithSendRate(r rate.Limit, burst int) NotificationOption {
	return func(w *NotificationWorker) { w.limiter = rate.NewLimiter(r, burst) }
}

// WithRetryBase sets the first retry delay.
func WithRetryBase(d time.Duration) NotificationOption {
	return func(w *NotificationWorker) {
		if d > 0 {
			w.retryBase = d
		}
	}
}

// WithWorkerMetrics records delivery results on m.
func WithWorkerMetrics(m *metrics.Metrics) NotificationOption {
	return func(w *NotificationWorker) { w.metrics = m }
}

// WithWorkerClock overrides time.Now.
func WithWorkerClock(now func() time.Time) NotificationOption {
	return func(w *NotificationWorker) { w.now = now }
}

// NewNotificationWorker creates a worker sending through sender and
// re-publishing retries through publisher.
func NewNotificationWorker(sender notify.Sender, publisher queue.Publisher, logger *zap.Logger, opts ...NotificationOption) *NotificationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &NotificationWorker{
		sender:    sender,
		publisher: publisher,
		limiter:   rate.NewLimiter(DefaultSendRate, 1),
		logger:    logger,
		retryBase: DefaultRetryBase,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// ProcessJob sends one notification and settles its message. A failed send
// is re-published with backoff until the job's retries run out, then the
// message is dead-lettered. Permanent Resend errors skip the retries.
func (w *NotificationWorker) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()
	if job == nil || job.Type != queue.JobTypeContactNotification || job.Email == nil {
		w.deadLetter(msg, job, ErrMalformedJob)
		return ErrMalformedJob
	}
	log := w.logger.With(
		zap.String("job_id", job.ID.String()),
		zap.String("submission_id", job.SubmissionID.String()),
		zap.Int("retry_count", job.RetryCount))

	if err := w.limiter.Wait(ctx); err != nil {
		// Shutting down; hand the message back untouched
		if nackErr := msg.Nack(true); nackErr != nil {
			log.Warn("notification_requeue_failed", zap.Error(nackErr))
		}
		return err
	}

	sendErr := w.sender.Send(ctx, *job.Email)
	if sendErr == nil {
		w.metrics.Notification(metrics.NotificationSent)
		log.Info("notification_sent")
		if err := msg.Ack(); err != nil {
			return fmt.Errorf("failed to ack job: %w", err)
		}
		return nil
	}

	if !retryable(sendErr) || !job.CanRetry() {
		w.deadLetter(msg, job, sendErr)
		return sendErr
	}

	job.ScheduleRetry(w.now(), w.retryBase, sendErr)
	if err := w.publisher.Enqueue(ctx, job); err != nil {
		log.Error("notification_retry_enqueue_failed", zap.Error(err))
		w.deadLetter(msg, job, sendErr)
		return fmt.Errorf("failed to re-enqueue job: %w", err)
	}
	if err := msg.Ack(); err != nil {
		log.Warn("notification_ack_failed", zap.Error(err))
	}
	w.metrics.Notification(metrics.NotificationRetried)
	log.Warn("notification_retry_scheduled",
		zap.Time("not_before", *job.NotBefore),
		zap.Error(sendErr))
	return sendErr
}

// Run processes messages until ctx is cancelled or the queue closes the stream.
func (w *NotificationWorker) Run(ctx context.Context, jobQueue queue.JobQueue, prefetch int) error {
	msgChan, errChan, err := jobQueue.Consume(ctx, prefetch)
	if err != nil {
		return fmt.Errorf("failed to start consuming messages: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-errChan:
			if ok {
				return err
			}
			errChan = nil
		case msg, ok := <-msgChan:
			if !ok {
				return nil
			}
			// Errors are settled and logged inside ProcessJob
			_ = w.ProcessJob(ctx, msg)
		}
	}
}

func (w *NotificationWorker) deadLetter(msg queue.MessageInterface, job *queue.Job, cause error) {
	fields := []zap.Field{zap.Error(cause)}
	if job != nil {
		fields = append(fields, zap.String("job_id", job.ID.String()), zap.Int("retry_count", job.RetryCount))
	}
	w.metrics.Notification(metrics.NotificationDeadLetter)
	w.logger.Error("notification_dead_lettered", fields...)
	if err := msg.Nack(false); err != nil {
		w.logger.Warn("notification_nack_failed", zap.Error(err))
	}
}

// retryable is false only for Resend answers that will not change on retry.
func retryable(err error) bool {
	var rerr *notify.ResendError
	if errors.As(err, &rerr) {
		return rerr.Temporary()
	}
	return true
}
