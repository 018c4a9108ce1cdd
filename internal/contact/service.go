// Package contact runs the contact form pipeline: throttle, validate,
// persist, notify. Each blocking stage fails with its own error type;
// notification failures are logged and absorbed.
package contact

import (
	"context"
	"time"

	"github.com/benvon/portfolio-api/internal/logger"
	"github.com/benvon/portfolio-api/internal/metrics"
	"github.com/benvon/portfolio-api/internal/models"
	"github.com/benvon/portfolio-api/internal/ratelimit"
	"github.com/benvon/portfolio-api/internal/services/notify"
	"github.com/benvon/portfolio-api/internal/validation"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("github.com/benvon/portfolio-api/internal/contact")

const (
	// DefaultPersistTimeout bounds the storage insert.
	DefaultPersistTimeout = 10 * time.Second
	// DefaultNotifyTimeout bounds the notification attempt.
	DefaultNotifyTimeout = 5 * time.Second
)

// Throttler decides whether an identifier may submit now.
type Throttler interface {
	Check(ctx context.Context, identifier string) ratelimit.Result
	Now() time.Time
}

// SubmissionStore durably records a submission, filling in ID and timestamps.
type SubmissionStore interface {
	Create(ctx context.Context, sub *models.ContactSubmission) error
}

// Receipt is the result of an accepted submission.
type Receipt struct {
	Submission *models.ContactSubmission
	RateLimit  ratelimit.Result
}

// Service runs the pipeline.
type Service struct {
	limiter        Throttler
	store          SubmissionStore
	notifier       notify.Notifier
	metrics        *metrics.Metrics
	logger         *zap.Logger
	persistTimeout time.Duration
	notifyTimeout  time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier sets the owner notifier. Without one the notify stage is skipped.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithMetrics records outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTimeouts overrides the persist and notify bounds. Non-positive values keep the defaults.
func WithTimeouts(persist, notify time.Duration) Option {
	return func(s *Service) {
		if persist > 0 {
			s.persistTimeout = persist
		}
		if notify > 0 {
			s.notifyTimeout = notify
		}
	}
}

// NewService creates the pipeline over limiter and store.
func NewService(limiter Throttler, store SubmissionStore, opts ...Option) *Service {
	s := &Service{
		limiter:        limiter,
		store:          store,
		logger:         zap.NewNop(),
		persistTimeout: DefaultPersistTimeout,
		notifyTimeout:  DefaultNotifyTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit runs one submission from identifier with the raw JSON body.
// The rate limit is consumed before the body is looked at, so malformed
// requests count against the quota too.
func (s *Service) Submit(ctx context.Context, identifier string, body []byte) (*Receipt, error) {
	log := s.logger.With(zap.String("client", logger.SanitizeIdentifier(identifier)))
	ctx, span := tracer.Start(ctx, "contact.Submit")
	defer span.End()

	rl := s.limiter.Check(ctx, identifier)
	s.metrics.RateLimitCheck(rl.Allowed)
	if !rl.Allowed {
		retryAfter := rl.RetryAfterSeconds(s.limiter.Now())
		s.record(span, metrics.OutcomeRateLimited)
		log.Warn("contact_rate_limited",
			zap.Int("limit", rl.Limit),
			zap.Time("reset_time", rl.ResetTime),
			zap.Int("retry_after_seconds", retryAfter))
		return nil, &RateLimitError{Result: rl, RetryAfter: retryAfter}
	}

	req, issues := validation.DecodeContact(body)
	if issues != nil {
		s.record(span, metrics.OutcomeInvalid)
		log.Info("contact_validation_failed", zap.Int("issues", len(issues)))
		return nil, &ValidationError{Issues: issues}
	}

	sub := req.NewSubmission()
	if err := s.persist(ctx, sub); err != nil {
		s.record(span, metrics.OutcomePersistFailed)
		span.SetStatus(codes.Error, "persist failed")
		log.Error("contact_persist_failed",
			zap.String("email", logger.MaskEmail(req.Email)),
			zap.Error(err))
		return nil, &PersistenceError{Err: err}
	}
	log.Info("contact_submission_persisted",
		zap.String("submission_id", sub.ID.String()),
		zap.String("email", logger.MaskEmail(sub.Email)))

	s.notify(ctx, log, sub)

	s.record(span, metrics.OutcomeSuccess)
	span.SetAttributes(attribute.String("contact.submission_id", sub.ID.String()))
	return &Receipt{Submission: sub, RateLimit: rl}, nil
}

func (s *Service) record(span trace.Span, outcome string) {
	s.metrics.Submission(outcome)
	span.SetAttributes(attribute.String("contact.outcome", outcome))
}

func (s *Service) persist(ctx context.Context, sub *models.ContactSubmission) error {
	ctx, span := tracer.Start(ctx, "contact.persist")
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, s.persistTimeout)
	defer cancel()
	if err := s.store.Create(ctx, sub); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	return nil
}

// notify never fails the submission. It gets its own deadline detached from
// the request so a client disconnect after persistence still sends the email.
func (s *Service) notify(ctx context.Context, log *zap.Logger, sub *models.ContactSubmission) {
	if s.notifier == nil {
		s.metrics.Notification(metrics.NotificationSkipped)
		log.Info("contact_notification_skipped", zap.String("reason", "no notifier configured"))
		return
	}

	ctx, span := tracer.Start(context.WithoutCancel(ctx), "contact.notify")
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
	defer cancel()
	if err := s.notifier.Notify(ctx, sub); err != nil {
		nerr := &NotificationError{Err: err}
		span.RecordError(err)
		span.SetStatus(codes.Error, "notify failed")
		s.metrics.Notification(metrics.NotificationFailed)
		log.Error("contact_notification_failed",
			zap.String("submission_id", sub.ID.String()),
			zap.Error(nerr))
		return
	}
	s.metrics.Notification(metrics.NotificationSent)
	log.Info("contact_notification_sent", zap.String("submission_id", sub.ID.String()))
}
