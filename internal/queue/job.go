package queue

import (
	"time"

	"github.com/benvon/portfolio-api/internal/models"
	"github.com/google/uuid"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeContactNotification delivers the owner email for one contact submission
	JobTypeContactNotification JobType = "contact_notification"
)

// DefaultMaxRetries bounds redelivery attempts before a job is dead-lettered.
const DefaultMaxRetries = 3

// Job represents a job in the queue
type Job struct {
	ID           uuid.UUID                 `json:"id"`
	Type         JobType                   `json:"type"`
	SubmissionID uuid.UUID                 `json:"submission_id"`
	Email        *models.NotificationEmail `json:"email,omitempty"`
	NotBefore    *time.Time                `json:"not_before,omitempty"` // Earliest time to process job (nil = immediate)
	CreatedAt    time.Time                 `json:"created_at"`
	RetryCount   int                       `json:"retry_count"`
	MaxRetries   int                       `json:"max_retries"`
	LastError    string                    `json:"last_error,omitempty"`
}

// NewNotificationJob creates a job that sends email for the given submission.
func NewNotificationJob(submissionID uuid.UUID, email *models.NotificationEmail) *Job {
	return &Job{
		ID:           uuid.New(),
		Type:         JobTypeContactNotification,
		SubmissionID: submissionID,
		Email:        email,
		CreatedAt:    time.Now(),
		MaxRetries:   DefaultMaxRetries,
	}
}

// ShouldProcess checks if the job is due at now
func (j *Job) ShouldProcess(now time.Time) bool {
	return j.NotBefore == nil || !now.Before(*j.NotBefore)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// ScheduleRetry records the failure and delays the next attempt with
// exponential backoff from base (base, 2*base, 4*base, ...).
func (j *Job) ScheduleRetry(now time.Time, base time.Duration, cause error) {
	j.RetryCount++
	if cause != nil {
		j.LastError = cause.Error()
	}
	delay := base << (j.RetryCount - 1)
	next := now.Add(delay)
	j.NotBefore = &next
}
