package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/benvon/portfolio-api/internal/models"
	"github.com/google/uuid"
)

// ErrSubmissionNotFound is returned when no submission has the requested ID.
var ErrSubmissionNotFound = errors.New("contact submission not found")

// ListOptions filters and pages ContactSubmissionRepository.List.
type ListOptions struct {
	Status *models.SubmissionStatus
	Limit  int
	Offset int
}

const (
	defaultListLimit = 20
	maxListLimit     = 200
)

func (o ListOptions) normalized() ListOptions {
	if o.Limit <= 0 {
		o.Limit = defaultListLimit
	}
	if o.Limit > maxListLimit {
		o.Limit = maxListLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

// ContactSubmissionRepository handles contact_submissions database operations
type ContactSubmissionRepository struct {
	db *DB
}

// NewContactSubmissionRepository creates a new contact submission repository
func NewContactSubmissionRepository(db *DB) *ContactSubmissionRepository {
	return &ContactSubmissionRepository{db: db}
}

// Create inserts a submission. A nil ID is replaced with a new UUID and an
// empty status with unread; timestamps come from the database.
func (r *ContactSubmissionRepository) Create(ctx context.Context, sub *models.ContactSubmission) error {
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	if sub.Status == "" {
		sub.Status = models.SubmissionStatusUnread
	}

	query := `
		INSERT INTO contact_submissions (id, name, email, message, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		sub.ID,
		sub.Name,
		sub.Email,
		sub.Message,
		sub.Status,
	).Scan(&sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create contact submission: %w", err)
	}
	return nil
}

// GetByID retrieves a submission by ID
func (r *ContactSubmissionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ContactSubmission, error) {
	query := `
		SELECT id, name, email, message, status, created_at, updated_at
		FROM contact_submissions
		WHERE id = $1
	`
	sub, err := scanSubmission(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSubmissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact submission: %w", err)
	}
	return sub, nil
}

// List returns one page of submissions, newest first, and the total matching count.
func (r *ContactSubmissionRepository) List(ctx context.Context, opts ListOptions) ([]*models.ContactSubmission, int, error) {
	opts = opts.normalized()

	where := ""
	args := []any{}
	if opts.Status != nil {
		where = " WHERE status = $1"
		args = append(args, string(*opts.Status))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM contact_submissions"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count contact submissions: %w", err)
	}

	query := `
		SELECT id, name, email, message, status, created_at, updated_at
		FROM contact_submissions` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, opts.Limit, opts.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query contact submissions: %w", err)
	}
	defer rows.Close()

	var subs []*models.ContactSubmission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan contact submission: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating contact submissions: %w", err)
	}
	return subs, total, nil
}

// UpdateStatus moves a submission to status and returns the updated row.
func (r *ContactSubmissionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.SubmissionStatus) (*models.ContactSubmission, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("invalid submission status %q", status)
	}
	query := `
		UPDATE contact_submissions
		SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, email, message, status, created_at, updated_at
	`
	sub, err := scanSubmission(r.db.QueryRowContext(ctx, query, id, status))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSubmissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update contact submission status: %w", err)
	}
	return sub, nil
}

// CountByStatus returns the number of submissions per status.
// Statuses without rows are reported as zero.
func (r *ContactSubmissionRepository) CountByStatus(ctx context.Context) (models.SubmissionStats, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM contact_submissions GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("failed to count contact submissions by status: %w", err)
	}
	defer rows.Close()

	stats := make(models.SubmissionStats, len(models.SubmissionStatuses))
	for _, s := range models.SubmissionStatuses {
		stats[s] = 0
	}
	for rows.Next() {
		var status models.SubmissionStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		stats[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status counts: %w", err)
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (*models.ContactSubmission, error) {
	sub := &models.ContactSubmission{}
	err := row.Scan(
		&sub.ID,
		&sub.Name,
		&sub.Email,
		&sub.Message,
		&sub.Status,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return sub, nil
}
