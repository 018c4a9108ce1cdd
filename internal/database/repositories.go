package database

import (
	"context"

	"github.com/benvon/portfolio-api/internal/models"
	"github.com/google/uuid"
)

// ContactSubmissionRepositoryInterface defines the submission operations used by the CLI and worker.
// This interface enables better testability by allowing mock implementations
type ContactSubmissionRepositoryInterface interface {
	Create(ctx context.Context, sub *models.ContactSubmission) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ContactSubmission, error)
	List(ctx context.Context, opts ListOptions) ([]*models.ContactSubmission, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.SubmissionStatus) (*models.ContactSubmission, error)
	CountByStatus(ctx context.Context) (models.SubmissionStats, error)
}

// Ensure concrete types implement the interfaces
var _ ContactSubmissionRepositoryInterface = (*ContactSubmissionRepository)(nil)
