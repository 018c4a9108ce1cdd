package database

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/benvon/portfolio-api/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var submissionColumns = []string{"id", "name", "email", "message", "status", "created_at", "updated_at"}

func newMockRepo(t *testing.T) (*ContactSubmissionRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return NewContactSubmissionRepository(Wrap(sqlDB)), mock
}

func TestContactSubmissionRepository_Create(t *testing.T) {
	t.Parallel()
	repo, mock := newMockRepo(t)
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO contact_submissions (id, name, email, message, status)")).
		WithArgs(sqlmock.AnyArg(), "Jane", "jane@example.com", "Hello, I like your work.", "unread").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(created, created))

	sub := &models.ContactSubmission{Name: "Jane", Email: "jane@example.com", Message: "Hello, I like your work."}
	require.NoError(t, repo.Create(context.Background(), sub))

	assert.NotEqual(t, uuid.Nil, sub.ID)
	assert.Equal(t, models.SubmissionStatusUnread, sub.Status)
	assert.Equal(t, created, sub.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactSubmissionRepository_CreateError(t *testing.T) {
	t.Parallel()
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("INSERT INTO contact_submissions").
		WillReturnError(errors.New("connection refused"))

	err := repo.Create(context.Background(), &models.ContactSubmission{Name: "Jane"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestContactSubmissionRepository_GetByID(t *testing.T) {
	t.Parallel()
	repo, mock := newMockRepo(t)
	id := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery("FROM contact_submissions").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(submissionColumns).
			AddRow(id.String(), "Jane", "jane@example.com", "Hello there friend", "read", now, now))

	sub, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, sub.ID)
	assert.Equal(t, models.SubmissionStatusRead, sub.Status)
}

func TestContactSubmissionRepository_GetByIDNotFound(t *testing.T) {
	t.Parallel()
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("FROM contact_submissions").
		WillReturnRows(sqlmock.NewRows(submissionColumns))

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestContactSubmissionRepository_ListWithStatus(t *testing.T) {
	t.Parallel()
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()
	status := models.SubmissionStatusUnread

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM contact_submissions WHERE status = $1")).
		WithArgs("unread").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC LIMIT $2 OFFSET $3")).
		WithArgs("unread", 2, 0).
		WillReturnRows(sqlmock.NewRows(submissionColumns).
			AddRow(uuid.NewString(), "A", "a@example.com", "first message!", "unread", now, now).
			AddRow(uuid.NewString(), "B", "b@example.com", "second message", "unread", now, now))

	subs, total, err := repo.List(context.Background(), ListOptions{Status: &status, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, subs, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactSubmissionRepository_ListDefaults(t *testing.T) {
	t.Parallel()
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM contact_submissions")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("LIMIT $1 OFFSET $2")).
		WithArgs(defaultListLimit, 0).
		WillReturnRows(sqlmock.NewRows(submissionColumns))

	subs, total, err := repo.List(context.Background(), ListOptions{Limit: -1, Offset: -5})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, subs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactSubmissionRepository_UpdateStatus(t *testing.T) {
	t.Parallel()
	repo, mock := newMockRepo(t)
	id := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery("UPDATE contact_submissions").
		WithArgs(id, "archived").
		WillReturnRows(sqlmock.NewRows(submissionColumns).
			AddRow(id.String(), "Jane", "jane@example.com", "Hello there friend", "archived", now, now))

	sub, err := repo.UpdateStatus(context.Background(), id, models.SubmissionStatusArchived)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionStatusArchived, sub.Status)
}

func TestContactSubmissionRepository_UpdateStatusRejectsUnknown(t *testing.T) {
	t.Parallel()
	repo, mock := newMockRepo(t)
	_, err := repo.UpdateStatus(context.Background(), uuid.New(), "spam")
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactSubmissionRepository_UpdateStatusNotFound(t *testing.T) {
	t.Parallel()
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("UPDATE contact_submissions").
		WillReturnRows(sqlmock.NewRows(submissionColumns))

	_, err := repo.UpdateStatus(context.Background(), uuid.New(), models.SubmissionStatusRead)
	assert.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestContactSubmissionRepository_CountByStatus(t *testing.T) {
	t.Parallel()
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("GROUP BY status").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("unread", 4).
			AddRow("archived", 1))

	stats, err := repo.CountByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, stats[models.SubmissionStatusUnread])
	assert.Equal(t, 0, stats[models.SubmissionStatusRead])
	assert.Equal(t, 1, stats[models.SubmissionStatusArchived])
	assert.Equal(t, 5, stats.Total())
}
