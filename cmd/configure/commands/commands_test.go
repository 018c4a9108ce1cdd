package commands

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/benvon/portfolio-api/internal/database"
	"github.com/benvon/portfolio-api/internal/models"
	"github.com/benvon/portfolio-api/internal/ratelimit"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type fakeRepo struct {
	subs      []*models.ContactSubmission
	lastOpts  database.ListOptions
	updatedID uuid.UUID
	closed    bool
}

func (r *fakeRepo) Create(context.Context, *models.ContactSubmission) error { return nil }

func (r *fakeRepo) GetByID(context.Context, uuid.UUID) (*models.ContactSubmission, error) {
	return nil, database.ErrSubmissionNotFound
}

func (r *fakeRepo) List(_ context.Context, opts database.ListOptions) ([]*models.ContactSubmission, int, error) {
	r.lastOpts = opts
	return r.subs, len(r.subs), nil
}

func (r *fakeRepo) UpdateStatus(_ context.Context, id uuid.UUID, status models.SubmissionStatus) (*models.ContactSubmission, error) {
	for _, s := range r.subs {
		if s.ID == id {
			r.updatedID = id
			s.Status = status
			return s, nil
		}
	}
	return nil, database.ErrSubmissionNotFound
}

func (r *fakeRepo) CountByStatus(context.Context) (models.SubmissionStats, error) {
	stats := models.SubmissionStats{}
	for _, s := range r.subs {
		stats[s.Status]++
	}
	return stats, nil
}

func (r *fakeRepo) opener() SubmissionsOpener {
	return func() (database.ContactSubmissionRepositoryInterface, func() error, error) {
		return r, func() error { r.closed = true; return nil }, nil
	}
}

func sampleRepo() *fakeRepo {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &fakeRepo{subs: []*models.ContactSubmission{
		{ID: uuid.New(), Name: "Jane Doe", Email: "jane@example.com", Message: "Hello,\nI would like to hire you for a project.", Status: models.SubmissionStatusUnread, CreatedAt: created},
		{ID: uuid.New(), Name: "John Roe", Email: "john@example.com", Message: "Great portfolio site.", Status: models.SubmissionStatusRead, CreatedAt: created.Add(-time.Hour)},
	}}
}

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSubmissionsList_Table(t *testing.T) {
	t.Parallel()
	repo := sampleRepo()

	out, err := run(t, NewSubmissionsCmd(repo.opener()), "list", "--status", "unread", "--limit", "5")
	require.NoError(t, err)

	require.NotNil(t, repo.lastOpts.Status)
	assert.Equal(t, models.SubmissionStatusUnread, *repo.lastOpts.Status)
	assert.Equal(t, 5, repo.lastOpts.Limit)
	assert.Contains(t, out, "Jane Doe")
	assert.Contains(t, out, "Hello, I would like to hire you for a...")
	assert.Contains(t, out, "Showing 2 of 2")
	assert.True(t, repo.closed)
}

func TestSubmissionsList_YAML(t *testing.T) {
	t.Parallel()
	repo := sampleRepo()

	out, err := run(t, NewSubmissionsCmd(repo.opener()), "list", "-o", "yaml")
	require.NoError(t, err)

	var views []submissionView
	require.NoError(t, yaml.Unmarshal([]byte(out), &views))
	require.Len(t, views, 2)
	assert.Equal(t, repo.subs[0].ID.String(), views[0].ID)
	assert.Equal(t, "2026-03-01T12:00:00Z", views[0].CreatedAt)
}

func TestSubmissionsList_Rejects(t *testing.T) {
	t.Parallel()

	_, err := run(t, NewSubmissionsCmd(sampleRepo().opener()), "list", "--status", "spam")
	assert.Error(t, err)

	_, err = run(t, NewSubmissionsCmd(sampleRepo().opener()), "list", "-o", "xml")
	assert.Error(t, err)
}

func TestSubmissionsList_Empty(t *testing.T) {
	t.Parallel()
	out, err := run(t, NewSubmissionsCmd((&fakeRepo{}).opener()), "list")
	require.NoError(t, err)
	assert.Equal(t, "No submissions found\n", out)
}

func TestSubmissionsSetStatus(t *testing.T) {
	t.Parallel()
	repo := sampleRepo()
	id := repo.subs[0].ID

	out, err := run(t, NewSubmissionsCmd(repo.opener()), "set-status", "--id", id.String(), "--status", "archived")
	require.NoError(t, err)

	assert.Equal(t, id, repo.updatedID)
	assert.Equal(t, models.SubmissionStatusArchived, repo.subs[0].Status)
	assert.Contains(t, out, "j***@example.com")
	assert.NotContains(t, out, "jane@example.com")
}

func TestSubmissionsSetStatus_Errors(t *testing.T) {
	t.Parallel()

	_, err := run(t, NewSubmissionsCmd(sampleRepo().opener()), "set-status", "--id", "nope", "--status", "read")
	assert.Error(t, err)

	_, err = run(t, NewSubmissionsCmd(sampleRepo().opener()), "set-status", "--id", uuid.NewString(), "--status", "read")
	assert.True(t, errors.Is(err, database.ErrSubmissionNotFound))

	_, err = run(t, NewSubmissionsCmd(sampleRepo().opener()), "set-status", "--id", uuid.NewString())
	assert.Error(t, err, "status is required")
}

func TestSubmissionsStats(t *testing.T) {
	t.Parallel()

	out, err := run(t, NewSubmissionsCmd(sampleRepo().opener()), "stats")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, []string{
		"unread    1",
		"read      1",
		"archived  0",
		"total     2",
	}, lines)
}

func TestSubmissions_OpenError(t *testing.T) {
	t.Parallel()
	failing := func() (database.ContactSubmissionRepositoryInterface, func() error, error) {
		return nil, nil, errors.New("DATABASE_URL is required")
	}
	_, err := run(t, NewSubmissionsCmd(failing), "stats")
	assert.EqualError(t, err, "DATABASE_URL is required")
}

func TestRatelimitShowAndReset(t *testing.T) {
	t.Parallel()
	store := ratelimit.NewMemoryStore()
	_, err := store.Increment(context.Background(), "203.0.113.5", 15*time.Minute, time.Now())
	require.NoError(t, err)
	open := func() (ratelimit.Store, func() error, error) {
		return store, func() error { return nil }, nil
	}

	out, err := run(t, NewRatelimitCmd(open), "show", "--client", "203.0.113.5")
	require.NoError(t, err)
	assert.Contains(t, out, "Count:   1")

	out, err = run(t, NewRatelimitCmd(open), "reset", "--client", "203.0.113.5")
	require.NoError(t, err)
	assert.Contains(t, out, "Rate limit cleared for 203.0.113.5")

	_, ok, err := store.Get(context.Background(), "203.0.113.5")
	require.NoError(t, err)
	assert.False(t, ok)

	out, err = run(t, NewRatelimitCmd(open), "show", "--client", "203.0.113.5")
	require.NoError(t, err)
	assert.Contains(t, out, "No active window")
}
