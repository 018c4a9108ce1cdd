package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/benvon/portfolio-api/internal/models"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// GitHubFeed is the subset of the GitHub client the projects page uses.
type GitHubFeed interface {
	Repos(ctx context.Context, limit int) ([]models.GitHubRepo, error)
	User(ctx context.Context) (*models.GitHubUser, error)
}

// GitHubHandler serves the projects page feed.
type GitHubHandler struct {
	feed   GitHubFeed
	logger *zap.Logger
}

// NewGitHubHandler creates a new GitHub handler
func NewGitHubHandler(feed GitHubFeed, logger *zap.Logger) *GitHubHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GitHubHandler{feed: feed, logger: logger}
}

// RegisterRoutes registers GitHub routes
func (h *GitHubHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/github/repos", h.ListRepos).Methods(http.MethodGet)
	r.HandleFunc("/api/github/user", h.GetUser).Methods(http.MethodGet)
}

// ListRepos handles GET /api/github/repos?limit=N.
// Upstream failures degrade to an empty list so the page still renders.
func (h *GitHubHandler) ListRepos(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	repos, err := h.feed.Repos(r.Context(), limit)
	if err != nil {
		h.logger.Warn("github_repos_fetch_failed", zap.Error(err))
		repos = []models.GitHubRepo{}
	}
	respondJSON(w, http.StatusOK, repos)
}

// GetUser handles GET /api/github/user
func (h *GitHubHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.feed.User(r.Context())
	if err != nil {
		h.logger.Warn("github_user_fetch_failed", zap.Error(err))
		respondJSONError(w, http.StatusBadGateway, "Bad Gateway", "Failed to fetch GitHub profile")
		return
	}
	respondJSON(w, http.StatusOK, user)
}
