// Package github fetches the public repository feed shown on the projects page.
package github

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/benvon/portfolio-api/internal/models"
	"github.com/go-resty/resty/v2"
)

const (
	// DefaultAPIURL is the GitHub REST API base URL.
	DefaultAPIURL = "https://api.github.com"
	// DefaultRepoLimit is how many repositories the projects page shows.
	DefaultRepoLimit = 6
	// MaxRepoLimit caps the limit query parameter.
	MaxRepoLimit = 30
	// DefaultCacheTTL matches GitHub's unauthenticated rate limit budget.
	DefaultCacheTTL = time.Hour
)

type cacheEntry struct {
	value     any
	expiresAt time.Time
}

// Client reads one user's public profile and repositories, caching results in memory.
type Client struct {
	username string
	http     *resty.Client
	ttl      time.Duration
	now      func() time.Time

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API host, used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.http.SetBaseURL(strings.TrimRight(u, "/")) }
}

// WithToken authenticates requests for the higher rate limit.
func WithToken(token string) Option {
	return func(c *Client) {
		if token != "" {
			c.http.SetAuthToken(token)
		}
	}
}

// WithCacheTTL overrides DefaultCacheTTL. Zero disables caching.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) { c.ttl = ttl }
}

// WithClock injects the time source used for cache expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New creates a client for username.
func New(username string, opts ...Option) *Client {
	c := &Client{
		username: username,
		http: resty.New().
			SetBaseURL(DefaultAPIURL).
			SetTimeout(10*time.Second).
			SetHeader("Accept", "application/vnd.github.v3+json"),
		ttl:   DefaultCacheTTL,
		now:   time.Now,
		cache: make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Username returns the account whose feed is served.
func (c *Client) Username() string {
	return c.username
}

// ClampLimit maps a requested count onto [1, MaxRepoLimit], defaulting to DefaultRepoLimit.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultRepoLimit
	case limit > MaxRepoLimit:
		return MaxRepoLimit
	default:
		return limit
	}
}

// Repos returns the user's most recently updated repositories, without forks,
// ordered by stars and truncated to limit. The page size equals limit, so
// forks reduce the count rather than pulling in older repositories.
func (c *Client) Repos(ctx context.Context, limit int) ([]models.GitHubRepo, error) {
	limit = ClampLimit(limit)
	key := "repos:" + strconv.Itoa(limit)
	if v, ok := c.cached(key); ok {
		return v.([]models.GitHubRepo), nil
	}

	var repos []models.GitHubRepo
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"sort": "updated", "per_page": strconv.Itoa(limit)}).
		SetResult(&repos).
		Get("/users/" + url.PathEscape(c.username) + "/repos")
	if err != nil {
		return nil, fmt.Errorf("github repos request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("github API error: %s", resp.Status())
	}

	out := make([]models.GitHubRepo, 0, len(repos))
	for _, r := range repos {
		if !r.Fork {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StargazersCount > out[j].StargazersCount
	})
	if len(out) > limit {
		out = out[:limit]
	}

	c.store(key, out)
	return out, nil
}

// User returns the user's public profile.
func (c *Client) User(ctx context.Context) (*models.GitHubUser, error) {
	const key = "user"
	if v, ok := c.cached(key); ok {
		u := v.(models.GitHubUser)
		return &u, nil
	}

	var user models.GitHubUser
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&user).
		Get("/users/" + url.PathEscape(c.username))
	if err != nil {
		return nil, fmt.Errorf("github user request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("github API error: %s", resp.Status())
	}

	c.store(key, user)
	return &user, nil
}

func (c *Client) cached(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.cache[key]
	if !ok || !c.now().Before(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

func (c *Client) store(key string, v any) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[key] = cacheEntry{value: v, expiresAt: c.now().Add(c.ttl)}
}
