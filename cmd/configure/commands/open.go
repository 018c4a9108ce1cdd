// Package commands implements the portfolio-configure subcommands.
package commands

import (
	"errors"
	"fmt"

	"github.com/benvon/portfolio-api/internal/config"
	"github.com/benvon/portfolio-api/internal/database"
	"github.com/benvon/portfolio-api/internal/ratelimit"
)

// OpenDatabase connects to DATABASE_URL. Admin commands always talk to
// Postgres directly, whatever backend the server writes through.
func OpenDatabase() (*database.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// OpenSubmissions returns the submission repository and its closer.
func OpenSubmissions() (database.ContactSubmissionRepositoryInterface, func() error, error) {
	db, err := OpenDatabase()
	if err != nil {
		return nil, nil, err
	}
	return database.NewContactSubmissionRepository(db), db.Close, nil
}

// OpenRateLimitStore connects to the shared Redis contact rate limit store.
// The in-memory backend lives inside the server process and cannot be reached.
func OpenRateLimitStore() (ratelimit.Store, func() error, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.RateLimitBackend != config.RateLimitBackendRedis {
		return nil, nil, fmt.Errorf("rate limit backend is %q; only the redis backend can be managed", cfg.RateLimitBackend)
	}
	client, err := ratelimit.NewRedisClient(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return ratelimit.NewRedisStore(client, ratelimit.DefaultRedisKeyPrefix), client.Close, nil
}
