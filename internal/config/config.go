package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends for contact submissions.
const (
	StoreBackendPostgres = "postgres"
	StoreBackendSupabase = "supabase"
)

// Rate limit store backends.
const (
	RateLimitBackendMemory = "memory"
	RateLimitBackendRedis  = "redis"
)

// Notification delivery modes.
const (
	NotifyModeInline = "inline"
	NotifyModeQueue  = "queue"
)

// Config holds application configuration
type Config struct {
	ServerPort  string
	FrontendURL string
	EnableHSTS  bool

	StoreBackend    string
	DatabaseURL     string
	SupabaseURL     string
	SupabaseAnonKey string

	RateLimitBackend       string
	RedisURL               string
	ContactRateLimitMax    int
	ContactRateLimitWindow time.Duration
	RateLimitSweepInterval time.Duration
	APIRateLimit           string

	NotifyMode       string
	ResendAPIKey     string
	ContactEmailFrom string
	ContactEmailTo   string
	RabbitMQURL      string
	RabbitMQPrefetch int

	PersistTimeout time.Duration
	NotifyTimeout  time.Duration

	TurnstileSecretKey string
	GitHubUsername     string
	GitHubToken        string

	WorkerDebugMode bool
	ServerDebugMode bool
	OTELEnabled     bool
	OTELEndpoint    string
}

// LoadDotEnv loads variables from the given .env files (default ".env").
// Missing files are ignored and variables already set in the environment win.
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		_ = godotenv.Load(p)
	}
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		EnableHSTS:  getEnvBool("ENABLE_HSTS", false),

		StoreBackend:    getEnv("STORE_BACKEND", StoreBackendPostgres),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		SupabaseURL:     getEnv("SUPABASE_URL", ""),
		SupabaseAnonKey: getEnv("SUPABASE_ANON_KEY", ""),

		RateLimitBackend:       getEnv("RATE_LIMIT_BACKEND", RateLimitBackendMemory),
		RedisURL:               getEnv("REDIS_URL", ""),
		ContactRateLimitMax:    getEnvInt("CONTACT_RATE_LIMIT_MAX", 5),
		ContactRateLimitWindow: getEnvDuration("CONTACT_RATE_LIMIT_WINDOW", 15*time.Minute),
		RateLimitSweepInterval: getEnvDuration("RATE_LIMIT_SWEEP_INTERVAL", time.Minute),
		APIRateLimit:           getEnv("API_RATE_LIMIT", "30-M"),

		NotifyMode:       getEnv("NOTIFY_MODE", NotifyModeInline),
		ResendAPIKey:     getEnv("RESEND_API_KEY", ""),
		ContactEmailFrom: getEnv("CONTACT_EMAIL_FROM", "Portfolio <onboarding@resend.dev>"),
		ContactEmailTo:   getEnv("CONTACT_EMAIL_TO", ""),
		RabbitMQURL:      getEnv("RABBITMQ_URL", ""),
		RabbitMQPrefetch: getEnvInt("RABBITMQ_PREFETCH", 1),

		PersistTimeout: getEnvDuration("PERSIST_TIMEOUT", 10*time.Second),
		NotifyTimeout:  getEnvDuration("NOTIFY_TIMEOUT", 5*time.Second),

		TurnstileSecretKey: getEnv("TURNSTILE_SECRET_KEY", ""),
		GitHubUsername:     getEnv("GITHUB_USERNAME", ""),
		GitHubToken:        getEnv("GITHUB_TOKEN", ""),

		WorkerDebugMode: getEnvBool("WORKER_DEBUG_MODE", false),
		ServerDebugMode: getEnvBool("SERVER_DEBUG_MODE", false),
		OTELEnabled:     getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every selected backend has the settings it needs.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreBackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when STORE_BACKEND=postgres")
		}
	case StoreBackendSupabase:
		if c.SupabaseURL == "" || c.SupabaseAnonKey == "" {
			return errors.New("SUPABASE_URL and SUPABASE_ANON_KEY are required when STORE_BACKEND=supabase")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q (want %s or %s)", c.StoreBackend, StoreBackendPostgres, StoreBackendSupabase)
	}

	switch c.RateLimitBackend {
	case RateLimitBackendMemory:
	case RateLimitBackendRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required when RATE_LIMIT_BACKEND=redis")
		}
	default:
		return fmt.Errorf("unknown RATE_LIMIT_BACKEND %q (want %s or %s)", c.RateLimitBackend, RateLimitBackendMemory, RateLimitBackendRedis)
	}

	switch c.NotifyMode {
	case NotifyModeInline:
	case NotifyModeQueue:
		if c.RabbitMQURL == "" {
			return errors.New("RABBITMQ_URL is required when NOTIFY_MODE=queue")
		}
	default:
		return fmt.Errorf("unknown NOTIFY_MODE %q (want %s or %s)", c.NotifyMode, NotifyModeInline, NotifyModeQueue)
	}

	if c.ContactRateLimitMax < 1 {
		return fmt.Errorf("CONTACT_RATE_LIMIT_MAX must be at least 1, got %d", c.ContactRateLimitMax)
	}
	if c.ContactRateLimitWindow <= 0 {
		return errors.New("CONTACT_RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

// EmailConfigured reports whether inline or queued email delivery can work.
func (c *Config) EmailConfigured() bool {
	return c.ResendAPIKey != "" && c.ContactEmailTo != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
