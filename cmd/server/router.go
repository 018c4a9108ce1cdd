package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/benvon/portfolio-api/api/openapi"
	"github.com/benvon/portfolio-api/internal/handlers"
	"github.com/benvon/portfolio-api/internal/metrics"
	"github.com/benvon/portfolio-api/internal/middleware"
	"github.com/benvon/portfolio-api/internal/telemetry"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const serviceName = "portfolio-api"

// routerDeps is everything the HTTP surface needs. GitHub may be nil when no
// username is configured; Redis may be nil for in-process API rate limits.
type routerDeps struct {
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
	Contact   handlers.Submitter
	Turnstile handlers.TokenVerifier
	GitHub    handlers.GitHubFeed
	Health    *handlers.HealthChecker
	Redis     *redis.Client

	FrontendURL  string
	EnableHSTS   bool
	APIRateLimit string
	Tracing      bool
}

func newRouter(d routerDeps) (http.Handler, error) {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	health := d.Health
	if health == nil {
		health = handlers.NewHealthChecker()
	}

	r := mux.NewRouter()

	// First registered runs outermost.
	if d.Tracing {
		r.Use(telemetry.Middleware(serviceName))
	}
	r.Use(middleware.SecurityHeaders(d.EnableHSTS))
	r.Use(middleware.ErrorHandler(log))
	r.Use(middleware.Audit(log))
	r.Use(middleware.Logging(log))

	r.HandleFunc("/healthz", health.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/version", handlers.VersionHandler).Methods(http.MethodGet)
	r.Handle("/metrics", d.Metrics.Handler()).Methods(http.MethodGet)

	openAPIHandler, err := handlers.NewOpenAPIHandler(openapi.Spec)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI document: %w", err)
	}
	openAPIHandler.RegisterRoutes(r)

	// The contact route carries its own fixed-window limiter and body checks,
	// so malformed and oversized submissions still spend quota. Its service
	// bounds persist and notify itself.
	handlers.NewContactHandler(d.Contact, log).RegisterRoutes(r)

	apiLimit, err := middleware.APIRateLimit(d.APIRateLimit, d.Redis, log)
	if err != nil {
		return nil, fmt.Errorf("invalid API rate limit %q: %w", d.APIRateLimit, err)
	}
	limited := r.NewRoute().Subrouter()
	limited.Use(apiLimit)
	limited.Use(middleware.Timeout(middleware.DefaultRequestTimeout))
	limited.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	limited.Use(middleware.ContentType)
	handlers.NewTurnstileHandler(d.Turnstile, log).RegisterRoutes(limited)
	if d.GitHub != nil {
		handlers.NewGitHubHandler(d.GitHub, log).RegisterRoutes(limited)
	}

	// CORS sits outside the router so preflights for any path are answered.
	return middleware.CORS(d.FrontendURL, log)(r), nil
}

func newServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:           addr,
		Handler:        handler,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
}
