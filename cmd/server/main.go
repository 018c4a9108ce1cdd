package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/portfolio-api/internal/config"
	"github.com/benvon/portfolio-api/internal/contact"
	"github.com/benvon/portfolio-api/internal/database"
	"github.com/benvon/portfolio-api/internal/handlers"
	"github.com/benvon/portfolio-api/internal/logger"
	"github.com/benvon/portfolio-api/internal/metrics"
	"github.com/benvon/portfolio-api/internal/queue"
	"github.com/benvon/portfolio-api/internal/ratelimit"
	"github.com/benvon/portfolio-api/internal/services/github"
	"github.com/benvon/portfolio-api/internal/services/notify"
	"github.com/benvon/portfolio-api/internal/services/supabase"
	"github.com/benvon/portfolio-api/internal/services/turnstile"
	"github.com/benvon/portfolio-api/internal/telemetry"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	migrateFlag := flag.Bool("migrate", false, "Apply pending database migrations on startup (postgres backend)")
	flag.Parse()

	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag
	zapLogger, err := logger.New("server", debugMode, logger.FormatJSON)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.String("store_backend", cfg.StoreBackend),
		zap.String("rate_limit_backend", cfg.RateLimitBackend),
		zap.String("notify_mode", cfg.NotifyMode),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracing := false
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(ctx, telemetry.Config{
				ServiceName:    serviceName,
				ServiceVersion: handlers.Version,
				Endpoint:       cfg.OTELEndpoint,
			})
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				tracing = true
				zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	m := metrics.New()
	health := handlers.NewHealthChecker()

	store, closeStore := openSubmissionStore(ctx, cfg, *migrateFlag, health, zapLogger)
	defer closeStore()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = ratelimit.NewRedisClient(cfg.RedisURL)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
		health.AddCheck("redis", func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })
		zapLogger.Info("connected_to_redis")
	}

	var limiterStore ratelimit.Store
	if cfg.RateLimitBackend == config.RateLimitBackendRedis {
		limiterStore = ratelimit.NewRedisStore(redisClient, ratelimit.DefaultRedisKeyPrefix)
	} else {
		memStore := ratelimit.NewMemoryStore()
		janitor := ratelimit.NewJanitor(memStore, cfg.RateLimitSweepInterval, zapLogger,
			ratelimit.WithSweepObserver(m.Swept))
		go func() {
			if err := janitor.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				zapLogger.Error("rate_limit_janitor_stopped_with_error", zap.Error(err))
			}
		}()
		limiterStore = memStore
	}
	contactLimiter := ratelimit.New(limiterStore,
		ratelimit.WithMaxRequests(cfg.ContactRateLimitMax),
		ratelimit.WithWindow(cfg.ContactRateLimitWindow),
		ratelimit.WithLogger(zapLogger),
	)

	notifier, closeNotifier := newNotifier(ctx, cfg, health, zapLogger)
	defer closeNotifier()

	opts := []contact.Option{
		contact.WithTimeouts(cfg.PersistTimeout, cfg.NotifyTimeout),
		contact.WithMetrics(m),
		contact.WithLogger(zapLogger),
	}
	if notifier != nil {
		opts = append(opts, contact.WithNotifier(notifier))
	}
	contactService := contact.NewService(contactLimiter, store, opts...)

	deps := routerDeps{
		Logger:       zapLogger,
		Metrics:      m,
		Contact:      contactService,
		Turnstile:    turnstile.NewVerifier(cfg.TurnstileSecretKey, ""),
		Health:       health,
		Redis:        redisClient,
		FrontendURL:  cfg.FrontendURL,
		EnableHSTS:   cfg.EnableHSTS,
		APIRateLimit: cfg.APIRateLimit,
		Tracing:      tracing,
	}
	if cfg.GitHubUsername != "" {
		deps.GitHub = github.New(cfg.GitHubUsername, github.WithToken(cfg.GitHubToken))
	}

	router, err := newRouter(deps)
	if err != nil {
		zapLogger.Fatal("failed_to_build_router", zap.Error(err))
	}
	srv := newServer(":"+cfg.ServerPort, router)

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("server_shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

// openSubmissionStore connects the configured submission backend and
// registers its health check.
func openSubmissionStore(ctx context.Context, cfg *config.Config, migrate bool, health *handlers.HealthChecker, zapLogger *zap.Logger) (contact.SubmissionStore, func()) {
	if cfg.StoreBackend == config.StoreBackendSupabase {
		client := supabase.New(cfg.SupabaseURL, cfg.SupabaseAnonKey)
		health.AddCheck("supabase", client.Ping)
		zapLogger.Info("using_supabase_store")
		return client, func() {}
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	zapLogger.Info("connected_to_database")

	if migrate {
		applied, err := db.Migrate(ctx, zapLogger)
		if err != nil {
			_ = db.Close()
			zapLogger.Fatal("failed_to_apply_migrations", zap.Error(err))
		}
		zapLogger.Info("migrations_applied", zap.Int("count", applied))
	}

	health.AddCheck("database", db.HealthCheck)
	return database.NewContactSubmissionRepository(db), func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}
}

// newNotifier returns nil when email is not configured; submissions are then
// stored without a notification.
func newNotifier(ctx context.Context, cfg *config.Config, health *handlers.HealthChecker, zapLogger *zap.Logger) (notify.Notifier, func()) {
	if !cfg.EmailConfigured() {
		zapLogger.Warn("contact_email_not_configured_notifications_disabled")
		return nil, func() {}
	}
	renderer := notify.NewRenderer(cfg.ContactEmailFrom, cfg.ContactEmailTo)

	if cfg.NotifyMode != config.NotifyModeQueue {
		return notify.NewEmailNotifier(renderer, notify.NewResendSender(cfg.ResendAPIKey, "")), func() {}
	}

	jobQueue, err := queue.ConnectWithRetry(ctx, func() (queue.JobQueue, error) {
		return queue.NewRabbitMQQueue(cfg.RabbitMQURL, zapLogger)
	}, queue.DefaultConnectAttempts, queue.DefaultConnectDelay, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq_after_retries", zap.Error(err))
	}
	health.AddCheck("rabbitmq", jobQueue.HealthCheck)

	return notify.NewQueueNotifier(renderer, jobQueue), func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}
}
