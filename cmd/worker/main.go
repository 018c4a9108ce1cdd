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
	"github.com/benvon/portfolio-api/internal/handlers"
	"github.com/benvon/portfolio-api/internal/logger"
	"github.com/benvon/portfolio-api/internal/metrics"
	"github.com/benvon/portfolio-api/internal/queue"
	"github.com/benvon/portfolio-api/internal/services/notify"
	"github.com/benvon/portfolio-api/internal/telemetry"
	"github.com/benvon/portfolio-api/internal/workers"
	"go.uber.org/zap"
)

const (
	dlqInterval  = time.Hour
	dlqRetention = 24 * time.Hour
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	metricsAddr := flag.String("metrics-addr", ":9091", "Address for the Prometheus metrics endpoint (empty disables)")
	flag.Parse()

	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.WorkerDebugMode || *debugFlag
	zapLogger, err := logger.New("worker", debugMode, logger.FormatJSON)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	if cfg.RabbitMQURL == "" {
		zapLogger.Fatal("rabbitmq_url_not_configured")
	}
	if !cfg.EmailConfigured() {
		zapLogger.Fatal("contact_email_not_configured")
	}

	zapLogger.Info("starting_worker",
		zap.Bool("debug_mode", debugMode),
		zap.Int("prefetch", cfg.RabbitMQPrefetch),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.OTELEnabled && cfg.OTELEndpoint != "" {
		tp, err := telemetry.InitTracer(ctx, telemetry.Config{
			ServiceName:    "portfolio-worker",
			ServiceVersion: handlers.Version,
			Endpoint:       cfg.OTELEndpoint,
		})
		if err != nil {
			zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
					zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
				}
			}()
		}
	}

	jobQueue, err := queue.ConnectWithRetry(ctx, func() (queue.JobQueue, error) {
		return queue.NewRabbitMQQueue(cfg.RabbitMQURL, zapLogger)
	}, queue.DefaultConnectAttempts, queue.DefaultConnectDelay, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq_after_retries", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()

	m := metrics.New()
	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		srv := &http.Server{Addr: *metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				zapLogger.Error("metrics_server_failed", zap.Error(err))
			}
		}()
		defer func() { _ = srv.Close() }()
	}

	if purger, ok := jobQueue.(queue.DLQPurger); ok {
		gc := queue.NewGarbageCollector(purger, dlqInterval, dlqRetention, zapLogger,
			queue.WithPurgeObserver(m.DLQPurged))
		go func() {
			if err := gc.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				zapLogger.Error("dlq_garbage_collector_stopped_with_error", zap.Error(err))
			}
		}()
		zapLogger.Info("started_dlq_garbage_collector",
			zap.Duration("interval", dlqInterval),
			zap.Duration("retention", dlqRetention),
		)
	}

	worker := workers.NewNotificationWorker(
		notify.NewResendSender(cfg.ResendAPIKey, ""),
		jobQueue,
		zapLogger,
		workers.WithWorkerMetrics(m),
	)

	zapLogger.Info("worker_started")
	if err := worker.Run(ctx, jobQueue, cfg.RabbitMQPrefetch); err != nil {
		zapLogger.Error("worker_stopped_with_error", zap.Error(err))
		return
	}
	zapLogger.Info("worker_stopped")
}
