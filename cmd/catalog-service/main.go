// catalog-service is a small item catalog that exercises the shared request
// pipeline, error handling, pagination, SQL logging and API documentation.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/text/language"

	"libcommon/internal/api"
	"libcommon/internal/catalog"
	"libcommon/internal/health"
	"libcommon/pkg/config"
	"libcommon/pkg/logctx"
	"libcommon/pkg/message"
	"libcommon/pkg/middleware"
	"libcommon/pkg/observability"
	"libcommon/pkg/stack"
	"libcommon/pkg/swagger"
)

func main() {
	slog.SetDefault(slog.New(logctx.NewHandler(slog.NewJSONHandler(os.Stdout, nil))))

	if err := run(); err != nil {
		slog.Error("Service failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg := config.Load()

	// Setup tracing and metrics
	tracerProvider, err := observability.NewTracerProvider(ctx, cfg.OTLPEndpoint, cfg.ServiceName)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Tracer provider shutdown error", "error", err)
		}
	}()

	metrics, metricsHandler, err := observability.NewMetrics(ctx)
	if err != nil {
		return err
	}

	messages, err := loadMessages(ctx, cfg)
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(ctx, cfg, metrics)
	if err != nil {
		return err
	}
	defer closeStore()
	logged := catalog.WithCallLogging(store, slog.Default())

	docs, err := newSwaggerController(cfg)
	if err != nil {
		return err
	}

	healthChecker := health.NewChecker(map[string]health.ReadinessChecker{"store": store})

	pipeline := stack.New(stack.Options{
		Tracer:   tracerProvider.Tracer(cfg.ServiceName),
		Messages: messages,
		Metrics:  metrics,
	})

	router := api.NewRouter(api.RouterConfig{
		Store:         logged,
		HealthChecker: healthChecker,
		Stack:         pipeline,
		Swagger:       docs,
		APIKey:        cfg.APIKey,
		RateLimiter:   middleware.NewLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
	})

	if cfg.APIKey != "" {
		slog.Info("API authentication enabled")
	} else {
		slog.Warn("API authentication disabled - no API_KEY_FILE configured")
	}

	// Create API server
	apiServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Create metrics server
	metricsMux := http.NewServeMux()
	metricsMux.Handle("GET /metrics", metricsHandler)
	metricsServer := &http.Server{
		Addr:         ":" + cfg.MetricsPort,
		Handler:      metricsMux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)

	go func() {
		slog.Info("Starting API server", "port", cfg.Port)
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	go func() {
		slog.Info("Starting metrics server", "port", cfg.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// shutdown closes both servers gracefully
	shutdown := func(timeout time.Duration) {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := apiServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("API server shutdown error", "error", err)
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server shutdown error", "error", err)
		}
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("Received shutdown signal", "signal", sig)
	case err := <-serverErr:
		slog.Error("Server failed to start", "error", err)
		shutdown(5 * time.Second)
		return err
	}

	// Phase 1: Mark service as unhealthy for load balancer draining
	healthChecker.SetShuttingDown()

	if cfg.ShutdownDrainWait > 0 {
		slog.Info("Waiting for traffic to drain", "duration", cfg.ShutdownDrainWait)
		time.Sleep(cfg.ShutdownDrainWait)
	}

	// Phase 2: stop accepting new connections, finish in-flight requests
	slog.Info("Starting graceful shutdown")
	shutdown(25 * time.Second)

	slog.Info("Shutdown complete")
	return nil
}

func loadMessages(ctx context.Context, cfg *config.Config) (*message.Source, error) {
	fallback, err := language.Parse(cfg.DefaultLocale)
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_LOCALE %q: %w", cfg.DefaultLocale, err)
	}
	messages := message.NewSource(fallback)
	if cfg.MessagesFile == "" {
		return messages, nil
	}

	if err := messages.ReloadFile(cfg.MessagesFile); err != nil {
		return nil, err
	}
	if cfg.MessagesWatch {
		if err := messages.Watch(ctx, cfg.MessagesFile); err != nil {
			slog.Warn("Message catalog will not be reloaded", "error", err)
		}
	}
	return messages, nil
}

// openStore uses PostgreSQL when DATABASE_URL is set and memory otherwise.
func openStore(ctx context.Context, cfg *config.Config, metrics *observability.Metrics) (catalog.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		slog.Warn("No DATABASE_URL configured - items are kept in memory")
		return catalog.NewMemoryStore(), func() {}, nil
	}

	store, err := catalog.OpenPostgres(ctx, catalog.PostgresConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MigrationsPath: cfg.MigrationsPath,
		SQL:            cfg.SQL,
		Logger:         slog.Default(),
		Metrics:        metrics,
	})
	if err != nil {
		return nil, nil, err
	}
	slog.Info("Connected to PostgreSQL")
	return store, func() {
		if err := store.Close(); err != nil {
			slog.Warn("Database close error", "error", err)
		}
	}, nil
}

// newSwaggerController returns nil when both documentation flags are off.
func newSwaggerController(cfg *config.Config) (*swagger.Controller, error) {
	if !cfg.Swagger.APIDocsEnabled && !cfg.Swagger.UIEnabled {
		return nil, nil
	}

	props, err := swagger.LoadPropertiesFile(cfg.Swagger.PropertiesFile)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(cfg.Swagger.SpecPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read openapi document: %w", err)
	}
	spec, err := swagger.ParseSpec(data)
	if err != nil {
		return nil, err
	}

	swagger.Customizer{Props: props, Resources: os.DirFS(cfg.Swagger.ResourcesDir)}.Customize(spec)
	return swagger.NewController(spec, cfg.Swagger.APIDocsEnabled, cfg.Swagger.UIEnabled)
}
