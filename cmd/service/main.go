// Package main is the entry point for the jokeboard web service.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jsamuelsen/jokeboard/internal/adapters/clients"
	"github.com/jsamuelsen/jokeboard/internal/adapters/clients/acl"
	"github.com/jsamuelsen/jokeboard/internal/adapters/http"
	"github.com/jsamuelsen/jokeboard/internal/adapters/http/handlers"
	"github.com/jsamuelsen/jokeboard/internal/adapters/http/middleware"
	"github.com/jsamuelsen/jokeboard/internal/app"
	"github.com/jsamuelsen/jokeboard/internal/platform/config"
	"github.com/jsamuelsen/jokeboard/internal/platform/logging"
	"github.com/jsamuelsen/jokeboard/internal/platform/metrics"
	"github.com/jsamuelsen/jokeboard/internal/platform/telemetry"
	"github.com/jsamuelsen/jokeboard/internal/ports"
	"github.com/jsamuelsen/jokeboard/internal/render"
)

// Build-time variables, injected via ldflags.
// Example: go build -ldflags "-X main.Version=1.0.0 -X main.Commit=$(git rev-parse HEAD) -X main.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	// Version is the semantic version of the service.
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "unknown"

	// BuildTime is the timestamp when the binary was built.
	BuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. Determine profile from environment
	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	// 2. Load and validate configuration (fail fast)
	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// 3. Initialize logging
	logger := logging.New(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
		SessionCookie: cfg.Jokes.SessionCookie,
	})
	logging.SetDefault(logger)

	logger.Info("starting service",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
	)

	// 4. Initialize telemetry (noop if disabled)
	telProvider, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,

		JokeSource:      cfg.Jokes.Source.Name,
		ExportInterval:  cfg.Telemetry.ExportInterval,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	defer func() {
		if shutdownErr := telProvider.Shutdown(context.Background()); shutdownErr != nil {
			logger.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	// 5. Create HTTP client for the joke source
	httpClient, err := clients.New(&clients.Config{
		BaseURL:     cfg.Jokes.Source.BaseURL,
		ServiceName: cfg.Jokes.Source.Name,
		Timeout:     cfg.Client.Timeout,
		Circuit:     cfg.Client.CircuitBreaker,
		RateLimit:   cfg.Client.RateLimit,
		Transport:   cfg.Client.Transport,
		UserAgent:   cfg.App.Name + "/" + Version,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("creating HTTP client: %w", err)
	}

	// 6. Create joke client adapter (ACL pattern)
	jokeClient := acl.NewJokeClient(acl.JokeClientConfig{
		Client:      httpClient,
		ServiceName: cfg.Jokes.Source.Name,
		Logger:      logger,
	})

	healthRegistry := ports.NewHealthRegistry(ports.WithCheckTimeout(cfg.Jokes.HealthTimeout))
	if err := healthRegistry.Register(jokeClient); err != nil {
		return fmt.Errorf("registering joke source health check: %w", err)
	}

	// 7. Create the per-session store provider (application layer)
	recorder := metrics.New()

	provider := app.NewProvider(app.ProviderConfig{
		Source:        jokeClient,
		Logger:        logger,
		InitialCount:  cfg.Jokes.InitialCount,
		SessionTTL:    cfg.Jokes.SessionTTL,
		SweepInterval: cfg.Jokes.SweepInterval,
		Concurrency:   cfg.Jokes.Concurrency,
		Recorder:      recorder,
	})

	sweepDone := make(chan struct{})

	go func() {
		defer close(sweepDone)

		if err := provider.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("session sweeper stopped", slog.Any("error", err))
		}
	}()

	// 8. Create handlers
	renderer, err := render.NewRenderer()
	if err != nil {
		return fmt.Errorf("loading templates: %w", err)
	}

	limits := handlers.RefreshLimits{
		DefaultCount: cfg.Jokes.InitialCount,
		MaxCount:     cfg.Jokes.MaxCount,
	}

	buildInfo := handlers.NewBuildInfo(Version, Commit, BuildTime)
	healthHandler := handlers.NewHealthHandler(healthRegistry, buildInfo, recorder.Gatherer())
	jokesHandler := handlers.NewJokesHandler(limits)
	pageHandler := handlers.NewPageHandler(handlers.PageConfig{
		Limits:   limits,
		Renderer: renderer,
	})

	// 9. Create HTTP server
	server := http.New(&cfg.Server, logger)

	// 10. Setup router with all middleware and routes
	http.SetupRouter(server.Engine(), http.RouterConfig{
		Logger:      logger,
		ServiceName: cfg.Telemetry.ServiceName,
		Sessions:    provider,
		Session: middleware.SessionConfig{
			CookieName: cfg.Jokes.SessionCookie,
			TTL:        cfg.Jokes.SessionTTL,
			Secure:     cfg.App.Environment == "prod",
		},
		HealthHandler: healthHandler,
		JokesHandler:  jokesHandler,
		PageHandler:   pageHandler,
		Timeout:       cfg.Server.RequestTimeout,
	})

	// 11. Start server (non-blocking)
	serverErr, err := server.Start()
	if err != nil {
		return fmt.Errorf("starting server: %w", err)
	}

	// 12. Wait for shutdown signal
	shutdownErr := waitForShutdown(ctx, logger, server, serverErr, cfg.Server.ShutdownTimeout)

	// Stop the sweeper, which closes every session store.
	cancel()
	<-sweepDone

	return shutdownErr
}

// waitForShutdown blocks until a shutdown signal is received or server error occurs.
// It then performs graceful shutdown of the HTTP server.
func waitForShutdown(
	ctx context.Context,
	logger *slog.Logger,
	server *http.Server,
	serverErr <-chan error,
	shutdownTimeout time.Duration,
) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-serverErr:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}

		return nil

	case sig := <-quit:
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	logger.Info("initiating graceful shutdown",
		slog.Duration("timeout", shutdownTimeout),
	)

	// Stop accepting new requests, drain in-flight
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("shutdown complete")

	return nil
}
