// Decisiond is a decision coaching daemon with an HTTP transport.
//
// This binary starts the decisiond HTTP server with full service
// initialization: session store, reasoning provider gateway, dialogue
// engine, and metric export.
//
// Configuration is loaded from a YAML file and environment variables. See
// internal/config for details.
//
// Usage:
//
//	# Start server with defaults
//	decisiond
//
//	# Configure via environment
//	SERVER_PORT=9000 PROVIDER_API_KEY=sk-... decisiond
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/decisiond/internal/config"
	"github.com/fyrsmithlabs/decisiond/internal/dialogue"
	httpserver "github.com/fyrsmithlabs/decisiond/internal/http"
	"github.com/fyrsmithlabs/decisiond/internal/logging"
	"github.com/fyrsmithlabs/decisiond/internal/provider"
	"github.com/fyrsmithlabs/decisiond/internal/services"
	"github.com/fyrsmithlabs/decisiond/internal/session"
	"github.com/fyrsmithlabs/decisiond/internal/telemetry"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default ~/.config/decisiond/config.yaml)")
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  decisiond           Start the decisiond daemon\n")
			fmt.Fprintf(os.Stderr, "  decisiond version   Show version information\n")
			os.Exit(1)
		}
	}

	// Signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("decisiond by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the decisiond server and blocks until context cancellation.
//
// This function initializes all dependencies and services:
//  1. Loads and validates configuration
//  2. Initializes logger and telemetry
//  3. Opens the session store (memory or sqlite)
//  4. Creates the reasoning provider gateway
//  5. Wires the dialogue engine and service registry
//  6. Starts the HTTP server
//  7. Performs graceful shutdown on context cancellation
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync() // Best-effort sync on shutdown
	}()

	logger.Info("Starting decisiond",
		zap.Int("port", cfg.Server.Port),
		zap.String("provider_backend", cfg.Provider.Backend),
		zap.String("store", cfg.Store.Provider),
		zap.Int("question_budget", cfg.Dialogue.QuestionBudget),
	)

	tel, err := telemetry.New(ctx, cfg.Telemetry, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	store, err := openStore(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("session store close failed", zap.Error(err))
		}
	}()

	gateway, err := provider.New(cfg.Provider, logger)
	if err != nil {
		return fmt.Errorf("failed to create provider gateway: %w", err)
	}

	engine, err := dialogue.NewEngine(store, gateway, logger, dialogue.Config{
		QuestionBudget: cfg.Dialogue.QuestionBudget,
	})
	if err != nil {
		return fmt.Errorf("failed to create dialogue engine: %w", err)
	}
	engine.WithMetrics(dialogue.NewMetrics(logger))

	registry := services.NewRegistry(services.Options{
		Dialogue: engine,
		Sessions: store,
		Provider: gateway,
	})

	srv, err := httpserver.NewServer(registry.Dialogue(), logger, &httpserver.Config{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	})
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	httpMetrics := httpserver.NewHTTPMetrics(logger)
	srv.Echo().Use(httpMetrics.MetricsMiddleware())

	// Metrics endpoint
	srv.Echo().GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	logger.Info("Server configured",
		zap.String("health_endpoint", fmt.Sprintf("http://%s:%d/health", cfg.Server.Host, cfg.Server.Port)),
		zap.String("api_prefix", "/api/v1"),
		zap.String("metrics_endpoint", "/metrics"),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStore creates the configured session store.
func openStore(cfg *config.Config, logger *zap.Logger) (session.Store, error) {
	switch cfg.Store.Provider {
	case "memory":
		return session.NewMemoryStore(), nil
	case "sqlite":
		path, err := config.ExpandHome(cfg.Store.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("resolving sqlite path: %w", err)
		}
		store, err := session.NewSQLiteStore(path)
		if err != nil {
			return nil, err
		}
		logger.Info("sqlite session store opened", zap.String("path", path))
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store provider %q", cfg.Store.Provider)
	}
}
