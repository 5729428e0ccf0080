// Package cli holds the startup steps shared by cmd/bilardo and cmd/stock-worker.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"bilardo/internal/backend"
	"bilardo/internal/cache"
	"bilardo/internal/config"
	"bilardo/internal/core"
	applog "bilardo/internal/log"
	"bilardo/internal/store"
)

// LoadEnvFile loads .env for local development. A missing file is ignored.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the application logger and installs it as slog's default.
func SetupLogger(level string) *applog.Logger {
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(level),
		Component: applog.ComponentApp,
		Output:    os.Stdout,
	})
	applog.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig exits the process when the configuration is invalid.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// OpenSource opens the configured backend and wraps it in a caching record
// source. The returned cleanup closes the backend and stops the cache sweeper.
func OpenSource(ctx context.Context, logger *applog.Logger, cfg *config.Config) (*store.Source, func()) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	opts := []store.SourceOption{store.WithLogger(logger.WithComponent(applog.ComponentStore).Logger)}
	manager := cache.NewManager(logger.WithComponent(applog.ComponentCache).Logger)
	if cfg.RecordCacheTTL > 0 {
		records := cache.NewLRUCache[[]core.Record](8, cfg.RecordCacheTTL)
		manager.Register(records)
		manager.StartCleanup(cfg.RecordCacheTTL)
		opts = append(opts, store.WithRecordCache(records))
	}

	src := store.NewSource(result.KV, bcfg.Keys, opts...)
	cleanup := func() {
		manager.Stop()
		if err := result.Close(); err != nil {
			logger.Warn("Backend cleanup failed", "error", err)
		}
	}
	return src, cleanup
}

// ShutdownContext is cancelled on SIGINT or SIGTERM.
func ShutdownContext(logger *applog.Logger) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received")
	}()
	return ctx, stop
}

// RunCleanup runs fn and gives up after timeout.
func RunCleanup(logger *applog.Logger, timeout time.Duration, fn func()) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	select {
	case <-done:
		logger.Info("Shutdown complete")
	case <-time.After(timeout):
		logger.Warn("Shutdown timeout reached")
	}
}
