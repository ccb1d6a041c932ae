package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/staffdir/internal/config"
	"github.com/JonMunkholm/staffdir/internal/core"
	"github.com/JonMunkholm/staffdir/internal/logging"
	"github.com/JonMunkholm/staffdir/internal/metrics"
	"github.com/JonMunkholm/staffdir/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded", "config", cfg.String())

	collation, err := core.NewCollation(cfg.Directory.Locale)
	if err != nil {
		slog.Error("failed to build collation", "error", err)
		os.Exit(1)
	}

	ids := core.NewRandomIDGenerator(nil)
	store := core.NewStore(core.StoreOptions{
		IDs:       ids,
		Collation: collation,
	})
	if cfg.Directory.SeedEnabled {
		slog.Info("directory seeded", "employees", store.Seed())
	}

	mc := metrics.New()
	mc.WithEmployeeGauge(func() float64 { return float64(store.Len()) })
	mc.WithFallbackIDCounter(func() float64 { return float64(ids.Fallbacks()) })

	server := web.NewServer(store, web.NewOptions(cfg, mc))

	// Graceful shutdown
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-stopped
	slog.Info("server stopped", "employees", store.Len())
}
