// The fakeagent binary serves a scripted stand-in for the real agent
// backend: the chat stream, conversation history, and catalog endpoints
// with canned responses. Useful for developing the CLI offline and for
// end-to-end tests.
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/gd03champ/swiggy-ai-agent/internal/config"
	"github.com/gd03champ/swiggy-ai-agent/internal/fakeagent"
	"github.com/gd03champ/swiggy-ai-agent/internal/server"
	"github.com/gd03champ/swiggy-ai-agent/internal/storage"
	"github.com/gd03champ/swiggy-ai-agent/internal/storage/memory"
	"github.com/gd03champ/swiggy-ai-agent/internal/storage/sqlite"
	"github.com/gd03champ/swiggy-ai-agent/internal/telemetry"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.Init("swiggy-fakeagent", logger)
		if err != nil {
			log.Fatalf("Failed to initialize tracer: %v", err)
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
			}
		}()
	}

	store, err := openStore(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close store", slog.String("error", err.Error()))
		}
	}()

	srv := server.New(cfg.Server.Addr, logger)
	fakeagent.NewHandler(store, fakeagent.WithLogger(logger)).Mount(srv.Router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	logger.Info("fakeagent started",
		slog.String("addr", cfg.Server.Addr),
		slog.String("storage", cfg.Storage.Driver))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
		return
	case <-sigChan:
	}

	logger.Info("Shutdown signal received, stopping fakeagent...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("fakeagent shutdown complete")
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func openStore(cfg config.StorageConfig) (storage.Store, error) {
	if cfg.Driver == "sqlite" {
		return sqlite.New(cfg.DSN)
	}
	return memory.New(), nil
}
