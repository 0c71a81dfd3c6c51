// Command server runs the vocalscribe HTTP job API: multipart audio
// upload, job status polling, and background transcription via a worker
// pool, with structured logging and signal-driven graceful shutdown.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vocalscribe/vocalscribe/internal/config"
	"github.com/vocalscribe/vocalscribe/internal/estimator"
	"github.com/vocalscribe/vocalscribe/internal/httpapi"
	"github.com/vocalscribe/vocalscribe/internal/jobstore"
	"github.com/vocalscribe/vocalscribe/internal/webhook"
	"github.com/vocalscribe/vocalscribe/internal/worker"
)

const numWorkers = 4

func main() {
	cfg := config.Parse()

	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		logger.Error("failed to create data directory", "path", cfg.DataDir, "error", err)
		os.Exit(1)
	}

	db, err := jobstore.Open(cfg.DataDir, logger)
	if err != nil {
		logger.Error("failed to open job store", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	sender := webhook.NewSender(cfg.WebhookTimeout, cfg.WebhookMaxRetries, config.WebhookSecret(), logger)

	// TODO(vocalscribe): wire a real neural estimator here once one is
	// available; estimator.Sinusoidal only exists to exercise the pipeline
	// in tests.
	pool := worker.NewPool(db, estimator.Sinusoidal{}, sender, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go pool.Run(ctx, numWorkers)

	api := httpapi.NewServer(cfg, logger, db)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: api.Handler(),
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("shutting down", "signal", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	}()

	logger.Info("starting vocalscribe server", "port", cfg.Port, "data_dir", cfg.DataDir)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
