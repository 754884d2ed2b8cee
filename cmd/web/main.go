// Command web serves the computed report tables as a read-only JSON API.
// It runs the pipeline once over the configured data directory at startup
// and then serves the published snapshot.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"sabercli/internal/config"
	"sabercli/internal/infrastructure"
	"sabercli/internal/services"
	transport "sabercli/internal/transport/http"
)

func main() {
	inDir := flag.String("in", "", "input directory of CSV batches (defaults to the configured data dir)")
	exam := flag.String("exam", "saber11", "exam family: saber11 or saber359")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *inDir == "" {
		*inDir = cfg.Paths.DataDir
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	if err := run(cfg, logger, *inDir, *exam); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, inDir, exam string) error {
	ctx := infrastructure.EnsureTraceID(context.Background())

	service := services.NewAnalyticsService(cfg.Analytics, logger)

	loader := services.NewBatchLoader(logger)
	batches, err := loader.LoadDir(inDir)
	if err != nil {
		return fmt.Errorf("load batches: %w", err)
	}
	if len(batches) > 0 {
		sentinel := config.SentinelSaber11
		if exam == "saber359" {
			sentinel = config.SentinelSaber359
		}
		if _, err := service.Run(ctx, batches, services.RunOptions{Sentinel: &sentinel}); err != nil {
			return fmt.Errorf("initial pipeline run: %w", err)
		}
	} else {
		logger.Warn("no batches found, serving without a snapshot", slog.String("dir", inDir))
	}

	router := transport.NewRouter(service, cfg.Server, logger)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("shutting down", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
