package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"platito/internal/cli"
	"platito/internal/config"
	"platito/internal/core"
	"platito/internal/log"
	"platito/internal/worker"
)

func main() {
	if err := run(); err != nil {
		slog.Error("platito-worker failed", log.FieldComponent, log.ComponentWorker, log.FieldError, err)
		os.Exit(1)
	}
}

func run() error {
	cli.LoadEnvFile()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := cli.SetupLogger(cfg, log.ComponentWorker)

	logger.Info("Starting platito-worker",
		"dataset", cfg.Dataset,
		"check_interval", cfg.RatesCheckInterval,
		"source", cfg.RatesSourceURL)

	app, err := cli.InitApp(context.Background(), cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}
	defer app.Close()

	rates := worker.NewRatesWorker(app.Services.Rates, worker.RatesWorkerConfig{
		CheckInterval: cfg.RatesCheckInterval,
		OnUpdate: func(table core.ExchangeRateTable) {
			logger.Info("Exchange rates auto-updated", "rates", table)
		},
	})

	ctx, done := cli.GracefulShutdown(logger, 15*time.Second, func(shutdownCtx context.Context) {
		if err := rates.Stop(shutdownCtx); err != nil {
			logger.Error("Rates worker stop error", log.FieldError, err)
		}
	})

	if err := rates.Start(ctx); err != nil {
		return fmt.Errorf("start rates worker: %w", err)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
	return nil
}
