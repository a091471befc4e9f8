package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"platito/internal/cli"
	"platito/internal/config"
	"platito/internal/core"
	apphttp "platito/internal/http"
	"platito/internal/log"
	"platito/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	app := cli.MustInitApp(context.Background(), cfg, logger)
	defer app.Close()

	srv := apphttp.NewServer(":"+cfg.Port, app.Services, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Ready:              app.Ready,
		Dataset:            cfg.Dataset,
	})

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// In-process auto-update so the dashboard cache sees new rates at once.
	rates := worker.NewRatesWorker(app.Services.Rates, worker.RatesWorkerConfig{
		CheckInterval: cfg.RatesCheckInterval,
		OnUpdate: func(core.ExchangeRateTable) {
			srv.InvalidateCache()
		},
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := rates.Stop(shutdownCtx); err != nil {
			logger.Error("Rates worker stop error", "error", err)
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})

	if err := rates.Start(ctx); err != nil {
		logger.Error("Failed to start rates worker", "error", err)
		os.Exit(1)
	}

	if cfg.Dataset == config.DatasetTesting {
		if seeded, err := app.Services.Backup.SeedSample(ctx); err != nil {
			logger.Warn("Failed to seed sample data", "error", err)
		} else if seeded {
			logger.Info("Seeded sample data", "dataset", cfg.Dataset)
		}
	}

	logger.Info("Starting platito server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"dataset", cfg.Dataset,
		"events", app.Events != nil)
	if err := srv.ListenAndServe(); err != nil {
		slog.Error("Server error", "error", err, "port", cfg.Port)
		app.Close()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	m := srv.Metrics()
	logger.Info("Server stopped gracefully",
		"requests", m.Requests.TotalRequests,
		"failed_requests", m.Requests.FailedRequests,
		"rate_limited", m.RateLimit.TotalHits,
		"suspicious_blocked", m.Security.BlockedRequests,
		"cache_hits", m.Cache.Hits,
		"cache_misses", m.Cache.Misses)
}
