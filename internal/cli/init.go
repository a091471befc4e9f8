// Package cli provides common initialization shared by cmd/platito,
// cmd/platito-worker and cmd/platitoctl.
package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"platito/internal/amqp"
	"platito/internal/backend"
	"platito/internal/config"
	applog "platito/internal/log"
	"platito/internal/quotes"
	"platito/internal/services"
)

// SetupLogger builds the structured logger described by cfg and installs it
// as the default logger.
func SetupLogger(cfg *config.Config, component string) *slog.Logger {
	return SetupLoggerTo(cfg, component, os.Stdout)
}

// SetupLoggerTo is SetupLogger writing to out.
func SetupLoggerTo(cfg *config.Config, component string, out io.Writer) *slog.Logger {
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: component,
		Output:    out,
	})
	applog.SetDefault(logger)
	return logger.Logger.With(applog.FieldComponent, component)
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Validation problems go to stderr and exit the process.
func LoadAndValidateConfig() *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// App holds everything a command needs to run against one dataset.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Backend  *backend.BackendResult
	Events   *amqp.Client
	Quotes   *quotes.Client
	Services *services.Services
}

// InitApp opens the dataset storage, connects the optional event broker and
// builds the ledger services. Default categories are ensured before it
// returns.
func InitApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:  cfg,
		Logger:  logger,
		Backend: res,
		Quotes:  quotes.NewClient(cfg.RatesSourceURL, cfg.RatesHTTPTimeout),
	}
	if cfg.RatesFields != "" {
		fields, err := quotes.ParseFields(cfg.RatesFields)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.Quotes.WithFields(fields)
	}

	opts := services.Options{
		Quotes:       app.Quotes,
		DefaultRates: backendCfg.DefaultRates,
		Cooldown:     cfg.RatesCooldown,
	}
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without ledger events", "error", err)
		} else {
			logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"routing_key", cfg.AMQPRoutingKey)
			app.Events = client
			opts.Events = client
		}
	}

	logger.Debug("Rates source configured", "source", app.Quotes.Source(), "cooldown", cfg.RatesCooldown)

	app.Services = services.New(res.Repository, opts)
	if err := app.Services.Categories.EnsureDefaults(ctx); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

// Ready reports whether the dataset storage answers.
func (a *App) Ready(ctx context.Context) error {
	_, err := a.Services.Settings.Load(ctx)
	return err
}

// Close releases the broker connection and the storage.
func (a *App) Close() {
	if a.Events != nil {
		if err := a.Events.Close(); err != nil {
			a.Logger.Error("Failed to close AMQP client", "error", err)
		}
	}
	if a.Backend != nil && a.Backend.Cleanup != nil {
		if err := a.Backend.Cleanup(); err != nil {
			a.Logger.Error("Failed to close storage", "error", err)
		}
	}
}

// MustInitApp is InitApp for commands that cannot continue without storage.
func MustInitApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) *App {
	app, err := InitApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize application", "error", err,
			"backend", cfg.DataBackend, "dataset", cfg.Dataset)
		os.Exit(1)
	}
	return app
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *slog.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
