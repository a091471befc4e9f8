// Package worker runs the background jobs of the ledger.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"platito/internal/core"
	"platito/internal/log"
)

// RatesUpdater refreshes the exchange rates when the configured
// auto-update interval has elapsed. *services.RatesService implements it.
type RatesUpdater interface {
	AutoUpdateIfDue(ctx context.Context) (core.ExchangeRateTable, bool)
}

// RatesWorkerConfig holds configuration for the rates worker
type RatesWorkerConfig struct {
	// CheckInterval is how often the auto-update schedule is evaluated (default: 5m)
	CheckInterval time.Duration

	// OnUpdate, when set, runs after every successful refresh.
	OnUpdate func(core.ExchangeRateTable)
}

// DefaultRatesWorkerConfig returns sensible defaults
func DefaultRatesWorkerConfig() RatesWorkerConfig {
	return RatesWorkerConfig{CheckInterval: 5 * time.Minute}
}

// RatesWorker periodically asks the rates service whether a refresh is due.
// Whether a check actually fetches is decided by the dataset settings, so
// the worker can run often without hitting the quotes source.
type RatesWorker struct {
	rates  RatesUpdater
	config RatesWorkerConfig

	// Lifecycle management
	mu      sync.Mutex
	running bool
	cron    *cron.Cron
	cancel  context.CancelFunc
	initial *sync.WaitGroup
}

// NewRatesWorker creates a new rates worker
func NewRatesWorker(rates RatesUpdater, config RatesWorkerConfig) *RatesWorker {
	if config.CheckInterval <= 0 {
		config.CheckInterval = DefaultRatesWorkerConfig().CheckInterval
	}
	return &RatesWorker{
		rates:  rates,
		config: config,
	}
}

// Start schedules the checks and runs the first one immediately. Returns an
// error if already running.
func (w *RatesWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return fmt.Errorf("rates worker is already running")
	}

	logger := cronLogger{slog.Default().With(log.FieldComponent, log.ComponentWorker)}
	c := cron.New(cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)), cron.WithLogger(logger))

	runCtx, cancel := context.WithCancel(ctx)
	job := cron.FuncJob(func() { w.RunOnce(runCtx) })
	if _, err := c.AddJob(fmt.Sprintf("@every %s", w.config.CheckInterval), job); err != nil {
		cancel()
		return fmt.Errorf("schedule rates check: %w", err)
	}

	initial := &sync.WaitGroup{}
	w.running = true
	w.cron = c
	w.cancel = cancel
	w.initial = initial

	c.Start()
	// Check immediately on startup
	initial.Add(1)
	go func() {
		defer initial.Done()
		w.RunOnce(runCtx)
	}()

	slog.InfoContext(ctx, "Rates worker started",
		log.FieldComponent, log.ComponentWorker,
		"check_interval", w.config.CheckInterval)
	return nil
}

// Stop halts the schedule and waits for a running check to finish.
func (w *RatesWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	c, cancel, initial := w.cron, w.cancel, w.initial
	w.running = false
	w.cron = nil
	w.cancel = nil
	w.initial = nil
	w.mu.Unlock()

	cronDone := c.Stop()
	cancel()

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		initial.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.InfoContext(ctx, "Rates worker stopped gracefully", log.FieldComponent, log.ComponentWorker)
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Rates worker stop timed out", log.FieldComponent, log.ComponentWorker)
		return ctx.Err()
	}
}

// IsRunning returns whether the worker is currently running
func (w *RatesWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// RunOnce performs a single check and reports whether rates were refreshed.
func (w *RatesWorker) RunOnce(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	table, updated := w.rates.AutoUpdateIfDue(ctx)
	if !updated {
		slog.DebugContext(ctx, "Rates check finished without update", log.FieldComponent, log.ComponentWorker)
		return false
	}

	slog.InfoContext(ctx, "Exchange rates refreshed by worker", log.FieldComponent, log.ComponentWorker)
	if w.config.OnUpdate != nil {
		w.config.OnUpdate(table)
	}
	return true
}

// cronLogger routes cron's own logging through slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, log.FieldError, err)...)
}
