package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"platito/internal/amqp"
	"platito/internal/core"
	"platito/internal/log"
	"platito/internal/ports"
)

// QuoteSource fetches a fresh rate table from an external provider.
// *quotes.Client implements it.
type QuoteSource interface {
	FetchRates(ctx context.Context) (core.ExchangeRateTable, error)
}

var errNoQuoteSource = errors.New("no quote source configured")

// RatesService manages the exchange rate table stored in the settings.
type RatesService struct {
	settings *SettingsService
	quotes   QuoteSource
	cooldown time.Duration
	now      func() time.Time

	// mu serializes fetches so that the cooldown check and the stamp of
	// the last update cannot interleave.
	mu sync.Mutex
	notifier
}

func NewRatesService(settings *SettingsService, quotes QuoteSource, cooldown time.Duration, events EventPublisher) *RatesService {
	return &RatesService{
		settings: settings,
		quotes:   quotes,
		cooldown: cooldown,
		now:      time.Now,
		notifier: notifier{events: events},
	}
}

// Table returns the current normalized table.
func (s *RatesService) Table(ctx context.Context) (core.ExchangeRateTable, error) {
	st, err := s.settings.Load(ctx)
	if err != nil {
		return nil, err
	}
	return st.ExchangeRates, nil
}

// Replace validates every entry of table, then stores it normalized.
// Currencies missing from table take their default rate.
func (s *RatesService) Replace(ctx context.Context, table core.ExchangeRateTable) (core.ExchangeRateTable, error) {
	if err := core.ValidateRates(table); err != nil {
		return nil, err
	}
	return s.store(ctx, func(core.ExchangeRateTable) core.ExchangeRateTable {
		return core.NormalizeRates(table, s.settings.defaultRates)
	})
}

// Patch merges patch into the current table and validates the result.
func (s *RatesService) Patch(ctx context.Context, patch core.ExchangeRateTable) (core.ExchangeRateTable, error) {
	if err := core.ValidateRates(patch); err != nil {
		return nil, err
	}
	return s.store(ctx, func(current core.ExchangeRateTable) core.ExchangeRateTable {
		return core.MergeRates(current, patch)
	})
}

func (s *RatesService) store(ctx context.Context, apply func(core.ExchangeRateTable) core.ExchangeRateTable) (core.ExchangeRateTable, error) {
	var st core.Settings
	err := s.settings.repo.WithinTx(ctx, func(r ports.Repository) error {
		var err error
		if st, err = s.settings.load(ctx, r); err != nil {
			return err
		}
		next := apply(st.ExchangeRates)
		if err := core.ValidateRates(next); err != nil {
			return err
		}
		st.ExchangeRates = core.NormalizeRates(next, s.settings.defaultRates)
		return s.settings.save(ctx, r, st)
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Exchange rates updated", log.FieldComponent, log.ComponentRates, "rates", st.ExchangeRates)
	s.notify(ctx, amqp.EntityRates, amqp.ActionUpdated, 0)
	return st.ExchangeRates, nil
}

// RemainingCooldown returns how long a non-forced fetch has to wait.
func (s *RatesService) RemainingCooldown(ctx context.Context) (time.Duration, error) {
	st, err := s.settings.Load(ctx)
	if err != nil {
		return 0, err
	}
	return s.remaining(st), nil
}

func (s *RatesService) remaining(st core.Settings) time.Duration {
	if st.RatesLastUpdatedAt == nil {
		return 0
	}
	left := s.cooldown - s.now().Sub(*st.RatesLastUpdatedAt)
	if left < 0 {
		return 0
	}
	return left
}

// FetchAndUpdate replaces the rates with fresh quotes. Unless force is set,
// a call within the cooldown of the last successful fetch fails with a
// *core.RateLimitedError.
func (s *RatesService) FetchAndUpdate(ctx context.Context, force bool) (core.ExchangeRateTable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.settings.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !force {
		if left := s.remaining(st); left > 0 {
			slog.DebugContext(ctx, "Rate fetch refused during cooldown", log.FieldComponent, log.ComponentRates,
				log.FieldRemaining, left.Seconds())
			return nil, &core.RateLimitedError{Remaining: left}
		}
	}
	if s.quotes == nil {
		return nil, &core.FetchError{Source: "quotes", Err: errNoQuoteSource}
	}

	fetched, err := s.quotes.FetchRates(ctx)
	if err != nil {
		return nil, err
	}
	if err := core.ValidateRates(fetched); err != nil {
		return nil, &core.FetchError{Source: "quotes", Err: err}
	}

	err = s.settings.repo.WithinTx(ctx, func(r ports.Repository) error {
		var err error
		if st, err = s.settings.load(ctx, r); err != nil {
			return err
		}
		at := s.now().UTC()
		st.ExchangeRates = core.NormalizeRates(core.MergeRates(st.ExchangeRates, fetched), s.settings.defaultRates)
		st.RatesLastUpdatedAt = &at
		st.RatesUpdateCount++
		return s.settings.save(ctx, r, st)
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Exchange rates fetched", log.FieldComponent, log.ComponentRates,
		log.FieldForce, force,
		"update_count", st.RatesUpdateCount,
		"rates", st.ExchangeRates)
	s.notify(ctx, amqp.EntityRates, amqp.ActionUpdated, 0)
	return st.ExchangeRates, nil
}

// AutoUpdateIfDue fetches when the configured interval elapsed since the
// last update. Failures are logged and reported as no update.
func (s *RatesService) AutoUpdateIfDue(ctx context.Context) (core.ExchangeRateTable, bool) {
	st, err := s.settings.Load(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Skipping rate auto-update", log.FieldComponent, log.ComponentRates, log.FieldError, err)
		return nil, false
	}

	checker, err := GetAutoUpdateChecker(st.AutoUpdateInterval)
	if err != nil {
		slog.WarnContext(ctx, "Skipping rate auto-update", log.FieldComponent, log.ComponentRates, log.FieldError, err)
		return nil, false
	}
	var last time.Time
	if st.RatesLastUpdatedAt != nil {
		last = *st.RatesLastUpdatedAt
	}
	if !checker.IsDue(last, s.now()) {
		return nil, false
	}

	table, err := s.FetchAndUpdate(ctx, true)
	if err != nil {
		slog.WarnContext(ctx, "Rate auto-update failed", log.FieldComponent, log.ComponentRates,
			"interval", st.AutoUpdateInterval,
			log.FieldError, err)
		return nil, false
	}
	return table, true
}
