package services

import (
	"context"
	"fmt"
	"log/slog"

	"platito/internal/amqp"
	"platito/internal/core"
	"platito/internal/log"
	"platito/internal/ports"
)

// SettingsService owns the settings record of a dataset.
type SettingsService struct {
	repo         ports.Repository
	defaultRates core.ExchangeRateTable
	notifier
}

// SettingsPatch changes the fields that are set. ClearDefaultAccount wins
// over DefaultAccountID.
type SettingsPatch struct {
	DefaultAccountID    *int64                   `json:"defaultAccountId,omitempty"`
	ClearDefaultAccount bool                     `json:"clearDefaultAccount,omitempty"`
	DefaultTimeWindow   *core.TimeWindow         `json:"defaultTimeWindow,omitempty"`
	DisplayCurrency     *core.Currency           `json:"displayCurrency,omitempty"`
	AutoUpdateInterval  *core.AutoUpdateInterval `json:"autoUpdateInterval,omitempty"`
}

func NewSettingsService(repo ports.Repository, defaultRates core.ExchangeRateTable, events EventPublisher) *SettingsService {
	return &SettingsService{
		repo:         repo,
		defaultRates: defaultRates,
		notifier:     notifier{events: events},
	}
}

// DefaultRates returns the table used for missing or unusable entries.
func (s *SettingsService) DefaultRates() core.ExchangeRateTable {
	return s.defaultRates.Clone()
}

// Load returns the settings, creating them with defaults on first use.
func (s *SettingsService) Load(ctx context.Context) (core.Settings, error) {
	var st core.Settings
	err := s.repo.WithinTx(ctx, func(r ports.Repository) error {
		var err error
		st, err = s.load(ctx, r)
		return err
	})
	return st, err
}

func (s *SettingsService) load(ctx context.Context, r ports.Repository) (core.Settings, error) {
	st, ok, err := r.LoadSettings(ctx)
	if err != nil {
		return core.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	if ok {
		return st.Normalize(s.defaultRates), nil
	}

	st = core.DefaultSettings(s.defaultRates)
	if err := r.SaveSettings(ctx, st); err != nil {
		return core.Settings{}, fmt.Errorf("initialize settings: %w", err)
	}
	slog.InfoContext(ctx, "Initialized default settings", log.FieldComponent, log.ComponentLedger, "display_currency", st.DisplayCurrency)
	return st, nil
}

func (s *SettingsService) save(ctx context.Context, r ports.Repository, st core.Settings) error {
	if err := r.SaveSettings(ctx, st.Normalize(s.defaultRates)); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// Update validates and applies patch.
func (s *SettingsService) Update(ctx context.Context, patch SettingsPatch) (core.Settings, error) {
	if patch.DefaultTimeWindow != nil && !patch.DefaultTimeWindow.IsValid() {
		return core.Settings{}, fmt.Errorf("time window %q: %w", *patch.DefaultTimeWindow, core.ErrInvalidWindow)
	}
	if patch.DisplayCurrency != nil && !patch.DisplayCurrency.IsValid() {
		return core.Settings{}, fmt.Errorf("display currency %q: %w", *patch.DisplayCurrency, core.ErrInvalidCurrency)
	}
	if patch.AutoUpdateInterval != nil && !patch.AutoUpdateInterval.IsValid() {
		return core.Settings{}, fmt.Errorf("auto-update interval %q: %w", *patch.AutoUpdateInterval, core.ErrInvalidInterval)
	}

	var st core.Settings
	err := s.repo.WithinTx(ctx, func(r ports.Repository) error {
		var err error
		if st, err = s.load(ctx, r); err != nil {
			return err
		}

		switch {
		case patch.ClearDefaultAccount:
			st.DefaultAccountID = nil
		case patch.DefaultAccountID != nil:
			id := *patch.DefaultAccountID
			if _, err := r.GetAccount(ctx, id); err != nil {
				return fmt.Errorf("default account: %w", err)
			}
			st.DefaultAccountID = &id
		}
		if patch.DefaultTimeWindow != nil {
			st.DefaultTimeWindow = *patch.DefaultTimeWindow
		}
		if patch.DisplayCurrency != nil {
			st.DisplayCurrency = *patch.DisplayCurrency
		}
		if patch.AutoUpdateInterval != nil {
			st.AutoUpdateInterval = *patch.AutoUpdateInterval
		}
		return s.save(ctx, r, st)
	})
	if err != nil {
		return core.Settings{}, err
	}

	slog.InfoContext(ctx, "Settings updated", log.FieldComponent, log.ComponentLedger,
		"display_currency", st.DisplayCurrency,
		"time_window", st.DefaultTimeWindow,
		"auto_update", st.AutoUpdateInterval)
	s.notify(ctx, amqp.EntitySettings, amqp.ActionUpdated, 0)
	return st, nil
}
