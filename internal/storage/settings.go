package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"platito/internal/core"
)

func (r *SQLiteRepository) LoadSettings(ctx context.Context) (core.Settings, bool, error) {
	var (
		s             core.Settings
		defaultAcc    sql.NullInt64
		window        string
		display       string
		rates         string
		interval      string
		lastUpdatedAt sql.NullString
	)
	err := r.q.QueryRowContext(ctx,
		`SELECT default_account_id, default_time_window, display_currency, exchange_rates,
		        auto_update_interval, rates_last_updated_at, rates_update_count
		   FROM settings WHERE id = 1`).
		Scan(&defaultAcc, &window, &display, &rates, &interval, &lastUpdatedAt, &s.RatesUpdateCount)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Settings{}, false, nil
	}
	if err != nil {
		return core.Settings{}, false, fmt.Errorf("load settings: %w", err)
	}

	if defaultAcc.Valid {
		id := defaultAcc.Int64
		s.DefaultAccountID = &id
	}
	s.DefaultTimeWindow = core.TimeWindow(window)
	s.DisplayCurrency = core.Currency(display)
	s.AutoUpdateInterval = core.AutoUpdateInterval(interval)
	if err := json.Unmarshal([]byte(rates), &s.ExchangeRates); err != nil {
		return core.Settings{}, false, fmt.Errorf("decode exchange rates: %w", err)
	}
	if lastUpdatedAt.Valid {
		at, err := time.Parse(time.RFC3339Nano, lastUpdatedAt.String)
		if err != nil {
			return core.Settings{}, false, fmt.Errorf("parse rates_last_updated_at: %w", err)
		}
		s.RatesLastUpdatedAt = &at
	}
	return s, true, nil
}

func (r *SQLiteRepository) SaveSettings(ctx context.Context, s core.Settings) error {
	rates, err := json.Marshal(s.ExchangeRates)
	if err != nil {
		return fmt.Errorf("encode exchange rates: %w", err)
	}
	var defaultAcc, lastUpdatedAt any
	if s.DefaultAccountID != nil {
		defaultAcc = *s.DefaultAccountID
	}
	if s.RatesLastUpdatedAt != nil {
		lastUpdatedAt = formatTimestamp(*s.RatesLastUpdatedAt)
	}

	_, err = r.q.ExecContext(ctx,
		`INSERT INTO settings (id, default_account_id, default_time_window, display_currency, exchange_rates,
		                       auto_update_interval, rates_last_updated_at, rates_update_count)
		 VALUES (1, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     default_account_id = excluded.default_account_id,
		     default_time_window = excluded.default_time_window,
		     display_currency = excluded.display_currency,
		     exchange_rates = excluded.exchange_rates,
		     auto_update_interval = excluded.auto_update_interval,
		     rates_last_updated_at = excluded.rates_last_updated_at,
		     rates_update_count = excluded.rates_update_count`,
		defaultAcc, string(s.DefaultTimeWindow), string(s.DisplayCurrency), string(rates),
		string(s.AutoUpdateInterval), lastUpdatedAt, s.RatesUpdateCount)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
