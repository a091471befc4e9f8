package services

import (
	"fmt"
	"time"

	"platito/internal/core"
)

// AutoUpdateChecker decides whether the exchange rates are stale enough to
// be refreshed automatically.
type AutoUpdateChecker interface {
	// IsDue reports whether a refresh should run given the last successful
	// update. A zero lastUpdate means rates were never fetched.
	IsDue(lastUpdate, now time.Time) bool
}

// NeverChecker disables automatic refreshes.
type NeverChecker struct{}

func (NeverChecker) IsDue(time.Time, time.Time) bool { return false }

// PeriodChecker refreshes once Period has elapsed since the last update.
type PeriodChecker struct {
	Period time.Duration
}

func (c PeriodChecker) IsDue(lastUpdate, now time.Time) bool {
	if lastUpdate.IsZero() {
		return true
	}
	return now.Sub(lastUpdate) >= c.Period
}

var autoUpdateCheckers = map[core.AutoUpdateInterval]AutoUpdateChecker{
	core.AutoUpdateNone: NeverChecker{},
	core.AutoUpdate6h:   PeriodChecker{Period: 6 * time.Hour},
	core.AutoUpdate12h:  PeriodChecker{Period: 12 * time.Hour},
	core.AutoUpdate24h:  PeriodChecker{Period: 24 * time.Hour},
}

// GetAutoUpdateChecker returns the checker for an interval.
func GetAutoUpdateChecker(interval core.AutoUpdateInterval) (AutoUpdateChecker, error) {
	checker, ok := autoUpdateCheckers[interval]
	if !ok {
		return nil, fmt.Errorf("auto-update interval %q: %w", interval, core.ErrInvalidInterval)
	}
	return checker, nil
}
