package core

import "time"

// PeriodBounds returns the half-open range [start, end) of the window that is
// offset periods before the one containing now. Weeks start on Monday.
func PeriodBounds(window TimeWindow, offset int, now time.Time) (time.Time, time.Time, error) {
	if !window.IsValid() {
		return time.Time{}, time.Time{}, ErrInvalidWindow
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	switch window {
	case WindowDay:
		start := today.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 1), nil
	case WindowWeek:
		sinceMonday := (int(today.Weekday()) + 6) % 7
		start := today.AddDate(0, 0, -sinceMonday-offset*7)
		return start, start.AddDate(0, 0, 7), nil
	case WindowMonth:
		start := time.Date(y, m-time.Month(offset), 1, 0, 0, 0, 0, now.Location())
		return start, start.AddDate(0, 1, 0), nil
	default:
		start := time.Date(y-offset, time.January, 1, 0, 0, 0, 0, now.Location())
		return start, start.AddDate(1, 0, 0), nil
	}
}

// Within reports whether d falls in [start, end), comparing calendar days.
func (d Date) Within(start, end time.Time) bool {
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, start.Location())
	return !day.Before(start) && day.Before(end)
}
