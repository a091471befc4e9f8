package core

import (
	"errors"
	"testing"
	"time"
)

func TestPeriodBounds(t *testing.T) {
	// Wednesday
	now := time.Date(2024, time.March, 13, 15, 30, 0, 0, time.UTC)
	day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

	cases := []struct {
		name      string
		window    TimeWindow
		offset    int
		wantStart time.Time
		wantEnd   time.Time
	}{
		{"today", WindowDay, 0, day(2024, 3, 13), day(2024, 3, 14)},
		{"yesterday", WindowDay, 1, day(2024, 3, 12), day(2024, 3, 13)},
		{"this week starts monday", WindowWeek, 0, day(2024, 3, 11), day(2024, 3, 18)},
		{"two weeks ago", WindowWeek, 2, day(2024, 2, 26), day(2024, 3, 4)},
		{"this month", WindowMonth, 0, day(2024, 3, 1), day(2024, 4, 1)},
		{"month across year", WindowMonth, 3, day(2023, 12, 1), day(2024, 1, 1)},
		{"this year", WindowYear, 0, day(2024, 1, 1), day(2025, 1, 1)},
		{"last year", WindowYear, 1, day(2023, 1, 1), day(2024, 1, 1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start, end, err := PeriodBounds(tc.window, tc.offset, now)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !start.Equal(tc.wantStart) || !end.Equal(tc.wantEnd) {
				t.Fatalf("got [%s, %s), want [%s, %s)", start, end, tc.wantStart, tc.wantEnd)
			}
		})
	}
}

func TestPeriodBoundsSundayBelongsToPreviousWeek(t *testing.T) {
	sunday := time.Date(2024, time.March, 17, 9, 0, 0, 0, time.UTC)
	start, _, err := PeriodBounds(WindowWeek, 0, sunday)
	if err != nil {
		t.Fatal(err)
	}
	if want := time.Date(2024, time.March, 11, 0, 0, 0, 0, time.UTC); !start.Equal(want) {
		t.Fatalf("start = %s, want %s", start, want)
	}
}

func TestPeriodBoundsInvalidWindow(t *testing.T) {
	_, _, err := PeriodBounds("fortnight", 0, time.Now())
	if !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
}

func TestDateWithin(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		d    Date
		want bool
	}{
		{NewDate(2024, 3, 1), true},
		{NewDate(2024, 3, 31), true},
		{NewDate(2024, 4, 1), false},
		{NewDate(2024, 2, 29), false},
	}
	for _, tc := range cases {
		if got := tc.d.Within(start, end); got != tc.want {
			t.Errorf("%s.Within = %v, want %v", tc.d, got, tc.want)
		}
	}
}
