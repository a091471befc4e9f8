package core

import (
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"12.34", 12.34, false},
		{"12,34", 12.34, false},
		{"1.234,56", 1234.56, false},
		{"1.234.567,5", 1234567.5, false},
		{"  7  ", 7, false},
		{"0.01", 0.01, false},
		{"0", 0, true},
		{"0,00", 0, true},
		{"-5", 0, true},
		{"+5", 0, true},
		{"", 0, true},
		{"abc", 0, true},
		{"1..2", 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseAmount(tc.in)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidAmount) {
					t.Fatalf("expected ErrInvalidAmount, got %v (value %v)", err, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		v    float64
		c    Currency
		want string
	}{
		{1234.56, USDBlue, "$1,234.56"},
		{0.5, USDT, "$0.50"},
		{1234.56, ARS, "$1.234,56"},
		{10.005, USDMep, "$10.01"},
		{99.995, ARS, "$100,00"},
		{0.004, USDBlue, "$0.00"},
	}
	for _, tc := range cases {
		if got := FormatAmount(tc.v, tc.c); got != tc.want {
			t.Errorf("FormatAmount(%v, %s) = %q, want %q", tc.v, tc.c, got, tc.want)
		}
	}
}

func TestRoundAmount(t *testing.T) {
	if got := RoundAmount(0.123456, USDMep); got != 0.12 {
		t.Fatalf("got %v", got)
	}
	if got := RoundAmount(99.995, ARS); got != 100 {
		t.Fatalf("got %v", got)
	}
}
