package core

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestNormalizeRates(t *testing.T) {
	cases := []struct {
		name     string
		input    ExchangeRateTable
		defaults ExchangeRateTable
		want     ExchangeRateTable
	}{
		{
			name:     "nil input uses defaults",
			input:    nil,
			defaults: SampleDefaultRates(),
			want:     SampleDefaultRates(),
		},
		{
			name:     "valid entries overlay defaults",
			input:    ExchangeRateTable{USDBlue: {1300}},
			defaults: LiveDefaultRates(),
			want:     ExchangeRateTable{ARS: {1}, USDBlue: {1300}, USDMep: {1}, USDT: {1}},
		},
		{
			name: "invalid entries are ignored",
			input: ExchangeRateTable{
				USDBlue: {-5},
				USDMep:  {math.NaN()},
				USDT:    {math.Inf(1)},
			},
			defaults: SampleDefaultRates(),
			want:     SampleDefaultRates(),
		},
		{
			name:     "base is forced to one",
			input:    ExchangeRateTable{ARS: {42}, USDT: {1000}},
			defaults: LiveDefaultRates(),
			want:     ExchangeRateTable{ARS: {1}, USDBlue: {1}, USDMep: {1}, USDT: {1000}},
		},
		{
			name:     "unknown currencies are dropped",
			input:    ExchangeRateTable{"EUR": {900}},
			defaults: LiveDefaultRates(),
			want:     LiveDefaultRates(),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeRates(tc.input, tc.defaults)
			if len(got) != len(tc.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tc.want))
			}
			for c, r := range tc.want {
				if got[c] != r {
					t.Errorf("%s = %v, want %v", c, got[c], r)
				}
			}
		})
	}
}

func TestNormalizeRatesBaseFixedPoint(t *testing.T) {
	for _, v := range []float64{0, -1, 1, 2, math.NaN(), math.Inf(-1)} {
		got := NormalizeRates(ExchangeRateTable{BaseCurrency: {v}}, SampleDefaultRates())
		if got[BaseCurrency].ToBase != 1 {
			t.Fatalf("base = %v for input %v", got[BaseCurrency].ToBase, v)
		}
	}
}

func TestValidateRates(t *testing.T) {
	cases := []struct {
		name     string
		patch    ExchangeRateTable
		wantErr  bool
		currency Currency
	}{
		{"empty patch", ExchangeRateTable{}, false, ""},
		{"valid patch", ExchangeRateTable{ARS: {1}, USDBlue: {1200.5}}, false, ""},
		{"base not one", ExchangeRateTable{ARS: {2}}, true, ARS},
		{"zero rate", ExchangeRateTable{USDMep: {0}}, true, USDMep},
		{"negative rate", ExchangeRateTable{USDT: {-3}}, true, USDT},
		{"nan rate", ExchangeRateTable{USDBlue: {math.NaN()}}, true, USDBlue},
		{"infinite rate", ExchangeRateTable{USDBlue: {math.Inf(1)}}, true, USDBlue},
		{"unsupported currency", ExchangeRateTable{"EUR": {1000}}, true, "EUR"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateRates(tc.patch)
			if !tc.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var rateErr *RateError
			if !errors.As(err, &rateErr) {
				t.Fatalf("expected *RateError, got %v", err)
			}
			if rateErr.Currency != tc.currency {
				t.Errorf("currency = %s, want %s", rateErr.Currency, tc.currency)
			}
			if !errors.Is(err, ErrInvalidRate) || !errors.Is(err, ErrValidation) {
				t.Errorf("error kinds not matched: %v", err)
			}
		})
	}
}

func TestMergeRatesDoesNotMutateCurrent(t *testing.T) {
	current := SampleDefaultRates()
	merged := MergeRates(current, ExchangeRateTable{USDT: {2000}})
	if merged[USDT].ToBase != 2000 {
		t.Fatalf("merged USDT = %v", merged[USDT].ToBase)
	}
	if current[USDT].ToBase != 1180 {
		t.Fatalf("current mutated: %v", current[USDT].ToBase)
	}
}

func TestRateLimitedErrorRemainingSeconds(t *testing.T) {
	cases := []struct {
		remaining time.Duration
		want      int
	}{
		{0, 0},
		{time.Millisecond, 1},
		{999 * time.Millisecond, 1},
		{time.Second, 1},
		{1001 * time.Millisecond, 2},
		{9500 * time.Millisecond, 10},
	}
	for _, tc := range cases {
		err := &RateLimitedError{Remaining: tc.remaining}
		if got := err.RemainingSeconds(); got != tc.want {
			t.Errorf("RemainingSeconds(%v) = %d, want %d", tc.remaining, got, tc.want)
		}
		if !errors.Is(err, ErrRateLimited) {
			t.Errorf("expected ErrRateLimited")
		}
	}
}
