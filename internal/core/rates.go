package core

import (
	"math"
	"time"
)

// Rate holds the multiplier that turns one unit of a currency into base units.
type Rate struct {
	ToBase float64 `json:"toBase"`
}

// ExchangeRateTable maps every supported currency to its rate.
type ExchangeRateTable map[Currency]Rate

// Cooldown between two non-forced fetches of the external quotes.
const RatesCooldown = 10 * time.Second

// LiveDefaultRates is used by the main dataset until real quotes are fetched.
func LiveDefaultRates() ExchangeRateTable {
	return ExchangeRateTable{
		ARS:     {ToBase: 1},
		USDBlue: {ToBase: 1},
		USDMep:  {ToBase: 1},
		USDT:    {ToBase: 1},
	}
}

// SampleDefaultRates seeds the testing dataset with illustrative quotes.
func SampleDefaultRates() ExchangeRateTable {
	return ExchangeRateTable{
		ARS:     {ToBase: 1},
		USDBlue: {ToBase: 1200},
		USDMep:  {ToBase: 1150},
		USDT:    {ToBase: 1180},
	}
}

// rate is the toBase of c. A currency missing from the table counts as 1.
func (t ExchangeRateTable) rate(c Currency) float64 {
	if c.IsBase() {
		return 1
	}
	r, ok := t[c]
	if !ok {
		return 1
	}
	return r.ToBase
}

// Clone returns an independent copy of the table.
func (t ExchangeRateTable) Clone() ExchangeRateTable {
	out := make(ExchangeRateTable, len(t))
	for c, r := range t {
		out[c] = r
	}
	return out
}

func isUsableRate(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}

// NormalizeRates overlays every usable entry of table on top of defaults and
// pins the base currency to 1. The result always carries every supported
// currency.
func NormalizeRates(table, defaults ExchangeRateTable) ExchangeRateTable {
	out := make(ExchangeRateTable, len(SupportedCurrencies))
	for _, c := range SupportedCurrencies {
		out[c] = Rate{ToBase: 1}
		if r, ok := defaults[c]; ok && isUsableRate(r.ToBase) {
			out[c] = r
		}
	}
	for c, r := range table {
		if !c.IsValid() || c.IsBase() {
			continue
		}
		if isUsableRate(r.ToBase) {
			out[c] = r
		}
	}
	out[BaseCurrency] = Rate{ToBase: 1}
	return out
}

// ValidateRates checks a full or partial table. The first offending entry is
// reported, in SupportedCurrencies order.
func ValidateRates(patch ExchangeRateTable) error {
	for c := range patch {
		if !c.IsValid() {
			return &RateError{Currency: c, Reason: "unsupported currency"}
		}
	}
	for _, c := range SupportedCurrencies {
		r, ok := patch[c]
		if !ok {
			continue
		}
		if c.IsBase() {
			if r.ToBase != 1 {
				return &RateError{Currency: c, Value: r.ToBase, Reason: "base currency rate must be 1"}
			}
			continue
		}
		if !isUsableRate(r.ToBase) {
			return &RateError{Currency: c, Value: r.ToBase, Reason: "rate must be a positive finite number"}
		}
	}
	return nil
}

// MergeRates applies patch on top of current without validating.
func MergeRates(current, patch ExchangeRateTable) ExchangeRateTable {
	out := current.Clone()
	for c, r := range patch {
		out[c] = r
	}
	return out
}
