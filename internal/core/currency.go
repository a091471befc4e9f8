package core

import "fmt"

// Currency is one of the fixed set of supported codes. BaseCurrency anchors
// every rate in an ExchangeRateTable.
type Currency string

const (
	ARS     Currency = "ARS"
	USDBlue Currency = "USD_BLUE"
	USDMep  Currency = "USD_MEP"
	USDT    Currency = "USDT"

	BaseCurrency = ARS
)

// SupportedCurrencies lists every valid code in display order.
var SupportedCurrencies = []Currency{ARS, USDBlue, USDMep, USDT}

// IsValid reports whether c belongs to the supported set.
func (c Currency) IsValid() bool {
	switch c {
	case ARS, USDBlue, USDMep, USDT:
		return true
	default:
		return false
	}
}

// IsBase reports whether c is the base currency.
func (c Currency) IsBase() bool { return c == BaseCurrency }

func (c Currency) String() string { return string(c) }

// ISOCode maps a currency to the ISO 4217 code used for formatting.
func (c Currency) ISOCode() string {
	switch c {
	case ARS:
		return "ARS"
	case USDBlue, USDMep, USDT:
		return "USD"
	default:
		return string(c)
	}
}

// ParseCurrency validates a raw code.
func ParseCurrency(s string) (Currency, error) {
	c := Currency(s)
	if !c.IsValid() {
		return "", fmt.Errorf("%q: %w", s, ErrInvalidCurrency)
	}
	return c, nil
}

// UnmarshalText rejects codes outside the supported set so invalid values
// never reach the conversion functions.
func (c *Currency) UnmarshalText(b []byte) error {
	parsed, err := ParseCurrency(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c Currency) MarshalText() ([]byte, error) {
	return []byte(c), nil
}

// ConvertToBase converts amount of currency into base units.
func ConvertToBase(amount float64, currency Currency, table ExchangeRateTable) float64 {
	return amount * table.rate(currency)
}

// ConvertAmount converts amount between two currencies through the base
// currency. Same-currency conversions return amount untouched.
func ConvertAmount(amount float64, from, to Currency, table ExchangeRateTable) float64 {
	if from == to {
		return amount
	}
	inBase := ConvertToBase(amount, from, table)
	if to.IsBase() {
		return inBase
	}
	target := table.rate(to)
	if target == 0 {
		return inBase
	}
	return inBase / target
}
