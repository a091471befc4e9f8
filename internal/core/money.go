package core

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// ParseAmount converts user input into a positive amount.
//
// Both "1234.56" and "1.234,56" are accepted: when the input contains a
// comma, dots are thousands separators and the comma is the decimal mark.
// Zero, negative and malformed inputs return ErrInvalidAmount.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return 0, ErrInvalidAmount
	}
	v, _ := d.Float64()
	return v, nil
}

// RoundAmount rounds v to the minor unit of the currency.
func RoundAmount(v float64, c Currency) float64 {
	fraction := 2
	if cur := money.GetCurrency(c.ISOCode()); cur != nil {
		fraction = cur.Fraction
	}
	r, _ := decimal.NewFromFloat(v).Round(int32(fraction)).Float64()
	return r
}

// FormatAmount renders v in the display format of the currency.
func FormatAmount(v float64, c Currency) string {
	code := c.ISOCode()
	cur := money.GetCurrency(code)
	if cur == nil {
		return decimal.NewFromFloat(v).StringFixed(2) + " " + string(c)
	}
	minor := decimal.NewFromFloat(RoundAmount(v, c)).Shift(int32(cur.Fraction)).IntPart()
	return money.New(minor, code).Display()
}
