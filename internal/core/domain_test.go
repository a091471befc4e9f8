package core

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestDateJSON(t *testing.T) {
	var tx Transaction
	if err := json.Unmarshal([]byte(`{"date":"2024-02-29"}`), &tx); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !tx.Date.Equal(NewDate(2024, 2, 29).Time) {
		t.Fatalf("date = %v", tx.Date)
	}
	out, err := json.Marshal(tx.Date)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `"2024-02-29"` {
		t.Fatalf("marshal = %s", out)
	}
	if err := json.Unmarshal([]byte(`{"date":"29/02/2024"}`), &tx); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestTransferValidate(t *testing.T) {
	base := Transfer{FromAccountID: 1, ToAccountID: 2, Amount: 10, Date: NewDate(2024, 1, 1)}
	cases := []struct {
		name   string
		mutate func(*Transfer)
		want   error
	}{
		{"valid", func(*Transfer) {}, nil},
		{"same account", func(tr *Transfer) { tr.ToAccountID = 1 }, ErrSameAccount},
		{"zero amount", func(tr *Transfer) { tr.Amount = 0 }, ErrInvalidAmount},
		{"negative amount", func(tr *Transfer) { tr.Amount = -1 }, ErrInvalidAmount},
		{"nan amount", func(tr *Transfer) { tr.Amount = math.NaN() }, ErrInvalidAmount},
		{"infinite amount", func(tr *Transfer) { tr.Amount = math.Inf(1) }, ErrInvalidAmount},
		{"missing date", func(tr *Transfer) { tr.Date = Date{} }, ErrInvalidDate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr := base
			tc.mutate(&tr)
			err := tr.Validate()
			if tc.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) || !errors.Is(err, ErrValidation) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestAccountValidate(t *testing.T) {
	if err := (Account{Name: "  ", Currency: ARS}).Validate(); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	if err := (Account{Name: "a", Currency: "BRL"}).Validate(); !errors.Is(err, ErrInvalidCurrency) {
		t.Fatalf("expected ErrInvalidCurrency, got %v", err)
	}
	if err := (Account{Name: "a", Currency: ARS, InitialBalance: math.Inf(-1)}).Validate(); !errors.Is(err, ErrInvalidBalance) {
		t.Fatalf("expected ErrInvalidBalance, got %v", err)
	}
	if err := (Account{Name: "a", Currency: ARS, InitialBalance: -500}).Validate(); err != nil {
		t.Fatalf("negative initial balance must be accepted: %v", err)
	}
}

func TestSettingsNormalize(t *testing.T) {
	s := Settings{DisplayCurrency: "EUR", DefaultTimeWindow: "decade", AutoUpdateInterval: "1h"}
	got := s.Normalize(SampleDefaultRates())
	if got.DisplayCurrency != ARS || got.DefaultTimeWindow != WindowMonth || got.AutoUpdateInterval != AutoUpdateNone {
		t.Fatalf("unexpected normalized settings: %+v", got)
	}
	if got.ExchangeRates[USDBlue].ToBase != 1200 {
		t.Fatalf("rates not defaulted: %v", got.ExchangeRates)
	}
}

func TestSameName(t *testing.T) {
	if !SameName(" Comida ", "comida") {
		t.Fatal("expected trimmed case-insensitive match")
	}
	if SameName("Comida", "Comidas") {
		t.Fatal("unexpected match")
	}
}
