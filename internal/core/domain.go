package core

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	Expense TransactionType = "expense"
	Income  TransactionType = "income"
)

const (
	WindowDay   TimeWindow = "day"
	WindowWeek  TimeWindow = "week"
	WindowMonth TimeWindow = "month"
	WindowYear  TimeWindow = "year"
)

const (
	AutoUpdateNone AutoUpdateInterval = "none"
	AutoUpdate6h   AutoUpdateInterval = "6h"
	AutoUpdate12h  AutoUpdateInterval = "12h"
	AutoUpdate24h  AutoUpdateInterval = "24h"
)

// DefaultCategoryIcon is assigned to categories created without an icon.
const DefaultCategoryIcon = "tag"

const dateLayout = "2006-01-02"

type (
	TransactionType    string
	TimeWindow         string
	AutoUpdateInterval string

	// Date is a calendar day in UTC, serialized as YYYY-MM-DD.
	Date struct {
		time.Time
	}

	Account struct {
		ID             int64    `json:"id"`
		Name           string   `json:"name"`
		Currency       Currency `json:"currency"`
		InitialBalance float64  `json:"initialBalance"`
		Color          string   `json:"color"`
		Icon           string   `json:"icon"`
		IsArchived     bool     `json:"isArchived"`
	}

	Category struct {
		ID        int64           `json:"id"`
		Name      string          `json:"name"`
		Type      TransactionType `json:"type"`
		Color     string          `json:"color"`
		Icon      string          `json:"icon"`
		IsDefault bool            `json:"isDefault"`
	}

	Tag struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}

	Transaction struct {
		ID          int64           `json:"id"`
		AccountID   int64           `json:"accountId"`
		CategoryID  int64           `json:"categoryId"`
		Type        TransactionType `json:"type"`
		Amount      float64         `json:"amount"`
		Currency    Currency        `json:"currency"`
		Date        Date            `json:"date"`
		Description string          `json:"description"`
		TagIDs      []int64         `json:"tagIds"`
	}

	// Transfer moves Amount (source currency) out of FromAccountID and credits
	// ConvertedAmount (destination currency) to ToAccountID. ExchangeRate is
	// the ratio actually applied when the transfer was last written.
	Transfer struct {
		ID              int64     `json:"id"`
		FromAccountID   int64     `json:"fromAccountId"`
		ToAccountID     int64     `json:"toAccountId"`
		Amount          float64   `json:"amount"`
		ConvertedAmount float64   `json:"convertedAmount"`
		ExchangeRate    float64   `json:"exchangeRate"`
		Date            Date      `json:"date"`
		Description     string    `json:"description,omitempty"`
		CreatedAt       time.Time `json:"createdAt"`
		UpdatedAt       time.Time `json:"updatedAt"`
	}

	// Settings is the single configuration record of a dataset.
	Settings struct {
		DefaultAccountID   *int64             `json:"defaultAccountId,omitempty"`
		DefaultTimeWindow  TimeWindow         `json:"defaultTimeWindow"`
		DisplayCurrency    Currency           `json:"displayCurrency"`
		ExchangeRates      ExchangeRateTable  `json:"exchangeRates"`
		AutoUpdateInterval AutoUpdateInterval `json:"autoUpdateInterval"`
		RatesLastUpdatedAt *time.Time         `json:"ratesLastUpdatedAt,omitempty"`
		RatesUpdateCount   int                `json:"ratesUpdateCount"`
	}
)

func (t TransactionType) IsValid() bool {
	return t == Expense || t == Income
}

func (w TimeWindow) IsValid() bool {
	switch w {
	case WindowDay, WindowWeek, WindowMonth, WindowYear:
		return true
	}
	return false
}

func (i AutoUpdateInterval) IsValid() bool {
	switch i {
	case AutoUpdateNone, AutoUpdate6h, AutoUpdate12h, AutoUpdate24h:
		return true
	}
	return false
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses an ISO date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%q: %w", s, ErrInvalidDate)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("decode date: %w", ErrInvalidDate)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ValidAmount reports whether v is a strictly positive finite number.
func ValidAmount(v float64) bool {
	return isUsableRate(v)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// NormalizeName trims surrounding whitespace.
func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}

// SameName compares two names trimmed and case-insensitively.
func SameName(a, b string) bool {
	return strings.EqualFold(NormalizeName(a), NormalizeName(b))
}

func (a Account) Validate() error {
	if NormalizeName(a.Name) == "" {
		return ErrEmptyName
	}
	if !a.Currency.IsValid() {
		return fmt.Errorf("account currency %q: %w", a.Currency, ErrInvalidCurrency)
	}
	if !isFinite(a.InitialBalance) {
		return ErrInvalidBalance
	}
	return nil
}

func (c Category) Validate() error {
	if NormalizeName(c.Name) == "" {
		return ErrEmptyName
	}
	if !c.Type.IsValid() {
		return fmt.Errorf("category type %q: %w", c.Type, ErrInvalidType)
	}
	return nil
}

func (t Transaction) Validate() error {
	if !ValidAmount(t.Amount) {
		return ErrInvalidAmount
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	return nil
}

func (t Transfer) Validate() error {
	if !ValidAmount(t.Amount) {
		return ErrInvalidAmount
	}
	if t.FromAccountID == t.ToAccountID {
		return ErrSameAccount
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	return nil
}

// DefaultSettings returns the settings a fresh dataset starts with.
func DefaultSettings(defaultRates ExchangeRateTable) Settings {
	return Settings{
		DefaultTimeWindow:  WindowMonth,
		DisplayCurrency:    BaseCurrency,
		ExchangeRates:      NormalizeRates(nil, defaultRates),
		AutoUpdateInterval: AutoUpdateNone,
	}
}

// Normalize fills missing or invalid fields from defaults.
func (s Settings) Normalize(defaultRates ExchangeRateTable) Settings {
	if !s.DefaultTimeWindow.IsValid() {
		s.DefaultTimeWindow = WindowMonth
	}
	if !s.DisplayCurrency.IsValid() {
		s.DisplayCurrency = BaseCurrency
	}
	if !s.AutoUpdateInterval.IsValid() {
		s.AutoUpdateInterval = AutoUpdateNone
	}
	s.ExchangeRates = NormalizeRates(s.ExchangeRates, defaultRates)
	return s
}
