package core

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Error kinds surfaced by the ledger. Callers match them with errors.Is.
var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrDuplicateName   = errors.New("duplicate name")
	ErrProtectedEntity = errors.New("protected entity")
	ErrInUse           = errors.New("entity in use")
	ErrRateLimited     = errors.New("rate limited")
	ErrExternalFetch   = errors.New("external fetch failed")
)

// Validation failures. Each one also matches ErrValidation.
var (
	ErrInvalidAmount     = validationError("amount must be a positive finite number")
	ErrInvalidBalance    = validationError("initial balance must be a finite number")
	ErrSameAccount       = validationError("cannot transfer to the same account")
	ErrInvalidRate       = validationError("invalid exchange rate")
	ErrInvalidCurrency   = validationError("unsupported currency")
	ErrCurrencyImmutable = validationError("account currency cannot be changed")
	ErrEmptyName         = validationError("name cannot be empty")
	ErrInvalidType       = validationError("invalid transaction type")
	ErrInvalidDate       = validationError("invalid date")
	ErrInvalidWindow     = validationError("invalid time window")
	ErrInvalidInterval   = validationError("invalid auto-update interval")
)

type kindError struct {
	msg  string
	kind error
}

func validationError(msg string) error {
	return &kindError{msg: msg, kind: ErrValidation}
}

func (e *kindError) Error() string        { return e.msg }
func (e *kindError) Is(target error) bool { return target == e.kind }

// RateError reports a single offending entry of a rate table.
type RateError struct {
	Currency Currency
	Value    float64
	Reason   string
}

func (e *RateError) Error() string {
	return fmt.Sprintf("invalid rate for %s (%v): %s", e.Currency, e.Value, e.Reason)
}

func (e *RateError) Is(target error) bool {
	return target == ErrInvalidRate || target == ErrValidation
}

// RateLimitedError is returned when a quote fetch is attempted before the
// cooldown elapsed.
type RateLimitedError struct {
	Remaining time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("exchange rates were updated recently, retry in %d seconds", e.RemainingSeconds())
}

func (e *RateLimitedError) Is(target error) bool { return target == ErrRateLimited }

// RemainingSeconds rounds the remaining wait up to whole seconds.
func (e *RateLimitedError) RemainingSeconds() int {
	if e.Remaining <= 0 {
		return 0
	}
	return int(math.Ceil(e.Remaining.Seconds()))
}

// FetchError wraps a failure of the external quote source.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return "fetch quotes from " + e.Source + ": " + e.Err.Error()
}

func (e *FetchError) Unwrap() error        { return e.Err }
func (e *FetchError) Is(target error) bool { return target == ErrExternalFetch }

// NotFound builds an ErrNotFound for the named entity.
func NotFound(entity string, id int64) error {
	return fmt.Errorf("%s %d: %w", entity, id, ErrNotFound)
}
