package http

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"platito/internal/core"
	"platito/internal/services"
)

// newValidator registers the ledger's own tags and reports fields by their
// JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	must := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("register validation %s: %v", tag, err))
		}
	}
	must("currency", func(fl validator.FieldLevel) bool {
		return core.Currency(fl.Field().String()).IsValid()
	})
	must("txtype", func(fl validator.FieldLevel) bool {
		return core.TransactionType(fl.Field().String()).IsValid()
	})
	must("window", func(fl validator.FieldLevel) bool {
		return core.TimeWindow(fl.Field().String()).IsValid()
	})
	must("interval", func(fl validator.FieldLevel) bool {
		return core.AutoUpdateInterval(fl.Field().String()).IsValid()
	})
	must("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})
	return v
}

// bindAndValidate decodes the body into a T and validates it.
func bindAndValidate[T any](v *validator.Validate, r *http.Request) (T, error) {
	var input T
	if err := DecodeJSON(r, &input, maxBodyBytes); err != nil {
		return input, err
	}
	if err := v.Struct(input); err != nil {
		return input, err
	}
	return input, nil
}

func fieldMessages(errs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(errs))
	for _, fe := range errs {
		out[fe.Field()] = fieldMessage(fe)
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "currency":
		return "must be one of ARS, USD_BLUE, USD_MEP, USDT"
	case "txtype":
		return "must be income or expense"
	case "window":
		return "must be day, week, month or year"
	case "interval":
		return "must be none, 6h, 12h or 24h"
	case "finite":
		return "must be a finite number"
	default:
		return "is invalid"
	}
}

// Amount accepts a JSON number or a user-typed string such as "1.234,56".
type Amount float64

func (a *Amount) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := core.ParseAmount(s)
		if err != nil {
			return err
		}
		*a = Amount(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*a = Amount(v)
	return nil
}

type accountCreateRequest struct {
	Name           string        `json:"name" validate:"required,max=100"`
	Currency       core.Currency `json:"currency" validate:"required,currency"`
	InitialBalance float64       `json:"initialBalance" validate:"finite"`
	Color          string        `json:"color" validate:"max=32"`
	Icon           string        `json:"icon" validate:"max=64"`
}

func (r accountCreateRequest) input() services.AccountInput {
	return services.AccountInput{
		Name:           r.Name,
		Currency:       r.Currency,
		InitialBalance: r.InitialBalance,
		Color:          r.Color,
		Icon:           r.Icon,
	}
}

type accountPatchRequest struct {
	Name           *string        `json:"name" validate:"omitempty,max=100"`
	Currency       *core.Currency `json:"currency" validate:"omitempty,currency"`
	InitialBalance *float64       `json:"initialBalance" validate:"omitempty,finite"`
	Color          *string        `json:"color" validate:"omitempty,max=32"`
	Icon           *string        `json:"icon" validate:"omitempty,max=64"`
	IsArchived     *bool          `json:"isArchived"`
}

func (r accountPatchRequest) patch() services.AccountPatch {
	return services.AccountPatch{
		Name:           r.Name,
		Currency:       r.Currency,
		InitialBalance: r.InitialBalance,
		Color:          r.Color,
		Icon:           r.Icon,
		IsArchived:     r.IsArchived,
	}
}

type categoryCreateRequest struct {
	Name  string               `json:"name" validate:"required,max=100"`
	Type  core.TransactionType `json:"type" validate:"required,txtype"`
	Color string               `json:"color" validate:"max=32"`
	Icon  string               `json:"icon" validate:"max=64"`
}

type categoryPatchRequest struct {
	Name  *string               `json:"name" validate:"omitempty,max=100"`
	Type  *core.TransactionType `json:"type" validate:"omitempty,txtype"`
	Color *string               `json:"color" validate:"omitempty,max=32"`
	Icon  *string               `json:"icon" validate:"omitempty,max=64"`
}

type tagRequest struct {
	Name string `json:"name" validate:"required,max=50"`
}

type transactionCreateRequest struct {
	AccountID   int64     `json:"accountId" validate:"required,gt=0"`
	CategoryID  int64     `json:"categoryId" validate:"required,gt=0"`
	Amount      Amount    `json:"amount" validate:"gt=0,finite"`
	Date        core.Date `json:"date"`
	Description string    `json:"description" validate:"max=500"`
	TagIDs      []int64   `json:"tagIds" validate:"omitempty,dive,gt=0"`
}

func (r transactionCreateRequest) transaction() core.Transaction {
	return core.Transaction{
		AccountID:   r.AccountID,
		CategoryID:  r.CategoryID,
		Amount:      float64(r.Amount),
		Date:        r.Date,
		Description: r.Description,
		TagIDs:      r.TagIDs,
	}
}

type transactionPatchRequest struct {
	AccountID   *int64     `json:"accountId" validate:"omitempty,gt=0"`
	CategoryID  *int64     `json:"categoryId" validate:"omitempty,gt=0"`
	Amount      *Amount    `json:"amount" validate:"omitempty,gt=0,finite"`
	Date        *core.Date `json:"date"`
	Description *string    `json:"description" validate:"omitempty,max=500"`
	TagIDs      *[]int64   `json:"tagIds" validate:"omitempty,dive,gt=0"`
}

func (r transactionPatchRequest) patch() services.TransactionPatch {
	p := services.TransactionPatch{
		AccountID:   r.AccountID,
		CategoryID:  r.CategoryID,
		Date:        r.Date,
		Description: r.Description,
		TagIDs:      r.TagIDs,
	}
	if r.Amount != nil {
		v := float64(*r.Amount)
		p.Amount = &v
	}
	return p
}

type transferCreateRequest struct {
	FromAccountID int64     `json:"fromAccountId" validate:"required,gt=0"`
	ToAccountID   int64     `json:"toAccountId" validate:"required,gt=0"`
	Amount        Amount    `json:"amount" validate:"gt=0,finite"`
	Date          core.Date `json:"date"`
	Description   string    `json:"description" validate:"max=500"`
}

func (r transferCreateRequest) input() services.TransferInput {
	return services.TransferInput{
		FromAccountID: r.FromAccountID,
		ToAccountID:   r.ToAccountID,
		Amount:        float64(r.Amount),
		Date:          r.Date,
		Description:   r.Description,
	}
}

type transferPatchRequest struct {
	FromAccountID *int64     `json:"fromAccountId" validate:"omitempty,gt=0"`
	ToAccountID   *int64     `json:"toAccountId" validate:"omitempty,gt=0"`
	Amount        *Amount    `json:"amount" validate:"omitempty,gt=0,finite"`
	Date          *core.Date `json:"date"`
	Description   *string    `json:"description" validate:"omitempty,max=500"`
}

func (r transferPatchRequest) patch() services.TransferPatch {
	p := services.TransferPatch{
		FromAccountID: r.FromAccountID,
		ToAccountID:   r.ToAccountID,
		Date:          r.Date,
		Description:   r.Description,
	}
	if r.Amount != nil {
		v := float64(*r.Amount)
		p.Amount = &v
	}
	return p
}

type settingsPatchRequest struct {
	DefaultAccountID    *int64                   `json:"defaultAccountId" validate:"omitempty,gt=0"`
	ClearDefaultAccount bool                     `json:"clearDefaultAccount"`
	DefaultTimeWindow   *core.TimeWindow         `json:"defaultTimeWindow" validate:"omitempty,window"`
	DisplayCurrency     *core.Currency           `json:"displayCurrency" validate:"omitempty,currency"`
	AutoUpdateInterval  *core.AutoUpdateInterval `json:"autoUpdateInterval" validate:"omitempty,interval"`
}

func (r settingsPatchRequest) patch() services.SettingsPatch {
	return services.SettingsPatch{
		DefaultAccountID:    r.DefaultAccountID,
		ClearDefaultAccount: r.ClearDefaultAccount,
		DefaultTimeWindow:   r.DefaultTimeWindow,
		DisplayCurrency:     r.DisplayCurrency,
		AutoUpdateInterval:  r.AutoUpdateInterval,
	}
}
