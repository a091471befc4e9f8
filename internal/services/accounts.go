package services

import (
	"context"
	"fmt"
	"log/slog"

	"platito/internal/amqp"
	"platito/internal/core"
	"platito/internal/log"
	"platito/internal/ports"
)

// AccountScope selects accounts by their archived flag.
type AccountScope string

const (
	ScopeAll      AccountScope = "all"
	ScopeActive   AccountScope = "active"
	ScopeArchived AccountScope = "archived"
)

func (s AccountScope) IsValid() bool {
	return s == ScopeAll || s == ScopeActive || s == ScopeArchived
}

type AccountInput struct {
	Name           string        `json:"name"`
	Currency       core.Currency `json:"currency"`
	InitialBalance float64       `json:"initialBalance"`
	Color          string        `json:"color"`
	Icon           string        `json:"icon"`
}

// AccountPatch carries the fields to change. Currency is accepted only when
// it equals the stored one.
type AccountPatch struct {
	Name           *string        `json:"name,omitempty"`
	Currency       *core.Currency `json:"currency,omitempty"`
	InitialBalance *float64       `json:"initialBalance,omitempty"`
	Color          *string        `json:"color,omitempty"`
	Icon           *string        `json:"icon,omitempty"`
	IsArchived     *bool          `json:"isArchived,omitempty"`
}

type AccountService struct {
	repo ports.Repository
	notifier
}

func NewAccountService(repo ports.Repository, events EventPublisher) *AccountService {
	return &AccountService{repo: repo, notifier: notifier{events: events}}
}

func (s *AccountService) Create(ctx context.Context, in AccountInput) (core.Account, error) {
	a := core.Account{
		Name:           core.NormalizeName(in.Name),
		Currency:       in.Currency,
		InitialBalance: in.InitialBalance,
		Color:          in.Color,
		Icon:           in.Icon,
	}
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}

	err := s.repo.WithinTx(ctx, func(r ports.Repository) error {
		id, err := r.CreateAccount(ctx, a)
		if err != nil {
			return fmt.Errorf("create account: %w", err)
		}
		a.ID = id
		return nil
	})
	if err != nil {
		return core.Account{}, err
	}
	id := a.ID

	slog.InfoContext(ctx, "Account created", log.FieldComponent, log.ComponentLedger,
		log.FieldAccountID, id,
		log.FieldCurrency, a.Currency,
		log.FieldAmount, a.InitialBalance)
	s.notify(ctx, amqp.EntityAccount, amqp.ActionCreated, id)
	return a, nil
}

func (s *AccountService) Get(ctx context.Context, id int64) (core.Account, error) {
	return s.repo.GetAccount(ctx, id)
}

// List returns the accounts in scope; an empty scope means all.
func (s *AccountService) List(ctx context.Context, scope AccountScope) ([]core.Account, error) {
	if scope == "" {
		scope = ScopeAll
	}
	if !scope.IsValid() {
		return nil, fmt.Errorf("account scope %q: %w", scope, core.ErrValidation)
	}

	all, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	if scope == ScopeAll {
		return all, nil
	}
	out := make([]core.Account, 0, len(all))
	for _, a := range all {
		if a.IsArchived == (scope == ScopeArchived) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *AccountService) Update(ctx context.Context, id int64, patch AccountPatch) (core.Account, error) {
	var a core.Account
	err := s.repo.WithinTx(ctx, func(r ports.Repository) error {
		var err error
		if a, err = r.GetAccount(ctx, id); err != nil {
			return err
		}
		if patch.Currency != nil && *patch.Currency != a.Currency {
			return fmt.Errorf("account %d: %w", id, core.ErrCurrencyImmutable)
		}
		if patch.Name != nil {
			a.Name = core.NormalizeName(*patch.Name)
		}
		if patch.InitialBalance != nil {
			a.InitialBalance = *patch.InitialBalance
		}
		if patch.Color != nil {
			a.Color = *patch.Color
		}
		if patch.Icon != nil {
			a.Icon = *patch.Icon
		}
		if patch.IsArchived != nil {
			a.IsArchived = *patch.IsArchived
		}
		if err := a.Validate(); err != nil {
			return err
		}
		return r.UpdateAccount(ctx, a)
	})
	if err != nil {
		return core.Account{}, err
	}

	slog.InfoContext(ctx, "Account updated", log.FieldComponent, log.ComponentLedger, log.FieldAccountID, id, "archived", a.IsArchived)
	s.notify(ctx, amqp.EntityAccount, amqp.ActionUpdated, id)
	return a, nil
}

func (s *AccountService) Archive(ctx context.Context, id int64) (core.Account, error) {
	archived := true
	return s.Update(ctx, id, AccountPatch{IsArchived: &archived})
}

func (s *AccountService) Unarchive(ctx context.Context, id int64) (core.Account, error) {
	archived := false
	return s.Update(ctx, id, AccountPatch{IsArchived: &archived})
}

// Delete removes an account that no transaction or transfer references.
// Referenced accounts can only be archived. A default account setting that
// points at the removed account is cleared.
func (s *AccountService) Delete(ctx context.Context, id int64) error {
	err := s.repo.WithinTx(ctx, func(r ports.Repository) error {
		if _, err := r.GetAccount(ctx, id); err != nil {
			return err
		}

		n, err := r.CountTransactions(ctx, ports.TransactionFilter{AccountID: id})
		if err != nil {
			return fmt.Errorf("count account transactions: %w", err)
		}
		if n > 0 {
			return fmt.Errorf("account %d has %d transactions: %w", id, n, core.ErrInUse)
		}
		transfers, err := r.ListTransfers(ctx, ports.TransferFilter{AccountID: id, Limit: 1})
		if err != nil {
			return fmt.Errorf("list account transfers: %w", err)
		}
		if len(transfers) > 0 {
			return fmt.Errorf("account %d has transfers: %w", id, core.ErrInUse)
		}

		if err := r.DeleteAccount(ctx, id); err != nil {
			return err
		}

		st, ok, err := r.LoadSettings(ctx)
		if err != nil {
			return fmt.Errorf("load settings: %w", err)
		}
		if ok && st.DefaultAccountID != nil && *st.DefaultAccountID == id {
			st.DefaultAccountID = nil
			if err := r.SaveSettings(ctx, st); err != nil {
				return fmt.Errorf("clear default account: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Account deleted", log.FieldComponent, log.ComponentLedger, log.FieldAccountID, id)
	s.notify(ctx, amqp.EntityAccount, amqp.ActionDeleted, id)
	return nil
}
