package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"platito/internal/amqp"
	"platito/internal/core"
	"platito/internal/log"
	"platito/internal/ports"
)

// RateTableSource provides the exchange rates in effect right now.
type RateTableSource interface {
	Table(ctx context.Context) (core.ExchangeRateTable, error)
}

type TransferInput struct {
	FromAccountID int64     `json:"fromAccountId"`
	ToAccountID   int64     `json:"toAccountId"`
	Amount        float64   `json:"amount"`
	Date          core.Date `json:"date"`
	Description   string    `json:"description"`
}

type TransferPatch struct {
	FromAccountID *int64     `json:"fromAccountId,omitempty"`
	ToAccountID   *int64     `json:"toAccountId,omitempty"`
	Amount        *float64   `json:"amount,omitempty"`
	Date          *core.Date `json:"date,omitempty"`
	Description   *string    `json:"description,omitempty"`
}

// TransferService prices transfers against the current rate table. Create
// freezes the converted amount; Update prices the edited transfer again.
type TransferService struct {
	repo  ports.Repository
	rates RateTableSource
	now   func() time.Time
	notifier
}

func NewTransferService(repo ports.Repository, rates RateTableSource, events EventPublisher) *TransferService {
	return &TransferService{repo: repo, rates: rates, now: time.Now, notifier: notifier{events: events}}
}

func (s *TransferService) Get(ctx context.Context, id int64) (core.Transfer, error) {
	return s.repo.GetTransfer(ctx, id)
}

func (s *TransferService) List(ctx context.Context, f ports.TransferFilter) ([]core.Transfer, error) {
	if f.Direction != "" && !f.Direction.IsValid() {
		return nil, fmt.Errorf("transfer direction %q: %w", f.Direction, core.ErrValidation)
	}
	trs, err := s.repo.ListTransfers(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	return trs, nil
}

func (s *TransferService) Create(ctx context.Context, in TransferInput) (core.Transfer, error) {
	tr := core.Transfer{
		FromAccountID: in.FromAccountID,
		ToAccountID:   in.ToAccountID,
		Amount:        in.Amount,
		Date:          in.Date,
		Description:   core.NormalizeName(in.Description),
	}
	if tr.Date.IsZero() {
		tr.Date = today(s.now)
	}
	if err := tr.Validate(); err != nil {
		return core.Transfer{}, err
	}

	table, err := s.rates.Table(ctx)
	if err != nil {
		return core.Transfer{}, fmt.Errorf("load exchange rates: %w", err)
	}

	err = s.repo.WithinTx(ctx, func(r ports.Repository) error {
		var err error
		if tr, err = priceTransfer(ctx, r, tr, table); err != nil {
			return err
		}
		now := s.now().UTC()
		tr.CreatedAt, tr.UpdatedAt = now, now
		id, err := r.CreateTransfer(ctx, tr)
		if err != nil {
			return fmt.Errorf("create transfer: %w", err)
		}
		tr.ID = id
		return nil
	})
	if err != nil {
		return core.Transfer{}, err
	}

	slog.InfoContext(ctx, "Transfer created", log.FieldComponent, log.ComponentLedger,
		"id", tr.ID,
		log.FieldFromAccountID, tr.FromAccountID,
		log.FieldToAccountID, tr.ToAccountID,
		log.FieldAmount, tr.Amount,
		log.FieldConverted, tr.ConvertedAmount,
		log.FieldExchangeRate, tr.ExchangeRate)
	s.notify(ctx, amqp.EntityTransfer, amqp.ActionCreated, tr.ID)
	return tr, nil
}

// Update merges patch and recomputes the converted amount and rate with the
// current table, even when only the date or description changed.
func (s *TransferService) Update(ctx context.Context, id int64, patch TransferPatch) (core.Transfer, error) {
	table, err := s.rates.Table(ctx)
	if err != nil {
		return core.Transfer{}, fmt.Errorf("load exchange rates: %w", err)
	}

	var tr core.Transfer
	err = s.repo.WithinTx(ctx, func(r ports.Repository) error {
		var err error
		if tr, err = r.GetTransfer(ctx, id); err != nil {
			return err
		}
		if patch.FromAccountID != nil {
			tr.FromAccountID = *patch.FromAccountID
		}
		if patch.ToAccountID != nil {
			tr.ToAccountID = *patch.ToAccountID
		}
		if patch.Amount != nil {
			tr.Amount = *patch.Amount
		}
		if patch.Date != nil {
			tr.Date = *patch.Date
		}
		if patch.Description != nil {
			tr.Description = core.NormalizeName(*patch.Description)
		}
		if err := tr.Validate(); err != nil {
			return err
		}
		if tr, err = priceTransfer(ctx, r, tr, table); err != nil {
			return err
		}
		tr.UpdatedAt = s.now().UTC()
		return r.UpdateTransfer(ctx, tr)
	})
	if err != nil {
		return core.Transfer{}, err
	}

	slog.InfoContext(ctx, "Transfer updated", log.FieldComponent, log.ComponentLedger,
		"id", id,
		log.FieldAmount, tr.Amount,
		log.FieldConverted, tr.ConvertedAmount,
		log.FieldExchangeRate, tr.ExchangeRate)
	s.notify(ctx, amqp.EntityTransfer, amqp.ActionUpdated, id)
	return tr, nil
}

func (s *TransferService) Delete(ctx context.Context, id int64) error {
	err := s.repo.WithinTx(ctx, func(r ports.Repository) error {
		if _, err := r.GetTransfer(ctx, id); err != nil {
			return err
		}
		return r.DeleteTransfer(ctx, id)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Transfer deleted", log.FieldComponent, log.ComponentLedger, "id", id)
	s.notify(ctx, amqp.EntityTransfer, amqp.ActionDeleted, id)
	return nil
}

// priceTransfer resolves both accounts and sets ConvertedAmount and
// ExchangeRate from table. tr must already be valid.
func priceTransfer(ctx context.Context, r ports.Repository, tr core.Transfer, table core.ExchangeRateTable) (core.Transfer, error) {
	from, err := r.GetAccount(ctx, tr.FromAccountID)
	if err != nil {
		return tr, fmt.Errorf("source account: %w", err)
	}
	to, err := r.GetAccount(ctx, tr.ToAccountID)
	if err != nil {
		return tr, fmt.Errorf("destination account: %w", err)
	}

	tr.ConvertedAmount = core.ConvertAmount(tr.Amount, from.Currency, to.Currency, table)
	tr.ExchangeRate = tr.ConvertedAmount / tr.Amount
	return tr, nil
}
