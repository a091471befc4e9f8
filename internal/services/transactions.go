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

// TransactionPatch carries the fields to change. TagIDs replaces the whole
// list when set.
type TransactionPatch struct {
	AccountID   *int64     `json:"accountId,omitempty"`
	CategoryID  *int64     `json:"categoryId,omitempty"`
	Amount      *float64   `json:"amount,omitempty"`
	Date        *core.Date `json:"date,omitempty"`
	Description *string    `json:"description,omitempty"`
	TagIDs      *[]int64   `json:"tagIds,omitempty"`
}

type TransactionService struct {
	repo ports.Repository
	now  func() time.Time
	notifier
}

func NewTransactionService(repo ports.Repository, events EventPublisher) *TransactionService {
	return &TransactionService{repo: repo, now: time.Now, notifier: notifier{events: events}}
}

func (s *TransactionService) Get(ctx context.Context, id int64) (core.Transaction, error) {
	return s.repo.GetTransaction(ctx, id)
}

func (s *TransactionService) List(ctx context.Context, f ports.TransactionFilter) ([]core.Transaction, error) {
	txs, err := s.repo.ListTransactions(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// Create stores tx after stamping its currency and type from the referenced
// account and category. Caller-supplied values for both are ignored.
func (s *TransactionService) Create(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	tx.ID = 0
	err := s.repo.WithinTx(ctx, func(r ports.Repository) error {
		var err error
		if tx, err = s.resolve(ctx, r, tx); err != nil {
			return err
		}
		id, err := r.CreateTransaction(ctx, tx)
		if err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}
		tx.ID = id
		return nil
	})
	if err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Transaction created", log.FieldComponent, log.ComponentLedger,
		"id", tx.ID,
		log.FieldAccountID, tx.AccountID,
		log.FieldCategoryID, tx.CategoryID,
		log.FieldAmount, tx.Amount,
		log.FieldCurrency, tx.Currency,
		"type", tx.Type)
	s.notify(ctx, amqp.EntityTransaction, amqp.ActionCreated, tx.ID)
	return tx, nil
}

func (s *TransactionService) Update(ctx context.Context, id int64, patch TransactionPatch) (core.Transaction, error) {
	var tx core.Transaction
	err := s.repo.WithinTx(ctx, func(r ports.Repository) error {
		var err error
		if tx, err = r.GetTransaction(ctx, id); err != nil {
			return err
		}
		if patch.AccountID != nil {
			tx.AccountID = *patch.AccountID
		}
		if patch.CategoryID != nil {
			tx.CategoryID = *patch.CategoryID
		}
		if patch.Amount != nil {
			tx.Amount = *patch.Amount
		}
		if patch.Date != nil {
			tx.Date = *patch.Date
		}
		if patch.Description != nil {
			tx.Description = *patch.Description
		}
		if patch.TagIDs != nil {
			tx.TagIDs = *patch.TagIDs
		}
		if tx, err = s.resolve(ctx, r, tx); err != nil {
			return err
		}
		return r.UpdateTransaction(ctx, tx)
	})
	if err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Transaction updated", log.FieldComponent, log.ComponentLedger, "id", id, log.FieldAmount, tx.Amount, log.FieldCurrency, tx.Currency)
	s.notify(ctx, amqp.EntityTransaction, amqp.ActionUpdated, id)
	return tx, nil
}

func (s *TransactionService) Delete(ctx context.Context, id int64) error {
	err := s.repo.WithinTx(ctx, func(r ports.Repository) error {
		if _, err := r.GetTransaction(ctx, id); err != nil {
			return err
		}
		return r.DeleteTransaction(ctx, id)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Transaction deleted", log.FieldComponent, log.ComponentLedger, "id", id)
	s.notify(ctx, amqp.EntityTransaction, amqp.ActionDeleted, id)
	return nil
}

// resolve re-reads the account, category and tags referenced by tx and
// returns the normalized record.
func (s *TransactionService) resolve(ctx context.Context, r ports.Repository, tx core.Transaction) (core.Transaction, error) {
	if !core.ValidAmount(tx.Amount) {
		return tx, core.ErrInvalidAmount
	}
	if tx.Date.IsZero() {
		tx.Date = today(s.now)
	}

	account, err := r.GetAccount(ctx, tx.AccountID)
	if err != nil {
		return tx, err
	}
	category, err := r.GetCategory(ctx, tx.CategoryID)
	if err != nil {
		return tx, err
	}
	tx.Currency = account.Currency
	tx.Type = category.Type
	tx.Description = core.NormalizeName(tx.Description)

	tags := make([]int64, 0, len(tx.TagIDs))
	seen := make(map[int64]bool, len(tx.TagIDs))
	for _, id := range tx.TagIDs {
		if seen[id] {
			continue
		}
		if _, err := r.GetTag(ctx, id); err != nil {
			return tx, err
		}
		seen[id] = true
		tags = append(tags, id)
	}
	tx.TagIDs = tags

	return tx, tx.Validate()
}
