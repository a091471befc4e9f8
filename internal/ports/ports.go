// Package ports declares the storage contract the ledger services depend on.
//
// Every lookup by id that misses returns an error matching core.ErrNotFound.
// Create methods honor a non-zero ID so that backups can be restored with
// their original identities; a zero ID is assigned by the store.
package ports

import (
	"context"
	"time"

	"platito/internal/core"
)

type (
	AccountStore interface {
		CreateAccount(ctx context.Context, a core.Account) (int64, error)
		GetAccount(ctx context.Context, id int64) (core.Account, error)
		ListAccounts(ctx context.Context) ([]core.Account, error)
		UpdateAccount(ctx context.Context, a core.Account) error
		DeleteAccount(ctx context.Context, id int64) error
	}

	CategoryStore interface {
		CreateCategory(ctx context.Context, c core.Category) (int64, error)
		GetCategory(ctx context.Context, id int64) (core.Category, error)
		// ListCategories returns every category, ordered by type then name.
		ListCategories(ctx context.Context) ([]core.Category, error)
		UpdateCategory(ctx context.Context, c core.Category) error
		DeleteCategory(ctx context.Context, id int64) error
	}

	TagStore interface {
		CreateTag(ctx context.Context, t core.Tag) (int64, error)
		GetTag(ctx context.Context, id int64) (core.Tag, error)
		ListTags(ctx context.Context) ([]core.Tag, error)
		UpdateTag(ctx context.Context, t core.Tag) error
		// DeleteTag also detaches the tag from every transaction.
		DeleteTag(ctx context.Context, id int64) error
	}

	TransactionStore interface {
		CreateTransaction(ctx context.Context, tx core.Transaction) (int64, error)
		GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
		// ListTransactions returns matches sorted by date then id, newest first.
		ListTransactions(ctx context.Context, f TransactionFilter) ([]core.Transaction, error)
		CountTransactions(ctx context.Context, f TransactionFilter) (int, error)
		UpdateTransaction(ctx context.Context, tx core.Transaction) error
		DeleteTransaction(ctx context.Context, id int64) error
	}

	TransferStore interface {
		CreateTransfer(ctx context.Context, tr core.Transfer) (int64, error)
		GetTransfer(ctx context.Context, id int64) (core.Transfer, error)
		// ListTransfers returns matches sorted by date then id, newest first.
		ListTransfers(ctx context.Context, f TransferFilter) ([]core.Transfer, error)
		UpdateTransfer(ctx context.Context, tr core.Transfer) error
		DeleteTransfer(ctx context.Context, id int64) error
	}

	SettingsStore interface {
		// LoadSettings reports false when no settings were saved yet.
		LoadSettings(ctx context.Context) (core.Settings, bool, error)
		SaveSettings(ctx context.Context, s core.Settings) error
	}

	// Repository is the full store. WithinTx runs fn against a repository
	// whose writes are committed together or not at all.
	Repository interface {
		AccountStore
		CategoryStore
		TagStore
		TransactionStore
		TransferStore
		SettingsStore

		// ClearLedger removes accounts, categories, tags, transactions and
		// transfers. Settings are kept.
		ClearLedger(ctx context.Context) error
		ClearSettings(ctx context.Context) error

		WithinTx(ctx context.Context, fn func(Repository) error) error
		Close() error
	}
)

// TransactionFilter narrows ListTransactions. Zero fields match everything;
// Start and End bound the date as [Start, End).
type TransactionFilter struct {
	AccountID  int64
	CategoryID int64
	TagID      int64
	Start      time.Time
	End        time.Time
	Limit      int
}

// Match applies the filter to a single transaction.
func (f TransactionFilter) Match(tx core.Transaction) bool {
	if f.AccountID != 0 && tx.AccountID != f.AccountID {
		return false
	}
	if f.CategoryID != 0 && tx.CategoryID != f.CategoryID {
		return false
	}
	if f.TagID != 0 && !containsID(tx.TagIDs, f.TagID) {
		return false
	}
	return inRange(tx.Date, f.Start, f.End)
}

// TransferFilter narrows ListTransfers. AccountID with Direction selects the
// side of the transfer the account must be on; an empty Direction means both.
type TransferFilter struct {
	AccountID int64
	Direction core.TransferDirection
	Start     time.Time
	End       time.Time
	Limit     int
}

func (f TransferFilter) Match(tr core.Transfer) bool {
	if f.AccountID != 0 {
		dir := f.Direction
		if dir == "" {
			dir = core.DirectionBoth
		}
		if !dir.Touches(tr, f.AccountID) {
			return false
		}
	}
	return inRange(tr.Date, f.Start, f.End)
}

func inRange(d core.Date, start, end time.Time) bool {
	if !start.IsZero() && d.Before(start) {
		return false
	}
	if !end.IsZero() && !d.Before(end) {
		return false
	}
	return true
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
