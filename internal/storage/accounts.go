package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"platito/internal/core"
)

const accountColumns = "id, name, currency, initial_balance, color, icon, is_archived"

func scanAccount(row interface{ Scan(...any) error }) (core.Account, error) {
	var (
		a        core.Account
		currency string
		archived int
	)
	if err := row.Scan(&a.ID, &a.Name, &currency, &a.InitialBalance, &a.Color, &a.Icon, &archived); err != nil {
		return core.Account{}, err
	}
	a.Currency = core.Currency(currency)
	a.IsArchived = archived != 0
	return a, nil
}

func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.Account) (int64, error) {
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO accounts (id, name, currency, initial_balance, color, icon, is_archived) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		nullableID(a.ID), a.Name, string(a.Currency), a.InitialBalance, a.Color, a.Icon, boolToInt(a.IsArchived))
	if err != nil {
		return 0, fmt.Errorf("create account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create account: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	a, err := scanAccount(r.q.QueryRowContext(ctx, "SELECT "+accountColumns+" FROM accounts WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.NotFound("account", id)
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account %d: %w", id, err)
	}
	return a, nil
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.q.QueryContext(ctx, "SELECT "+accountColumns+" FROM accounts ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateAccount(ctx context.Context, a core.Account) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE accounts SET name = ?, currency = ?, initial_balance = ?, color = ?, icon = ?, is_archived = ? WHERE id = ?`,
		a.Name, string(a.Currency), a.InitialBalance, a.Color, a.Icon, boolToInt(a.IsArchived), a.ID)
	if err != nil {
		return fmt.Errorf("update account %d: %w", a.ID, err)
	}
	return checkAffected(res, core.NotFound("account", a.ID))
}

func (r *SQLiteRepository) DeleteAccount(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, "DELETE FROM accounts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete account %d: %w", id, err)
	}
	return checkAffected(res, core.NotFound("account", id))
}
