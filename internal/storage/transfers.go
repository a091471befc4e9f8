package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"platito/internal/core"
	"platito/internal/ports"
)

const transferColumns = "id, from_account_id, to_account_id, amount, converted_amount, exchange_rate, date, description, created_at, updated_at"

func scanTransfer(row interface{ Scan(...any) error }) (core.Transfer, error) {
	var (
		tr                   core.Transfer
		date                 string
		createdAt, updatedAt string
	)
	if err := row.Scan(&tr.ID, &tr.FromAccountID, &tr.ToAccountID, &tr.Amount, &tr.ConvertedAmount,
		&tr.ExchangeRate, &date, &tr.Description, &createdAt, &updatedAt); err != nil {
		return core.Transfer{}, err
	}
	d, err := parseStoredDate(date)
	if err != nil {
		return core.Transfer{}, err
	}
	tr.Date = d
	if tr.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return core.Transfer{}, fmt.Errorf("parse created_at: %w", err)
	}
	if tr.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return core.Transfer{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return tr, nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func (r *SQLiteRepository) CreateTransfer(ctx context.Context, tr core.Transfer) (int64, error) {
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO transfers (id, from_account_id, to_account_id, amount, converted_amount, exchange_rate, date, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullableID(tr.ID), tr.FromAccountID, tr.ToAccountID, tr.Amount, tr.ConvertedAmount, tr.ExchangeRate,
		tr.Date.String(), tr.Description, formatTimestamp(tr.CreatedAt), formatTimestamp(tr.UpdatedAt))
	if err != nil {
		return 0, fmt.Errorf("create transfer: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create transfer: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) GetTransfer(ctx context.Context, id int64) (core.Transfer, error) {
	tr, err := scanTransfer(r.q.QueryRowContext(ctx, "SELECT "+transferColumns+" FROM transfers WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transfer{}, core.NotFound("transfer", id)
	}
	if err != nil {
		return core.Transfer{}, fmt.Errorf("get transfer %d: %w", id, err)
	}
	return tr, nil
}

func (r *SQLiteRepository) ListTransfers(ctx context.Context, f ports.TransferFilter) ([]core.Transfer, error) {
	var (
		conds []string
		args  []any
	)
	if f.AccountID != 0 {
		switch f.Direction {
		case core.DirectionFrom:
			conds = append(conds, "from_account_id = ?")
			args = append(args, f.AccountID)
		case core.DirectionTo:
			conds = append(conds, "to_account_id = ?")
			args = append(args, f.AccountID)
		default:
			conds = append(conds, "(from_account_id = ? OR to_account_id = ?)")
			args = append(args, f.AccountID, f.AccountID)
		}
	}
	if !f.Start.IsZero() {
		conds = append(conds, "date >= ?")
		args = append(args, dayKey(f.Start))
	}
	if !f.End.IsZero() {
		conds = append(conds, "date < ?")
		args = append(args, dayKey(f.End))
	}

	query := "SELECT " + transferColumns + " FROM transfers"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY date DESC, id DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()

	out := make([]core.Transfer, 0)
	for rows.Next() {
		tr, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		out = append(out, tr)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateTransfer(ctx context.Context, tr core.Transfer) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE transfers SET from_account_id = ?, to_account_id = ?, amount = ?, converted_amount = ?, exchange_rate = ?,
		 date = ?, description = ?, created_at = ?, updated_at = ? WHERE id = ?`,
		tr.FromAccountID, tr.ToAccountID, tr.Amount, tr.ConvertedAmount, tr.ExchangeRate,
		tr.Date.String(), tr.Description, formatTimestamp(tr.CreatedAt), formatTimestamp(tr.UpdatedAt), tr.ID)
	if err != nil {
		return fmt.Errorf("update transfer %d: %w", tr.ID, err)
	}
	return checkAffected(res, core.NotFound("transfer", tr.ID))
}

func (r *SQLiteRepository) DeleteTransfer(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, "DELETE FROM transfers WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete transfer %d: %w", id, err)
	}
	return checkAffected(res, core.NotFound("transfer", id))
}
