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

const (
	dateLayout         = "2006-01-02"
	transactionColumns = "id, account_id, category_id, type, amount, currency, date, description"
)

// dayKey returns the first calendar day (UTC) that is not before t. Dates are
// stored as YYYY-MM-DD so range bounds compare as strings.
func dayKey(t time.Time) string {
	u := t.UTC()
	day := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	if day.Before(u) {
		day = day.AddDate(0, 0, 1)
	}
	return day.Format(dateLayout)
}

func parseStoredDate(s string) (core.Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return core.Date{}, fmt.Errorf("parse stored date %q: %w", s, err)
	}
	return core.Date{Time: t}, nil
}

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var (
		tx       core.Transaction
		typ      string
		currency string
		date     string
	)
	if err := row.Scan(&tx.ID, &tx.AccountID, &tx.CategoryID, &typ, &tx.Amount, &currency, &date, &tx.Description); err != nil {
		return core.Transaction{}, err
	}
	d, err := parseStoredDate(date)
	if err != nil {
		return core.Transaction{}, err
	}
	tx.Type = core.TransactionType(typ)
	tx.Currency = core.Currency(currency)
	tx.Date = d
	return tx, nil
}

func transactionWhere(f ports.TransactionFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.AccountID != 0 {
		conds = append(conds, "account_id = ?")
		args = append(args, f.AccountID)
	}
	if f.CategoryID != 0 {
		conds = append(conds, "category_id = ?")
		args = append(args, f.CategoryID)
	}
	if f.TagID != 0 {
		conds = append(conds, "id IN (SELECT transaction_id FROM transaction_tags WHERE tag_id = ?)")
		args = append(args, f.TagID)
	}
	if !f.Start.IsZero() {
		conds = append(conds, "date >= ?")
		args = append(args, dayKey(f.Start))
	}
	if !f.End.IsZero() {
		conds = append(conds, "date < ?")
		args = append(args, dayKey(f.End))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tx core.Transaction) (int64, error) {
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO transactions (id, account_id, category_id, type, amount, currency, date, description) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		nullableID(tx.ID), tx.AccountID, tx.CategoryID, string(tx.Type), tx.Amount, string(tx.Currency), tx.Date.String(), tx.Description)
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", err)
	}
	if err := r.replaceTransactionTags(ctx, id, tx.TagIDs); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	tx, err := scanTransaction(r.q.QueryRowContext(ctx, "SELECT "+transactionColumns+" FROM transactions WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.NotFound("transaction", id)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	tags, err := r.loadTransactionTags(ctx, []int64{id})
	if err != nil {
		return core.Transaction{}, err
	}
	tx.TagIDs = tags[id]
	return tx, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, f ports.TransactionFilter) ([]core.Transaction, error) {
	where, args := transactionWhere(f)
	query := "SELECT " + transactionColumns + " FROM transactions" + where + " ORDER BY date DESC, id DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	out, err := r.queryTransactions(ctx, query, args)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	ids := make([]int64, len(out))
	for i, tx := range out {
		ids[i] = tx.ID
	}
	tags, err := r.loadTransactionTags(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].TagIDs = tags[out[i].ID]
	}
	return out, nil
}

func (r *SQLiteRepository) queryTransactions(ctx context.Context, query string, args []any) ([]core.Transaction, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := make([]core.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CountTransactions(ctx context.Context, f ports.TransactionFilter) (int, error) {
	where, args := transactionWhere(f)
	var n int
	if err := r.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions"+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE transactions SET account_id = ?, category_id = ?, type = ?, amount = ?, currency = ?, date = ?, description = ? WHERE id = ?`,
		tx.AccountID, tx.CategoryID, string(tx.Type), tx.Amount, string(tx.Currency), tx.Date.String(), tx.Description, tx.ID)
	if err != nil {
		return fmt.Errorf("update transaction %d: %w", tx.ID, err)
	}
	if err := checkAffected(res, core.NotFound("transaction", tx.ID)); err != nil {
		return err
	}
	return r.replaceTransactionTags(ctx, tx.ID, tx.TagIDs)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	if err := checkAffected(res, core.NotFound("transaction", id)); err != nil {
		return err
	}
	if _, err := r.q.ExecContext(ctx, "DELETE FROM transaction_tags WHERE transaction_id = ?", id); err != nil {
		return fmt.Errorf("delete transaction %d tags: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) replaceTransactionTags(ctx context.Context, txID int64, tagIDs []int64) error {
	if _, err := r.q.ExecContext(ctx, "DELETE FROM transaction_tags WHERE transaction_id = ?", txID); err != nil {
		return fmt.Errorf("clear transaction %d tags: %w", txID, err)
	}
	for pos, tagID := range tagIDs {
		if _, err := r.q.ExecContext(ctx,
			"INSERT OR IGNORE INTO transaction_tags (transaction_id, tag_id, position) VALUES (?, ?, ?)",
			txID, tagID, pos); err != nil {
			return fmt.Errorf("tag transaction %d: %w", txID, err)
		}
	}
	return nil
}

func (r *SQLiteRepository) loadTransactionTags(ctx context.Context, ids []int64) (map[int64][]int64, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.q.QueryContext(ctx,
		"SELECT transaction_id, tag_id FROM transaction_tags WHERE transaction_id IN ("+placeholders+") ORDER BY transaction_id, position",
		args...)
	if err != nil {
		return nil, fmt.Errorf("load transaction tags: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]int64, len(ids))
	for rows.Next() {
		var txID, tagID int64
		if err := rows.Scan(&txID, &tagID); err != nil {
			return nil, fmt.Errorf("scan transaction tag: %w", err)
		}
		out[txID] = append(out[txID], tagID)
	}
	return out, rows.Err()
}
