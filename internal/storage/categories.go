package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"platito/internal/core"
)

const categoryColumns = "id, name, type, color, icon, is_default"

func scanCategory(row interface{ Scan(...any) error }) (core.Category, error) {
	var (
		c         core.Category
		typ       string
		isDefault int
	)
	if err := row.Scan(&c.ID, &c.Name, &typ, &c.Color, &c.Icon, &isDefault); err != nil {
		return core.Category{}, err
	}
	c.Type = core.TransactionType(typ)
	c.IsDefault = isDefault != 0
	return c, nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (int64, error) {
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO categories (id, name, type, color, icon, is_default) VALUES (?, ?, ?, ?, ?, ?)`,
		nullableID(c.ID), c.Name, string(c.Type), c.Color, c.Icon, boolToInt(c.IsDefault))
	if err != nil {
		return 0, fmt.Errorf("create category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create category: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	c, err := scanCategory(r.q.QueryRowContext(ctx, "SELECT "+categoryColumns+" FROM categories WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.NotFound("category", id)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %d: %w", id, err)
	}
	return c, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.q.QueryContext(ctx, "SELECT "+categoryColumns+" FROM categories ORDER BY type, name, id")
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE categories SET name = ?, type = ?, color = ?, icon = ?, is_default = ? WHERE id = ?`,
		c.Name, string(c.Type), c.Color, c.Icon, boolToInt(c.IsDefault), c.ID)
	if err != nil {
		return fmt.Errorf("update category %d: %w", c.ID, err)
	}
	return checkAffected(res, core.NotFound("category", c.ID))
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	return checkAffected(res, core.NotFound("category", id))
}
