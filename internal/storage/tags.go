package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"platito/internal/core"
)

func (r *SQLiteRepository) CreateTag(ctx context.Context, t core.Tag) (int64, error) {
	res, err := r.q.ExecContext(ctx, `INSERT INTO tags (id, name) VALUES (?, ?)`, nullableID(t.ID), t.Name)
	if err != nil {
		return 0, fmt.Errorf("create tag: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create tag: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) GetTag(ctx context.Context, id int64) (core.Tag, error) {
	var t core.Tag
	err := r.q.QueryRowContext(ctx, "SELECT id, name FROM tags WHERE id = ?", id).Scan(&t.ID, &t.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Tag{}, core.NotFound("tag", id)
	}
	if err != nil {
		return core.Tag{}, fmt.Errorf("get tag %d: %w", id, err)
	}
	return t, nil
}

func (r *SQLiteRepository) ListTags(ctx context.Context) ([]core.Tag, error) {
	rows, err := r.q.QueryContext(ctx, "SELECT id, name FROM tags ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var out []core.Tag
	for rows.Next() {
		var t core.Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateTag(ctx context.Context, t core.Tag) error {
	res, err := r.q.ExecContext(ctx, "UPDATE tags SET name = ? WHERE id = ?", t.Name, t.ID)
	if err != nil {
		return fmt.Errorf("update tag %d: %w", t.ID, err)
	}
	return checkAffected(res, core.NotFound("tag", t.ID))
}

func (r *SQLiteRepository) DeleteTag(ctx context.Context, id int64) error {
	if _, err := r.q.ExecContext(ctx, "DELETE FROM transaction_tags WHERE tag_id = ?", id); err != nil {
		return fmt.Errorf("detach tag %d: %w", id, err)
	}
	res, err := r.q.ExecContext(ctx, "DELETE FROM tags WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete tag %d: %w", id, err)
	}
	return checkAffected(res, core.NotFound("tag", id))
}
