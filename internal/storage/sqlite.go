package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"platito/internal/log"
	"platito/internal/ports"
)

// queryable is satisfied by both *sql.DB and *sql.Tx.
type queryable interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type SQLiteRepository struct {
	db   *sql.DB
	q    queryable
	inTx bool
}

var _ ports.Repository = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps writers serialized.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.Debug("Opened SQLite repository", log.FieldComponent, log.ComponentStorage, "db_path", dbPath)

	return &SQLiteRepository{db: db, q: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.inTx {
		return nil
	}
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// WithinTx runs fn inside a database transaction. Nested calls reuse the
// outer transaction.
func (r *SQLiteRepository) WithinTx(ctx context.Context, fn func(ports.Repository) error) error {
	if r.inTx {
		return fn(r)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(&SQLiteRepository{db: r.db, q: tx, inTx: true}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.ErrorContext(ctx, "Failed to rollback transaction", log.FieldComponent, log.ComponentStorage, log.FieldError, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ClearLedger implements ports.Repository.
func (r *SQLiteRepository) ClearLedger(ctx context.Context) error {
	for _, table := range []string{"transaction_tags", "transactions", "transfers", "tags", "categories", "accounts"} {
		if _, err := r.q.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	// sqlite_sequence only exists once an AUTOINCREMENT table got a row.
	if _, err := r.q.ExecContext(ctx, `DELETE FROM sqlite_sequence WHERE name IN ('transactions', 'transfers', 'tags', 'categories', 'accounts')`); err != nil {
		slog.DebugContext(ctx, "Skipped sequence reset", log.FieldComponent, log.ComponentStorage, log.FieldError, err)
	}
	return nil
}

func (r *SQLiteRepository) ClearSettings(ctx context.Context) error {
	if _, err := r.q.ExecContext(ctx, "DELETE FROM settings"); err != nil {
		return fmt.Errorf("clear settings: %w", err)
	}
	return nil
}

// nullableID maps zero to NULL so SQLite assigns the next id.
func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func checkAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
