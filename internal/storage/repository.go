// Package storage persists the three raw record collections (concerts,
// expenses, invoices) in SQLite and serves the consistent snapshots the
// ledger recomputes its views from.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"tesoreria/internal/core"
	"tesoreria/internal/ledger"

	_ "modernc.org/sqlite"
)

// Ensure the repository satisfies the ledger's read contract.
var _ ledger.Store = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Snapshot reads all three collections inside one read transaction, so a
// derived-view computation never observes a torn multi-collection state.
func (r *SQLiteRepository) Snapshot(ctx context.Context) (core.Snapshot, error) {
	var snap core.Snapshot

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return snap, fmt.Errorf("begin snapshot read: %w", err)
	}
	defer tx.Rollback()

	if snap.Concerts, err = allConcertsTx(ctx, tx); err != nil {
		return snap, err
	}
	if snap.Expenses, err = allExpensesTx(ctx, tx); err != nil {
		return snap, err
	}
	if snap.Invoices, err = allInvoicesTx(ctx, tx); err != nil {
		return snap, err
	}
	return snap, nil
}

// ClearAll removes every record from all three collections.
func (r *SQLiteRepository) ClearAll(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin clear: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"concert_payments", "concerts", "expenses", "invoices"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// querier abstracts *sql.DB and *sql.Tx for the shared read helpers.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
