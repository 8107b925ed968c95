package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"tesoreria/internal/core"
)

func (r *SQLiteRepository) AddInvoice(ctx context.Context, inv *core.MusicianInvoice) (int64, error) {
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO invoices (musician_name, date, description, amount, verified, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		inv.MusicianName, inv.Date, inv.Description, inv.Amount, inv.Verified, inv.Notes, inv.CreatedAt.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert invoice: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("invoice id: %w", err)
	}
	inv.ID = id
	slog.InfoContext(ctx, "Invoice saved",
		"id", id, "musician", inv.MusicianName, "amount", inv.Amount)
	return id, nil
}

func (r *SQLiteRepository) GetInvoice(ctx context.Context, id int64) (*core.MusicianInvoice, error) {
	inv, err := scanInvoice(r.db.QueryRowContext(ctx,
		`SELECT id, musician_name, date, description, amount, verified, notes, created_at
		 FROM invoices WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("invoice %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

func (r *SQLiteRepository) AllInvoices(ctx context.Context) ([]core.MusicianInvoice, error) {
	return allInvoicesTx(ctx, r.db)
}

// InvoicesByMusician returns the invoices one musician has submitted.
func (r *SQLiteRepository) InvoicesByMusician(ctx context.Context, name string) ([]core.MusicianInvoice, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, musician_name, date, description, amount, verified, notes, created_at
		 FROM invoices WHERE musician_name = ? ORDER BY date DESC, created_at DESC`, name)
	if err != nil {
		return nil, fmt.Errorf("list invoices by musician: %w", err)
	}
	defer rows.Close()
	return collectInvoices(rows)
}

func (r *SQLiteRepository) UpdateInvoice(ctx context.Context, inv *core.MusicianInvoice) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE invoices
		 SET musician_name = ?, date = ?, description = ?, amount = ?, verified = ?, notes = ?
		 WHERE id = ?`,
		inv.MusicianName, inv.Date, inv.Description, inv.Amount, inv.Verified, inv.Notes, inv.ID,
	)
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("invoice %d: %w", inv.ID, ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) DeleteInvoice(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM invoices WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("invoice %d: %w", id, ErrNotFound)
	}
	return nil
}

// MarkInvoiceVerified flips the verified flag on one invoice.
func (r *SQLiteRepository) MarkInvoiceVerified(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "UPDATE invoices SET verified = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("mark invoice verified: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("invoice %d: %w", id, ErrNotFound)
	}
	slog.InfoContext(ctx, "Invoice marked as verified", "id", id)
	return nil
}

func allInvoicesTx(ctx context.Context, q querier) ([]core.MusicianInvoice, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, musician_name, date, description, amount, verified, notes, created_at
		 FROM invoices ORDER BY date DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()
	return collectInvoices(rows)
}

func collectInvoices(rows *sql.Rows) ([]core.MusicianInvoice, error) {
	var invoices []core.MusicianInvoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		invoices = append(invoices, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invoices: %w", err)
	}
	return invoices, nil
}

func scanInvoice(row rowScanner) (*core.MusicianInvoice, error) {
	var inv core.MusicianInvoice
	var createdAt int64
	err := row.Scan(&inv.ID, &inv.MusicianName, &inv.Date, &inv.Description, &inv.Amount, &inv.Verified, &inv.Notes, &createdAt)
	if err != nil {
		return nil, err
	}
	inv.CreatedAt = time.Unix(createdAt, 0)
	return &inv, nil
}
