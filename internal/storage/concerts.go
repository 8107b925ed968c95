package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tesoreria/internal/core"
)

var ErrNotFound = errors.New("record not found")

// AddConcert inserts a concert and its embedded payment list in one
// transaction and returns the assigned id.
func (r *SQLiteRepository) AddConcert(ctx context.Context, c *core.Concert) (int64, error) {
	c.TotalAmounts()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin add concert: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO concerts (date, location, cash_amount, bank_transfer_amount,
		                       deposit_cash, deposit_transfer, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Date, c.Location, c.CashAmount, c.BankTransferAmount,
		c.DepositCash, c.DepositTransfer, c.Notes, c.CreatedAt.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert concert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("concert id: %w", err)
	}

	if err := insertPayments(ctx, tx, id, c.Payments); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit add concert: %w", err)
	}

	c.ID = id
	slog.InfoContext(ctx, "Concert saved",
		"id", id, "date", c.Date, "location", c.Location,
		"total_amount", c.TotalAmount, "payments", len(c.Payments))
	return id, nil
}

// GetConcert loads one concert with its payment list.
func (r *SQLiteRepository) GetConcert(ctx context.Context, id int64) (*core.Concert, error) {
	c, err := scanConcert(r.db.QueryRowContext(ctx,
		`SELECT id, date, location, cash_amount, bank_transfer_amount,
		        deposit_cash, deposit_transfer, notes, created_at
		 FROM concerts WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("concert %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get concert: %w", err)
	}
	if c.Payments, err = concertPayments(ctx, r.db, c.ID); err != nil {
		return nil, err
	}
	return c, nil
}

// AllConcerts returns every concert ordered by date descending, creation
// time descending on ties.
func (r *SQLiteRepository) AllConcerts(ctx context.Context) ([]core.Concert, error) {
	return allConcertsTx(ctx, r.db)
}

// UpdateConcert replaces a concert record and its payment list.
func (r *SQLiteRepository) UpdateConcert(ctx context.Context, c *core.Concert) error {
	c.TotalAmounts()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update concert: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE concerts
		 SET date = ?, location = ?, cash_amount = ?, bank_transfer_amount = ?,
		     deposit_cash = ?, deposit_transfer = ?, notes = ?
		 WHERE id = ?`,
		c.Date, c.Location, c.CashAmount, c.BankTransferAmount,
		c.DepositCash, c.DepositTransfer, c.Notes, c.ID,
	)
	if err != nil {
		return fmt.Errorf("update concert: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("concert %d: %w", c.ID, ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM concert_payments WHERE concert_id = ?", c.ID); err != nil {
		return fmt.Errorf("clear concert payments: %w", err)
	}
	if err := insertPayments(ctx, tx, c.ID, c.Payments); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteConcert removes a concert; its payments go with it via cascade.
func (r *SQLiteRepository) DeleteConcert(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM concerts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete concert: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("concert %d: %w", id, ErrNotFound)
	}
	return nil
}

// MarkPaymentPaid flips the paid flag on a single payment entry. Only the
// row matching both concert and musician changes; every other payment and
// concert stays untouched.
func (r *SQLiteRepository) MarkPaymentPaid(ctx context.Context, concertID int64, musicianName string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE concert_payments SET paid = 1 WHERE concert_id = ? AND musician_name = ?",
		concertID, musicianName,
	)
	if err != nil {
		return fmt.Errorf("mark payment paid: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("payment for %q in concert %d: %w", musicianName, concertID, ErrNotFound)
	}
	slog.InfoContext(ctx, "Payment marked as paid", "concert_id", concertID, "musician", musicianName)
	return nil
}

func insertPayments(ctx context.Context, tx *sql.Tx, concertID int64, payments []core.ConcertPayment) error {
	for i, p := range payments {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO concert_payments (concert_id, position, musician_name, amount, payment_method, paid)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			concertID, i, p.MusicianName, p.Amount, string(p.PaymentMethod), p.Paid,
		)
		if err != nil {
			return fmt.Errorf("insert concert payment: %w", err)
		}
	}
	return nil
}

func allConcertsTx(ctx context.Context, q querier) ([]core.Concert, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, date, location, cash_amount, bank_transfer_amount,
		        deposit_cash, deposit_transfer, notes, created_at
		 FROM concerts ORDER BY date DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list concerts: %w", err)
	}
	defer rows.Close()

	var concerts []core.Concert
	for rows.Next() {
		c, err := scanConcert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan concert: %w", err)
		}
		concerts = append(concerts, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate concerts: %w", err)
	}

	for i := range concerts {
		if concerts[i].Payments, err = concertPayments(ctx, q, concerts[i].ID); err != nil {
			return nil, err
		}
	}
	return concerts, nil
}

func concertPayments(ctx context.Context, q querier, concertID int64) ([]core.ConcertPayment, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT musician_name, amount, payment_method, paid
		 FROM concert_payments WHERE concert_id = ? ORDER BY position`, concertID)
	if err != nil {
		return nil, fmt.Errorf("list concert payments: %w", err)
	}
	defer rows.Close()

	var payments []core.ConcertPayment
	for rows.Next() {
		var p core.ConcertPayment
		var method string
		if err := rows.Scan(&p.MusicianName, &p.Amount, &method, &p.Paid); err != nil {
			return nil, fmt.Errorf("scan concert payment: %w", err)
		}
		p.PaymentMethod = core.PaymentMethod(method)
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate concert payments: %w", err)
	}
	return payments, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConcert(row rowScanner) (*core.Concert, error) {
	var c core.Concert
	var createdAt int64
	err := row.Scan(&c.ID, &c.Date, &c.Location, &c.CashAmount, &c.BankTransferAmount,
		&c.DepositCash, &c.DepositTransfer, &c.Notes, &createdAt)
	if err != nil {
		return nil, err
	}
	c.CreatedAt = time.Unix(createdAt, 0)
	c.TotalAmounts()
	return &c, nil
}
