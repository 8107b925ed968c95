package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"tesoreria/internal/core"
)

func (r *SQLiteRepository) AddExpense(ctx context.Context, e *core.Expense) (int64, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (date, description, amount, refunded_to, payment_method, refunded, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Date, e.Description, e.Amount, e.RefundedTo, string(e.PaymentMethod), e.Refunded, e.Notes, e.CreatedAt.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("expense id: %w", err)
	}
	e.ID = id
	slog.InfoContext(ctx, "Expense saved",
		"id", id, "description", e.Description, "amount", e.Amount, "refunded_to", e.RefundedTo)
	return id, nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (*core.Expense, error) {
	e, err := scanExpense(r.db.QueryRowContext(ctx,
		`SELECT id, date, description, amount, refunded_to, payment_method, refunded, notes, created_at
		 FROM expenses WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("expense %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

func (r *SQLiteRepository) AllExpenses(ctx context.Context) ([]core.Expense, error) {
	return allExpensesTx(ctx, r.db)
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e *core.Expense) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses
		 SET date = ?, description = ?, amount = ?, refunded_to = ?, payment_method = ?, refunded = ?, notes = ?
		 WHERE id = ?`,
		e.Date, e.Description, e.Amount, e.RefundedTo, string(e.PaymentMethod), e.Refunded, e.Notes, e.ID,
	)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("expense %d: %w", e.ID, ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("expense %d: %w", id, ErrNotFound)
	}
	return nil
}

// MarkExpenseRefunded flips the refunded flag on one expense.
func (r *SQLiteRepository) MarkExpenseRefunded(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "UPDATE expenses SET refunded = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("mark expense refunded: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("expense %d: %w", id, ErrNotFound)
	}
	slog.InfoContext(ctx, "Expense marked as refunded", "id", id)
	return nil
}

func allExpensesTx(ctx context.Context, q querier) ([]core.Expense, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, date, description, amount, refunded_to, payment_method, refunded, notes, created_at
		 FROM expenses ORDER BY date DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return expenses, nil
}

func scanExpense(row rowScanner) (*core.Expense, error) {
	var e core.Expense
	var method string
	var createdAt int64
	err := row.Scan(&e.ID, &e.Date, &e.Description, &e.Amount, &e.RefundedTo, &method, &e.Refunded, &e.Notes, &createdAt)
	if err != nil {
		return nil, err
	}
	e.PaymentMethod = core.PaymentMethod(method)
	e.CreatedAt = time.Unix(createdAt, 0)
	return &e, nil
}
