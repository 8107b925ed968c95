package services

import (
	"context"
	"fmt"
	"log/slog"

	"tesoreria/internal/amqp"
	"tesoreria/internal/core"
	"tesoreria/internal/storage"
)

// BudgetService wraps the storage mutations for the three record
// collections and publishes an export event after every write. Publish
// failures are logged and never fail the request: the record is already
// persisted, and the worker's reconcile pass picks up missed events.
type BudgetService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewBudgetService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *BudgetService {
	return &BudgetService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// ----- concerts -----

func (s *BudgetService) AddConcert(ctx context.Context, c *core.Concert) (int64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}
	id, err := s.storage.AddConcert(ctx, c)
	if err != nil {
		return 0, fmt.Errorf("save concert: %w", err)
	}
	s.publish(ctx, amqp.CollectionConcerts, id, amqp.ActionCreated)
	return id, nil
}

func (s *BudgetService) GetConcert(ctx context.Context, id int64) (*core.Concert, error) {
	return s.storage.GetConcert(ctx, id)
}

func (s *BudgetService) ListConcerts(ctx context.Context) ([]core.Concert, error) {
	return s.storage.AllConcerts(ctx)
}

func (s *BudgetService) UpdateConcert(ctx context.Context, c *core.Concert) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := s.storage.UpdateConcert(ctx, c); err != nil {
		return fmt.Errorf("update concert: %w", err)
	}
	s.publish(ctx, amqp.CollectionConcerts, c.ID, amqp.ActionUpdated)
	return nil
}

func (s *BudgetService) DeleteConcert(ctx context.Context, id int64) error {
	if err := s.storage.DeleteConcert(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, amqp.CollectionConcerts, id, amqp.ActionDeleted)
	return nil
}

// MarkPaymentPaid flips one payment entry inside one concert.
func (s *BudgetService) MarkPaymentPaid(ctx context.Context, concertID int64, musicianName string) error {
	if err := s.storage.MarkPaymentPaid(ctx, concertID, musicianName); err != nil {
		return err
	}
	s.publish(ctx, amqp.CollectionConcerts, concertID, amqp.ActionUpdated)
	return nil
}

// ----- expenses -----

func (s *BudgetService) AddExpense(ctx context.Context, e *core.Expense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}
	id, err := s.storage.AddExpense(ctx, e)
	if err != nil {
		return 0, fmt.Errorf("save expense: %w", err)
	}
	s.publish(ctx, amqp.CollectionExpenses, id, amqp.ActionCreated)
	return id, nil
}

func (s *BudgetService) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	return s.storage.AllExpenses(ctx)
}

func (s *BudgetService) UpdateExpense(ctx context.Context, e *core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if err := s.storage.UpdateExpense(ctx, e); err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	s.publish(ctx, amqp.CollectionExpenses, e.ID, amqp.ActionUpdated)
	return nil
}

func (s *BudgetService) DeleteExpense(ctx context.Context, id int64) error {
	if err := s.storage.DeleteExpense(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, amqp.CollectionExpenses, id, amqp.ActionDeleted)
	return nil
}

func (s *BudgetService) MarkExpenseRefunded(ctx context.Context, id int64) error {
	if err := s.storage.MarkExpenseRefunded(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, amqp.CollectionExpenses, id, amqp.ActionUpdated)
	return nil
}

// ----- invoices -----

func (s *BudgetService) AddInvoice(ctx context.Context, inv *core.MusicianInvoice) (int64, error) {
	if err := inv.Validate(); err != nil {
		return 0, err
	}
	id, err := s.storage.AddInvoice(ctx, inv)
	if err != nil {
		return 0, fmt.Errorf("save invoice: %w", err)
	}
	s.publish(ctx, amqp.CollectionInvoices, id, amqp.ActionCreated)
	return id, nil
}

func (s *BudgetService) ListInvoices(ctx context.Context) ([]core.MusicianInvoice, error) {
	return s.storage.AllInvoices(ctx)
}

func (s *BudgetService) ListInvoicesByMusician(ctx context.Context, name string) ([]core.MusicianInvoice, error) {
	return s.storage.InvoicesByMusician(ctx, name)
}

func (s *BudgetService) UpdateInvoice(ctx context.Context, inv *core.MusicianInvoice) error {
	if err := inv.Validate(); err != nil {
		return err
	}
	if err := s.storage.UpdateInvoice(ctx, inv); err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	s.publish(ctx, amqp.CollectionInvoices, inv.ID, amqp.ActionUpdated)
	return nil
}

func (s *BudgetService) DeleteInvoice(ctx context.Context, id int64) error {
	if err := s.storage.DeleteInvoice(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, amqp.CollectionInvoices, id, amqp.ActionDeleted)
	return nil
}

func (s *BudgetService) MarkInvoiceVerified(ctx context.Context, id int64) error {
	if err := s.storage.MarkInvoiceVerified(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, amqp.CollectionInvoices, id, amqp.ActionUpdated)
	return nil
}

func (s *BudgetService) publish(ctx context.Context, collection string, id int64, action string) {
	if s.amqpClient == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping export event",
			"collection", collection, "id", id)
		return
	}
	if err := s.amqpClient.PublishRecordSync(ctx, collection, id, action); err != nil {
		slog.ErrorContext(ctx, "Failed to publish export event",
			"collection", collection, "id", id, "action", action, "error", err)
	}
}

// Close closes the storage and AMQP connections.
func (s *BudgetService) Close() error {
	var errs []error
	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close budget service: %v", errs)
	}
	return nil
}
