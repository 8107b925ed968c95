// Package worker exports the derived ledger views to the configured
// spreadsheet backend. It reacts to record-change events from AMQP and
// additionally reconciles on a timer, so missed events only delay an
// export instead of losing it.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"tesoreria/internal/amqp"
	"tesoreria/internal/core"
	"tesoreria/internal/ledger"
	"tesoreria/internal/sheets"
)

// ExportWorker recomputes the transaction log after every record change
// and appends rows the export target has not seen yet. The seen-set lives
// in memory only; after a restart the first reconcile resends everything,
// which the append targets tolerate.
type ExportWorker struct {
	ledger    *ledger.Ledger
	appender  sheets.TransactionAppender
	summaries sheets.SummaryWriter
	batchSize int

	mu   sync.Mutex
	seen map[string]bool
}

func NewExportWorker(l *ledger.Ledger, appender sheets.TransactionAppender, summaries sheets.SummaryWriter, batchSize int) *ExportWorker {
	return &ExportWorker{
		ledger:    l,
		appender:  appender,
		summaries: summaries,
		batchSize: batchSize,
		seen:      make(map[string]bool),
	}
}

// HandleSyncMessage processes one record-change event from AMQP.
func (w *ExportWorker) HandleSyncMessage(msg *amqp.RecordSyncMessage) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	slog.InfoContext(ctx, "Processing record sync message",
		"collection", msg.Collection,
		"id", msg.ID,
		"action", msg.Action)

	return w.Export(ctx)
}

// Export recomputes the views and pushes unseen transactions plus the
// current summary to the export target.
func (w *ExportWorker) Export(ctx context.Context) error {
	txs, err := w.ledger.Transactions(ctx)
	if err != nil {
		return fmt.Errorf("compute transactions: %w", err)
	}

	fresh := w.unseen(txs)
	for start := 0; start < len(fresh); start += w.batchSize {
		end := start + w.batchSize
		if end > len(fresh) {
			end = len(fresh)
		}
		if err := w.appender.AppendTransactions(ctx, fresh[start:end]); err != nil {
			w.forget(fresh[start:end])
			return fmt.Errorf("append transactions: %w", err)
		}
	}

	summary, err := w.ledger.Summary(ctx)
	if err != nil {
		return fmt.Errorf("compute summary: %w", err)
	}
	if err := w.summaries.WriteSummary(ctx, summary); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	if len(fresh) > 0 {
		slog.InfoContext(ctx, "Exported ledger views",
			"new_transactions", len(fresh),
			"transaction_count", len(txs))
	}
	return nil
}

// Run consumes record-change events and reconciles on a timer until the
// context is cancelled. Both loops run under one errgroup; the first
// failure stops the other.
func (w *ExportWorker) Run(ctx context.Context, client *amqp.Client, reconcileEvery time.Duration) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return client.ConsumeRecordSync(ctx, w.HandleSyncMessage)
	})

	g.Go(func() error {
		ticker := time.NewTicker(reconcileEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := w.Export(ctx); err != nil {
					slog.ErrorContext(ctx, "Reconcile export failed", "error", err)
				}
			}
		}
	})

	return g.Wait()
}

// exportKey identifies a row for dedupe purposes. A transaction keeps its
// id when its status flips (a payment marked paid, an expense refunded), so
// the status is part of the key or the flip would never reach the sheet.
func exportKey(t core.Transaction) string {
	return t.ID + "|" + string(t.Status)
}

func (w *ExportWorker) unseen(txs []core.Transaction) []core.Transaction {
	w.mu.Lock()
	defer w.mu.Unlock()
	var fresh []core.Transaction
	for _, t := range txs {
		if k := exportKey(t); !w.seen[k] {
			w.seen[k] = true
			fresh = append(fresh, t)
		}
	}
	return fresh
}

func (w *ExportWorker) forget(txs []core.Transaction) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, t := range txs {
		delete(w.seen, exportKey(t))
	}
}
