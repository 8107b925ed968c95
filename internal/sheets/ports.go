// Package sheets defines the outbound ports for exporting the derived
// ledger views to a spreadsheet.
package sheets

import (
	"context"

	"tesoreria/internal/core"
)

type (
	// TransactionAppender appends normalized transaction rows to the
	// export target. Implementations must tolerate duplicate composite
	// ids across calls; the worker deduplicates before appending but a
	// reconcile pass may resend rows after a restart.
	TransactionAppender interface {
		AppendTransactions(ctx context.Context, txs []core.Transaction) error
	}

	// SummaryWriter overwrites the budget-summary block of the export
	// target with the current derived summary.
	SummaryWriter interface {
		WriteSummary(ctx context.Context, s core.BudgetSummary) error
	}
)
