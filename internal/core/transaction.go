package core

import "time"

// Transaction kinds emitted by the ledger. Every kind-specific branch in the
// aggregator switches over these constants; keep the set closed.
const (
	TxConcertIncome    TransactionType = "concert_income"
	TxDepositIncome    TransactionType = "deposit_income"
	TxPaymentOut       TransactionType = "payment_out"
	TxExpenseOut       TransactionType = "expense_out"
	TxInvoiceSubmitted TransactionType = "invoice_submitted"
)

const (
	StatusCompleted TransactionStatus = "completed"
	StatusPending   TransactionStatus = "pending"
)

type (
	TransactionType   string
	TransactionStatus string

	// Transaction is the normalized, derived view unifying the five
	// transaction kinds. It is generated fresh from the raw collections on
	// every query and never persisted. The ID is a synthetic composite of
	// the source record id and, where relevant, the musician name; it is
	// unique within one query but carries no cross-query identity beyond
	// its composing fields.
	Transaction struct {
		ID              string            `json:"id"`
		Date            string            `json:"date"`
		Type            TransactionType   `json:"type"`
		Description     string            `json:"description"`
		Amount          float64           `json:"amount"`
		PaymentMethod   PaymentMethod     `json:"paymentMethod,omitempty"`
		RelatedMusician string            `json:"relatedMusician,omitempty"`
		RelatedConcert  string            `json:"relatedConcert,omitempty"`
		IsIncome        bool              `json:"isIncome"`
		Status          TransactionStatus `json:"status"`
		CreatedAt       time.Time         `json:"createdAt"`
	}

	// BudgetSummary is the global derived view over all concerts and
	// refunded expenses.
	BudgetSummary struct {
		TotalRevenue       float64 `json:"totalRevenue"`
		TotalCash          float64 `json:"totalCash"`
		TotalBankTransfer  float64 `json:"totalBankTransfer"`
		TotalPaidOut       float64 `json:"totalPaidOut"`
		TotalCashPaidOut   float64 `json:"totalCashPaidOut"`
		TotalCachetPaidOut float64 `json:"totalCachetPaidOut"`
		CurrentBalance     float64 `json:"currentBalance"`
		CurrentCashBalance float64 `json:"currentCashBalance"`
		CurrentBankBalance float64 `json:"currentBankBalance"`
	}

	// MusicianBalance is the per-musician derived balance sheet.
	MusicianBalance struct {
		MusicianName        string  `json:"musicianName"`
		TotalEarned         float64 `json:"totalEarned"`
		TotalCash           float64 `json:"totalCash"`
		TotalCachet         float64 `json:"totalCachet"`
		TotalPaid           float64 `json:"totalPaid"`
		TotalExpenseRefunds float64 `json:"totalExpenseRefunds"`
		TotalInvoices       float64 `json:"totalInvoices"`
		RemainingToPay      float64 `json:"remainingToPay"`
		InvoiceDifference   float64 `json:"invoiceDifference"`
	}

	// TransactionStats aggregates the full, unfiltered transaction set.
	// TotalExpenses equals CompletedPayments; the duplication is part of
	// the contract and deliberately kept.
	TransactionStats struct {
		TotalIncome       float64 `json:"totalIncome"`
		TotalExpenses     float64 `json:"totalExpenses"`
		PendingPayments   float64 `json:"pendingPayments"`
		CompletedPayments float64 `json:"completedPayments"`
		TransactionCount  int     `json:"transactionCount"`
	}
)

// IsValid reports whether t is one of the five known transaction kinds.
func (t TransactionType) IsValid() bool {
	switch t {
	case TxConcertIncome, TxDepositIncome, TxPaymentOut, TxExpenseOut, TxInvoiceSubmitted:
		return true
	default:
		return false
	}
}
