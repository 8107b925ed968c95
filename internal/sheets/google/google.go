// Package google exports ledger views to a Google Sheets spreadsheet using
// service-account credentials.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"tesoreria/internal/core"
	ports "tesoreria/internal/sheets"
)

type Client struct {
	svc               *gsheet.Service
	spreadsheetID     string
	transactionsSheet string
	summarySheet      string
}

// Ensure interface conformance
var (
	_ ports.TransactionAppender = (*Client)(nil)
	_ ports.SummaryWriter       = (*Client)(nil)
)

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID plus service-account credentials via
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
// Optional sheet names: GOOGLE_SHEET_NAME (default "Transactions"),
// GOOGLE_SUMMARY_SHEET_NAME (default "Summary").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	txSheet := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if txSheet == "" {
		txSheet = "Transactions"
	}
	summarySheet := strings.TrimSpace(os.Getenv("GOOGLE_SUMMARY_SHEET_NAME"))
	if summarySheet == "" {
		summarySheet = "Summary"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:               svc,
		spreadsheetID:     spreadsheetID,
		transactionsSheet: txSheet,
		summarySheet:      summarySheet,
	}, nil
}

// newSheetsService initializes a Sheets Service from Service Account credentials.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// AppendTransactions appends one row per transaction to the transactions sheet.
func (c *Client) AppendTransactions(ctx context.Context, txs []core.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	values := make([][]any, 0, len(txs))
	for _, t := range txs {
		flow := "out"
		if t.IsIncome {
			flow = "in"
		}
		values = append(values, []any{
			t.ID,
			t.Date,
			string(t.Type),
			t.Description,
			t.Amount,
			string(t.PaymentMethod),
			t.RelatedMusician,
			t.RelatedConcert,
			flow,
			string(t.Status),
		})
	}

	rangeRef := fmt.Sprintf("%s!A:J", c.transactionsSheet)
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rangeRef, &gsheet.ValueRange{
		Values: values,
	}).ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append transactions: %w", err)
	}

	slog.InfoContext(ctx, "Appended transactions to sheet",
		"count", len(values),
		"sheet", c.transactionsSheet)
	return nil
}

// WriteSummary overwrites the summary block with the current budget summary.
func (c *Client) WriteSummary(ctx context.Context, s core.BudgetSummary) error {
	values := [][]any{
		{"Total revenue", s.TotalRevenue},
		{"Total cash", s.TotalCash},
		{"Total bank transfer", s.TotalBankTransfer},
		{"Total paid out", s.TotalPaidOut},
		{"Cash paid out", s.TotalCashPaidOut},
		{"Cachets paid out", s.TotalCachetPaidOut},
		{"Current balance", s.CurrentBalance},
		{"Cash balance", s.CurrentCashBalance},
		{"Bank balance", s.CurrentBankBalance},
	}

	rangeRef := fmt.Sprintf("%s!A1:B%d", c.summarySheet, len(values))
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rangeRef, &gsheet.ValueRange{
		Values: values,
	}).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	slog.InfoContext(ctx, "Wrote budget summary to sheet", "sheet", c.summarySheet)
	return nil
}
