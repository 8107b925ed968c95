package main

import (
	"context"
	"errors"
	"os"
	"time"

	"tesoreria/internal/amqp"
	"tesoreria/internal/cli"
	"tesoreria/internal/ledger"
	applog "tesoreria/internal/log"
	"tesoreria/internal/sheets"
	gsheet "tesoreria/internal/sheets/google"
	mem "tesoreria/internal/sheets/memory"
	"tesoreria/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)

	logger.Info("Starting tesoreria-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	bandLedger := ledger.New(repo)

	// Export backend: Google Sheets in production, in-memory for local runs.
	var (
		appender  sheets.TransactionAppender
		summaries sheets.SummaryWriter
	)
	switch cfg.ExportBackend {
	case "sheets":
		client, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
			os.Exit(1)
		}
		appender, summaries = client, client
		logger.Info("Google Sheets export backend initialized",
			"spreadsheet_id", cfg.GoogleSpreadsheetID)
	default:
		store := mem.New()
		appender, summaries = store, store
		logger.Info("In-memory export backend initialized")
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	amqpClient, err := amqp.DialWithRetry(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to connect to AMQP", applog.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	exportWorker := worker.NewExportWorker(bandLedger, appender, summaries, cfg.ExportBatchSize)

	// Export the current state once on startup so a fresh sheet catches up
	// even if no message ever arrives.
	if err := exportWorker.Export(ctx); err != nil {
		logger.Error("Startup export failed", applog.FieldError, err)
	}

	if err := exportWorker.Run(ctx, amqpClient, cfg.ReconcileInterval); err != nil &&
		!errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", applog.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
