package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tesoreria/internal/amqp"
	"tesoreria/internal/auth"
	"tesoreria/internal/cli"
	apphttp "tesoreria/internal/http"
	"tesoreria/internal/ledger"
	applog "tesoreria/internal/log"
	"tesoreria/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)

	logger.Info("Starting tesoreria")

	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// AMQP is optional for the API server: writes still succeed when the
	// broker is down, the worker reconciles later.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, export notifications disabled",
				applog.FieldError, err)
		} else {
			amqpClient = client
			defer amqpClient.Close()
			logger.Info("AMQP client initialized",
				applog.FieldExchange, cfg.AMQPExchange,
				applog.FieldQueue, cfg.AMQPQueue)
		}
	}

	budgetService := services.NewBudgetService(repo, amqpClient)
	payrollService := services.NewPayrollService()
	bandLedger := ledger.New(repo)
	gate := auth.NewGate(cfg.AppPassword, cfg.SessionTTL)
	if !gate.Enabled() {
		logger.Warn("APP_PASSWORD not set, API authentication disabled")
	}

	srv := apphttp.NewServer(":"+cfg.Port, payrollService, budgetService, bandLedger, gate, logger)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting tesoreria server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
