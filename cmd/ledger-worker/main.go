package main

import (
	"context"
	"errors"
	"os"

	"github.com/anisur046/accounting/internal/amqp"
	"github.com/anisur046/accounting/internal/cli"
	"github.com/anisur046/accounting/internal/config"
	"github.com/anisur046/accounting/internal/ledger"
	"github.com/anisur046/accounting/internal/log"
	"github.com/anisur046/accounting/internal/sheets"
	gsheet "github.com/anisur046/accounting/internal/sheets/google"
	"github.com/anisur046/accounting/internal/sheets/memory"
	"github.com/anisur046/accounting/internal/worker"
)

// Days re-exported on startup to cover events missed while the worker was down.
const startupExportDays = 7

func main() {
	cfg, logger := cli.MustInit(log.ComponentWorker)
	logger.Info("Starting ledger-worker", log.FieldOperation, log.OpStartup)

	if !cfg.EventsEnabled() {
		logger.Error("AMQP_URL is required for the ledger worker")
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		os.Exit(1)
	}
	logger.Info("Ledger worker stopped", log.FieldOperation, log.OpShutdown)
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	store, err := cli.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open store", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		return err
	}
	defer store.Cleanup()
	if cfg.DataBackend == "memory" {
		logger.Warn("Memory backend is private to this process; exported daybooks will be empty")
	}

	var writer sheets.DaybookWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.ExportSheetName)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			return err
		}
		writer = client
		logger.Info("Google Sheets export enabled", log.FieldSpreadsheet, cfg.GoogleSpreadsheetID)
	} else {
		writer = memory.New()
		logger.Warn("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, daybooks kept in memory")
	}

	engine := ledger.NewEngine(store.Store,
		ledger.WithTimeout(cfg.QueryTimeout),
		ledger.WithLogger(logger))
	w := worker.NewExportWorker(engine, writer, logger)

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		return err
	}
	defer client.Close()

	if err := w.StartupExport(ctx, startupExportDays); err != nil {
		logger.Error("Startup export incomplete", log.FieldError, err)
	}

	if err := client.ConsumeLedgerEvents(ctx, w.HandleLedgerEvent); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		return err
	}
	return nil
}
