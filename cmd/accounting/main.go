package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/anisur046/accounting/internal/amqp"
	"github.com/anisur046/accounting/internal/cache"
	"github.com/anisur046/accounting/internal/cli"
	"github.com/anisur046/accounting/internal/config"
	apphttp "github.com/anisur046/accounting/internal/http"
	"github.com/anisur046/accounting/internal/ledger"
	"github.com/anisur046/accounting/internal/log"
	"github.com/anisur046/accounting/internal/services"
)

func main() {
	cfg, logger := cli.MustInit(log.ComponentApp)
	if err := run(cfg, logger); err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	store, err := cli.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open store", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		return err
	}

	engine := ledger.NewEngine(store.Store,
		ledger.WithTimeout(cfg.QueryTimeout),
		ledger.WithLogger(logger))
	reports := services.NewReportService(engine, cfg.ReportCacheMax, cfg.ReportCacheTTL)

	cacheManager := cache.NewManager()
	for _, c := range reports.Caches() {
		cacheManager.Register(c)
	}
	cacheManager.StartCleanup(time.Minute)
	defer cacheManager.Stop()

	// Left as a nil interface when events are off so the service skips publishing.
	var publisher services.Publisher
	if cfg.EventsEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without ledger events", log.FieldError, err)
		} else {
			publisher = client
			logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	ledgerSvc := services.NewLedgerService(store.Store, publisher, reports, logger)
	defer func() {
		if err := ledgerSvc.Close(); err != nil {
			logger.Error("Failed to close ledger service", log.FieldError, err)
		}
	}()

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Services{
		Ledger:    ledgerSvc,
		Reports:   reports,
		Directory: services.NewDirectoryService(store.Store, store.Store, store.Store),
		Store:     store.Store,
	}, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:             logger,
	})

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	}()

	logger.Info("Starting accounting server",
		"port", cfg.Port,
		log.FieldBackend, cfg.DataBackend,
		"events", cfg.EventsEnabled(),
		log.FieldOperation, log.OpStartup)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}
