// Package worker keeps exported daybooks in step with the ledger.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/anisur046/accounting/internal/amqp"
	"github.com/anisur046/accounting/internal/core"
	"github.com/anisur046/accounting/internal/export"
	"github.com/anisur046/accounting/internal/ledger"
	"github.com/anisur046/accounting/internal/log"
	"github.com/anisur046/accounting/internal/sheets"
)

// ReportBuilder is satisfied by *ledger.Engine and *services.ReportService.
type ReportBuilder interface {
	BuildReport(ctx context.Context, from, to core.Date, mode ledger.Mode) (ledger.Report, error)
}

// ExportWorker rebuilds the daybook of every day a ledger event touches,
// plus every already exported later day, since those openings move with it.
// A failed day is returned as an error so the message is redelivered.
type ExportWorker struct {
	reports ReportBuilder
	writer  sheets.DaybookWriter
	logger  *log.Logger
	now     func() time.Time
}

func NewExportWorker(reports ReportBuilder, writer sheets.DaybookWriter, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ExportWorker{
		reports: reports,
		writer:  writer,
		logger:  logger.WithComponent(log.ComponentWorker),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// HandleLedgerEvent implements amqp.Handler.
func (w *ExportWorker) HandleLedgerEvent(ctx context.Context, msg *amqp.LedgerEvent) error {
	w.logger.InfoContext(ctx, "Processing ledger event",
		"action", msg.Action,
		log.FieldTxID, msg.TransactionID,
		"days", msg.Days())

	var touched []core.Date
	for _, day := range msg.Days() {
		d, err := core.ParseDate(day)
		if err != nil {
			// Redelivery cannot fix a malformed day.
			w.logger.WarnContext(ctx, "Dropping event with invalid day",
				log.FieldTxID, msg.TransactionID, "day", day, log.FieldError, err)
			return nil
		}
		touched = append(touched, d)
	}
	if len(touched) == 0 {
		return nil
	}

	done := make(map[string]bool, len(touched))
	earliest := touched[0].String()
	for _, d := range touched {
		if err := w.ExportDay(ctx, d); err != nil {
			return err
		}
		done[d.String()] = true
		earliest = min(earliest, d.String())
	}
	return w.exportLaterDays(ctx, earliest, done)
}

// exportLaterDays rewrites every exported daybook dated after day, skipping
// the days in done. Days compare as YYYY-MM-DD strings.
func (w *ExportWorker) exportLaterDays(ctx context.Context, day string, done map[string]bool) error {
	exported, err := w.writer.ExportedDays(ctx)
	if err != nil {
		return fmt.Errorf("list exported daybooks: %w", err)
	}
	var n int
	for _, later := range exported {
		if later <= day || done[later] {
			continue
		}
		d, err := core.ParseDate(later)
		if err != nil {
			continue
		}
		if err := w.ExportDay(ctx, d); err != nil {
			return err
		}
		n++
	}
	if n > 0 {
		w.logger.InfoContext(ctx, "Refreshed later daybooks",
			log.FieldOperation, log.OpExport, "after", day, "days", n)
	}
	return nil
}

// ExportDay writes the daybook for a single day.
func (w *ExportWorker) ExportDay(ctx context.Context, day core.Date) error {
	r, err := w.reports.BuildReport(ctx, day, day, ledger.ModeDaybook)
	if err != nil {
		return fmt.Errorf("build daybook %s: %w", day, err)
	}
	ref, err := w.writer.WriteDaybook(ctx, day.String(), export.Daybook(r))
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to export daybook",
			log.FieldOperation, log.OpExport, "day", day.String(), log.FieldError, err)
		return fmt.Errorf("export daybook %s: %w", day, err)
	}
	w.logger.InfoContext(ctx, "Exported daybook",
		log.FieldOperation, log.OpExport,
		"day", day.String(),
		"ref", ref,
		log.FieldRows, len(r.Transactions))
	return nil
}

// StartupExport re-exports the last n days, today included. It covers
// events missed while the worker was down and keeps going past failed days.
func (w *ExportWorker) StartupExport(ctx context.Context, days int) error {
	if days <= 0 {
		return nil
	}
	today := core.DateOf(w.now())
	var failed int
	for i := days - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return err
		}
		day := core.DateOf(today.AddDate(0, 0, -i))
		if err := w.ExportDay(ctx, day); err != nil {
			failed++
		}
	}
	w.logger.InfoContext(ctx, "Startup export completed", "days", days, "errors", failed)
	if failed > 0 {
		return fmt.Errorf("startup export: %d of %d days failed", failed, days)
	}
	return nil
}
