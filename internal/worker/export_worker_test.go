package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anisur046/accounting/internal/amqp"
	"github.com/anisur046/accounting/internal/core"
	"github.com/anisur046/accounting/internal/export"
	"github.com/anisur046/accounting/internal/ledger"
	"github.com/anisur046/accounting/internal/log"
	sheetsmem "github.com/anisur046/accounting/internal/sheets/memory"
	"github.com/anisur046/accounting/internal/storage/memory"
)

func newWorker(t *testing.T) (*ExportWorker, *sheetsmem.Store) {
	t.Helper()
	store := memory.New()
	store.Seed(
		core.Transaction{Amount: "100", Type: core.Income, Date: time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC), Description: "Invoice"},
		core.Transaction{Amount: "30", Type: core.Expense, Date: time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC), Description: "Rent"},
	)
	engine := ledger.NewEngine(store, ledger.WithLogger(log.Discard()))
	out := sheetsmem.New()
	return NewExportWorker(engine, out, log.Discard()), out
}

func TestHandleLedgerEvent_ExportsEachDay(t *testing.T) {
	w, out := newWorker(t)
	msg := amqp.NewLedgerEvent(amqp.ActionUpdated, 2, "2024-01-10")
	msg.PreviousDay = "2024-01-05"

	if err := w.HandleLedgerEvent(context.Background(), msg); err != nil {
		t.Fatalf("HandleLedgerEvent: %v", err)
	}
	if days := out.Days(); len(days) != 2 {
		t.Fatalf("days = %v", days)
	}

	tbl, _ := out.Daybook("2024-01-10")
	last := tbl.Rows[len(tbl.Rows)-1]
	if last[2] != "100.00" || last[5] != "70.00" {
		t.Fatalf("balance row = %v", last)
	}
}

func TestHandleLedgerEvent_InvalidDayIsDropped(t *testing.T) {
	w, out := newWorker(t)
	msg := amqp.NewLedgerEvent(amqp.ActionCreated, 1, "not-a-day")
	if err := w.HandleLedgerEvent(context.Background(), msg); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if out.Writes() != 0 {
		t.Fatal("nothing should be written")
	}
}

type failingWriter struct{}

func (failingWriter) WriteDaybook(context.Context, string, export.Table) (string, error) {
	return "", errors.New("quota exceeded")
}

func (failingWriter) ExportedDays(context.Context) ([]string, error) {
	return nil, nil
}

func TestHandleLedgerEvent_WriterFailureRequeues(t *testing.T) {
	engine := ledger.NewEngine(memory.New(), ledger.WithLogger(log.Discard()))
	w := NewExportWorker(engine, failingWriter{}, log.Discard())
	err := w.HandleLedgerEvent(context.Background(), amqp.NewLedgerEvent(amqp.ActionCreated, 1, "2024-01-05"))
	if err == nil {
		t.Fatal("expected error so the message is redelivered")
	}
}

func TestStartupExport(t *testing.T) {
	w, out := newWorker(t)
	w.now = func() time.Time { return time.Date(2024, 1, 10, 15, 0, 0, 0, time.UTC) }

	if err := w.StartupExport(context.Background(), 3); err != nil {
		t.Fatal(err)
	}
	days := out.Days()
	if len(days) != 3 || days[0] != "2024-01-08" || days[2] != "2024-01-10" {
		t.Fatalf("days = %v", days)
	}
	if err := w.StartupExport(context.Background(), 0); err != nil {
		t.Fatal(err)
	}
	if out.Writes() != 3 {
		t.Fatalf("writes = %d", out.Writes())
	}
}

func TestHandleLedgerEvent_RefreshesLaterDaybooks(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	store.Seed(core.Transaction{Amount: "30", Type: core.Expense, Date: time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC)})
	engine := ledger.NewEngine(store, ledger.WithLogger(log.Discard()))
	out := sheetsmem.New()
	w := NewExportWorker(engine, out, log.Discard())

	for _, day := range []string{"2024-01-02", "2024-01-10"} {
		d, _ := core.ParseDate(day)
		if err := w.ExportDay(ctx, d); err != nil {
			t.Fatal(err)
		}
	}
	balances := func(day string) []string {
		tbl, ok := out.Daybook(day)
		if !ok {
			t.Fatalf("no daybook for %s", day)
		}
		return tbl.Rows[len(tbl.Rows)-1]
	}
	if last := balances("2024-01-10"); last[2] != "0.00" || last[5] != "-30.00" {
		t.Fatalf("initial balance row = %v", last)
	}

	// An income dated before the exported day moves its opening balance.
	created := store.Seed(core.Transaction{Amount: "100", Type: core.Income, Date: time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)})
	writes := out.Writes()
	if err := w.HandleLedgerEvent(ctx, amqp.NewLedgerEvent(amqp.ActionCreated, created[0].ID, "2024-01-05")); err != nil {
		t.Fatalf("HandleLedgerEvent: %v", err)
	}

	if last := balances("2024-01-10"); last[2] != "100.00" || last[5] != "70.00" {
		t.Fatalf("later balance row = %v", last)
	}
	if last := balances("2024-01-05"); last[2] != "0.00" || last[5] != "100.00" {
		t.Fatalf("event day balance row = %v", last)
	}
	// 2024-01-02 is earlier than the write and is left alone.
	if got := out.Writes() - writes; got != 2 {
		t.Fatalf("writes = %d, want 2", got)
	}
}
