// Package ledger computes running balances and dated reports over a Ledger Store.
//
// Every store query runs under a deadline (10s unless configured). A deadline
// surfaces as a core timeout error and store failures as store-unavailable
// errors. Nothing is retried here.
package ledger

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/anisur046/accounting/internal/core"
	"github.com/anisur046/accounting/internal/log"
	"github.com/anisur046/accounting/internal/storage"
)

// DefaultQueryTimeout bounds each store query.
const DefaultQueryTimeout = 10 * time.Second

type Mode string

const (
	ModeGeneral Mode = "general"
	ModeDaybook Mode = "daybook"
)

// ParseMode accepts "", "general" and "daybook".
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case "", ModeGeneral:
		return ModeGeneral, true
	case ModeDaybook:
		return ModeDaybook, true
	}
	return "", false
}

// Summary is the authoritative aggregate for a report. Opening and Closing
// are set only in daybook mode.
type Summary struct {
	Income  core.Money  `json:"income"`
	Expense core.Money  `json:"expense"`
	Opening *core.Money `json:"opening,omitempty"`
	Closing *core.Money `json:"closing,omitempty"`
	Skipped int         `json:"skipped,omitempty"`
}

type Report struct {
	From         core.Date          `json:"-"`
	To           core.Date          `json:"-"`
	Mode         Mode               `json:"mode"`
	Transactions []core.Transaction `json:"transactions"`
	Summary      Summary            `json:"summary"`
}

type Engine struct {
	store   storage.LedgerReader
	timeout time.Duration
	logger  *log.Logger
}

type Option func(*Engine)

func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l.WithComponent(log.ComponentLedger)
		}
	}
}

func NewEngine(store storage.LedgerReader, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		timeout: DefaultQueryTimeout,
		logger:  log.New(log.DefaultConfig()).WithComponent(log.ComponentLedger),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ComputeBalance returns income minus expense over every transaction dated
// strictly before the start of cutoff, rounded to cents.
func (e *Engine) ComputeBalance(ctx context.Context, cutoff core.Date) (core.Money, error) {
	if cutoff.IsZero() {
		return core.Money{}, core.InvalidDateError("balance", "", core.ErrZeroDate)
	}
	t, err := e.before(ctx, cutoff)
	if err != nil {
		return core.Money{}, err
	}
	return t.net(), nil
}

// Balance parses a YYYY-MM-DD cutoff and computes the balance as of that day.
func (e *Engine) Balance(ctx context.Context, toDate string) (core.Money, error) {
	cutoff, err := core.ParseCalendarDate(toDate)
	if err != nil {
		return core.Money{}, core.InvalidDateError("balance", toDate, err)
	}
	return e.ComputeBalance(ctx, cutoff)
}

func (e *Engine) before(ctx context.Context, cutoff core.Date) (totals, error) {
	qctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	txs, err := e.store.TransactionsBefore(qctx, cutoff.StartOfDay())
	if err != nil {
		return totals{}, core.StoreError("balance", err)
	}
	t := sum(txs)
	if t.skipped > 0 {
		e.logger.WarnContext(ctx, "Skipped malformed ledger rows",
			log.FieldOperation, log.OpBalance,
			log.FieldCutoff, cutoff.String(),
			log.FieldSkipped, t.skipped)
	}
	return t, nil
}

// BuildReport lists transactions in [from 00:00, to 23:59:59.999999999] in
// date then id order and totals them. In daybook mode the opening balance is
// the balance at from, and closing = round2(opening + income - expense).
// The opening balance and the range are read concurrently without snapshot
// isolation between them.
func (e *Engine) BuildReport(ctx context.Context, from, to core.Date, mode Mode) (Report, error) {
	start, end, err := NormalizeRange(from, to)
	if err != nil {
		return Report{}, err
	}
	if _, ok := ParseMode(string(mode)); !ok {
		return Report{}, core.ValidationError("report", core.ErrInvalidMode)
	}
	if mode == "" {
		mode = ModeGeneral
	}

	var (
		txs     []core.Transaction
		opening totals
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		qctx, cancel := context.WithTimeout(gctx, e.timeout)
		defer cancel()
		rows, err := e.store.TransactionsBetween(qctx, start, end)
		if err != nil {
			return core.StoreError("report", err)
		}
		txs = rows
		return nil
	})
	if mode == ModeDaybook {
		g.Go(func() error {
			var err error
			opening, err = e.before(gctx, from)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	if txs == nil {
		txs = []core.Transaction{}
	}
	t := sum(txs)
	summary := Summary{
		Income:  core.MoneyFrom(t.income),
		Expense: core.MoneyFrom(t.expense),
		Skipped: t.skipped,
	}
	if mode == ModeDaybook {
		open := opening.net()
		closing := open.Add(summary.Income).Sub(summary.Expense)
		summary.Opening, summary.Closing = &open, &closing
	}

	fields := log.NewFields().
		WithOperation(log.OpReport).
		WithRange(start, end)
	fields[log.FieldMode] = string(mode)
	fields[log.FieldRows] = len(txs)
	if t.skipped > 0 {
		fields[log.FieldSkipped] = t.skipped
		e.logger.WarnContext(ctx, "Skipped malformed ledger rows", fields.ToSlice()...)
	} else {
		e.logger.DebugContext(ctx, "Report built", fields.ToSlice()...)
	}

	return Report{From: from, To: to, Mode: mode, Transactions: txs, Summary: summary}, nil
}

// Report parses wire dates and builds the report.
func (e *Engine) Report(ctx context.Context, fromDate, toDate string, mode Mode) (Report, error) {
	from, to, err := ParseRange("report", fromDate, toDate)
	if err != nil {
		return Report{}, err
	}
	return e.BuildReport(ctx, from, to, mode)
}
