package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anisur046/accounting/internal/core"
	"github.com/anisur046/accounting/internal/log"
	"github.com/anisur046/accounting/internal/storage/memory"
)

func at(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

// sampleStore holds: income 100 on 01-05, expense 30 on 01-10, income 50 on 01-20.
func sampleStore() *memory.Store {
	s := memory.New()
	s.Seed(
		core.Transaction{Amount: "100", Type: core.Income, Date: at(2024, 1, 5)},
		core.Transaction{Amount: "30", Type: core.Expense, Date: at(2024, 1, 10)},
		core.Transaction{Amount: "50", Type: core.Income, Date: at(2024, 1, 20)},
	)
	return s
}

func newEngine(s *memory.Store) *Engine {
	return NewEngine(s, WithLogger(log.Discard()))
}

func wantMoney(t *testing.T, name string, got core.Money, want string) {
	t.Helper()
	if got.String() != want {
		t.Fatalf("%s = %s, want %s", name, got, want)
	}
}

func TestComputeBalance_ExcludesCutoffDay(t *testing.T) {
	e := newEngine(sampleStore())
	got, err := e.Balance(context.Background(), "2024-01-10")
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	wantMoney(t, "balance", got, "100.00")
}

func TestComputeBalance_Boundaries(t *testing.T) {
	e := newEngine(sampleStore())
	cases := []struct {
		cutoff string
		want   string
	}{
		{"2024-01-01", "0.00"},
		{"2024-01-05", "0.00"},
		{"2024-01-06", "100.00"},
		{"2024-01-11", "70.00"},
		{"2024-01-20", "70.00"},
		{"2024-01-21", "120.00"},
	}
	for _, tc := range cases {
		got, err := e.Balance(context.Background(), tc.cutoff)
		if err != nil {
			t.Fatalf("%s: %v", tc.cutoff, err)
		}
		wantMoney(t, tc.cutoff, got, tc.want)
	}
}

func TestBuildReport_InclusiveRange(t *testing.T) {
	e := newEngine(sampleStore())
	rep, err := e.Report(context.Background(), "2024-01-01", "2024-01-10", ModeGeneral)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if len(rep.Transactions) != 2 {
		t.Fatalf("got %d rows, want 2", len(rep.Transactions))
	}
	if rep.Transactions[0].Type != core.Income || rep.Transactions[1].Type != core.Expense {
		t.Fatalf("unexpected order: %+v", rep.Transactions)
	}
	wantMoney(t, "income", rep.Summary.Income, "100.00")
	wantMoney(t, "expense", rep.Summary.Expense, "30.00")
	if rep.Summary.Opening != nil || rep.Summary.Closing != nil {
		t.Fatal("general mode must not carry opening/closing")
	}
}

func TestBuildReport_EndOfDayIncluded(t *testing.T) {
	s := sampleStore()
	s.Seed(core.Transaction{Amount: "5", Type: core.Expense,
		Date: time.Date(2024, 1, 10, 23, 59, 59, 999000000, time.UTC)})
	e := newEngine(s)
	rep, err := e.Report(context.Background(), "2024-01-10", "2024-01-10", ModeGeneral)
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Transactions) != 2 {
		t.Fatalf("same-day rows dropped: %+v", rep.Transactions)
	}
	wantMoney(t, "expense", rep.Summary.Expense, "35.00")
}

func TestBuildReport_Daybook(t *testing.T) {
	e := newEngine(sampleStore())
	rep, err := e.Report(context.Background(), "2024-01-10", "2024-01-10", ModeDaybook)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if rep.Summary.Opening == nil || rep.Summary.Closing == nil {
		t.Fatal("daybook must carry opening and closing")
	}
	wantMoney(t, "opening", *rep.Summary.Opening, "100.00")
	wantMoney(t, "income", rep.Summary.Income, "0.00")
	wantMoney(t, "expense", rep.Summary.Expense, "30.00")
	wantMoney(t, "closing", *rep.Summary.Closing, "70.00")
}

func TestBuildReport_ClosingReconciles(t *testing.T) {
	s := memory.New()
	amounts := []string{"0.005", "10.005", "3.333", "7.777", "0.01", "99.995"}
	for i, a := range amounts {
		typ := core.Income
		if i%2 == 1 {
			typ = core.Expense
		}
		s.Seed(core.Transaction{Amount: core.Amount(a), Type: typ, Date: at(2024, 3, 1+i)})
	}
	e := newEngine(s)
	for _, from := range []string{"2024-03-01", "2024-03-02", "2024-03-04"} {
		rep, err := e.Report(context.Background(), from, "2024-03-31", ModeDaybook)
		if err != nil {
			t.Fatal(err)
		}
		sm := rep.Summary
		want := sm.Opening.Add(sm.Income).Sub(sm.Expense)
		if !sm.Closing.Equal(want) {
			t.Fatalf("from %s: closing %s != %s", from, sm.Closing, want)
		}
	}
}

func TestEmptyLedger(t *testing.T) {
	e := newEngine(memory.New())
	bal, err := e.Balance(context.Background(), "2024-01-10")
	if err != nil {
		t.Fatal(err)
	}
	wantMoney(t, "balance", bal, "0.00")

	rep, err := e.Report(context.Background(), "2024-01-01", "2024-12-31", ModeGeneral)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Transactions == nil || len(rep.Transactions) != 0 {
		t.Fatalf("want empty non-nil list, got %#v", rep.Transactions)
	}
	wantMoney(t, "income", rep.Summary.Income, "0.00")
	wantMoney(t, "expense", rep.Summary.Expense, "0.00")
}

func TestMalformedAmountCountsAsZero(t *testing.T) {
	s := sampleStore()
	s.Seed(
		core.Transaction{Amount: "abc", Type: core.Income, Date: at(2024, 1, 6)},
		core.Transaction{Amount: "", Type: core.Expense, Date: at(2024, 1, 7)},
	)
	e := newEngine(s)

	bal, err := e.Balance(context.Background(), "2024-01-11")
	if err != nil {
		t.Fatalf("malformed amounts must not fail: %v", err)
	}
	wantMoney(t, "balance", bal, "70.00")

	rep, err := e.Report(context.Background(), "2024-01-01", "2024-01-31", ModeGeneral)
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Transactions) != 5 || rep.Summary.Skipped != 2 {
		t.Fatalf("rows=%d skipped=%d", len(rep.Transactions), rep.Summary.Skipped)
	}
	wantMoney(t, "income", rep.Summary.Income, "150.00")
	wantMoney(t, "expense", rep.Summary.Expense, "30.00")
}

func TestRoundingIsStable(t *testing.T) {
	s := memory.New()
	s.Seed(core.Transaction{Amount: "10.005", Type: core.Income, Date: at(2024, 1, 1)})
	e := newEngine(s)
	for i := 0; i < 5; i++ {
		bal, err := e.Balance(context.Background(), "2024-01-02")
		if err != nil {
			t.Fatal(err)
		}
		wantMoney(t, "balance", bal, "10.01")
	}
}

func TestReportIsIdempotent(t *testing.T) {
	e := newEngine(sampleStore())
	a, err := e.Report(context.Background(), "2024-01-01", "2024-01-31", ModeDaybook)
	if err != nil {
		t.Fatal(err)
	}
	b, err := e.Report(context.Background(), "2024-01-01", "2024-01-31", ModeDaybook)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Transactions) != len(b.Transactions) || !a.Summary.Closing.Equal(*b.Summary.Closing) {
		t.Fatal("repeated reports differ")
	}
	for i := range a.Transactions {
		if a.Transactions[i].ID != b.Transactions[i].ID {
			t.Fatal("order differs between runs")
		}
	}
}

func TestReportOrderingTiesByID(t *testing.T) {
	s := memory.New()
	s.Seed(
		core.Transaction{Amount: "1", Type: core.Income, Date: at(2024, 1, 2)},
		core.Transaction{Amount: "2", Type: core.Income, Date: at(2024, 1, 1)},
		core.Transaction{Amount: "3", Type: core.Income, Date: at(2024, 1, 1)},
	)
	rep, err := newEngine(s).Report(context.Background(), "2024-01-01", "2024-01-02", ModeGeneral)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, tx := range rep.Transactions {
		got = append(got, string(tx.Amount))
	}
	if len(got) != 3 || got[0] != "2" || got[1] != "3" || got[2] != "1" {
		t.Fatalf("order = %v", got)
	}
}

func TestInputErrors(t *testing.T) {
	e := newEngine(sampleStore())
	ctx := context.Background()
	cases := []struct {
		name string
		run  func() error
		want core.Kind
	}{
		{"missing cutoff", func() error { _, err := e.Balance(ctx, ""); return err }, core.KindInvalidDate},
		{"bad cutoff", func() error { _, err := e.Balance(ctx, "yesterday"); return err }, core.KindInvalidDate},
		{"timestamp cutoff", func() error { _, err := e.Balance(ctx, "2024-01-10T15:00:00Z"); return err }, core.KindInvalidDate},
		{"bad from", func() error { _, err := e.Report(ctx, "x", "2024-01-01", ModeGeneral); return err }, core.KindInvalidDate},
		{"from after to", func() error { _, err := e.Report(ctx, "2024-02-01", "2024-01-01", ModeGeneral); return err }, core.KindInvalidRange},
		{"bad mode", func() error { _, err := e.Report(ctx, "2024-01-01", "2024-01-02", "weekly"); return err }, core.KindValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := core.KindOf(tc.run()); got != tc.want {
				t.Fatalf("kind = %q, want %q", got, tc.want)
			}
		})
	}
}

type failingReader struct{ err error }

func (f failingReader) TransactionsBefore(context.Context, time.Time) ([]core.Transaction, error) {
	return nil, f.err
}

func (f failingReader) TransactionsBetween(context.Context, time.Time, time.Time) ([]core.Transaction, error) {
	return nil, f.err
}

// blockingReader waits for the query deadline.
type blockingReader struct{}

func (b *blockingReader) TransactionsBefore(ctx context.Context, _ time.Time) ([]core.Transaction, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (b *blockingReader) TransactionsBetween(ctx context.Context, _, _ time.Time) ([]core.Transaction, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestStoreFailure(t *testing.T) {
	e := NewEngine(failingReader{err: errors.New("connection refused")}, WithLogger(log.Discard()))
	_, err := e.Balance(context.Background(), "2024-01-10")
	if core.KindOf(err) != core.KindStoreUnavailable {
		t.Fatalf("balance: %v", err)
	}
	rep, err := e.Report(context.Background(), "2024-01-01", "2024-01-10", ModeDaybook)
	if core.KindOf(err) != core.KindStoreUnavailable {
		t.Fatalf("report: %v", err)
	}
	if rep.Transactions != nil {
		t.Fatal("failed report must not return rows")
	}
}

func TestQueryTimeout(t *testing.T) {
	e := NewEngine(&blockingReader{}, WithTimeout(20*time.Millisecond), WithLogger(log.Discard()))
	start := time.Now()
	_, err := e.Balance(context.Background(), "2024-01-10")
	if core.KindOf(err) != core.KindTimeout {
		t.Fatalf("balance: %v", err)
	}
	_, err = e.Report(context.Background(), "2024-01-01", "2024-01-10", ModeDaybook)
	if core.KindOf(err) != core.KindTimeout {
		t.Fatalf("report: %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatal("timeout not enforced")
	}
}

func TestNormalizeRange(t *testing.T) {
	start, end, err := NormalizeRange(core.NewDate(2024, 1, 1), core.NewDate(2024, 1, 10))
	if err != nil {
		t.Fatal(err)
	}
	if !start.Equal(at(2024, 1, 1)) {
		t.Fatalf("start = %v", start)
	}
	if want := time.Date(2024, 1, 10, 23, 59, 59, 999999999, time.UTC); !end.Equal(want) {
		t.Fatalf("end = %v", end)
	}

	if _, _, err := NormalizeRange(core.NewDate(2024, 1, 10), core.NewDate(2024, 1, 10)); err != nil {
		t.Fatalf("single day must be valid: %v", err)
	}
	if _, _, err := NormalizeRange(core.NewDate(2024, 1, 11), core.NewDate(2024, 1, 10)); core.KindOf(err) != core.KindInvalidRange {
		t.Fatalf("reversed range: %v", err)
	}
	if _, _, err := NormalizeRange(core.Date{}, core.NewDate(2024, 1, 10)); core.KindOf(err) != core.KindInvalidRange {
		t.Fatalf("missing from: %v", err)
	}
}
