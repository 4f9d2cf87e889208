package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/anisur046/accounting/internal/core"
	"github.com/anisur046/accounting/internal/ledger"
)

func tx(id int64, typ core.TxType, amount string, day int, desc string) core.Transaction {
	return core.Transaction{
		ID:          id,
		Type:        typ,
		Amount:      core.Amount(amount),
		Date:        time.Date(2024, 1, day, 9, 0, 0, 0, time.UTC),
		Description: desc,
	}
}

func sampleReport(mode ledger.Mode) ledger.Report {
	r := ledger.Report{
		Mode: mode,
		Transactions: []core.Transaction{
			tx(1, core.Income, "100", 5, "Invoice 7"),
			tx(2, core.Expense, "30", 10, "Rent"),
			tx(3, core.Expense, "12.5", 11, "Paper"),
		},
		Summary: ledger.Summary{
			Income:  core.MustMoney("100"),
			Expense: core.MustMoney("42.5"),
		},
	}
	if mode == ledger.ModeDaybook {
		open, closing := core.MustMoney("20"), core.MustMoney("77.5")
		r.Summary.Opening, r.Summary.Closing = &open, &closing
	}
	return r
}

func TestFlat(t *testing.T) {
	tbl := Flat(sampleReport(ledger.ModeGeneral))
	if len(tbl.Rows) != 5 {
		t.Fatalf("rows = %d, want 5", len(tbl.Rows))
	}
	if got := tbl.Rows[2]; got[0] != "2024-01-11" || got[4] != "12.50" {
		t.Errorf("row 2 = %v", got)
	}
	if got := tbl.Rows[4]; got[2] != "Total expense" || got[4] != "42.50" {
		t.Errorf("expense total row = %v", got)
	}
}

func TestDaybookPadsAndUsesSummary(t *testing.T) {
	r := sampleReport(ledger.ModeDaybook)
	// A summary that disagrees with the rows must be shown as given.
	r.Summary.Income = core.MustMoney("999")
	tbl := Daybook(r)

	if len(tbl.Header) != 6 {
		t.Fatalf("header = %v", tbl.Header)
	}
	// two credit rows, one debit row, subtotal and balance rows
	if len(tbl.Rows) != 4 {
		t.Fatalf("rows = %d, want 4", len(tbl.Rows))
	}
	for i, row := range tbl.Rows {
		if len(row) != 6 {
			t.Fatalf("row %d has %d cells", i, len(row))
		}
	}
	if got := tbl.Rows[0]; got[1] != "Invoice 7" || got[2] != "100.00" || got[4] != "Rent" {
		t.Errorf("first row = %v", got)
	}
	if got := tbl.Rows[1]; got[0] != "" || got[2] != "" || got[5] != "12.50" {
		t.Errorf("padded row = %v", got)
	}
	if got := tbl.Rows[2]; got[2] != "999.00" || got[5] != "42.50" {
		t.Errorf("subtotal row = %v", got)
	}
	if got := tbl.Rows[3]; got[1] != "Opening balance" || got[2] != "20.00" || got[4] != "Closing balance" || got[5] != "77.50" {
		t.Errorf("balance row = %v", got)
	}
}

func TestDaybookEmpty(t *testing.T) {
	zero := core.MustMoney("0")
	tbl := Daybook(ledger.Report{Mode: ledger.ModeDaybook, Summary: ledger.Summary{Opening: &zero, Closing: &zero}})
	if len(tbl.Rows) != 2 {
		t.Fatalf("rows = %v", tbl.Rows)
	}
	if tbl.Rows[1][2] != "0.00" || tbl.Rows[1][5] != "0.00" {
		t.Errorf("balance row = %v", tbl.Rows[1])
	}
}

func TestMalformedAmountRendersEmpty(t *testing.T) {
	r := ledger.Report{Transactions: []core.Transaction{tx(1, core.Income, "abc", 1, "")}}
	if got := Flat(r).Rows[0][4]; got != "" {
		t.Errorf("amount = %q", got)
	}
}

func TestUnknownTypeRendersWithoutAmount(t *testing.T) {
	r := ledger.Report{
		Mode: ledger.ModeDaybook,
		Transactions: []core.Transaction{
			tx(1, core.Expense, "30", 10, "Rent"),
			tx(2, core.TxType("refund"), "99", 10, "Legacy row"),
		},
		Summary: ledger.Summary{Expense: core.MustMoney("30"), Skipped: 1},
	}

	day := Daybook(r)
	if got := day.Rows[0][3:]; got[2] != "30.00" {
		t.Fatalf("expense row = %v", got)
	}
	if got := day.Rows[1][3:]; got[1] != "Legacy row" || got[2] != "" {
		t.Fatalf("unknown type row = %v", got)
	}
	if total := day.Rows[2]; total[5] != "30.00" {
		t.Fatalf("total row = %v", total)
	}

	flat := Flat(r)
	if got := flat.Rows[1]; got[1] != "refund" || got[4] != "" {
		t.Fatalf("flat unknown type row = %v", got)
	}
}

func TestRenderChoosesLayout(t *testing.T) {
	if got := Render(sampleReport(ledger.ModeDaybook)).Header; got[2] != "Debit" {
		t.Errorf("daybook header = %v", got)
	}
	if got := Render(sampleReport(ledger.ModeGeneral)).Header; got[1] != "Type" {
		t.Errorf("flat header = %v", got)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	r := sampleReport(ledger.ModeGeneral)
	r.Transactions[0].Description = `Invoice "7", paid`
	if err := WriteCSV(&buf, Flat(r)); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "Date,Type,Description,Customer,Amount" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != `2024-01-05,income,"Invoice ""7"", paid",,100.00` {
		t.Errorf("row = %q", lines[1])
	}
	if len(lines) != 6 {
		t.Errorf("lines = %d", len(lines))
	}
}

func TestValues(t *testing.T) {
	v := Flat(sampleReport(ledger.ModeGeneral)).Values()
	if len(v) != 6 || v[0][0] != "Date" {
		t.Fatalf("values = %v", v)
	}
}

func TestFilename(t *testing.T) {
	if got := Filename("", "2024-01-01", "2024-01-31"); got != "general_2024-01-01_2024-01-31.csv" {
		t.Errorf("Filename = %q", got)
	}
}
