// Package export renders ledger reports as tables for CSV and spreadsheet
// output. It lays rows out and formats values; totals and balances come
// from the report summary unchanged.
package export

import (
	"github.com/anisur046/accounting/internal/core"
	"github.com/anisur046/accounting/internal/ledger"
)

// Table is a rectangular grid of rendered cells with a header row.
type Table struct {
	Header []string
	Rows   [][]string
}

// Values returns the header and rows as a sheet value matrix.
func (t Table) Values() [][]any {
	out := make([][]any, 0, len(t.Rows)+1)
	out = append(out, cells(t.Header))
	for _, r := range t.Rows {
		out = append(out, cells(r))
	}
	return out
}

func cells(row []string) []any {
	out := make([]any, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}

// Render picks the layout matching the report's mode.
func Render(r ledger.Report) Table {
	if r.Mode == ledger.ModeDaybook {
		return Daybook(r)
	}
	return Flat(r)
}

var flatHeader = []string{"Date", "Type", "Description", "Customer", "Amount"}

// Flat lists one row per transaction followed by the income and expense totals.
func Flat(r ledger.Report) Table {
	t := Table{Header: flatHeader, Rows: make([][]string, 0, len(r.Transactions)+2)}
	for _, tx := range r.Transactions {
		t.Rows = append(t.Rows, []string{
			core.DateOf(tx.Date).String(),
			string(tx.Type),
			tx.Description,
			tx.CustomerName,
			counted(tx),
		})
	}
	t.Rows = append(t.Rows,
		[]string{"", "", "Total income", "", r.Summary.Income.String()},
		[]string{"", "", "Total expense", "", r.Summary.Expense.String()},
	)
	return t
}

var daybookHeader = []string{"Date", "Particulars", "Debit", "Date", "Particulars", "Credit"}

// Daybook puts income on the debit side and expense on the credit side,
// padding the shorter side with blank cells. Each side ends with its
// subtotal, then the opening balance (debit) and closing balance (credit).
func Daybook(r ledger.Report) Table {
	var debit, credit [][]string
	for _, tx := range r.Transactions {
		entry := []string{core.DateOf(tx.Date).String(), particulars(tx), counted(tx)}
		if tx.Type == core.Income {
			debit = append(debit, entry)
		} else {
			// Unknown types stay visible on the credit side without an amount.
			credit = append(credit, entry)
		}
	}

	n := max(len(debit), len(credit))
	t := Table{Header: daybookHeader, Rows: make([][]string, 0, n+2)}
	for i := range n {
		row := make([]string, 0, 6)
		row = append(row, side(debit, i)...)
		row = append(row, side(credit, i)...)
		t.Rows = append(t.Rows, row)
	}
	t.Rows = append(t.Rows,
		[]string{"", "Total", r.Summary.Income.String(), "", "Total", r.Summary.Expense.String()},
		[]string{"", "Opening balance", optional(r.Summary.Opening), "", "Closing balance", optional(r.Summary.Closing)},
	)
	return t
}

func side(entries [][]string, i int) []string {
	if i < len(entries) {
		return entries[i]
	}
	return []string{"", "", ""}
}

func particulars(tx core.Transaction) string {
	switch {
	case tx.Description != "" && tx.CustomerName != "":
		return tx.Description + " (" + tx.CustomerName + ")"
	case tx.Description != "":
		return tx.Description
	default:
		return tx.CustomerName
	}
}

// amount renders a stored amount with two decimals. Malformed amounts,
// which the totals count as zero, render empty.
func amount(a core.Amount) string {
	d, ok := a.Value()
	if !ok {
		return ""
	}
	return core.MoneyFrom(d).String()
}

// counted renders the amount of rows the totals include. Rows with an
// unknown type are left out of the totals, so their amount renders empty.
func counted(tx core.Transaction) string {
	switch tx.Type {
	case core.Income, core.Expense:
		return amount(tx.Amount)
	default:
		return ""
	}
}

func optional(m *core.Money) string {
	if m == nil {
		return ""
	}
	return m.String()
}
