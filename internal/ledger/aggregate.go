package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/anisur046/accounting/internal/core"
)

// totals is the raw, unrounded sum of a set of transactions.
type totals struct {
	income  decimal.Decimal
	expense decimal.Decimal
	skipped int
}

// sum accumulates amounts by type. Rows whose stored amount is missing or
// not a number contribute zero and are counted in skipped; they never abort
// the aggregation.
func sum(txs []core.Transaction) totals {
	var t totals
	for _, tx := range txs {
		v, ok := tx.Amount.Value()
		if !ok {
			t.skipped++
			continue
		}
		switch tx.Type {
		case core.Income:
			t.income = t.income.Add(v)
		case core.Expense:
			t.expense = t.expense.Add(v)
		default:
			t.skipped++
		}
	}
	return t
}

func (t totals) net() core.Money {
	return core.MoneyFrom(t.income.Sub(t.expense))
}
