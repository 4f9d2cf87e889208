package ledger

import (
	"time"

	"github.com/anisur046/accounting/internal/core"
)

// NormalizeRange turns a pair of calendar days into the inclusive instant
// window [start of from, last instant of to].
func NormalizeRange(from, to core.Date) (start, end time.Time, err error) {
	if from.IsZero() || to.IsZero() {
		return time.Time{}, time.Time{}, core.InvalidRangeError("normalize range", "both from and to are required")
	}
	start = core.DateOf(from.Time).StartOfDay()
	end = core.DateOf(to.Time).EndOfDay()
	if start.After(end) {
		return time.Time{}, time.Time{}, core.InvalidRangeError("normalize range",
			"from "+from.String()+" is after to "+to.String())
	}
	return start, end, nil
}

// ParseRange reads two wire dates (YYYY-MM-DD or timestamps).
func ParseRange(op, from, to string) (core.Date, core.Date, error) {
	f, err := core.ParseDate(from)
	if err != nil {
		return core.Date{}, core.Date{}, core.InvalidDateError(op, from, err)
	}
	t, err := core.ParseDate(to)
	if err != nil {
		return core.Date{}, core.Date{}, core.InvalidDateError(op, to, err)
	}
	return f, t, nil
}
