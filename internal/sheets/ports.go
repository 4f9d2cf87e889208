// Package sheets holds the outbound ports for spreadsheet export.
package sheets

import (
	"context"

	"github.com/anisur046/accounting/internal/export"
)

// DaybookWriter replaces the exported daybook for one day. It returns the
// range that was written, such as "Daybook 2024-01-05!A1:F4".
// ExportedDays lists the days that already have a daybook, ascending, as
// YYYY-MM-DD.
type DaybookWriter interface {
	WriteDaybook(ctx context.Context, day string, t export.Table) (ref string, err error)
	ExportedDays(ctx context.Context) ([]string, error)
}
