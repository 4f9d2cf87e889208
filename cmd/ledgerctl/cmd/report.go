package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/anisur046/accounting/internal/export"
	"github.com/anisur046/accounting/internal/ledger"
)

func newReportCmd(a *app) *cobra.Command {
	var (
		from, to string
		daybook  bool
		asCSV    bool
	)
	c := &cobra.Command{
		Use:   "report",
		Short: "Print the transactions and totals for a date range",
		Long: `Print the transactions dated within [from, to], both days inclusive,
with income and expense totals. --daybook adds the opening and closing
balances; --csv renders the table instead of JSON.

Example:
  ledgerctl report --from 2024-01-01 --to 2024-01-31
  ledgerctl report --from 2024-01-10 --to 2024-01-10 --daybook --csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := ledger.ModeGeneral
			if daybook {
				mode = ledger.ModeDaybook
			}
			rep, err := a.engine().Report(cmd.Context(), from, to, mode)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asCSV {
				return export.WriteCSV(out, export.Render(rep))
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(rep)
		},
	}
	c.Flags().StringVar(&from, "from", "", "first day (YYYY-MM-DD)")
	c.Flags().StringVar(&to, "to", "", "last day (YYYY-MM-DD)")
	c.Flags().BoolVar(&daybook, "daybook", false, "include opening and closing balances")
	c.Flags().BoolVar(&asCSV, "csv", false, "write CSV instead of JSON")
	_ = c.MarkFlagRequired("from")
	_ = c.MarkFlagRequired("to")
	return c
}
