package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBalanceCmd(a *app) *cobra.Command {
	var to string
	c := &cobra.Command{
		Use:   "balance",
		Short: "Print the running balance before a date",
		Long: `Print income minus expense over every transaction dated strictly
before the given day.

Example:
  ledgerctl balance --to 2024-01-10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			bal, err := a.engine().Balance(cmd.Context(), to)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), bal.String())
			return nil
		},
	}
	c.Flags().StringVar(&to, "to", "", "cutoff day (YYYY-MM-DD), exclusive")
	_ = c.MarkFlagRequired("to")
	return c
}
