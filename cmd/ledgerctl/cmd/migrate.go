package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anisur046/accounting/internal/backend"
	"github.com/anisur046/accounting/internal/storage/sqlite"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Long: `Apply pending SQLite schema migrations and print the schema version.
The memory and bolt backends have no schema and report so.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if backend.Type(a.cfg.DataBackend) != backend.SQLite {
				fmt.Fprintf(out, "backend %s has no schema to migrate\n", a.cfg.DataBackend)
				return nil
			}
			dsn := sqlite.DSN(a.cfg.SQLiteDBPath)
			if err := sqlite.RunMigrations(dsn); err != nil {
				return err
			}
			v, dirty, err := sqlite.SchemaVersion(dsn)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "schema version %d (dirty=%t)\n", v, dirty)
			return nil
		},
	}
}
