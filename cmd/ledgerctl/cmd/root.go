// Package cmd provides the ledgerctl commands.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anisur046/accounting/internal/backend"
	"github.com/anisur046/accounting/internal/cli"
	"github.com/anisur046/accounting/internal/config"
	"github.com/anisur046/accounting/internal/ledger"
	"github.com/anisur046/accounting/internal/log"
)

// app is what every subcommand runs against. It is set up in
// PersistentPreRunE and released in PersistentPostRunE.
type app struct {
	debug   bool
	backend string

	cfg    *config.Config
	logger *log.Logger
	store  *backend.Result
}

func (a *app) engine() *ledger.Engine {
	return ledger.NewEngine(a.store.Store,
		ledger.WithTimeout(a.cfg.QueryTimeout),
		ledger.WithLogger(a.logger))
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Query and maintain the accounting ledger",
		Long: `ledgerctl runs balance and report queries against the configured
ledger store and applies schema migrations or seed data.

Example:
  ledgerctl balance --to 2024-01-10
  ledgerctl report --from 2024-01-01 --to 2024-01-31 --daybook --csv
  ledgerctl migrate
  ledgerctl seed --file seed.yaml`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cli.LoadEnvFile()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if a.backend != "" {
				cfg.DataBackend = a.backend
			}
			if a.debug {
				cfg.LogLevel = "debug"
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			a.cfg = cfg
			// stdout carries command output, so logs go to stderr.
			lc := log.DefaultConfig()
			lc.Component = log.ComponentCLI
			lc.Level = log.ParseLevel(cfg.LogLevel)
			lc.Format = cfg.LogFormat
			lc.Output = cmd.ErrOrStderr()
			a.logger = log.New(lc)
			log.SetDefault(a.logger)
			store, err := cli.OpenStore(cmd.Context(), cfg, a.logger)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			a.store = store
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.store == nil {
				return nil
			}
			return a.store.Cleanup()
		},
	}

	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")
	root.PersistentFlags().StringVar(&a.backend, "backend", "", "override DATA_BACKEND (memory, sqlite, bolt)")

	root.AddCommand(newBalanceCmd(a), newReportCmd(a), newMigrateCmd(a), newSeedCmd(a))
	return root
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}
