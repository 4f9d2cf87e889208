package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/anisur046/accounting/internal/core"
	"github.com/anisur046/accounting/internal/services"
)

// seedFile is the YAML layout accepted by `ledgerctl seed --file`.
type seedFile struct {
	Transactions []seedTransaction `yaml:"transactions"`
}

type seedTransaction struct {
	Amount       string `yaml:"amount"`
	Type         string `yaml:"type"`
	Date         string `yaml:"date"`
	Description  string `yaml:"description"`
	CustomerName string `yaml:"customer_name"`
}

var demoSeed = seedFile{Transactions: []seedTransaction{
	{Amount: "100.00", Type: "income", Date: "2024-01-05", Description: "Opening invoice", CustomerName: "Acme"},
	{Amount: "30.00", Type: "expense", Date: "2024-01-10", Description: "Office supplies"},
	{Amount: "50.00", Type: "income", Date: "2024-01-20", Description: "Consulting", CustomerName: "Globex"},
}}

func loadSeed(path string) (seedFile, error) {
	if path == "" {
		return demoSeed, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return seedFile{}, fmt.Errorf("read seed file: %w", err)
	}
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return seedFile{}, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return f, nil
}

func (s seedTransaction) transaction() (core.Transaction, error) {
	tx := core.Transaction{
		Amount:       core.Amount(s.Amount),
		Type:         core.TxType(s.Type),
		Description:  s.Description,
		CustomerName: s.CustomerName,
	}
	if s.Date != "" {
		t, err := core.ParseInstant(s.Date)
		if err != nil {
			return core.Transaction{}, core.InvalidDateError("seed", s.Date, err)
		}
		tx.Date = t
	}
	return tx, nil
}

func newSeedCmd(a *app) *cobra.Command {
	var file string
	c := &cobra.Command{
		Use:   "seed",
		Short: "Insert transactions from a YAML file, or a small demo set",
		Long: `Insert transactions through the same validation as the API.
Without --file a three-row demo ledger is inserted.

Seed file layout:
  transactions:
    - amount: "100.00"
      type: income
      date: 2024-01-05
      description: Opening invoice
      customer_name: Acme`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := loadSeed(file)
			if err != nil {
				return err
			}
			svc := services.NewLedgerService(a.store.Store, nil, nil, a.logger)
			for i, st := range f.Transactions {
				tx, err := st.transaction()
				if err != nil {
					return fmt.Errorf("row %d: %w", i+1, err)
				}
				created, err := svc.Create(cmd.Context(), tx)
				if err != nil {
					return fmt.Errorf("row %d: %w", i+1, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created %d %s %s %s\n",
					created.ID, created.Date.Format(core.DateLayout), created.Type, created.Amount)
			}
			return nil
		},
	}
	c.Flags().StringVar(&file, "file", "", "YAML seed file")
	return c
}
