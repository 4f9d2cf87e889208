// Package storage defines the Ledger Store ports and their backends
// (memory, sqlite, bolt).
package storage

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/anisur046/accounting/internal/core"
)

// Ports implemented by every backend. Lookups of missing records return a
// core.Error of kind KindNotFound; duplicate unique keys return KindConflict.
type (
	// LedgerReader is what the balance and report engines need.
	LedgerReader interface {
		// TransactionsBefore returns every transaction with date < cutoff.
		TransactionsBefore(ctx context.Context, cutoff time.Time) ([]core.Transaction, error)
		// TransactionsBetween returns transactions with start <= date <= end,
		// ordered by date then id.
		TransactionsBetween(ctx context.Context, start, end time.Time) ([]core.Transaction, error)
	}

	TransactionStore interface {
		LedgerReader
		CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
		GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
		UpdateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, id int64) error
	}

	CustomerStore interface {
		CreateCustomer(ctx context.Context, c core.Customer) (core.Customer, error)
		GetCustomer(ctx context.Context, id int64) (core.Customer, error)
		ListCustomers(ctx context.Context) ([]core.Customer, error)
		UpdateCustomer(ctx context.Context, c core.Customer) (core.Customer, error)
		DeleteCustomer(ctx context.Context, id int64) error
	}

	UserStore interface {
		CreateUser(ctx context.Context, u core.User) (core.User, error)
		GetUser(ctx context.Context, id int64) (core.User, error)
		ListUsers(ctx context.Context) ([]core.User, error)
		UpdateUser(ctx context.Context, u core.User) (core.User, error)
		DeleteUser(ctx context.Context, id int64) error
	}

	ReportStore interface {
		CreateReport(ctx context.Context, r core.Report) (core.Report, error)
		GetReport(ctx context.Context, id int64) (core.Report, error)
		ListReports(ctx context.Context) ([]core.Report, error)
		UpdateReport(ctx context.Context, r core.Report) (core.Report, error)
		DeleteReport(ctx context.Context, id int64) error
	}

	// Store is a complete backend.
	Store interface {
		TransactionStore
		CustomerStore
		UserStore
		ReportStore
		Ping(ctx context.Context) error
		Close() error
	}
)

// Entity names used in not-found messages.
const (
	EntityTransaction = "Transaction"
	EntityCustomer    = "Customer"
	EntityUser        = "User"
	EntityReport      = "Report"
)

// SortLedger orders transactions by date then id, in place.
func SortLedger(txs []core.Transaction) {
	slices.SortStableFunc(txs, func(a, b core.Transaction) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
