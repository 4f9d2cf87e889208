// Package storagetest holds behaviour checks shared by every storage backend.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/anisur046/accounting/internal/core"
	"github.com/anisur046/accounting/internal/storage"
)

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

// Run exercises a fresh store returned by open. Each subtest gets its own store.
func Run(t *testing.T, open func(t *testing.T) storage.Store) {
	t.Run("ledger queries", func(t *testing.T) { testLedgerQueries(t, open(t)) })
	t.Run("transaction crud", func(t *testing.T) { testTransactionCRUD(t, open(t)) })
	t.Run("customer email unique", func(t *testing.T) { testCustomerUnique(t, open(t)) })
	t.Run("user password kept", func(t *testing.T) { testUserPassword(t, open(t)) })
	t.Run("report crud", func(t *testing.T) { testReportCRUD(t, open(t)) })
}

func mustCreate(t *testing.T, s storage.Store, tx core.Transaction) core.Transaction {
	t.Helper()
	got, err := s.CreateTransaction(context.Background(), tx)
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	return got
}

func ids(txs []core.Transaction) []int64 {
	out := make([]int64, len(txs))
	for i, tx := range txs {
		out[i] = tx.ID
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func testLedgerQueries(t *testing.T, s storage.Store) {
	ctx := context.Background()
	// inserted out of order to check sorting
	late := mustCreate(t, s, core.Transaction{Amount: "50", Type: core.Income, Date: day(2024, 1, 20)})
	inc := mustCreate(t, s, core.Transaction{Amount: "100", Type: core.Income, Date: day(2024, 1, 5)})
	exp := mustCreate(t, s, core.Transaction{Amount: "30", Type: core.Expense, Date: day(2024, 1, 10)})
	sameDay := mustCreate(t, s, core.Transaction{Amount: "1", Type: core.Expense, Date: day(2024, 1, 10)})
	endOfDay := mustCreate(t, s, core.Transaction{Amount: "2", Type: core.Income,
		Date: time.Date(2024, 1, 10, 23, 59, 59, 0, time.UTC)})

	before, err := s.TransactionsBefore(ctx, day(2024, 1, 10))
	if err != nil {
		t.Fatalf("TransactionsBefore: %v", err)
	}
	if want := []int64{inc.ID}; !equalIDs(ids(before), want) {
		t.Fatalf("before cutoff: got %v, want %v", ids(before), want)
	}

	between, err := s.TransactionsBetween(ctx, day(2024, 1, 1), day(2024, 1, 11).Add(-time.Nanosecond))
	if err != nil {
		t.Fatalf("TransactionsBetween: %v", err)
	}
	want := []int64{inc.ID, exp.ID, sameDay.ID, endOfDay.ID}
	if !equalIDs(ids(between), want) {
		t.Fatalf("between: got %v, want %v", ids(between), want)
	}
	if between[0].Amount != "100" || between[0].Type != core.Income {
		t.Fatalf("row not preserved: %+v", between[0])
	}

	all, err := s.TransactionsBetween(ctx, day(2024, 1, 20), day(2024, 1, 20))
	if err != nil {
		t.Fatalf("TransactionsBetween: %v", err)
	}
	if !equalIDs(ids(all), []int64{late.ID}) {
		t.Fatalf("point range: got %v", ids(all))
	}
}

func testTransactionCRUD(t *testing.T, s storage.Store) {
	ctx := context.Background()
	created := mustCreate(t, s, core.Transaction{Amount: "12.5", Type: core.Expense,
		Date: day(2024, 2, 1), Description: "paper", CustomerName: "Acme"})
	if created.ID == 0 || created.CreatedAt.IsZero() {
		t.Fatalf("store must assign id and timestamps: %+v", created)
	}

	got, err := s.GetTransaction(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Description != "paper" || got.CustomerName != "Acme" || !got.Date.Equal(day(2024, 2, 1)) {
		t.Fatalf("unexpected row: %+v", got)
	}

	got.Amount = "15"
	got.Date = day(2024, 3, 1)
	updated, err := s.UpdateTransaction(ctx, got)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Amount != "15" {
		t.Fatalf("update not applied: %+v", updated)
	}
	moved, err := s.TransactionsBetween(ctx, day(2024, 3, 1), day(2024, 3, 2))
	if err != nil || len(moved) != 1 {
		t.Fatalf("date change not reflected in range query: %v %v", moved, err)
	}
	old, err := s.TransactionsBetween(ctx, day(2024, 2, 1), day(2024, 2, 2))
	if err != nil || len(old) != 0 {
		t.Fatalf("old date still indexed: %v %v", old, err)
	}

	list, err := s.ListTransactions(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v %v", list, err)
	}

	if err := s.DeleteTransaction(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetTransaction(ctx, created.ID); core.KindOf(err) != core.KindNotFound {
		t.Fatalf("get after delete: %v", err)
	}
	if err := s.DeleteTransaction(ctx, created.ID); core.KindOf(err) != core.KindNotFound {
		t.Fatalf("second delete: %v", err)
	}
	if _, err := s.UpdateTransaction(ctx, got); core.KindOf(err) != core.KindNotFound {
		t.Fatalf("update missing: %v", err)
	}
}

func testCustomerUnique(t *testing.T, s storage.Store) {
	ctx := context.Background()
	a, err := s.CreateCustomer(ctx, core.Customer{Name: "A", Email: "a@shop.test"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.CreateCustomer(ctx, core.Customer{Name: "A2", Email: "A@shop.test"}); core.KindOf(err) != core.KindConflict {
		t.Fatalf("duplicate email: got %v", err)
	}
	b, err := s.CreateCustomer(ctx, core.Customer{Name: "B", Email: "b@shop.test"})
	if err != nil {
		t.Fatalf("create b: %v", err)
	}
	b.Email = a.Email
	if _, err := s.UpdateCustomer(ctx, b); core.KindOf(err) != core.KindConflict {
		t.Fatalf("update to taken email: got %v", err)
	}
	a.Phone = "555"
	if _, err := s.UpdateCustomer(ctx, a); err != nil {
		t.Fatalf("update keeping own email: %v", err)
	}
	if err := s.DeleteCustomer(ctx, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.CreateCustomer(ctx, core.Customer{Name: "A3", Email: "a@shop.test"}); err != nil {
		t.Fatalf("email should be free after delete: %v", err)
	}
	list, err := s.ListCustomers(ctx)
	if err != nil || len(list) != 2 {
		t.Fatalf("list: %v %v", list, err)
	}
}

func testUserPassword(t *testing.T, s storage.Store) {
	ctx := context.Background()
	u, err := s.CreateUser(ctx, core.User{Name: "Ann", Email: "ann@books.test", PasswordHash: "h1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	u.PasswordHash = ""
	u.Name = "Ann B"
	if _, err := s.UpdateUser(ctx, u); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := s.GetUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.PasswordHash != "h1" || got.Name != "Ann B" {
		t.Fatalf("unexpected user: %+v", got)
	}
	if err := s.DeleteUser(ctx, u.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetUser(ctx, u.ID); core.KindOf(err) != core.KindNotFound {
		t.Fatalf("get after delete: %v", err)
	}
}

func testReportCRUD(t *testing.T, s storage.Store) {
	ctx := context.Background()
	r, err := s.CreateReport(ctx, core.Report{Title: "Q1", Content: "draft"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if r.CreatedAt.IsZero() {
		t.Fatal("createdAt must default to now")
	}
	r.Content = "final"
	if _, err := s.UpdateReport(ctx, r); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := s.GetReport(ctx, r.ID)
	if err != nil || got.Content != "final" {
		t.Fatalf("get: %+v %v", got, err)
	}
	list, err := s.ListReports(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v %v", list, err)
	}
	if err := s.DeleteReport(ctx, r.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteReport(ctx, r.ID); core.KindOf(err) != core.KindNotFound {
		t.Fatalf("second delete: %v", err)
	}
}
