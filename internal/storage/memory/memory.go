// Package memory is a process-local Ledger Store used for development and tests.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/anisur046/accounting/internal/core"
	"github.com/anisur046/accounting/internal/storage"
)

type table[T any] struct {
	seq  int64
	rows map[int64]T
}

func newTable[T any]() table[T] {
	return table[T]{rows: make(map[int64]T)}
}

func (t *table[T]) next() int64 {
	t.seq++
	return t.seq
}

// list returns rows in id order.
func (t *table[T]) list() []T {
	out := make([]T, 0, len(t.rows))
	for id := int64(1); id <= t.seq; id++ {
		if row, ok := t.rows[id]; ok {
			out = append(out, row)
		}
	}
	return out
}

type Store struct {
	mu        sync.RWMutex
	now       func() time.Time
	txs       table[core.Transaction]
	customers table[core.Customer]
	users     table[core.User]
	reports   table[core.Report]
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		now:       func() time.Time { return time.Now().UTC() },
		txs:       newTable[core.Transaction](),
		customers: newTable[core.Customer](),
		users:     newTable[core.User](),
		reports:   newTable[core.Report](),
	}
}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Store) Close() error { return nil }

// Seed inserts transactions verbatim, without validation, so tests can
// plant malformed rows.
func (s *Store) Seed(txs ...core.Transaction) []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		tx.ID = s.txs.next()
		s.txs.rows[tx.ID] = tx
		out = append(out, tx)
	}
	return out
}

func (s *Store) TransactionsBefore(ctx context.Context, cutoff time.Time) ([]core.Transaction, error) {
	return s.filter(ctx, func(tx core.Transaction) bool { return tx.Date.Before(cutoff) })
}

func (s *Store) TransactionsBetween(ctx context.Context, start, end time.Time) ([]core.Transaction, error) {
	return s.filter(ctx, func(tx core.Transaction) bool {
		return !tx.Date.Before(start) && !tx.Date.After(end)
	})
}

func (s *Store) filter(ctx context.Context, keep func(core.Transaction) bool) ([]core.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Transaction
	for _, tx := range s.txs.rows {
		if keep(tx) {
			out = append(out, tx)
		}
	}
	storage.SortLedger(out)
	return out, nil
}

func (s *Store) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	tx.ID = s.txs.next()
	if tx.Date.IsZero() {
		tx.Date = now
	}
	tx.CreatedAt, tx.UpdatedAt = now, now
	s.txs.rows[tx.ID] = tx
	return tx, nil
}

func (s *Store) GetTransaction(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.txs.rows[id]
	if !ok {
		return core.Transaction{}, core.NotFoundError("get transaction", storage.EntityTransaction)
	}
	return tx, nil
}

func (s *Store) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.txs.list(), nil
}

func (s *Store) UpdateTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.txs.rows[tx.ID]
	if !ok {
		return core.Transaction{}, core.NotFoundError("update transaction", storage.EntityTransaction)
	}
	tx.CreatedAt = old.CreatedAt
	tx.UpdatedAt = s.now()
	s.txs.rows[tx.ID] = tx
	return tx, nil
}

func (s *Store) DeleteTransaction(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txs.rows[id]; !ok {
		return core.NotFoundError("delete transaction", storage.EntityTransaction)
	}
	delete(s.txs.rows, id)
	return nil
}

func (s *Store) CreateCustomer(_ context.Context, c core.Customer) (core.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.customerEmailTaken(c.Email, 0) {
		return core.Customer{}, core.ConflictError("create customer", "customer email already exists")
	}
	now := s.now()
	c.ID = s.customers.next()
	c.CreatedAt, c.UpdatedAt = now, now
	s.customers.rows[c.ID] = c
	return c, nil
}

func (s *Store) GetCustomer(_ context.Context, id int64) (core.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers.rows[id]
	if !ok {
		return core.Customer{}, core.NotFoundError("get customer", storage.EntityCustomer)
	}
	return c, nil
}

func (s *Store) ListCustomers(_ context.Context) ([]core.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.customers.list(), nil
}

func (s *Store) UpdateCustomer(_ context.Context, c core.Customer) (core.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.customers.rows[c.ID]
	if !ok {
		return core.Customer{}, core.NotFoundError("update customer", storage.EntityCustomer)
	}
	if s.customerEmailTaken(c.Email, c.ID) {
		return core.Customer{}, core.ConflictError("update customer", "customer email already exists")
	}
	c.CreatedAt = old.CreatedAt
	c.UpdatedAt = s.now()
	s.customers.rows[c.ID] = c
	return c, nil
}

func (s *Store) DeleteCustomer(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.customers.rows[id]; !ok {
		return core.NotFoundError("delete customer", storage.EntityCustomer)
	}
	delete(s.customers.rows, id)
	return nil
}

func (s *Store) customerEmailTaken(email string, self int64) bool {
	for id, c := range s.customers.rows {
		if id != self && strings.EqualFold(c.Email, email) {
			return true
		}
	}
	return false
}

func (s *Store) CreateUser(_ context.Context, u core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userEmailTaken(u.Email, 0) {
		return core.User{}, core.ConflictError("create user", "user email already exists")
	}
	now := s.now()
	u.ID = s.users.next()
	u.CreatedAt, u.UpdatedAt = now, now
	s.users.rows[u.ID] = u
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id int64) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users.rows[id]
	if !ok {
		return core.User{}, core.NotFoundError("get user", storage.EntityUser)
	}
	return u, nil
}

func (s *Store) ListUsers(_ context.Context) ([]core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.users.list(), nil
}

func (s *Store) UpdateUser(_ context.Context, u core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.users.rows[u.ID]
	if !ok {
		return core.User{}, core.NotFoundError("update user", storage.EntityUser)
	}
	if s.userEmailTaken(u.Email, u.ID) {
		return core.User{}, core.ConflictError("update user", "user email already exists")
	}
	if u.PasswordHash == "" {
		u.PasswordHash = old.PasswordHash
	}
	u.CreatedAt = old.CreatedAt
	u.UpdatedAt = s.now()
	s.users.rows[u.ID] = u
	return u, nil
}

func (s *Store) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users.rows[id]; !ok {
		return core.NotFoundError("delete user", storage.EntityUser)
	}
	delete(s.users.rows, id)
	return nil
}

func (s *Store) userEmailTaken(email string, self int64) bool {
	for id, u := range s.users.rows {
		if id != self && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (s *Store) CreateReport(_ context.Context, r core.Report) (core.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	r.ID = s.reports.next()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	s.reports.rows[r.ID] = r
	return r, nil
}

func (s *Store) GetReport(_ context.Context, id int64) (core.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports.rows[id]
	if !ok {
		return core.Report{}, core.NotFoundError("get report", storage.EntityReport)
	}
	return r, nil
}

func (s *Store) ListReports(_ context.Context) ([]core.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reports.list(), nil
}

func (s *Store) UpdateReport(_ context.Context, r core.Report) (core.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.reports.rows[r.ID]
	if !ok {
		return core.Report{}, core.NotFoundError("update report", storage.EntityReport)
	}
	r.CreatedAt = old.CreatedAt
	r.UpdatedAt = s.now()
	s.reports.rows[r.ID] = r
	return r, nil
}

func (s *Store) DeleteReport(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reports.rows[id]; !ok {
		return core.NotFoundError("delete report", storage.EntityReport)
	}
	delete(s.reports.rows, id)
	return nil
}
