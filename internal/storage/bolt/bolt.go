// Package bolt is an embedded key/value Ledger Store on go.etcd.io/bbolt.
//
// Records are JSON values keyed by big-endian ids. Transactions are also
// indexed by date so range queries are ordered cursor scans.
package bolt

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/anisur046/accounting/internal/core"
	"github.com/anisur046/accounting/internal/storage"
)

// Bucket names.
const (
	bucketTransactions   = "transactions"
	bucketTxByDate       = "transactions_by_date"
	bucketCustomers      = "customers"
	bucketCustomerEmails = "customer_emails"
	bucketUsers          = "users"
	bucketUserEmails     = "user_emails"
	bucketReports        = "reports"
)

const dateKeyLayout = "2006-01-02T15:04:05.000000000Z"

type Store struct {
	db  *bolt.DB
	now func() time.Time
}

var _ storage.Store = (*Store)(nil)

// txRecord keeps the amount as raw text so legacy values survive a round trip.
type txRecord struct {
	ID              int64     `json:"id"`
	Amount          string    `json:"amount"`
	Type            string    `json:"type"`
	Date            time.Time `json:"date"`
	Description     string    `json:"description,omitempty"`
	CustomerName    string    `json:"customer_name,omitempty"`
	CustomerEmail   string    `json:"customer_email,omitempty"`
	CustomerPhone   string    `json:"customer_phone,omitempty"`
	CustomerAddress string    `json:"customer_address,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toRecord(tx core.Transaction) txRecord {
	return txRecord{
		ID: tx.ID, Amount: string(tx.Amount), Type: string(tx.Type), Date: tx.Date.UTC(),
		Description: tx.Description, CustomerName: tx.CustomerName, CustomerEmail: tx.CustomerEmail,
		CustomerPhone: tx.CustomerPhone, CustomerAddress: tx.CustomerAddress,
		CreatedAt: tx.CreatedAt, UpdatedAt: tx.UpdatedAt,
	}
}

func (r txRecord) transaction() core.Transaction {
	return core.Transaction{
		ID: r.ID, Amount: core.Amount(r.Amount), Type: core.TxType(r.Type), Date: r.Date.UTC(),
		Description: r.Description, CustomerName: r.CustomerName, CustomerEmail: r.CustomerEmail,
		CustomerPhone: r.CustomerPhone, CustomerAddress: r.CustomerAddress,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

// userRecord exists because core.User hides its password hash from JSON.
type userRecord struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Open creates the database file if needed and initializes buckets.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{bucketTransactions, bucketTxByDate, bucketCustomers,
			bucketCustomerEmails, bucketUsers, bucketUserEmails, bucketReports} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(bucketTransactions)) == nil {
			return fmt.Errorf("bucket %s not found", bucketTransactions)
		}
		return nil
	})
}

// itob converts an int64 to a byte slice for use as a bbolt key.
func itob(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}

func dateKey(t time.Time, id int64) []byte {
	return append([]byte(t.UTC().Format(dateKeyLayout)), itob(id)...)
}

func emailKey(email string) []byte {
	return []byte(strings.ToLower(strings.TrimSpace(email)))
}

func putJSON(b *bolt.Bucket, id int64, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}
	return b.Put(itob(id), data)
}

func getJSON[T any](b *bolt.Bucket, id int64) (T, bool, error) {
	var v T
	data := b.Get(itob(id))
	if data == nil {
		return v, false, nil
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, false, fmt.Errorf("unmarshal value: %w", err)
	}
	return v, true, nil
}

func listJSON[T any](b *bolt.Bucket) ([]T, error) {
	var out []T
	err := b.ForEach(func(_, data []byte) error {
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("unmarshal value: %w", err)
		}
		out = append(out, v)
		return nil
	})
	return out, err
}

// scanDates walks the date index from `from` while keep returns true.
func (s *Store) scanDates(ctx context.Context, from []byte, keep func(k []byte) bool) ([]core.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []core.Transaction
	err := s.db.View(func(tx *bolt.Tx) error {
		idx := tx.Bucket([]byte(bucketTxByDate))
		rows := tx.Bucket([]byte(bucketTransactions))
		c := idx.Cursor()
		var k, v []byte
		if from == nil {
			k, v = c.First()
		} else {
			k, v = c.Seek(from)
		}
		for ; k != nil && keep(k); k, v = c.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			rec, ok, err := getJSON[txRecord](rows, int64(binary.BigEndian.Uint64(v)))
			if err != nil {
				return err
			}
			if ok {
				out = append(out, rec.transaction())
			}
		}
		return nil
	})
	return out, err
}

func (s *Store) TransactionsBefore(ctx context.Context, cutoff time.Time) ([]core.Transaction, error) {
	limit := []byte(cutoff.UTC().Format(dateKeyLayout))
	return s.scanDates(ctx, nil, func(k []byte) bool {
		return bytes.Compare(k[:len(limit)], limit) < 0
	})
}

func (s *Store) TransactionsBetween(ctx context.Context, start, end time.Time) ([]core.Transaction, error) {
	lo := []byte(start.UTC().Format(dateKeyLayout))
	hi := []byte(end.UTC().Format(dateKeyLayout))
	return s.scanDates(ctx, lo, func(k []byte) bool {
		return bytes.Compare(k[:len(hi)], hi) <= 0
	})
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	now := s.now()
	if t.Date.IsZero() {
		t.Date = now
	}
	t.Date = t.Date.UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	err := s.db.Update(func(tx *bolt.Tx) error {
		rows := tx.Bucket([]byte(bucketTransactions))
		seq, err := rows.NextSequence()
		if err != nil {
			return err
		}
		t.ID = int64(seq)
		if err := putJSON(rows, t.ID, toRecord(t)); err != nil {
			return err
		}
		return tx.Bucket([]byte(bucketTxByDate)).Put(dateKey(t.Date, t.ID), itob(t.ID))
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	return t, nil
}

func (s *Store) GetTransaction(_ context.Context, id int64) (core.Transaction, error) {
	var rec txRecord
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		rec, found, err = getJSON[txRecord](tx.Bucket([]byte(bucketTransactions)), id)
		return err
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	if !found {
		return core.Transaction{}, core.NotFoundError("get transaction", storage.EntityTransaction)
	}
	return rec.transaction(), nil
}

func (s *Store) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	var recs []txRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		recs, err = listJSON[txRecord](tx.Bucket([]byte(bucketTransactions)))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]core.Transaction, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.transaction())
	}
	return out, nil
}

func (s *Store) UpdateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	t.Date = t.Date.UTC()
	t.UpdatedAt = s.now()
	err := s.db.Update(func(tx *bolt.Tx) error {
		rows := tx.Bucket([]byte(bucketTransactions))
		idx := tx.Bucket([]byte(bucketTxByDate))
		old, ok, err := getJSON[txRecord](rows, t.ID)
		if err != nil {
			return err
		}
		if !ok {
			return core.NotFoundError("update transaction", storage.EntityTransaction)
		}
		t.CreatedAt = old.CreatedAt
		if err := idx.Delete(dateKey(old.Date, old.ID)); err != nil {
			return err
		}
		if err := putJSON(rows, t.ID, toRecord(t)); err != nil {
			return err
		}
		return idx.Put(dateKey(t.Date, t.ID), itob(t.ID))
	})
	if err != nil {
		return core.Transaction{}, wrap("update transaction", err)
	}
	return t, nil
}

func (s *Store) DeleteTransaction(_ context.Context, id int64) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		rows := tx.Bucket([]byte(bucketTransactions))
		old, ok, err := getJSON[txRecord](rows, id)
		if err != nil {
			return err
		}
		if !ok {
			return core.NotFoundError("delete transaction", storage.EntityTransaction)
		}
		if err := tx.Bucket([]byte(bucketTxByDate)).Delete(dateKey(old.Date, id)); err != nil {
			return err
		}
		return rows.Delete(itob(id))
	})
	return wrap("delete transaction", err)
}

// wrap leaves classified errors untouched.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if core.KindOf(err) != core.KindInternal {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
