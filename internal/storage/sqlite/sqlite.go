// Package sqlite is the SQLite-backed Ledger Store (modernc.org/sqlite, no cgo).
//
// Instants are stored as fixed-width UTC text so lexical order matches
// chronological order. Amounts are stored as decimal text and are not
// validated on read.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/anisur046/accounting/internal/core"
	"github.com/anisur046/accounting/internal/storage"
)

const timeLayout = "2006-01-02T15:04:05.000000000Z"

type Repository struct {
	db  *sql.DB
	now func() time.Time
}

var _ storage.Store = (*Repository)(nil)

// DSN builds a modernc connection string with foreign keys, WAL and a busy timeout.
func DSN(dbPath string) string {
	return "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

func Open(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := DSN(dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.Info("SQLite ledger store ready", "path", dbPath)
	return &Repository{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// DB exposes the handle for maintenance tasks and tests.
func (r *Repository) DB() *sql.DB { return r.db }

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		// rows written by other tools
		if t2, err2 := core.ParseInstant(s); err2 == nil {
			return t2
		}
	}
	return t.UTC()
}

func isUnique(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	if se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "UNIQUE")
}

const txColumns = `id, amount, type, date, description, customer_name, customer_email,
	customer_phone, customer_address, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s rowScanner) (core.Transaction, error) {
	var (
		tx                        core.Transaction
		amount                    sql.NullString
		txType, date, created, up string
	)
	err := s.Scan(&tx.ID, &amount, &txType, &date, &tx.Description, &tx.CustomerName,
		&tx.CustomerEmail, &tx.CustomerPhone, &tx.CustomerAddress, &created, &up)
	if err != nil {
		return core.Transaction{}, err
	}
	tx.Amount = core.Amount(amount.String)
	tx.Type = core.TxType(txType)
	tx.Date = parseTime(date)
	tx.CreatedAt = parseTime(created)
	tx.UpdatedAt = parseTime(up)
	return tx, nil
}

func (r *Repository) queryTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (r *Repository) TransactionsBefore(ctx context.Context, cutoff time.Time) ([]core.Transaction, error) {
	return r.queryTransactions(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE date < ? ORDER BY date, id`,
		formatTime(cutoff))
}

func (r *Repository) TransactionsBetween(ctx context.Context, start, end time.Time) ([]core.Transaction, error) {
	return r.queryTransactions(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE date >= ? AND date <= ? ORDER BY date, id`,
		formatTime(start), formatTime(end))
}

func (r *Repository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return r.queryTransactions(ctx, `SELECT `+txColumns+` FROM transactions ORDER BY id`)
}

func (r *Repository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	tx, err := scanTransaction(r.db.QueryRowContext(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.NotFoundError("get transaction", storage.EntityTransaction)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

func (r *Repository) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	now := r.now()
	if tx.Date.IsZero() {
		tx.Date = now
	}
	tx.CreatedAt, tx.UpdatedAt = now, now
	res, err := r.db.ExecContext(ctx, `INSERT INTO transactions
		(amount, type, date, description, customer_name, customer_email, customer_phone,
		 customer_address, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(tx.Amount), string(tx.Type), formatTime(tx.Date), tx.Description, tx.CustomerName,
		tx.CustomerEmail, tx.CustomerPhone, tx.CustomerAddress, formatTime(now), formatTime(now))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	if tx.ID, err = res.LastInsertId(); err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.DebugContext(ctx, "Transaction saved to SQLite", "id", tx.ID, "type", tx.Type, "amount", string(tx.Amount))
	tx.Date = tx.Date.UTC()
	return tx, nil
}

func (r *Repository) UpdateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	tx.UpdatedAt = r.now()
	res, err := r.db.ExecContext(ctx, `UPDATE transactions SET amount = ?, type = ?, date = ?,
		description = ?, customer_name = ?, customer_email = ?, customer_phone = ?,
		customer_address = ?, updated_at = ? WHERE id = ?`,
		string(tx.Amount), string(tx.Type), formatTime(tx.Date), tx.Description, tx.CustomerName,
		tx.CustomerEmail, tx.CustomerPhone, tx.CustomerAddress, formatTime(tx.UpdatedAt), tx.ID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if err := expectOne(res, "update transaction", storage.EntityTransaction); err != nil {
		return core.Transaction{}, err
	}
	return r.GetTransaction(ctx, tx.ID)
}

func (r *Repository) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return expectOne(res, "delete transaction", storage.EntityTransaction)
}

func expectOne(res sql.Result, op, entity string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return core.NotFoundError(op, entity)
	}
	return nil
}
