package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/anisur046/accounting/internal/core"
	"github.com/anisur046/accounting/internal/storage"
)

func (r *Repository) CreateCustomer(ctx context.Context, c core.Customer) (core.Customer, error) {
	now := r.now()
	res, err := r.db.ExecContext(ctx, `INSERT INTO customers (name, email, phone, address, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`, c.Name, c.Email, c.Phone, c.Address, formatTime(now), formatTime(now))
	if isUnique(err) {
		return core.Customer{}, core.ConflictError("create customer", "customer email already exists")
	}
	if err != nil {
		return core.Customer{}, fmt.Errorf("create customer: %w", err)
	}
	if c.ID, err = res.LastInsertId(); err != nil {
		return core.Customer{}, fmt.Errorf("create customer: %w", err)
	}
	c.CreatedAt, c.UpdatedAt = now, now
	return c, nil
}

func scanCustomer(s rowScanner) (core.Customer, error) {
	var c core.Customer
	var created, updated string
	if err := s.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &created, &updated); err != nil {
		return core.Customer{}, err
	}
	c.CreatedAt, c.UpdatedAt = parseTime(created), parseTime(updated)
	return c, nil
}

const customerColumns = `id, name, email, phone, address, created_at, updated_at`

func (r *Repository) GetCustomer(ctx context.Context, id int64) (core.Customer, error) {
	c, err := scanCustomer(r.db.QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Customer{}, core.NotFoundError("get customer", storage.EntityCustomer)
	}
	if err != nil {
		return core.Customer{}, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

func (r *Repository) ListCustomers(ctx context.Context) ([]core.Customer, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+customerColumns+` FROM customers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()
	var out []core.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateCustomer(ctx context.Context, c core.Customer) (core.Customer, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE customers SET name = ?, email = ?, phone = ?, address = ?, updated_at = ?
		WHERE id = ?`, c.Name, c.Email, c.Phone, c.Address, formatTime(r.now()), c.ID)
	if isUnique(err) {
		return core.Customer{}, core.ConflictError("update customer", "customer email already exists")
	}
	if err != nil {
		return core.Customer{}, fmt.Errorf("update customer: %w", err)
	}
	if err := expectOne(res, "update customer", storage.EntityCustomer); err != nil {
		return core.Customer{}, err
	}
	return r.GetCustomer(ctx, c.ID)
}

func (r *Repository) DeleteCustomer(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM customers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	return expectOne(res, "delete customer", storage.EntityCustomer)
}

const userColumns = `id, name, email, password_hash, created_at, updated_at`

func scanUser(s rowScanner) (core.User, error) {
	var u core.User
	var created, updated string
	if err := s.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &created, &updated); err != nil {
		return core.User{}, err
	}
	u.CreatedAt, u.UpdatedAt = parseTime(created), parseTime(updated)
	return u, nil
}

func (r *Repository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	now := r.now()
	res, err := r.db.ExecContext(ctx, `INSERT INTO users (name, email, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`, u.Name, u.Email, u.PasswordHash, formatTime(now), formatTime(now))
	if isUnique(err) {
		return core.User{}, core.ConflictError("create user", "user email already exists")
	}
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	if u.ID, err = res.LastInsertId(); err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	u.CreatedAt, u.UpdatedAt = now, now
	return u, nil
}

func (r *Repository) GetUser(ctx context.Context, id int64) (core.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.NotFoundError("get user", storage.EntityUser)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *Repository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	var out []core.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpdateUser keeps the stored password hash when u.PasswordHash is empty.
func (r *Repository) UpdateUser(ctx context.Context, u core.User) (core.User, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET name = ?, email = ?,
		password_hash = CASE WHEN ? = '' THEN password_hash ELSE ? END, updated_at = ?
		WHERE id = ?`, u.Name, u.Email, u.PasswordHash, u.PasswordHash, formatTime(r.now()), u.ID)
	if isUnique(err) {
		return core.User{}, core.ConflictError("update user", "user email already exists")
	}
	if err != nil {
		return core.User{}, fmt.Errorf("update user: %w", err)
	}
	if err := expectOne(res, "update user", storage.EntityUser); err != nil {
		return core.User{}, err
	}
	return r.GetUser(ctx, u.ID)
}

func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return expectOne(res, "delete user", storage.EntityUser)
}

const reportColumns = `id, title, content, created_at, updated_at`

func scanReport(s rowScanner) (core.Report, error) {
	var rep core.Report
	var created, updated string
	if err := s.Scan(&rep.ID, &rep.Title, &rep.Content, &created, &updated); err != nil {
		return core.Report{}, err
	}
	rep.CreatedAt, rep.UpdatedAt = parseTime(created), parseTime(updated)
	return rep, nil
}

func (r *Repository) CreateReport(ctx context.Context, rep core.Report) (core.Report, error) {
	now := r.now()
	if rep.CreatedAt.IsZero() {
		rep.CreatedAt = now
	}
	rep.UpdatedAt = now
	res, err := r.db.ExecContext(ctx, `INSERT INTO reports (title, content, created_at, updated_at)
		VALUES (?, ?, ?, ?)`, rep.Title, rep.Content, formatTime(rep.CreatedAt), formatTime(now))
	if err != nil {
		return core.Report{}, fmt.Errorf("create report: %w", err)
	}
	if rep.ID, err = res.LastInsertId(); err != nil {
		return core.Report{}, fmt.Errorf("create report: %w", err)
	}
	rep.CreatedAt = rep.CreatedAt.UTC()
	return rep, nil
}

func (r *Repository) GetReport(ctx context.Context, id int64) (core.Report, error) {
	rep, err := scanReport(r.db.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Report{}, core.NotFoundError("get report", storage.EntityReport)
	}
	if err != nil {
		return core.Report{}, fmt.Errorf("get report: %w", err)
	}
	return rep, nil
}

func (r *Repository) ListReports(ctx context.Context) ([]core.Report, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+reportColumns+` FROM reports ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()
	var out []core.Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateReport(ctx context.Context, rep core.Report) (core.Report, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE reports SET title = ?, content = ?, updated_at = ? WHERE id = ?`,
		rep.Title, rep.Content, formatTime(r.now()), rep.ID)
	if err != nil {
		return core.Report{}, fmt.Errorf("update report: %w", err)
	}
	if err := expectOne(res, "update report", storage.EntityReport); err != nil {
		return core.Report{}, err
	}
	return r.GetReport(ctx, rep.ID)
}

func (r *Repository) DeleteReport(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reports WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	return expectOne(res, "delete report", storage.EntityReport)
}
