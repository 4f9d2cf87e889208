package bolt

import (
	"context"
	"encoding/binary"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/anisur046/accounting/internal/core"
	"github.com/anisur046/accounting/internal/storage"
)

// claimEmail points the email index at id, failing if another record owns it.
func claimEmail(idx *bolt.Bucket, email string, id int64, op string) error {
	key := emailKey(email)
	if owner := idx.Get(key); owner != nil && int64(binary.BigEndian.Uint64(owner)) != id {
		return core.ConflictError(op, "email already exists")
	}
	return idx.Put(key, itob(id))
}

func (s *Store) CreateCustomer(_ context.Context, c core.Customer) (core.Customer, error) {
	now := s.now()
	c.CreatedAt, c.UpdatedAt = now, now
	err := s.db.Update(func(tx *bolt.Tx) error {
		rows := tx.Bucket([]byte(bucketCustomers))
		seq, err := rows.NextSequence()
		if err != nil {
			return err
		}
		c.ID = int64(seq)
		if err := claimEmail(tx.Bucket([]byte(bucketCustomerEmails)), c.Email, c.ID, "create customer"); err != nil {
			return err
		}
		return putJSON(rows, c.ID, c)
	})
	if err != nil {
		return core.Customer{}, wrap("create customer", err)
	}
	return c, nil
}

func (s *Store) GetCustomer(_ context.Context, id int64) (core.Customer, error) {
	var c core.Customer
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		c, found, err = getJSON[core.Customer](tx.Bucket([]byte(bucketCustomers)), id)
		return err
	})
	if err != nil {
		return core.Customer{}, fmt.Errorf("get customer: %w", err)
	}
	if !found {
		return core.Customer{}, core.NotFoundError("get customer", storage.EntityCustomer)
	}
	return c, nil
}

func (s *Store) ListCustomers(_ context.Context) ([]core.Customer, error) {
	var out []core.Customer
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		out, err = listJSON[core.Customer](tx.Bucket([]byte(bucketCustomers)))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return out, nil
}

func (s *Store) UpdateCustomer(_ context.Context, c core.Customer) (core.Customer, error) {
	c.UpdatedAt = s.now()
	err := s.db.Update(func(tx *bolt.Tx) error {
		rows := tx.Bucket([]byte(bucketCustomers))
		emails := tx.Bucket([]byte(bucketCustomerEmails))
		old, ok, err := getJSON[core.Customer](rows, c.ID)
		if err != nil {
			return err
		}
		if !ok {
			return core.NotFoundError("update customer", storage.EntityCustomer)
		}
		if err := claimEmail(emails, c.Email, c.ID, "update customer"); err != nil {
			return err
		}
		if string(emailKey(old.Email)) != string(emailKey(c.Email)) {
			if err := emails.Delete(emailKey(old.Email)); err != nil {
				return err
			}
		}
		c.CreatedAt = old.CreatedAt
		return putJSON(rows, c.ID, c)
	})
	if err != nil {
		return core.Customer{}, wrap("update customer", err)
	}
	return c, nil
}

func (s *Store) DeleteCustomer(_ context.Context, id int64) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		rows := tx.Bucket([]byte(bucketCustomers))
		old, ok, err := getJSON[core.Customer](rows, id)
		if err != nil {
			return err
		}
		if !ok {
			return core.NotFoundError("delete customer", storage.EntityCustomer)
		}
		if err := tx.Bucket([]byte(bucketCustomerEmails)).Delete(emailKey(old.Email)); err != nil {
			return err
		}
		return rows.Delete(itob(id))
	})
	return wrap("delete customer", err)
}

func (r userRecord) user() core.User {
	return core.User{ID: r.ID, Name: r.Name, Email: r.Email, PasswordHash: r.PasswordHash,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
}

func toUserRecord(u core.User) userRecord {
	return userRecord{ID: u.ID, Name: u.Name, Email: u.Email, PasswordHash: u.PasswordHash,
		CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt}
}

func (s *Store) CreateUser(_ context.Context, u core.User) (core.User, error) {
	now := s.now()
	u.CreatedAt, u.UpdatedAt = now, now
	err := s.db.Update(func(tx *bolt.Tx) error {
		rows := tx.Bucket([]byte(bucketUsers))
		seq, err := rows.NextSequence()
		if err != nil {
			return err
		}
		u.ID = int64(seq)
		if err := claimEmail(tx.Bucket([]byte(bucketUserEmails)), u.Email, u.ID, "create user"); err != nil {
			return err
		}
		return putJSON(rows, u.ID, toUserRecord(u))
	})
	if err != nil {
		return core.User{}, wrap("create user", err)
	}
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id int64) (core.User, error) {
	var rec userRecord
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		rec, found, err = getJSON[userRecord](tx.Bucket([]byte(bucketUsers)), id)
		return err
	})
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	if !found {
		return core.User{}, core.NotFoundError("get user", storage.EntityUser)
	}
	return rec.user(), nil
}

func (s *Store) ListUsers(_ context.Context) ([]core.User, error) {
	var recs []userRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		recs, err = listJSON[userRecord](tx.Bucket([]byte(bucketUsers)))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]core.User, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.user())
	}
	return out, nil
}

func (s *Store) UpdateUser(_ context.Context, u core.User) (core.User, error) {
	u.UpdatedAt = s.now()
	err := s.db.Update(func(tx *bolt.Tx) error {
		rows := tx.Bucket([]byte(bucketUsers))
		emails := tx.Bucket([]byte(bucketUserEmails))
		old, ok, err := getJSON[userRecord](rows, u.ID)
		if err != nil {
			return err
		}
		if !ok {
			return core.NotFoundError("update user", storage.EntityUser)
		}
		if err := claimEmail(emails, u.Email, u.ID, "update user"); err != nil {
			return err
		}
		if string(emailKey(old.Email)) != string(emailKey(u.Email)) {
			if err := emails.Delete(emailKey(old.Email)); err != nil {
				return err
			}
		}
		if u.PasswordHash == "" {
			u.PasswordHash = old.PasswordHash
		}
		u.CreatedAt = old.CreatedAt
		return putJSON(rows, u.ID, toUserRecord(u))
	})
	if err != nil {
		return core.User{}, wrap("update user", err)
	}
	return u, nil
}

func (s *Store) DeleteUser(_ context.Context, id int64) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		rows := tx.Bucket([]byte(bucketUsers))
		old, ok, err := getJSON[userRecord](rows, id)
		if err != nil {
			return err
		}
		if !ok {
			return core.NotFoundError("delete user", storage.EntityUser)
		}
		if err := tx.Bucket([]byte(bucketUserEmails)).Delete(emailKey(old.Email)); err != nil {
			return err
		}
		return rows.Delete(itob(id))
	})
	return wrap("delete user", err)
}

func (s *Store) CreateReport(_ context.Context, r core.Report) (core.Report, error) {
	now := s.now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = now
	err := s.db.Update(func(tx *bolt.Tx) error {
		rows := tx.Bucket([]byte(bucketReports))
		seq, err := rows.NextSequence()
		if err != nil {
			return err
		}
		r.ID = int64(seq)
		return putJSON(rows, r.ID, r)
	})
	if err != nil {
		return core.Report{}, fmt.Errorf("create report: %w", err)
	}
	return r, nil
}

func (s *Store) GetReport(_ context.Context, id int64) (core.Report, error) {
	var r core.Report
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		r, found, err = getJSON[core.Report](tx.Bucket([]byte(bucketReports)), id)
		return err
	})
	if err != nil {
		return core.Report{}, fmt.Errorf("get report: %w", err)
	}
	if !found {
		return core.Report{}, core.NotFoundError("get report", storage.EntityReport)
	}
	return r, nil
}

func (s *Store) ListReports(_ context.Context) ([]core.Report, error) {
	var out []core.Report
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		out, err = listJSON[core.Report](tx.Bucket([]byte(bucketReports)))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return out, nil
}

func (s *Store) UpdateReport(_ context.Context, r core.Report) (core.Report, error) {
	r.UpdatedAt = s.now()
	err := s.db.Update(func(tx *bolt.Tx) error {
		rows := tx.Bucket([]byte(bucketReports))
		old, ok, err := getJSON[core.Report](rows, r.ID)
		if err != nil {
			return err
		}
		if !ok {
			return core.NotFoundError("update report", storage.EntityReport)
		}
		r.CreatedAt = old.CreatedAt
		return putJSON(rows, r.ID, r)
	})
	if err != nil {
		return core.Report{}, wrap("update report", err)
	}
	return r, nil
}

func (s *Store) DeleteReport(_ context.Context, id int64) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		rows := tx.Bucket([]byte(bucketReports))
		if rows.Get(itob(id)) == nil {
			return core.NotFoundError("delete report", storage.EntityReport)
		}
		return rows.Delete(itob(id))
	})
	return wrap("delete report", err)
}
