package services

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/anisur046/accounting/internal/core"
	"github.com/anisur046/accounting/internal/storage"
)

var ErrWeakPassword = errors.New("password must be at least 8 characters")

// DirectoryService handles customers, users and saved reports. These are
// plain records; nothing derived depends on them.
type DirectoryService struct {
	customers storage.CustomerStore
	users     storage.UserStore
	reports   storage.ReportStore
}

func NewDirectoryService(customers storage.CustomerStore, users storage.UserStore, reports storage.ReportStore) *DirectoryService {
	return &DirectoryService{customers: customers, users: users, reports: reports}
}

func normalizeEmail(s string) string { return strings.TrimSpace(s) }

func (s *DirectoryService) CreateCustomer(ctx context.Context, c core.Customer) (core.Customer, error) {
	c.Email = normalizeEmail(c.Email)
	if err := c.Validate(); err != nil {
		return core.Customer{}, core.ValidationError("create customer", err)
	}
	out, err := s.customers.CreateCustomer(ctx, c)
	return out, core.StoreError("create customer", err)
}

func (s *DirectoryService) GetCustomer(ctx context.Context, id int64) (core.Customer, error) {
	out, err := s.customers.GetCustomer(ctx, id)
	return out, core.StoreError("get customer", err)
}

func (s *DirectoryService) ListCustomers(ctx context.Context) ([]core.Customer, error) {
	out, err := s.customers.ListCustomers(ctx)
	if out == nil && err == nil {
		out = []core.Customer{}
	}
	return out, core.StoreError("list customers", err)
}

func (s *DirectoryService) UpdateCustomer(ctx context.Context, id int64, c core.Customer) (core.Customer, error) {
	c.ID = id
	c.Email = normalizeEmail(c.Email)
	if err := c.Validate(); err != nil {
		return core.Customer{}, core.ValidationError("update customer", err)
	}
	out, err := s.customers.UpdateCustomer(ctx, c)
	return out, core.StoreError("update customer", err)
}

func (s *DirectoryService) DeleteCustomer(ctx context.Context, id int64) error {
	return core.StoreError("delete customer", s.customers.DeleteCustomer(ctx, id))
}

// UserInput carries a plain-text password that is hashed before storage.
type UserInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func hashPassword(pw string) (string, error) {
	if len(pw) < 8 {
		return "", ErrWeakPassword
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// CheckPassword reports whether pw matches the user's stored hash.
func CheckPassword(u core.User, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(pw)) == nil
}

func (s *DirectoryService) CreateUser(ctx context.Context, in UserInput) (core.User, error) {
	u := core.User{Name: strings.TrimSpace(in.Name), Email: normalizeEmail(in.Email)}
	if err := u.Validate(); err != nil {
		return core.User{}, core.ValidationError("create user", err)
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return core.User{}, core.ValidationError("create user", err)
	}
	u.PasswordHash = hash
	out, err := s.users.CreateUser(ctx, u)
	return out, core.StoreError("create user", err)
}

func (s *DirectoryService) GetUser(ctx context.Context, id int64) (core.User, error) {
	out, err := s.users.GetUser(ctx, id)
	return out, core.StoreError("get user", err)
}

func (s *DirectoryService) ListUsers(ctx context.Context) ([]core.User, error) {
	out, err := s.users.ListUsers(ctx)
	if out == nil && err == nil {
		out = []core.User{}
	}
	return out, core.StoreError("list users", err)
}

// UpdateUser keeps the current password when in.Password is empty.
func (s *DirectoryService) UpdateUser(ctx context.Context, id int64, in UserInput) (core.User, error) {
	u := core.User{ID: id, Name: strings.TrimSpace(in.Name), Email: normalizeEmail(in.Email)}
	if err := u.Validate(); err != nil {
		return core.User{}, core.ValidationError("update user", err)
	}
	if in.Password != "" {
		hash, err := hashPassword(in.Password)
		if err != nil {
			return core.User{}, core.ValidationError("update user", err)
		}
		u.PasswordHash = hash
	}
	out, err := s.users.UpdateUser(ctx, u)
	return out, core.StoreError("update user", err)
}

func (s *DirectoryService) DeleteUser(ctx context.Context, id int64) error {
	return core.StoreError("delete user", s.users.DeleteUser(ctx, id))
}

func (s *DirectoryService) CreateReport(ctx context.Context, r core.Report) (core.Report, error) {
	if err := r.Validate(); err != nil {
		return core.Report{}, core.ValidationError("create report", err)
	}
	out, err := s.reports.CreateReport(ctx, r)
	return out, core.StoreError("create report", err)
}

func (s *DirectoryService) GetReport(ctx context.Context, id int64) (core.Report, error) {
	out, err := s.reports.GetReport(ctx, id)
	return out, core.StoreError("get report", err)
}

func (s *DirectoryService) ListReports(ctx context.Context) ([]core.Report, error) {
	out, err := s.reports.ListReports(ctx)
	if out == nil && err == nil {
		out = []core.Report{}
	}
	return out, core.StoreError("list reports", err)
}

func (s *DirectoryService) UpdateReport(ctx context.Context, id int64, r core.Report) (core.Report, error) {
	r.ID = id
	if err := r.Validate(); err != nil {
		return core.Report{}, core.ValidationError("update report", err)
	}
	out, err := s.reports.UpdateReport(ctx, r)
	return out, core.StoreError("update report", err)
}

func (s *DirectoryService) DeleteReport(ctx context.Context, id int64) error {
	return core.StoreError("delete report", s.reports.DeleteReport(ctx, id))
}
