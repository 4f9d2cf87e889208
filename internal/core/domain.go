package core

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

const (
	Income  TxType = "income"
	Expense TxType = "expense"
)

type (
	TxType string

	// Date is a calendar day in UTC. Range logic works on whole days.
	Date struct {
		time.Time
	}

	Transaction struct {
		ID              int64     `json:"id"`
		Amount          Amount    `json:"amount"`
		Type            TxType    `json:"type"`
		Date            time.Time `json:"date"`
		Description     string    `json:"description,omitempty"`
		CustomerName    string    `json:"customerName,omitempty"`
		CustomerEmail   string    `json:"customerEmail,omitempty"`
		CustomerPhone   string    `json:"customerPhone,omitempty"`
		CustomerAddress string    `json:"customerAddress,omitempty"`
		CreatedAt       time.Time `json:"createdAt"`
		UpdatedAt       time.Time `json:"updatedAt"`
	}

	Customer struct {
		ID        int64     `json:"id"`
		Name      string    `json:"name"`
		Email     string    `json:"email"`
		Phone     string    `json:"phone,omitempty"`
		Address   string    `json:"address,omitempty"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	// User holds an account. PasswordHash is never serialized.
	User struct {
		ID           int64     `json:"id"`
		Name         string    `json:"name"`
		Email        string    `json:"email"`
		PasswordHash string    `json:"-"`
		CreatedAt    time.Time `json:"createdAt"`
		UpdatedAt    time.Time `json:"updatedAt"`
	}

	// Report is a saved free-form report document.
	Report struct {
		ID        int64     `json:"id"`
		Title     string    `json:"title"`
		Content   string    `json:"content,omitempty"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrNegativeAmount     = errors.New("amount must not be negative")
	ErrInvalidType        = errors.New("type must be income or expense")
	ErrZeroDate           = errors.New("date cannot be zero")
	ErrEmptyName          = errors.New("empty name")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrEmptyTitle         = errors.New("empty title")
	ErrDescriptionTooLong = errors.New("description too long (max 255 characters)")
	ErrInvalidMode        = errors.New("mode must be general or daybook")
)

func (t TxType) Valid() bool {
	return t == Income || t == Expense
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its UTC calendar day.
func DateOf(t time.Time) Date {
	t = t.UTC()
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrZeroDate
	}
	return nil
}

// String formats the day as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// StartOfDay is the first instant of the day.
func (d Date) StartOfDay() time.Time {
	return d.Time
}

// EndOfDay is the last representable instant of the day.
func (d Date) EndOfDay() time.Time {
	return d.Time.AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func (tx Transaction) Validate() error {
	if !tx.Type.Valid() {
		return ErrInvalidType
	}
	v, ok := tx.Amount.Value()
	if !ok {
		return ErrInvalidAmount
	}
	if v.IsNegative() {
		return ErrNegativeAmount
	}
	if tx.Date.IsZero() {
		return ErrZeroDate
	}
	if len(tx.Description) > 255 {
		return ErrDescriptionTooLong
	}
	if tx.CustomerEmail != "" && !validEmail(tx.CustomerEmail) {
		return ErrInvalidEmail
	}
	return nil
}

func (c Customer) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !validEmail(c.Email) {
		return ErrInvalidEmail
	}
	return nil
}

func (u User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return ErrEmptyName
	}
	if !validEmail(u.Email) {
		return ErrInvalidEmail
	}
	return nil
}

func (r Report) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return ErrEmptyTitle
	}
	return nil
}

func validEmail(s string) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
