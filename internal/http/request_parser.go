package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/anisur046/accounting/internal/core"
)

const maxBodyBytes = 1 << 20

var (
	errInvalidID   = errors.New("invalid id")
	errInvalidBody = errors.New("invalid JSON body")
)

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, op string, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, core.ErrInvalidAmount) {
			return core.ValidationError(op, core.ErrInvalidAmount)
		}
		return core.ValidationError(op, errInvalidBody)
	}
	return nil
}

// pathID parses the {id} route parameter.
func pathID(r *http.Request, op string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, core.ValidationError(op, errInvalidID)
	}
	return id, nil
}

// queryValue returns the first non-empty value among keys.
func queryValue(q url.Values, keys ...string) string {
	for _, k := range keys {
		if v := sanitizeInput(q.Get(k)); v != "" {
			return v
		}
	}
	return ""
}

// sanitizeInput trims whitespace and drops control characters other than tab and newlines.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

// transactionInput is the wire form of a transaction write. Date accepts
// YYYY-MM-DD or an RFC 3339 timestamp; empty means now on create.
type transactionInput struct {
	Amount          core.Amount `json:"amount"`
	Type            core.TxType `json:"type"`
	Date            string      `json:"date"`
	Description     string      `json:"description"`
	CustomerName    string      `json:"customerName"`
	CustomerEmail   string      `json:"customerEmail"`
	CustomerPhone   string      `json:"customerPhone"`
	CustomerAddress string      `json:"customerAddress"`
}

func (in transactionInput) transaction(op string) (core.Transaction, error) {
	tx := core.Transaction{
		Amount:          in.Amount,
		Type:            core.TxType(strings.ToLower(sanitizeInput(string(in.Type)))),
		Description:     sanitizeInput(in.Description),
		CustomerName:    sanitizeInput(in.CustomerName),
		CustomerEmail:   sanitizeInput(in.CustomerEmail),
		CustomerPhone:   sanitizeInput(in.CustomerPhone),
		CustomerAddress: sanitizeInput(in.CustomerAddress),
	}
	if d := sanitizeInput(in.Date); d != "" {
		t, err := core.ParseInstant(d)
		if err != nil {
			return core.Transaction{}, core.InvalidDateError(op, d, err)
		}
		tx.Date = t
	}
	return tx, nil
}
