// Package backend selects and opens the ledger store named by DATA_BACKEND.
package backend

import "github.com/anisur046/accounting/internal/storage"

// Type names a store implementation.
type Type string

const (
	Memory Type = "memory"
	SQLite Type = "sqlite"
	Bolt   Type = "bolt"
)

func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is valid
func (t Type) IsValid() bool {
	switch t {
	case Memory, SQLite, Bolt:
		return true
	default:
		return false
	}
}

// Types returns all valid backend types
func Types() []Type {
	return []Type{Memory, SQLite, Bolt}
}

// CleanupFunc releases whatever the store holds open.
type CleanupFunc func() error

// Result is an opened store and its cleanup.
type Result struct {
	Store   storage.Store
	Cleanup CleanupFunc
}
