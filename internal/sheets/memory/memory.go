// Package memory is a DaybookWriter that keeps the last export per day in
// memory. It backs local runs without Google credentials and worker tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/anisur046/accounting/internal/export"
	ports "github.com/anisur046/accounting/internal/sheets"
)

var _ ports.DaybookWriter = (*Store)(nil)

type Store struct {
	mu     sync.Mutex
	days   map[string]export.Table
	writes int
}

func New() *Store {
	return &Store{days: map[string]export.Table{}}
}

func (s *Store) WriteDaybook(ctx context.Context, day string, t export.Table) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.days[day] = t
	s.writes++
	return fmt.Sprintf("mem:%s", day), nil
}

// Daybook returns the last table written for day.
func (s *Store) Daybook(day string) (export.Table, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.days[day]
	return t, ok
}

// Days lists exported days in ascending order.
func (s *Store) Days() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.days))
	for d := range s.days {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

func (s *Store) ExportedDays(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Days(), nil
}

// Writes counts every WriteDaybook call, including rewrites of a day.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
