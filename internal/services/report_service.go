package services

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/anisur046/accounting/internal/cache"
	"github.com/anisur046/accounting/internal/core"
	"github.com/anisur046/accounting/internal/ledger"
)

// ReportService fronts the ledger engine with a short-lived cache. Concurrent
// identical requests share one computation. Any ledger write bumps the
// generation, which purges the cache and discards results still in flight.
type ReportService struct {
	engine   *ledger.Engine
	reports  *cache.LRUCache[ledger.Report]
	balances *cache.LRUCache[core.Money]
	group    singleflight.Group
	gen      atomic.Uint64
}

func NewReportService(engine *ledger.Engine, size int, ttl time.Duration) *ReportService {
	return &ReportService{
		engine:   engine,
		reports:  cache.NewLRUCache[ledger.Report](size, ttl),
		balances: cache.NewLRUCache[core.Money](size, ttl),
	}
}

// Caches exposes the caches for the cleanup manager.
func (s *ReportService) Caches() []cache.Cleaner {
	return []cache.Cleaner{s.reports, s.balances}
}

func (s *ReportService) Stats() (reports, balances cache.Stats) {
	return s.reports.Stats(), s.balances.Stats()
}

func (s *ReportService) Invalidate() {
	s.gen.Add(1)
	s.reports.Purge()
	s.balances.Purge()
}

func (s *ReportService) Balance(ctx context.Context, toDate string) (core.Money, error) {
	cutoff, err := core.ParseCalendarDate(toDate)
	if err != nil {
		return core.Money{}, core.InvalidDateError("balance", toDate, err)
	}
	key := "balance|" + cutoff.String()
	if m, ok := s.balances.Get(key); ok {
		return m, nil
	}
	gen := s.gen.Load()
	v, err, _ := s.group.Do(s.flightKey(key, gen), func() (any, error) {
		return s.engine.ComputeBalance(context.WithoutCancel(ctx), cutoff)
	})
	if err != nil {
		return core.Money{}, err
	}
	m := v.(core.Money)
	if s.gen.Load() == gen {
		s.balances.Set(key, m)
	}
	return m, nil
}

func (s *ReportService) Report(ctx context.Context, fromDate, toDate string, mode ledger.Mode) (ledger.Report, error) {
	from, to, err := ledger.ParseRange("report", fromDate, toDate)
	if err != nil {
		return ledger.Report{}, err
	}
	return s.BuildReport(ctx, from, to, mode)
}

func (s *ReportService) BuildReport(ctx context.Context, from, to core.Date, mode ledger.Mode) (ledger.Report, error) {
	if mode == "" {
		mode = ledger.ModeGeneral
	}
	key := "report|" + from.String() + "|" + to.String() + "|" + string(mode)
	if r, ok := s.reports.Get(key); ok {
		return r, nil
	}
	gen := s.gen.Load()
	v, err, _ := s.group.Do(s.flightKey(key, gen), func() (any, error) {
		return s.engine.BuildReport(context.WithoutCancel(ctx), from, to, mode)
	})
	if err != nil {
		return ledger.Report{}, err
	}
	r := v.(ledger.Report)
	if s.gen.Load() == gen {
		s.reports.Set(key, r)
	}
	return r, nil
}

func (s *ReportService) flightKey(key string, gen uint64) string {
	return key + "|" + strconv.FormatUint(gen, 10)
}
