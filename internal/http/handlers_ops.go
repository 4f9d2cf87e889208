package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/anisur046/accounting/internal/cache"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]string{"status": "ok"}).Write(w)
}

// handleReady pings the store; 503 while it cannot serve.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.svc.Store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.svc.Store.Ping(ctx); err != nil {
			NewJSONResponse().Status(http.StatusServiceUnavailable).
				Body(map[string]string{"status": "unavailable", "error": err.Error()}).Write(w)
			return
		}
	}
	NewJSONResponse().Body(map[string]string{"status": "ready"}).Write(w)
}

// handleMetrics writes counters in the Prometheus text exposition format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	tm := s.tracer.GetMetrics()
	metric(w, "accounting_http_requests_total", "counter", "HTTP requests received.", float64(tm.TotalRequests))
	metric(w, "accounting_http_requests_in_flight", "gauge", "HTTP requests being served.", float64(tm.InFlight))
	metric(w, "accounting_http_response_time_avg_seconds", "gauge", "Mean response time.", tm.AverageResponseTime.Seconds())

	rl := s.limiter.GetMetrics()
	metric(w, "accounting_rate_limit_rejections_total", "counter", "Requests rejected by the rate limiter.", float64(rl.TotalHits))
	metric(w, "accounting_rate_limit_clients", "gauge", "Clients tracked by the rate limiter.", float64(rl.ClientCount))

	sm := s.detector.GetMetrics()
	metric(w, "accounting_suspicious_requests_total", "counter", "Requests flagged as suspicious.", float64(sm.SuspiciousRequests))
	metric(w, "accounting_blocked_requests_total", "counter", "Requests blocked by method.", float64(sm.BlockedRequests))

	if s.svc.Reports != nil {
		reports, balances := s.svc.Reports.Stats()
		cacheMetrics(w, map[string]cache.Stats{"report": reports, "balance": balances})
	}
}

func metric(w io.Writer, name, typ, help string, v float64) {
	fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %g\n", name, help, name, typ, name, v)
}

func cacheMetrics(w io.Writer, stats map[string]cache.Stats) {
	order := []string{"report", "balance"}
	series := []struct {
		name, typ, help string
		value           func(cache.Stats) int64
	}{
		{"accounting_cache_hits_total", "counter", "Cache hits.", func(s cache.Stats) int64 { return s.Hits }},
		{"accounting_cache_misses_total", "counter", "Cache misses.", func(s cache.Stats) int64 { return s.Misses }},
		{"accounting_cache_entries", "gauge", "Entries currently cached.", func(s cache.Stats) int64 { return int64(s.Size) }},
	}
	for _, m := range series {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n", m.name, m.help, m.name, m.typ)
		for _, c := range order {
			fmt.Fprintf(w, "%s{cache=%q} %d\n", m.name, c, m.value(stats[c]))
		}
	}
}
