package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/anisur046/accounting/internal/core"
	"github.com/anisur046/accounting/internal/ledger"
	"github.com/anisur046/accounting/internal/log"
	"github.com/anisur046/accounting/internal/services"
	"github.com/anisur046/accounting/internal/storage"
	"github.com/anisur046/accounting/internal/storage/memory"
)

func at(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 12, 0, 0, 0, time.UTC)
}

func newTestServer(t *testing.T, store *memory.Store, reader storage.LedgerReader, engineOpts ...ledger.Option) *Server {
	t.Helper()
	if reader == nil {
		reader = store
	}
	engine := ledger.NewEngine(reader, append([]ledger.Option{ledger.WithLogger(log.Discard())}, engineOpts...)...)
	reports := services.NewReportService(engine, 16, time.Minute)
	srv := NewServer(":0", Services{
		Ledger:    services.NewLedgerService(store, nil, reports, log.Discard()),
		Reports:   reports,
		Directory: services.NewDirectoryService(store, store, store),
		Store:     store,
	}, Options{Logger: log.Discard(), RateLimitPerMinute: 1000})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func scenarioStore() *memory.Store {
	s := memory.New()
	s.Seed(
		core.Transaction{Amount: "100", Type: core.Income, Date: at(2024, 1, 5)},
		core.Transaction{Amount: "30", Type: core.Expense, Date: at(2024, 1, 10)},
		core.Transaction{Amount: "50", Type: core.Income, Date: at(2024, 1, 20)},
	)
	return s
}

func do(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

type reportBody struct {
	Mode         string             `json:"mode"`
	Transactions []core.Transaction `json:"transactions"`
	Summary      ledger.Summary     `json:"summary"`
}

func TestBalance_ScenarioA(t *testing.T) {
	srv := newTestServer(t, scenarioStore(), nil)
	for _, path := range []string{"/transactions/balance?toDate=2024-01-10", "/api/transactions/balance?toDate=2024-01-10"} {
		rr := do(t, srv, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: status %d", path, rr.Code)
		}
		if got := strings.TrimSpace(rr.Body.String()); got != `{"balance":100.00}` {
			t.Fatalf("%s: body %s", path, got)
		}
	}
}

func TestReport_ScenarioB(t *testing.T) {
	srv := newTestServer(t, scenarioStore(), nil)
	rr := do(t, srv, http.MethodGet, "/transactions/report?fromDate=2024-01-01&toDate=2024-01-10", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body)
	}
	body := decode[reportBody](t, rr)
	if len(body.Transactions) != 2 || body.Transactions[0].Type != core.Income || body.Transactions[1].Type != core.Expense {
		t.Fatalf("transactions = %+v", body.Transactions)
	}
	if body.Summary.Income.String() != "100.00" || body.Summary.Expense.String() != "30.00" {
		t.Fatalf("summary = %+v", body.Summary)
	}
	if body.Summary.Opening != nil || body.Summary.Closing != nil {
		t.Fatal("general report must not carry balances")
	}
}

func TestReport_ScenarioC_Daybook(t *testing.T) {
	srv := newTestServer(t, scenarioStore(), nil)
	rr := do(t, srv, http.MethodGet, "/api/transactions/report?fromDate=2024-01-10&toDate=2024-01-10&mode=daybook", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body)
	}
	body := decode[reportBody](t, rr)
	if body.Summary.Opening == nil || body.Summary.Opening.String() != "100.00" {
		t.Fatalf("opening = %v", body.Summary.Opening)
	}
	if body.Summary.Closing == nil || body.Summary.Closing.String() != "70.00" {
		t.Fatalf("closing = %v", body.Summary.Closing)
	}
}

func TestScenarioD_EmptyLedger(t *testing.T) {
	srv := newTestServer(t, memory.New(), nil)
	rr := do(t, srv, http.MethodGet, "/transactions/balance?toDate=2024-01-10", "")
	if got := strings.TrimSpace(rr.Body.String()); got != `{"balance":0.00}` {
		t.Fatalf("balance body %s", got)
	}
	rr = do(t, srv, http.MethodGet, "/transactions/report?fromDate=2024-01-01&toDate=2024-01-31", "")
	if !strings.Contains(rr.Body.String(), `"transactions":[]`) {
		t.Fatalf("report body %s", rr.Body)
	}
}

func TestScenarioE_MalformedAmount(t *testing.T) {
	s := scenarioStore()
	s.Seed(core.Transaction{Amount: "abc", Type: core.Income, Date: at(2024, 1, 6)})
	srv := newTestServer(t, s, nil)

	rr := do(t, srv, http.MethodGet, "/transactions/report?fromDate=2024-01-01&toDate=2024-01-10", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	body := decode[reportBody](t, rr)
	if len(body.Transactions) != 3 || body.Summary.Income.String() != "100.00" || body.Summary.Skipped != 1 {
		t.Fatalf("body = %+v", body)
	}
}

func TestReportCSV(t *testing.T) {
	srv := newTestServer(t, scenarioStore(), nil)
	rr := do(t, srv, http.MethodGet, "/transactions/report?fromDate=2024-01-10&toDate=2024-01-10&mode=daybook&format=csv", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content type %q", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "daybook_2024-01-10_2024-01-10.csv") {
		t.Fatalf("disposition %q", cd)
	}
	if !strings.Contains(rr.Body.String(), ",Opening balance,100.00,,Closing balance,70.00") {
		t.Fatalf("csv body %s", rr.Body)
	}
}

type failingReader struct{}

func (failingReader) TransactionsBefore(context.Context, time.Time) ([]core.Transaction, error) {
	return nil, errors.New("connection refused")
}

func (failingReader) TransactionsBetween(context.Context, time.Time, time.Time) ([]core.Transaction, error) {
	return nil, errors.New("connection refused")
}

type blockingReader struct{}

func (blockingReader) TransactionsBefore(ctx context.Context, _ time.Time) ([]core.Transaction, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingReader) TransactionsBetween(ctx context.Context, _, _ time.Time) ([]core.Transaction, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		reader storage.LedgerReader
		path   string
		status int
		kind   core.Kind
	}{
		{"missing toDate", nil, "/transactions/balance", http.StatusBadRequest, core.KindInvalidDate},
		{"bad toDate", nil, "/transactions/balance?toDate=yesterday", http.StatusBadRequest, core.KindInvalidDate},
		{"timestamp toDate", nil, "/transactions/balance?toDate=2024-01-10T15:00:00Z", http.StatusBadRequest, core.KindInvalidDate},
		{"from after to", nil, "/transactions/report?fromDate=2024-02-01&toDate=2024-01-01", http.StatusBadRequest, core.KindInvalidRange},
		{"bad mode", nil, "/transactions/report?fromDate=2024-01-01&toDate=2024-01-02&mode=weekly", http.StatusBadRequest, core.KindValidation},
		{"store down", failingReader{}, "/transactions/balance?toDate=2024-01-10", http.StatusServiceUnavailable, core.KindStoreUnavailable},
		{"store slow", blockingReader{}, "/transactions/report?fromDate=2024-01-01&toDate=2024-01-02", http.StatusGatewayTimeout, core.KindTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, memory.New(), tt.reader, ledger.WithTimeout(20*time.Millisecond))
			rr := do(t, srv, http.MethodGet, tt.path, "")
			if rr.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rr.Code, tt.status, rr.Body)
			}
			body := decode[ErrorBody](t, rr)
			if body.Error != string(tt.kind) || body.Message == "" {
				t.Fatalf("body = %+v", body)
			}
		})
	}
}

func TestTransactionCRUD(t *testing.T) {
	srv := newTestServer(t, memory.New(), nil)

	rr := do(t, srv, http.MethodPost, "/api/transactions", `{"amount":"100.50","type":"income","date":"2024-01-05","description":"Invoice 7","customerName":"Acme"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status %d: %s", rr.Code, rr.Body)
	}
	created := decode[core.Transaction](t, rr)
	if created.ID == 0 || created.Amount != "100.5" || !created.Date.Equal(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("created = %+v", created)
	}

	rr = do(t, srv, http.MethodPost, "/api/transactions", `{"amount":-5,"type":"income"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("negative amount status %d", rr.Code)
	}
	rr = do(t, srv, http.MethodPost, "/api/transactions", `{"amount":5,"type":"income","date":"soon"}`)
	if rr.Code != http.StatusBadRequest || decode[ErrorBody](t, rr).Error != string(core.KindInvalidDate) {
		t.Fatalf("bad date: %d %s", rr.Code, rr.Body)
	}

	rr = do(t, srv, http.MethodPut, "/api/transactions/1", `{"amount":80,"type":"expense"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("update status %d: %s", rr.Code, rr.Body)
	}
	if updated := decode[core.Transaction](t, rr); updated.Type != core.Expense || !updated.Date.Equal(created.Date) {
		t.Fatalf("updated = %+v", updated)
	}

	rr = do(t, srv, http.MethodPut, "/api/transactions/1", `{"description":"Invoice 7b"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("partial update status %d: %s", rr.Code, rr.Body)
	}
	if patched := decode[core.Transaction](t, rr); patched.Amount != "80" || patched.Type != core.Expense || patched.CustomerName != "Acme" {
		t.Fatalf("patched = %+v", patched)
	}

	rr = do(t, srv, http.MethodGet, "/api/transactions", "")
	if list := decode[[]core.Transaction](t, rr); len(list) != 1 {
		t.Fatalf("list = %+v", list)
	}

	rr = do(t, srv, http.MethodDelete, "/api/transactions/1", "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete status %d", rr.Code)
	}
	rr = do(t, srv, http.MethodDelete, "/api/transactions/1", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("second delete status %d", rr.Code)
	}
	if body := decode[ErrorBody](t, rr); body.Message != "Transaction not found" {
		t.Fatalf("not found body = %+v", body)
	}

	rr = do(t, srv, http.MethodGet, "/api/transactions/abc", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad id status %d", rr.Code)
	}
}

func TestWriteInvalidatesCachedBalance(t *testing.T) {
	srv := newTestServer(t, scenarioStore(), nil)
	if rr := do(t, srv, http.MethodGet, "/transactions/balance?toDate=2024-02-01", ""); !strings.Contains(rr.Body.String(), "120.00") {
		t.Fatalf("balance %s", rr.Body)
	}
	do(t, srv, http.MethodPost, "/api/transactions", `{"amount":20,"type":"expense","date":"2024-01-25"}`)
	if rr := do(t, srv, http.MethodGet, "/transactions/balance?toDate=2024-02-01", ""); !strings.Contains(rr.Body.String(), "100.00") {
		t.Fatalf("balance after write %s", rr.Body)
	}
}

func TestUsersNeverExposePassword(t *testing.T) {
	srv := newTestServer(t, memory.New(), nil)
	rr := do(t, srv, http.MethodPost, "/api/users", `{"name":"Ann","email":"ann@books.test","password":"correct horse"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status %d: %s", rr.Code, rr.Body)
	}
	if strings.Contains(strings.ToLower(rr.Body.String()), "password") {
		t.Fatalf("password leaked: %s", rr.Body)
	}
	rr = do(t, srv, http.MethodPost, "/api/users", `{"name":"Ann","email":"ann@books.test","password":"another pass"}`)
	if rr.Code != http.StatusConflict {
		t.Fatalf("duplicate status %d", rr.Code)
	}
}

func TestCustomersAndReports(t *testing.T) {
	srv := newTestServer(t, memory.New(), nil)
	if rr := do(t, srv, http.MethodPost, "/api/customers", `{"name":"Acme"}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("missing email status %d", rr.Code)
	}
	if rr := do(t, srv, http.MethodPost, "/api/customers", `{"name":"Acme","email":"ops@acme.test"}`); rr.Code != http.StatusCreated {
		t.Fatalf("create customer status %d", rr.Code)
	}
	if rr := do(t, srv, http.MethodGet, "/api/customers/9", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("missing customer status %d", rr.Code)
	}
	if rr := do(t, srv, http.MethodPost, "/api/reports", `{"title":"January"}`); rr.Code != http.StatusCreated {
		t.Fatalf("create report status %d", rr.Code)
	}
	if rr := do(t, srv, http.MethodPut, "/api/reports/1", `{"title":""}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("empty title status %d", rr.Code)
	}
	if rr := do(t, srv, http.MethodPost, "/api/reports", `{not json`); rr.Code != http.StatusBadRequest {
		t.Fatalf("bad json status %d", rr.Code)
	}
}

func TestOperationalEndpoints(t *testing.T) {
	srv := newTestServer(t, scenarioStore(), nil)
	for _, path := range []string{"/health", "/ready"} {
		if rr := do(t, srv, http.MethodGet, path, ""); rr.Code != http.StatusOK {
			t.Fatalf("%s status %d", path, rr.Code)
		}
	}
	do(t, srv, http.MethodGet, "/transactions/balance?toDate=2024-01-10", "")
	rr := do(t, srv, http.MethodGet, "/metrics", "")
	for _, want := range []string{
		"# TYPE accounting_http_requests_total counter",
		`accounting_cache_misses_total{cache="balance"} 1`,
	} {
		if !strings.Contains(rr.Body.String(), want) {
			t.Errorf("metrics missing %q:\n%s", want, rr.Body)
		}
	}
}

func TestMiddlewareStack(t *testing.T) {
	srv := newTestServer(t, memory.New(), nil)

	rr := do(t, srv, http.MethodGet, "/health", "")
	if rr.Header().Get("X-Request-ID") == "" || rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("headers = %v", rr.Header())
	}

	req := httptest.NewRequest(http.MethodOptions, "/api/transactions", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent || rr.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("preflight %d %v", rr.Code, rr.Header())
	}

	if rr := do(t, srv, http.MethodGet, "/nope", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("unknown route %d", rr.Code)
	}
}

func TestRecovererReturnsJSON(t *testing.T) {
	h := recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status %d", rr.Code)
	}
	if body := decode[ErrorBody](t, rr); body.Error != string(core.KindInternal) {
		t.Fatalf("body = %+v", body)
	}
}

func TestRateLimit(t *testing.T) {
	store := memory.New()
	engine := ledger.NewEngine(store, ledger.WithLogger(log.Discard()))
	reports := services.NewReportService(engine, 16, time.Minute)
	srv := NewServer(":0", Services{Reports: reports, Store: store}, Options{Logger: log.Discard(), RateLimitPerMinute: 2})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	path := "/transactions/balance?toDate=2024-01-10"
	do(t, srv, http.MethodGet, path, "")
	do(t, srv, http.MethodGet, path, "")
	rr := do(t, srv, http.MethodGet, path, "")
	if rr.Code != http.StatusTooManyRequests || rr.Header().Get("Retry-After") == "" {
		t.Fatalf("status %d headers %v", rr.Code, rr.Header())
	}
	// Operational endpoints are not limited.
	if rr := do(t, srv, http.MethodGet, "/health", ""); rr.Code != http.StatusOK {
		t.Fatalf("health status %d", rr.Code)
	}
}
