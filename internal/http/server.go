package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/anisur046/accounting/internal/core"
	"github.com/anisur046/accounting/internal/log"
	"github.com/anisur046/accounting/internal/middleware/ratelimit"
	"github.com/anisur046/accounting/internal/middleware/security"
	"github.com/anisur046/accounting/internal/middleware/trace"
	"github.com/anisur046/accounting/internal/services"
)

// Pinger reports whether the backing store can serve requests.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services groups what the handlers call into.
type Services struct {
	Ledger    *services.LedgerService
	Reports   *services.ReportService
	Directory *services.DirectoryService
	Store     Pinger
}

type Options struct {
	RateLimitPerMinute int
	CORSAllowedOrigins []string
	RequestTimeout     time.Duration
	Logger             *log.Logger
}

type Server struct {
	http.Server
	svc      Services
	logger   *log.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc Services, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}
	s := &Server{
		svc:      svc,
		logger:   opts.Logger.WithComponent(log.ComponentHTTP),
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector: security.NewDetector(),
		tracer:   trace.NewMiddleware(),
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(opts),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      opts.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(s.tracer.Middleware)
	r.Use(log.Middleware(opts.Logger, trace.RequestID, s.detector.ExtractClientIP))
	r.Use(recoverer)
	r.Use(security.Headers(security.DefaultHeadersConfig()))
	r.Use(cors(opts.CORSAllowedOrigins))
	r.Use(s.detector.Middleware(opts.Logger))
	r.Use(middleware.Timeout(opts.RequestTimeout))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NewJSONResponse().Status(http.StatusNotFound).Body(ErrorBody{Message: "Not found", Error: string(core.KindNotFound)}).Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		NewJSONResponse().Status(http.StatusMethodNotAllowed).Body(ErrorBody{Message: "Method not allowed"}).Write(w)
	})

	r.Get("/health", handleHealth)
	r.Get("/ready", s.handleReady)
	r.Get("/metrics", s.handleMetrics)

	r.Group(func(r chi.Router) {
		r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
			NewJSONResponse().Status(http.StatusTooManyRequests).
				Body(ErrorBody{Message: "Rate limit exceeded. Please try again later."}).Write(w)
		}))

		r.Get("/transactions/balance", s.handleBalance)
		r.Get("/transactions/report", s.handleReport)

		r.Route("/api", func(r chi.Router) {
			r.Route("/transactions", func(r chi.Router) {
				r.Get("/balance", s.handleBalance)
				r.Get("/report", s.handleReport)
				r.Get("/", s.listTransactions)
				r.Post("/", s.createTransaction)
				r.Get("/{id}", s.getTransaction)
				r.Put("/{id}", s.updateTransaction)
				r.Delete("/{id}", s.deleteTransaction)
			})
			r.Route("/customers", func(r chi.Router) {
				r.Get("/", s.listCustomers)
				r.Post("/", s.createCustomer)
				r.Get("/{id}", s.getCustomer)
				r.Put("/{id}", s.updateCustomer)
				r.Delete("/{id}", s.deleteCustomer)
			})
			r.Route("/users", func(r chi.Router) {
				r.Get("/", s.listUsers)
				r.Post("/", s.createUser)
				r.Get("/{id}", s.getUser)
				r.Put("/{id}", s.updateUser)
				r.Delete("/{id}", s.deleteUser)
			})
			r.Route("/reports", func(r chi.Router) {
				r.Get("/", s.listReports)
				r.Post("/", s.createReport)
				r.Get("/{id}", s.getReport)
				r.Put("/{id}", s.updateReport)
				r.Delete("/{id}", s.deleteReport)
			})
		})
	})
	return r
}

// Shutdown stops accepting requests, drains in-flight ones and stops the
// rate limiter's cleanup goroutine.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		s.logger.InfoContext(ctx, "HTTP server stopped", log.FieldOperation, log.OpShutdown)
	})
	return err
}
