// Package http serves budget queries and ledger maintenance as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/budget"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
)

// Options tunes the request pipeline. Zero values pick the defaults.
type Options struct {
	RequestsPerMinute int
	BlockSuspicious   bool
	MaxBodyBytes      int64
}

const (
	defaultMaxBodyBytes = 1 << 20
	maxImportBytes      = 10 << 20
)

type Server struct {
	http.Server
	engine       *budget.Engine
	ledger       *services.LedgerService
	logger       *log.Logger
	limiter      *ratelimit.Limiter
	tracer       *trace.Middleware
	maxBodyBytes int64
	shutdownOnce sync.Once
}

// NewServer wires the routes and the middleware chain:
// logger, trace, security headers, detection, rate limit, routes.
func NewServer(addr string, engine *budget.Engine, ledger *services.LedgerService, logger *log.Logger, opts Options) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}

	detector := security.NewDetector()
	s := &Server{
		engine:       engine,
		ledger:       ledger,
		logger:       logger.WithComponent(log.ComponentHTTP),
		limiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RequestsPerMinute}),
		tracer:       trace.NewMiddleware(detector.ExtractClientIP, logger),
		maxBodyBytes: opts.MaxBodyBytes,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/categories", s.handleCategoryBreakdown)
	mux.HandleFunc("GET /api/top", s.handleTopCategories)
	mux.HandleFunc("GET /api/monthly", s.handleMonthly)
	mux.HandleFunc("GET /api/cashflow", s.handleCashFlow)
	mux.HandleFunc("GET /api/report", s.handleReport)

	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{kind}/{id}", s.handleDeleteTransaction)
	mux.HandleFunc("POST /api/import/{kind}", s.handleImport)

	mux.HandleFunc("GET /api/categories/{kind}", s.handleListCategories)
	mux.HandleFunc("POST /api/categories/{kind}", s.handleAddCategory)
	mux.HandleFunc("POST /api/categories/{kind}/rename", s.handleRenameCategory)
	mux.HandleFunc("DELETE /api/categories/{kind}/{name}", s.handleDeleteCategory)

	var h http.Handler = mux
	h = s.limiter.Middleware(detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded", Code: "rate_limited"})
	})(h)
	h = detector.Middleware(opts.BlockSuspicious)(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.tracer.Middleware(h)
	h = log.Middleware(logger.WithComponent(log.ComponentHTTP))(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown stops the limiter and drains the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(s.limiter.Stop)
	return s.Server.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.ledger.Ping(ctx); err != nil {
		log.FromContext(r.Context()).WarnContext(ctx, "Readiness check failed", log.FieldError, err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
