package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"platito/internal/cache"
	"platito/internal/log"
	"platito/internal/middleware/ratelimit"
	"platito/internal/middleware/security"
	"platito/internal/middleware/trace"
	"platito/internal/services"
)

// Options tunes NewServer. Zero values use the defaults.
type Options struct {
	RateLimitPerMinute int
	CacheTTL           time.Duration
	CacheSize          int
	TrustedProxies     []string
	// Ready reports whether dependencies can serve traffic. Nil means
	// always ready.
	Ready func(context.Context) error
	// Dataset names the export file.
	Dataset string
}

func (o Options) withDefaults() Options {
	if o.RateLimitPerMinute <= 0 {
		o.RateLimitPerMinute = ratelimit.DefaultConfig().RequestsPerMinute
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = time.Minute
	}
	if o.CacheSize <= 0 {
		o.CacheSize = 100
	}
	if o.Dataset == "" {
		o.Dataset = "main"
	}
	return o
}

type Server struct {
	http.Server
	svc      *services.Services
	opts     Options
	validate *validator.Validate

	// dashboard responses, already encoded
	dashCache    *cache.LRUCache[[]byte]
	cacheManager *cache.Manager

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, svc *services.Services, opts Options) *Server {
	opts = opts.withDefaults()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		svc:          svc,
		opts:         opts,
		validate:     newValidator(),
		dashCache:    cache.NewLRUCache[[]byte](opts.CacheSize, opts.CacheTTL),
		cacheManager: cache.NewManager(),
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMinute,
		}),
		detector: security.NewDetector(),
	}
	for _, cidr := range opts.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			slog.Warn("Ignoring trusted proxy", log.FieldComponent, log.ComponentSecurity, "cidr", cidr, log.FieldError, err)
		}
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP)

	s.cacheManager.Register(s.dashCache)
	s.cacheManager.StartCleanup(opts.CacheTTL)

	api := http.NewServeMux()
	s.routes(api)

	limited := s.limiter.Middleware(s.detector.ExtractClientIP, onRateLimited)(api)

	root := http.NewServeMux()
	root.HandleFunc("GET /healthz", handleHealth)
	root.HandleFunc("GET /readyz", s.handleReady)
	root.Handle("/api/", limited)
	root.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("no such endpoint").Write(w)
	})

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Handler = s.tracer.Middleware(headers.Middleware(s.detector.Middleware(root)))
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/accounts", s.handleListAccounts)
	mux.HandleFunc("POST /api/accounts", s.mutating(s.handleCreateAccount))
	mux.HandleFunc("GET /api/accounts/{id}", s.handleGetAccount)
	mux.HandleFunc("PATCH /api/accounts/{id}", s.mutating(s.handleUpdateAccount))
	mux.HandleFunc("DELETE /api/accounts/{id}", s.mutating(s.handleDeleteAccount))
	mux.HandleFunc("POST /api/accounts/{id}/archive", s.mutating(s.handleArchiveAccount))
	mux.HandleFunc("POST /api/accounts/{id}/unarchive", s.mutating(s.handleUnarchiveAccount))

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.mutating(s.handleCreateCategory))
	mux.HandleFunc("GET /api/categories/{id}", s.handleGetCategory)
	mux.HandleFunc("PATCH /api/categories/{id}", s.mutating(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /api/categories/{id}", s.mutating(s.handleDeleteCategory))

	mux.HandleFunc("GET /api/tags", s.handleListTags)
	mux.HandleFunc("POST /api/tags", s.mutating(s.handleCreateTag))
	mux.HandleFunc("GET /api/tags/{id}", s.handleGetTag)
	mux.HandleFunc("PATCH /api/tags/{id}", s.mutating(s.handleRenameTag))
	mux.HandleFunc("DELETE /api/tags/{id}", s.mutating(s.handleDeleteTag))

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.mutating(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("PATCH /api/transactions/{id}", s.mutating(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.mutating(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/transfers", s.handleListTransfers)
	mux.HandleFunc("POST /api/transfers", s.mutating(s.handleCreateTransfer))
	mux.HandleFunc("GET /api/transfers/{id}", s.handleGetTransfer)
	mux.HandleFunc("PATCH /api/transfers/{id}", s.mutating(s.handleUpdateTransfer))
	mux.HandleFunc("DELETE /api/transfers/{id}", s.mutating(s.handleDeleteTransfer))

	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("PATCH /api/settings", s.mutating(s.handleUpdateSettings))

	mux.HandleFunc("GET /api/rates", s.handleGetRates)
	mux.HandleFunc("PUT /api/rates", s.mutating(s.handleReplaceRates))
	mux.HandleFunc("PATCH /api/rates", s.mutating(s.handlePatchRates))
	mux.HandleFunc("POST /api/rates/refresh", s.mutating(s.handleRefreshRates))

	mux.HandleFunc("GET /api/dashboard/balances", s.cached(s.handleBalances))
	mux.HandleFunc("GET /api/dashboard/summary", s.cached(s.handleSummary))

	mux.HandleFunc("GET /api/export", s.handleExport)
	mux.HandleFunc("POST /api/import", s.mutating(s.handleImport))
	mux.HandleFunc("POST /api/reset", s.mutating(s.handleReset))

	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("no such endpoint").Write(w)
	})
}

func onRateLimited(w http.ResponseWriter, r *http.Request, retryAfter time.Duration) {
	RateLimitedError("rate limit exceeded, please try again later", ratelimit.RetryAfterSeconds(retryAfter)).Write(w)
}

// statusRecorder remembers the status written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// mutating purges the dashboard cache after a successful write.
func (s *Server) mutating(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w}
		next(rec, r)
		if rec.status != 0 && rec.status < http.StatusBadRequest {
			s.InvalidateCache()
		}
	}
}

// cacheKey is the path plus the query in canonical order.
func cacheKey(r *http.Request) string {
	q := r.URL.Query()
	if len(q) == 0 {
		return r.URL.Path
	}
	return r.URL.Path + "?" + q.Encode()
}

// cached serves encoded dashboard responses from the LRU. compute returns
// the value to encode or an error to map.
func (s *Server) cached(compute func(*http.Request) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := cacheKey(r)
		if data, ok := s.dashCache.Get(key); ok {
			w.Header().Set("X-Cache", "HIT")
			writeRaw(w, http.StatusOK, data)
			return
		}

		v, err := compute(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		data, err := encodeJSON(v)
		if err != nil {
			writeError(w, r, err)
			return
		}
		s.dashCache.Set(key, data)
		w.Header().Set("X-Cache", "MISS")
		writeRaw(w, http.StatusOK, data)
	}
}

// InvalidateCache drops every cached dashboard response.
func (s *Server) InvalidateCache() {
	if n := s.dashCache.Size(); n > 0 {
		s.dashCache.Purge()
		slog.Debug("Dashboard cache purged", log.FieldComponent, log.ComponentCache, "entries", n)
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	OK(w, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.opts.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.opts.Ready(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			ErrorResponse(http.StatusServiceUnavailable, "not_ready", "not ready").Write(w)
			return
		}
	}
	OK(w, map[string]string{"status": "ready"})
}

// Metrics is a snapshot of the middleware counters.
type Metrics struct {
	Requests  trace.Metrics             `json:"requests"`
	RateLimit ratelimit.Metrics         `json:"rateLimit"`
	Security  security.DetectionMetrics `json:"security"`
	Cache     cache.Stats               `json:"cache"`
}

func (s *Server) Metrics() Metrics {
	return Metrics{
		Requests:  s.tracer.GetMetrics(),
		RateLimit: s.limiter.GetMetrics(),
		Security:  s.detector.GetMetrics(),
		Cache:     s.dashCache.Stats(),
	}
}

// Shutdown stops the background cleanups and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// ListenAndServe is http.Server.ListenAndServe without the error returned
// by a graceful shutdown.
func (s *Server) ListenAndServe() error {
	if err := s.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func trimmedQuery(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}
