// Package http serves the dashboard page, its htmx fragments, chart images
// and a small JSON API over the loaded dataset.
package http

import (
	"context"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"semmelweis/internal/core"
	applog "semmelweis/internal/log"
	"semmelweis/internal/middleware/ratelimit"
	"semmelweis/internal/middleware/security"
	"semmelweis/internal/middleware/trace"
	appweb "semmelweis/web"
)

// DefaultRequestTimeout bounds dataset access per request.
const DefaultRequestTimeout = 7 * time.Second

// Messages shown when the dataset cannot be served.
const (
	msgDatasetUnavailable = "dataset not available"
	msgDatasetMalformed   = "dataset is malformed"
)

// DatasetProvider returns the current dataset. *cache.DatasetCache
// satisfies it.
type DatasetProvider interface {
	Get(ctx context.Context) (core.Dataset, error)
}

// Config holds server settings. Zero timeouts take defaults.
type Config struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
	Logger         *applog.Logger
	// Limiter enables per-client rate limiting when non-nil.
	Limiter *ratelimit.Limiter
}

type Server struct {
	http.Server
	templates      *template.Template
	data           DatasetProvider
	logger         *applog.Logger
	tracer         *trace.Middleware
	detector       *security.Detector
	limiter        *ratelimit.Limiter
	requestTimeout time.Duration
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(cfg Config, data DatasetProvider) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}

	mux := http.NewServeMux()
	detector := security.NewDetector()
	s := &Server{
		Server: http.Server{
			Addr:              cfg.Addr,
			ReadTimeout:       durationOr(cfg.ReadTimeout, 10*time.Second),
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      durationOr(cfg.WriteTimeout, 15*time.Second),
			IdleTimeout:       durationOr(cfg.IdleTimeout, 60*time.Second),
		},
		data:           data,
		logger:         logger,
		tracer:         trace.NewMiddleware(logger, detector.ExtractClientIP),
		detector:       detector,
		limiter:        cfg.Limiter,
		requestTimeout: cfg.RequestTimeout,
	}

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", applog.FieldError, err)
	} else {
		s.templates = t
	}

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.CacheControl("public, max-age=3600")(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	mux.HandleFunc("GET /{$}", s.handleDashboard)
	mux.HandleFunc("GET /ui/panel", s.handlePanel)
	mux.HandleFunc("GET /charts/{file}", s.handleChart)
	mux.HandleFunc("GET /api/clinics", s.handleClinics)
	mux.HandleFunc("GET /api/records", s.handleRecords)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	var h http.Handler = mux
	if s.limiter != nil {
		h = s.limiter.Middleware(detector.ExtractClientIP, nil)(h)
	}
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = detector.Middleware(h)
	h = s.tracer.Middleware(h)
	s.Handler = h

	return s
}

func durationOr(d, def time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return def
}

// dataset loads the current dataset under the request timeout.
func (s *Server) dataset(ctx context.Context) (core.Dataset, error) {
	cctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()
	return s.data.Get(cctx)
}

// datasetMessage maps a load failure to the text shown to users.
func datasetMessage(err error) string {
	if errors.Is(err, core.ErrSchema) {
		return msgDatasetMalformed
	}
	return msgDatasetUnavailable
}

func errorType(err error) string {
	switch {
	case errors.Is(err, core.ErrResourceNotFound):
		return applog.ErrorTypeNotFound
	case errors.Is(err, core.ErrSchema):
		return applog.ErrorTypeSchema
	case errors.Is(err, context.DeadlineExceeded):
		return applog.ErrorTypeTimeout
	}
	return applog.ErrorTypeInternal
}

// logDatasetError records why the dataset could not be served and returns
// the user-visible message.
func (s *Server) logDatasetError(ctx context.Context, err error) string {
	applog.NewStructuredLogger(applog.FromContext(ctx).WithComponent(applog.ComponentDataset)).
		LogError(ctx, "Dataset unavailable", err, applog.OpLoad, applog.NewFields().WithErrorType(errorType(err)))
	return datasetMessage(err)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports ready only when the dataset loads.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := s.dataset(r.Context()); err != nil {
		http.Error(w, s.logDatasetError(r.Context(), err), http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
