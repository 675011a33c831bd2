package http

import (
	stdhttp "net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"seopro/app/internal/domain/content"
	"seopro/app/internal/platform/metrics"
)

// Options configures the HTTP server wiring.
type Options struct {
	Service     content.Service
	Metrics     *metrics.Metrics
	Logger      *logrus.Logger
	SentryHub   *sentry.Hub
	RateLimiter RateLimiterSettings
	Now         func() time.Time
}

// Server wires the JSON API via Huma on top of a standard library mux.
type Server struct {
	api         huma.API
	mux         *stdhttp.ServeMux
	service     content.Service
	metrics     *metrics.Metrics
	logger      *logrus.Logger
	sentry      *sentry.Hub
	rateLimiter *RateLimiter
	now         func() time.Time
}

// NewServer constructs the HTTP server. A zero refill rate disables rate limiting.
func NewServer(opts Options) (*Server, error) {
	if opts.Service == nil {
		return nil, eris.New("generation service is required")
	}

	mux := stdhttp.NewServeMux()
	config := huma.DefaultConfig("SEO Optimizer Pro", "1.0.0")
	// Responses carry the bare envelope, without $schema links.
	config.CreateHooks = nil

	api := humago.New(mux, config)

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	srv := &Server{
		api:     api,
		mux:     mux,
		service: opts.Service,
		metrics: opts.Metrics,
		logger:  opts.Logger,
		sentry:  opts.SentryHub,
		now:     now,
	}

	if opts.RateLimiter.Enabled() {
		limiter, err := NewRateLimiter(opts.RateLimiter)
		if err != nil {
			return nil, eris.Wrap(err, "configuring rate limiter")
		}
		srv.rateLimiter = limiter
	}

	srv.registerMiddlewares()
	srv.registerRoutes()

	return srv, nil
}

// Handler exposes the underlying HTTP handler for wiring into the application.
func (s *Server) Handler() stdhttp.Handler {
	return s.mux
}

// API exposes the underlying Huma API instance.
func (s *Server) API() huma.API {
	return s.api
}

// Close releases background resources held by the server.
func (s *Server) Close() {
	if s.rateLimiter != nil {
		s.rateLimiter.Close()
	}
}

func (s *Server) registerMiddlewares() {
	s.api.UseMiddleware(
		s.sentryMiddleware(),
		s.recoveryMiddleware(),
		s.requestIDMiddleware(),
		s.loggingMiddleware(),
	)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("GET /metrics", s.metrics.Handler())
	s.mux.HandleFunc("/", notFoundHandler)

	s.registerGenerateRoute()
	s.registerHealthRoute()
	s.registerUsageRoute()
}

func (s *Server) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	s.mux.ServeHTTP(w, r)
}
