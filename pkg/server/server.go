package server

import (
	"context"
	"embed"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/binderlink/binderlink/internal/errors"
	"github.com/binderlink/binderlink/pkg/events"
	"github.com/binderlink/binderlink/pkg/middleware"
	"github.com/binderlink/binderlink/pkg/provider"
)

//go:embed static/badge_logo.svg
var staticFS embed.FS

// Config configures a Server. Store and PublicBase are required.
type Config struct {
	// Store supplies the current provider registry.
	Store *provider.Store

	// PublicBase is the absolute URL launch links are resolved against.
	PublicBase *url.URL

	// BaseURL is the path prefix routes are mounted under (default "/").
	BaseURL string

	// Events receives launch events. Nil discards them.
	Events *events.Log

	// Logger is the server logger (default: slog.Default()).
	Logger *slog.Logger

	// Metrics enables request metrics and the /metrics endpoint.
	Metrics bool

	// MetricsNamespace is the Prometheus namespace.
	MetricsNamespace string

	// MetricsRegistry registers and gathers the metrics
	// (default: the Prometheus default registry).
	MetricsRegistry *prometheus.Registry

	// MetricsAllowlist guards /metrics. Nil admits everyone.
	MetricsAllowlist *middleware.Allowlist

	// TracerName enables request tracing when non-empty.
	TracerName string

	// ReadLimit is the maximum WebSocket message size.
	ReadLimit int64

	// PingInterval is the WebSocket ping period. The connection is dropped
	// when no pong arrives within twice this period.
	PingInterval time.Duration

	// WriteTimeout bounds each WebSocket write.
	WriteTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "/"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.MetricsNamespace == "" {
		c.MetricsNamespace = "binderlink"
	}
	if c.ReadLimit == 0 {
		c.ReadLimit = 4096
	}
	if c.PingInterval == 0 {
		c.PingInterval = 30 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
}

// Server serves the binderlink HTTP API.
type Server struct {
	config   Config
	logger   *slog.Logger
	handler  http.Handler
	upgrader websocket.Upgrader
	labels   labelCache
	metrics  *middleware.Metrics

	sessionsMu sync.Mutex
	sessions   map[*session]struct{}

	httpServer *http.Server
}

// New creates a Server.
func New(config Config) (*Server, error) {
	if config.Store == nil {
		return nil, errors.New("E114").WithDetail("server needs a provider store")
	}
	if config.PublicBase == nil || !config.PublicBase.IsAbs() {
		return nil, errors.New("E103").WithDetail("server needs an absolute public base URL")
	}
	config.applyDefaults()
	if !strings.HasPrefix(config.BaseURL, "/") || !strings.HasSuffix(config.BaseURL, "/") {
		return nil, errors.New("E102").WithDetailf("baseUrl %q must start and end with /", config.BaseURL)
	}

	s := &Server{
		config:   config,
		logger:   config.Logger,
		sessions: make(map[*session]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	if config.Metrics {
		opts := []middleware.MetricsOption{middleware.WithNamespace(config.MetricsNamespace)}
		if config.MetricsRegistry != nil {
			opts = append(opts, middleware.WithRegistry(config.MetricsRegistry))
		}
		s.metrics = middleware.NewMetrics(opts...)
	}
	s.handler = s.routes()
	return s, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID, chimw.RealIP)
	r.Use(middleware.RequestLogger(s.logger))
	r.Use(chimw.Recoverer)

	if s.metrics != nil {
		r.Use(s.metrics.Middleware())
	}
	if s.config.TracerName != "" {
		r.Use(middleware.OpenTelemetry(
			middleware.WithTracerName(s.config.TracerName),
			middleware.WithRequestFilter(func(r *http.Request) bool {
				return !strings.HasSuffix(r.URL.Path, "/healthz")
			}),
		))
	}

	api := chi.NewRouter()
	api.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, errors.Newf(errors.CategoryNotFound, "no route for %s", r.URL.Path))
	})
	api.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("OK"))
	})
	api.Get("/_config", s.handleConfig)
	api.Get("/api/providers", s.handleProviders)
	api.Get("/api/link", s.handleLink)
	api.Get("/v2/{provider}/*", s.handleLaunch)
	api.Get("/ws", s.handleWebSocket)
	api.Get("/badge_logo.svg", handleBadgeLogo)

	if s.config.Metrics {
		metrics := promhttp.Handler()
		if reg := s.config.MetricsRegistry; reg != nil {
			metrics = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
		}
		if allow := s.config.MetricsAllowlist; allow != nil {
			metrics = allow.Handler(metrics)
		}
		api.Handle("/metrics", metrics)
	}

	if s.config.BaseURL == "/" {
		r.Mount("/", api)
	} else {
		r.Mount(strings.TrimSuffix(s.config.BaseURL, "/"), api)
	}
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", ln.Addr().String(), "base_url", s.config.BaseURL)
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if err != http.ErrServerClosed {
			return err
		}
		return nil

	case <-ctx.Done():
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Shutdown closes live form sessions and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.sessionsMu.Lock()
	for sess := range s.sessions {
		sess.closeGoingAway()
	}
	s.sessionsMu.Unlock()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// SessionCount returns the number of open form sessions.
func (s *Server) SessionCount() int {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	return len(s.sessions)
}

func (s *Server) addSession(sess *session) {
	s.sessionsMu.Lock()
	s.sessions[sess] = struct{}{}
	s.sessionsMu.Unlock()
	s.metrics.RecordSessionOpen()
}

func (s *Server) removeSession(sess *session) {
	s.sessionsMu.Lock()
	delete(s.sessions, sess)
	s.sessionsMu.Unlock()
	s.metrics.RecordSessionClose()
}

func handleBadgeLogo(w http.ResponseWriter, r *http.Request) {
	data, err := staticFS.ReadFile("static/badge_logo.svg")
	if err != nil {
		writeError(w, errors.FromError(err, "E150"))
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes err as a JSON error payload. Errors without a code are
// reported as E150.
func writeError(w http.ResponseWriter, err error) {
	e := errors.FromError(err, "E150")
	writeJSON(w, e.HTTPStatus(), e.Payload())
}
