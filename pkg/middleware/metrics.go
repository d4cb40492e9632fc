package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the Prometheus metrics middleware.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "binderlink").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for request duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics middleware.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "binderlink",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics is one set of collectors registered on one Prometheus registerer.
// A nil *Metrics records nothing.
type Metrics struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestErrors    *prometheus.CounterVec
	linksTotal       *prometheus.CounterVec
	launchesTotal    *prometheus.CounterVec
	detectionRejects *prometheus.CounterVec
	activeSessions   prometheus.Gauge
	wsErrors         *prometheus.CounterVec
	registryReloads  *prometheus.CounterVec
	registrySize     prometheus.Gauge
}

// registeredMetrics holds the collectors of every registerer seen so far;
// globalMetrics is the first of them and backs the package-level Record
// functions.
var (
	globalMetrics     *Metrics
	registeredMetrics = map[prometheus.Registerer]*Metrics{}
	globalMetricsMu   sync.Mutex
)

// NewMetrics returns the collectors registered on the configured
// registerer, creating them on first use. The first call for a registerer
// fixes its configuration.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	globalMetricsMu.Lock()
	defer globalMetricsMu.Unlock()

	m, ok := registeredMetrics[config.Registry]
	if !ok {
		m = initMetrics(config)
		registeredMetrics[config.Registry] = m
	}
	if globalMetrics == nil {
		globalMetrics = m
	}
	return m
}

func initMetrics(config MetricsConfig) *Metrics {
	factory := promauto.With(config.Registry)
	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}, labels)
	}
	gauge := func(name, help string) prometheus.Gauge {
		return factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		})
	}

	return &Metrics{
		requestsTotal: counter("http_requests_total",
			"Total HTTP requests by route and status code", "route", "code"),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"route"}),

		requestErrors: counter("http_request_errors_total",
			"Total HTTP requests answered with an error status, by error type", "route", "error_type"),

		linksTotal: counter("links_total",
			"Launch links derived, by provider", "provider"),

		launchesTotal: counter("launches_total",
			"Launch URLs received, by provider and status", "provider", "status"),

		detectionRejects: counter("detection_rejects_total",
			"Repository inputs rejected by a provider's detect pattern", "provider"),

		activeSessions: gauge("active_sessions",
			"Number of open WebSocket form sessions"),

		wsErrors: counter("websocket_errors_total",
			"Total WebSocket errors by type", "type"),

		registryReloads: counter("registry_reloads_total",
			"Provider registry reloads by result", "result"),

		registrySize: gauge("registry_providers",
			"Number of providers in the current registry"),
	}
}

// Prometheus creates middleware that collects request metrics on the
// configured registerer (see NewMetrics).
//
// Metrics collected:
//   - binderlink_http_requests_total: Counter by route pattern and status code
//   - binderlink_http_request_duration_seconds: Histogram by route pattern
//   - binderlink_http_request_errors_total: Counter of 4xx/5xx by error type
//
// The domain metrics (links_total, launches_total, detection_rejects_total,
// active_sessions, websocket_errors_total, registry_reloads_total,
// registry_providers) are registered at the same time and updated through
// the Record methods.
func Prometheus(opts ...MetricsOption) func(http.Handler) http.Handler {
	return NewMetrics(opts...).Middleware()
}

// Middleware returns request-metrics middleware backed by m.
func (m *Metrics) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			route := routePattern(r)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
			m.requestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
			if status >= http.StatusBadRequest {
				m.requestErrors.WithLabelValues(route, categorizeStatus(status)).Inc()
			}
		})
	}
}

// routePattern returns the matched chi route pattern, which keeps label
// cardinality bounded.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// categorizeStatus maps an error status to a low-cardinality label.
func categorizeStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "validation"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusBadGateway:
		return "remote"
	}
	if status >= http.StatusInternalServerError {
		return "internal"
	}
	return "client"
}

// =============================================================================
// Metrics Recording Functions
// =============================================================================

// RecordLink records a launch link derived for provider.
func (m *Metrics) RecordLink(provider string) {
	if m != nil {
		m.linksTotal.WithLabelValues(provider).Inc()
	}
}

// RecordLaunch records a launch URL received for provider.
func (m *Metrics) RecordLaunch(provider, status string) {
	if m != nil {
		m.launchesTotal.WithLabelValues(provider, status).Inc()
	}
}

// RecordDetectionReject records repository input that a provider's detect
// pattern did not accept.
func (m *Metrics) RecordDetectionReject(provider string) {
	if m != nil {
		m.detectionRejects.WithLabelValues(provider).Inc()
	}
}

// RecordSessionOpen records a new WebSocket form session.
func (m *Metrics) RecordSessionOpen() {
	if m != nil {
		m.activeSessions.Inc()
	}
}

// RecordSessionClose records the end of a WebSocket form session.
func (m *Metrics) RecordSessionClose() {
	if m != nil {
		m.activeSessions.Dec()
	}
}

// RecordWebSocketError records a WebSocket error.
func (m *Metrics) RecordWebSocketError(errorType string) {
	if m != nil {
		m.wsErrors.WithLabelValues(errorType).Inc()
	}
}

// RecordRegistryReload records a provider registry reload attempt and, on
// success, the size of the new registry.
func (m *Metrics) RecordRegistryReload(providers int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.registryReloads.WithLabelValues("error").Inc()
		return
	}
	m.registryReloads.WithLabelValues("success").Inc()
	m.registrySize.Set(float64(providers))
}

func defaultMetrics() *Metrics {
	globalMetricsMu.Lock()
	defer globalMetricsMu.Unlock()
	return globalMetrics
}

// RecordLink records a launch link on the first registered metrics.
func RecordLink(provider string) { defaultMetrics().RecordLink(provider) }

// RecordLaunch records a launch URL on the first registered metrics.
func RecordLaunch(provider, status string) { defaultMetrics().RecordLaunch(provider, status) }

// RecordDetectionReject records a detection reject on the first registered metrics.
func RecordDetectionReject(provider string) { defaultMetrics().RecordDetectionReject(provider) }

// RecordSessionOpen records a session start on the first registered metrics.
func RecordSessionOpen() { defaultMetrics().RecordSessionOpen() }

// RecordSessionClose records a session end on the first registered metrics.
func RecordSessionClose() { defaultMetrics().RecordSessionClose() }

// RecordWebSocketError records a WebSocket error on the first registered metrics.
func RecordWebSocketError(errorType string) { defaultMetrics().RecordWebSocketError(errorType) }

// RecordRegistryReload records a registry reload on the first registered metrics.
func RecordRegistryReload(providers int, err error) {
	defaultMetrics().RecordRegistryReload(providers, err)
}

// =============================================================================
// Metrics Collector
// =============================================================================

// Collector exposes the collectors created by Prometheus.
type Collector struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestErrors    *prometheus.CounterVec
	LinksTotal       *prometheus.CounterVec
	LaunchesTotal    *prometheus.CounterVec
	DetectionRejects *prometheus.CounterVec
	ActiveSessions   prometheus.Gauge
	WebSocketErrors  *prometheus.CounterVec
	RegistryReloads  *prometheus.CounterVec
	RegistrySize     prometheus.Gauge
}

// Collector returns the collectors of m, or nil for a nil m.
func (m *Metrics) Collector() *Collector {
	if m == nil {
		return nil
	}
	return &Collector{
		RequestsTotal:    m.requestsTotal,
		RequestDuration:  m.requestDuration,
		RequestErrors:    m.requestErrors,
		LinksTotal:       m.linksTotal,
		LaunchesTotal:    m.launchesTotal,
		DetectionRejects: m.detectionRejects,
		ActiveSessions:   m.activeSessions,
		WebSocketErrors:  m.wsErrors,
		RegistryReloads:  m.registryReloads,
		RegistrySize:     m.registrySize,
	}
}

// GetMetrics returns the first registered metrics collector.
// Returns nil if Prometheus middleware has not been initialized.
func GetMetrics() *Collector {
	return defaultMetrics().Collector()
}
