// Package middleware provides the net/http middleware binderlink mounts in
// front of its routes.
//
// This package includes:
//   - Prometheus metrics, plus recording functions for launch-link activity
//   - OpenTelemetry request tracing
//   - an IP allow-list for the metrics endpoint
//   - structured request logging with slog
//
// All middleware has the standard func(http.Handler) http.Handler shape and
// mounts directly on a chi router:
//
//	r := chi.NewRouter()
//	r.Use(chimw.RequestID, chimw.RealIP)
//	r.Use(middleware.RequestLogger(logger))
//	r.Use(middleware.Prometheus(middleware.WithNamespace("binderlink")))
//	r.Use(middleware.OpenTelemetry(middleware.WithTracerName("binderlink")))
//
// # Prometheus Metrics
//
// Request metrics are labelled with the chi route pattern rather than the
// raw path, so launch URLs do not create one series per repository:
//   - binderlink_http_requests_total
//   - binderlink_http_request_duration_seconds
//   - binderlink_http_request_errors_total
//
// Domain counters are updated through RecordLink, RecordLaunch,
// RecordDetectionReject and friends once the middleware has been created.
//
// # Metrics Allow-List
//
//	allow, err := middleware.NewAllowlist([]string{"10.0.0.0/8", "127.0.0.1"})
//	r.With(allow.Handler).Handle("/metrics", promhttp.Handler())
//
// An empty allow-list admits every client.
package middleware
