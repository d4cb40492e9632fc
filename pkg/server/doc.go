// Package server exposes launch-link derivation over HTTP.
//
// All routes are mounted under the configured base path:
//
//	GET  /_config           provider labels keyed by id
//	GET  /api/providers     the provider table
//	GET  /api/link          one-shot derivation from query parameters
//	GET  /v2/{provider}/*   launch intake; parses the URL and records a launch event
//	GET  /ws                live form session over WebSocket
//	GET  /badge_logo.svg    badge image
//	GET  /metrics           Prometheus exposition, behind an IP allow-list
//	GET  /healthz           liveness
//
// Errors are written as JSON {"code", "category", "message", "detail"} with
// the status taken from the error category.
//
// The provider registry is read from a provider.Store on every request, so a
// reload takes effect for the next request. A WebSocket session keeps the
// registry it started with.
package server
