// Package server serves the todoist-daily dashboard over HTTP.
//
// # Routes
//
// All application routes are prefixed with the configured base path:
//   - GET /api/auth/start: redirect to the Todoist consent screen
//   - GET /api/auth/callback: exchange the code and store the token cookie
//   - GET /api/auth/logout: clear the token cookie
//   - GET /api/tasks: the report as JSON, or {"error": "..."}
//   - GET /: the report rendered as HTML
//
// The Kubernetes health endpoints /healthz, /readyz and /healthz/detailed are never
// prefixed. Prometheus metrics are served by MetricsServer on a separate port.
//
// # Security Features
//
//   - The access token cookie is HttpOnly and SameSite=Strict
//   - Optional AES-256-GCM encryption of the cookie value
//   - OAuth state checked against a short-lived cookie
//   - Per-IP rate limiting
//   - Security headers on all HTTP responses
package server
