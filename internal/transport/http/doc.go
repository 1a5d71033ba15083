// Package http serves the optional status endpoint of a conversion run.
//
// Routes:
//
//	GET /healthz   liveness
//	GET /status    batch progress as JSON
//	GET /metrics   Prometheus exposition, when the prometheus exporter is enabled
//
// The server is started by the CLI with -status-addr and stops when the batch ends.
package http
