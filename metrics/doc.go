// Package metrics provides Prometheus instrumentation.
//
// The metrics package registers execution and artifact collectors on a
// dedicated registry and exposes them through an HTTP handler mounted at
// /metrics on the HTTP transports.
package metrics
