// Package server holds the state shared by the MCP tool handlers and the auxiliary HTTP
// endpoints of the mailmeet server.
//
// ServerContext creates Gmail and Calendar clients lazily per account from stored OAuth
// tokens and caches them. It also carries the configuration, the optional language model
// assistant and reply store, and the metrics and audit logging used by every tool.
//
// MetricsServer exposes Prometheus metrics and the HealthChecker probes on a separate
// port. InstrumentHandler wraps the streamable HTTP transport with tracing and request
// metrics.
package server
