// Package instrumentation provides OpenTelemetry metrics, tracing and audit
// logging for mailmeet.
//
// # Metrics
//
//   - http_requests_total, http_request_duration_seconds: streamable HTTP transport
//   - google_api_operations_total, google_api_operation_duration_seconds: Gmail,
//     Calendar and Gemini calls by service, operation and status
//   - mcp_tool_invocations_total, mcp_tool_duration_seconds: MCP tools by name and status
//   - meeting_intent_decisions_total: meeting request decisions by source and result
//   - meeting_slots_suggested: number of slots returned per suggestion
//   - mail_threads_processed_total: threads inspected by the watch command
//
// With the Prometheus exporter the provider owns a dedicated registry that also
// carries Go runtime and process collectors; MetricsHandler serves it.
//
// # Tracing
//
// Spans are named tool.<name> for MCP tools and google.<service>.<operation>
// for API calls. Tracing is off unless TRACING_EXPORTER is otlp or stdout.
//
// # Configuration
//
// DefaultConfig reads INSTRUMENTATION_ENABLED, METRICS_EXPORTER,
// TRACING_EXPORTER, OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_TRACES_SAMPLER_ARG,
// OTEL_SERVICE_NAME, METRICS_DETAILED_LABELS, AUDIT_LOGGING_ENABLED and
// AUDIT_LOGGING_INCLUDE_PII.
package instrumentation
