// Package instrumentation provides OpenTelemetry instrumentation for todoist-daily.
//
// # Metrics
//
// Server/HTTP Metrics:
//   - http_requests_total: Counter of HTTP requests by method, route and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//   - http_requests_in_flight: Gauge of requests currently being served
//
// Todoist API Metrics:
//   - todoist_api_operations_total: Counter of Todoist calls by api, operation, status
//   - todoist_api_operation_duration_seconds: Histogram of Todoist call durations
//
// OAuth Metrics:
//   - oauth_auth_total: Counter of OAuth callback outcomes by result
//
// Report Metrics:
//   - daily_report_builds_total: Counter of report builds by status
//   - daily_report_build_duration_seconds: Histogram of report build durations
//   - daily_report_tasks: Histogram of tasks per list
//
// # Tracing
//
// Spans are created for report builds (daily.build), parent resolution and
// every Todoist call (todoist.<api>.<operation>).
//
// # Configuration
//
// Instrumentation is configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp, stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout, none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_EXPORTER_OTLP_INSECURE: plain HTTP for OTLP (default: false)
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: todoist-daily)
//   - METRICS_DETAILED_LABELS: add the project label to API metrics (default: false)
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	provider.Metrics().RecordAPIOperation(ctx, instrumentation.APIRest, "projects",
//		instrumentation.StatusSuccess, "", time.Since(start))
package instrumentation
