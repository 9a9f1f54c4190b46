// Package observability provides metrics and tracing setup.
package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "libcommon"

// Metrics holds the instruments recorded by the shared middleware, the
// error handler and the SQL listener. A nil *Metrics records nothing.
type Metrics struct {
	// HTTP metrics (Latency, Traffic, Errors)
	HTTPRequestDuration metric.Float64Histogram
	HTTPRequestsTotal   metric.Int64Counter
	HTTPErrorsTotal     metric.Int64Counter
	HTTPInFlight        metric.Int64UpDownCounter

	// Normalized error responses by status and code
	ErrorResponsesTotal metric.Int64Counter

	// SQL metrics
	SQLDuration    metric.Float64Histogram
	SQLTotal       metric.Int64Counter
	SQLErrorsTotal metric.Int64Counter
}

// NewMetrics creates and registers all metrics with a Prometheus exporter.
func NewMetrics(ctx context.Context) (*Metrics, http.Handler, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, err
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	m, err := newMetrics(provider.Meter(meterName))
	if err != nil {
		return nil, nil, err
	}
	return m, promhttp.Handler(), nil
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request latency in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return nil, err
	}

	m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	m.HTTPErrorsTotal, err = meter.Int64Counter(
		"http_errors_total",
		metric.WithDescription("Total number of HTTP errors (4xx and 5xx)"),
	)
	if err != nil {
		return nil, err
	}

	m.HTTPInFlight, err = meter.Int64UpDownCounter(
		"http_requests_in_flight",
		metric.WithDescription("Number of requests currently being served (saturation)"),
	)
	if err != nil {
		return nil, err
	}

	m.ErrorResponsesTotal, err = meter.Int64Counter(
		"error_responses_total",
		metric.WithDescription("Total number of normalized error responses by status and code"),
	)
	if err != nil {
		return nil, err
	}

	m.SQLDuration, err = meter.Float64Histogram(
		"sql_statement_duration_seconds",
		metric.WithDescription("SQL statement latency in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5),
	)
	if err != nil {
		return nil, err
	}

	m.SQLTotal, err = meter.Int64Counter(
		"sql_statements_total",
		metric.WithDescription("Total number of executed SQL statements"),
	)
	if err != nil {
		return nil, err
	}

	m.SQLErrorsTotal, err = meter.Int64Counter(
		"sql_errors_total",
		metric.WithDescription("Total number of failed SQL statements"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request with its duration and status.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, durationSeconds float64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		methodAttr(method),
		pathAttr(path),
		statusAttr(statusCode),
	)

	m.HTTPRequestDuration.Record(ctx, durationSeconds, attrs)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)

	if statusCode >= 400 {
		m.HTTPErrorsTotal.Add(ctx, 1, attrs)
	}
}

// RecordInFlight adjusts the in-flight request gauge by delta.
func (m *Metrics) RecordInFlight(ctx context.Context, delta int64) {
	if m == nil {
		return
	}
	m.HTTPInFlight.Add(ctx, delta)
}

// RecordErrorResponse records a normalized error response.
func (m *Metrics) RecordErrorResponse(ctx context.Context, status int, code string) {
	if m == nil {
		return
	}
	m.ErrorResponsesTotal.Add(ctx, 1, metric.WithAttributes(exactStatusAttr(status), codeAttr(code)))
}

// RecordSQLStatement records one executed statement.
func (m *Metrics) RecordSQLStatement(ctx context.Context, sql string, success bool, durationSeconds float64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(operationAttr(StatementOperation(sql)), successAttr(success))
	m.SQLDuration.Record(ctx, durationSeconds, attrs)
	m.SQLTotal.Add(ctx, 1, attrs)

	if !success {
		m.SQLErrorsTotal.Add(ctx, 1, attrs)
	}
}
