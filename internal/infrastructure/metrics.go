package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// BusinessMetrics holds the application instruments. A nil *BusinessMetrics
// is valid and records nothing.
type BusinessMetrics struct {
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	FilesUploaded  metric.Int64Counter
	RecordsParsed  metric.Int64Counter
	RecordsStored  metric.Int64Counter
	RowsDropped    metric.Int64Counter
	IngestDuration metric.Float64Histogram

	DashboardCache   metric.Int64Counter
	DashboardCompute metric.Float64Histogram

	ReportRenders  metric.Int64Counter
	ReportDuration metric.Float64Histogram

	WebSocketClients metric.Int64UpDownCounter
}

// CreateBusinessMetrics registers every instrument on meter.
func CreateBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	m := &BusinessMetrics{}
	var err error

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.HTTPRequestsTotal, "http_requests_total", "Total number of HTTP requests"},
		{&m.FilesUploaded, "files_uploaded_total", "Uploaded files by outcome"},
		{&m.RecordsParsed, "records_parsed_total", "Canonical records produced by format"},
		{&m.RecordsStored, "records_stored_total", "Records inserted into storage"},
		{&m.RowsDropped, "rows_dropped_total", "Rows dropped during normalization by reason"},
		{&m.DashboardCache, "dashboard_cache_requests_total", "Dashboard cache lookups by result"},
		{&m.ReportRenders, "report_renders_total", "PDF report renders by status"},
	}
	for _, c := range counters {
		if *c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc)); err != nil {
			return nil, err
		}
	}

	histograms := []struct {
		dst  *metric.Float64Histogram
		name string
		desc string
	}{
		{&m.HTTPRequestDuration, "http_request_duration_seconds", "HTTP request duration in seconds"},
		{&m.IngestDuration, "ingest_duration_seconds", "Time to detect, extract and normalize one file"},
		{&m.DashboardCompute, "dashboard_compute_duration_seconds", "Time to compute the dashboard"},
		{&m.ReportDuration, "report_render_duration_seconds", "Time to render a PDF report"},
	}
	for _, h := range histograms {
		if *h.dst, err = meter.Float64Histogram(h.name, metric.WithDescription(h.desc), metric.WithUnit("s")); err != nil {
			return nil, err
		}
	}

	if m.HTTPActiveRequests, err = meter.Int64UpDownCounter("http_active_requests",
		metric.WithDescription("Number of active HTTP requests")); err != nil {
		return nil, err
	}
	if m.WebSocketClients, err = meter.Int64UpDownCounter("websocket_clients",
		metric.WithDescription("Connected dashboard websocket clients")); err != nil {
		return nil, err
	}
	return m, nil
}

// NoopBusinessMetrics returns instruments that discard everything.
func NoopBusinessMetrics() *BusinessMetrics {
	m, _ := CreateBusinessMetrics(noop.NewMeterProvider().Meter(InstrumentationName))
	return m
}

// RecordFileOutcome counts one uploaded file by its final status.
func (m *BusinessMetrics) RecordFileOutcome(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.FilesUploaded.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordIngest records one pipeline run.
func (m *BusinessMetrics) RecordIngest(ctx context.Context, format string, parsed, droppedDate, droppedInvalid int, elapsed time.Duration) {
	if m == nil {
		return
	}
	f := attribute.String("format", format)
	m.RecordsParsed.Add(ctx, int64(parsed), metric.WithAttributes(f))
	if droppedDate > 0 {
		m.RowsDropped.Add(ctx, int64(droppedDate), metric.WithAttributes(f, attribute.String("reason", "date")))
	}
	if droppedInvalid > 0 {
		m.RowsDropped.Add(ctx, int64(droppedInvalid), metric.WithAttributes(f, attribute.String("reason", "invalid")))
	}
	m.IngestDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(f))
}

// RecordStored counts rows actually inserted.
func (m *BusinessMetrics) RecordStored(ctx context.Context, n int) {
	if m == nil || n == 0 {
		return
	}
	m.RecordsStored.Add(ctx, int64(n))
}

// RecordCacheLookup counts a dashboard cache hit or miss.
func (m *BusinessMetrics) RecordCacheLookup(ctx context.Context, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.DashboardCache.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// RecordDashboardCompute records how long one dashboard computation took.
func (m *BusinessMetrics) RecordDashboardCompute(ctx context.Context, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.DashboardCompute.Record(ctx, elapsed.Seconds())
}

// RecordReport records one PDF render attempt.
func (m *BusinessMetrics) RecordReport(ctx context.Context, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	status := attribute.String("status", "success")
	if err != nil {
		status = attribute.String("status", "failure")
	}
	m.ReportRenders.Add(ctx, 1, metric.WithAttributes(status))
	m.ReportDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(status))
}

// RecordWebSocketClients adjusts the connected client gauge.
func (m *BusinessMetrics) RecordWebSocketClients(ctx context.Context, delta int64) {
	if m == nil {
		return
	}
	m.WebSocketClients.Add(ctx, delta)
}
