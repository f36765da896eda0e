package infrastructure

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespulse/internal/config"
	"salespulse/internal/shared/testutil"
)

func TestInitializeOTel_MetricsExposedOnPrometheusHandler(t *testing.T) {
	cfg := config.Default().Telemetry
	providers, err := InitializeOTel(cfg, testutil.DiscardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = providers.Shutdown(context.Background()) })
	require.NotNil(t, providers.PrometheusHTTP)

	metrics, err := CreateBusinessMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordFileOutcome(ctx, "parsed")
	metrics.RecordIngest(ctx, "txt", 12, 2, 1, 40*time.Millisecond)
	metrics.RecordStored(ctx, 10)
	metrics.RecordCacheLookup(ctx, false)
	metrics.RecordReport(ctx, time.Second, errors.New("chrome missing"))

	srv := httptest.NewServer(providers.PrometheusHTTP)
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, "files_uploaded_total")
	assert.Contains(t, text, "records_parsed_total")
	assert.Contains(t, text, `reason="date"`)
	assert.Contains(t, text, "report_renders_total")
	assert.Contains(t, text, "go_goroutines")
}

func TestInitializeOTel_Disabled(t *testing.T) {
	cfg := config.Default().Telemetry
	cfg.MetricsEnabled = false

	providers, err := InitializeOTel(cfg, testutil.DiscardLogger())
	require.NoError(t, err)
	assert.Nil(t, providers.PrometheusHTTP)
	assert.Nil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Meter)
	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestBusinessMetrics_NilSafe(t *testing.T) {
	var m *BusinessMetrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordFileOutcome(ctx, "duplicate")
		m.RecordIngest(ctx, "pdf", 1, 0, 0, time.Millisecond)
		m.RecordCacheLookup(ctx, true)
		m.RecordReport(ctx, time.Millisecond, nil)
		m.RecordWebSocketClients(ctx, 1)
	})
	assert.NotNil(t, NoopBusinessMetrics())
}

func TestTraceIDFromContext_NoSpan(t *testing.T) {
	assert.Empty(t, TraceIDFromContext(context.Background()))
	RecordError(context.Background(), errors.New("ignored"))
}
