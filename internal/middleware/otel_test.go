package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"salespulse/internal/infrastructure"
	"salespulse/internal/shared/testutil"
)

func newRecordingOTel(t *testing.T) (*OTelMiddleware, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	m, err := NewOTelMiddleware(&infrastructure.OTelProviders{
		Tracer: tp.Tracer("test"),
		Logger: testutil.DiscardLogger(),
	}, nil)
	require.NoError(t, err)
	return m, recorder
}

func TestOTelMiddleware_NamesSpanByRoute(t *testing.T) {
	m, recorder := newRecordingOTel(t)

	var traceID string
	r := chi.NewRouter()
	r.Use(m.Handler)
	r.Get("/files/{name}", func(w http.ResponseWriter, r *http.Request) {
		traceID = infrastructure.GetTraceID(r.Context())
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/files/jan.csv", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "GET /files/{name}", spans[0].Name())
	assert.Equal(t, spans[0].SpanContext().TraceID().String(), traceID)
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}

func TestNewOTelMiddleware_RequiresProviders(t *testing.T) {
	_, err := NewOTelMiddleware(nil, nil)
	assert.Error(t, err)
}

func TestGetRealIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.9:5000"
	assert.Equal(t, "10.0.0.9:5000", GetRealIP(req))

	req.Header.Set("X-Real-IP", "192.0.2.7")
	assert.Equal(t, "192.0.2.7", GetRealIP(req))

	req.Header.Set("X-Forwarded-For", " 203.0.113.1 , 10.0.0.1")
	assert.Equal(t, "203.0.113.1", GetRealIP(req))
}
