package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"salespulse/internal/infrastructure"
)

// OTelMiddleware opens a server span per request and feeds the HTTP
// instruments of BusinessMetrics.
type OTelMiddleware struct {
	tracer  trace.Tracer
	metrics *infrastructure.BusinessMetrics
	logger  *slog.Logger
}

func NewOTelMiddleware(providers *infrastructure.OTelProviders, metrics *infrastructure.BusinessMetrics) (*OTelMiddleware, error) {
	if providers == nil {
		return nil, errors.New("otel providers are required")
	}
	if metrics == nil {
		metrics = infrastructure.NoopBusinessMetrics()
	}
	return &OTelMiddleware{
		tracer:  providers.Tracer,
		metrics: metrics,
		logger:  infrastructure.WithComponent(providers.Logger, "otel"),
	}, nil
}

// startServerSpan continues any propagated trace and stores the span's
// trace id in the returned request so log lines and problem bodies match.
func startServerSpan(tracer trace.Tracer, r *http.Request, name string, attrs ...attribute.KeyValue) (*http.Request, trace.Span) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindServer), trace.WithAttributes(attrs...))
	if sc := span.SpanContext(); sc.IsValid() {
		ctx = infrastructure.WithTraceID(ctx, sc.TraceID().String())
	}
	return r.WithContext(ctx), span
}

func (m *OTelMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r, span := startServerSpan(m.tracer, r, r.Method+" "+r.URL.Path,
			semconv.HTTPRequestMethodKey.String(r.Method),
			semconv.URLPathKey.String(r.URL.Path),
			semconv.ServerAddressKey.String(r.Host),
			semconv.UserAgentOriginalKey.String(r.UserAgent()),
			semconv.HTTPRequestBodySizeKey.Int64(r.ContentLength),
			semconv.ClientAddressKey.String(GetRealIP(r)),
		)
		defer span.End()
		ctx := r.Context()

		m.metrics.HTTPActiveRequests.Add(ctx, 1)
		defer m.metrics.HTTPActiveRequests.Add(ctx, -1)

		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		elapsed := time.Since(start)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		// chi fills the pattern in while routing, so it is read afterwards
		route := routePattern(r)
		span.SetName(r.Method + " " + route)
		span.SetAttributes(
			semconv.HTTPRouteKey.String(route),
			semconv.HTTPResponseStatusCodeKey.Int(status),
			semconv.HTTPResponseBodySizeKey.Int(ww.BytesWritten()),
		)
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}

		labels := metric.WithAttributes(
			attribute.String("method", r.Method),
			attribute.String("route", route),
			attribute.Int("status_code", status),
		)
		m.metrics.HTTPRequestsTotal.Add(ctx, 1, labels)
		m.metrics.HTTPRequestDuration.Record(ctx, elapsed.Seconds(), labels)

		m.logger.DebugContext(ctx, "http request traced",
			slog.String("route", route),
			slog.Int("status_code", status),
			slog.Duration("duration", elapsed),
			slog.Int("bytes_written", ww.BytesWritten()),
		)
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

// WebSocketTraceMiddleware traces the upgrade of a live-progress
// connection. The span ends when the connection handler returns.
func WebSocketTraceMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	tracer := infrastructure.Tracer("websocket")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			r, span := startServerSpan(tracer, r, "websocket_upgrade",
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.HTTPRouteKey.String("/ws"),
				attribute.String("connection.type", "websocket"),
				attribute.String("origin", origin),
			)
			defer span.End()

			logger.InfoContext(r.Context(), "WebSocket upgrade attempt", slog.String("origin", origin))
			next.ServeHTTP(w, r)
		})
	}
}

// GetRealIP prefers the first X-Forwarded-For hop, then X-Real-IP, then
// the socket address.
func GetRealIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}
