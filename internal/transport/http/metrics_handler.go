package http

import (
	"net/http"

	apierrors "salespulse/internal/errors"
)

// MetricsHandler exposes the Prometheus scrape endpoint. When metrics are
// disabled it answers 503 so scrapers see a clear failure.
type MetricsHandler struct {
	prometheus   http.Handler
	errorHandler *apierrors.ErrorHandler
}

// NewMetricsHandler creates a new metrics handler. prometheus may be nil.
func NewMetricsHandler(prometheus http.Handler, errorHandler *apierrors.ErrorHandler) *MetricsHandler {
	return &MetricsHandler{prometheus: prometheus, errorHandler: errorHandler}
}

// ServeHTTP handles GET /metrics
func (h *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.prometheus == nil {
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Metrics are disabled", "telemetry.metrics_enabled is false"))
		return
	}
	h.prometheus.ServeHTTP(w, r)
}
