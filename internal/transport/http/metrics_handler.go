package http

import (
	"net/http"
)

// MetricsHandler exposes the Prometheus registry
type MetricsHandler struct {
	prometheus http.Handler
}

// NewMetricsHandler wraps the promhttp handler of the telemetry providers
func NewMetricsHandler(prometheus http.Handler) *MetricsHandler {
	return &MetricsHandler{prometheus: prometheus}
}

// ServeHTTP handles GET /metrics
func (h *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.prometheus == nil {
		http.Error(w, "metrics disabled", http.StatusNotFound)
		return
	}
	h.prometheus.ServeHTTP(w, r)
}
