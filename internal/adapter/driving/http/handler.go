// Package httphandler provides the ambient HTTP surface: request logging and
// panic recovery middleware, the liveness endpoint and the metrics endpoint.
package httphandler

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes registers the liveness and metrics endpoints on mux. Both
// are on the gate's pass-through list, so they answer while setup is pending.
func RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", Health)
	mux.Handle("GET /metrics", promhttp.Handler())
}

// Health reports that the process is serving requests. It does not probe
// dependencies; the gate does that.
func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}
