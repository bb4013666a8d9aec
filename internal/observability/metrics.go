// Package observability exposes the Prometheus metrics recorded by the gate
// and the dependency probes.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ericfisherdev/kickstart/internal/domain/model"
)

// Gate decisions.
const (
	DecisionBypass   = "bypass"
	DecisionForward  = "forward"
	DecisionBlocked  = "blocked"
	DecisionRedirect = "redirect"
	DecisionSetup    = "setup"
	DecisionSubmit   = "submit"
)

var (
	gateDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kickstart_gate_decisions_total",
		Help: "Requests handled by the environment gate, by decision",
	}, []string{"decision"})

	probeStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "kickstart_probe_status",
		Help: "Result of the last probe run: 1 passing, 0 failing",
	}, []string{"probe"})

	probeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kickstart_probe_duration_seconds",
		Help:    "Duration of dependency probes",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
	}, []string{"probe"})

	setupSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kickstart_setup_submissions_total",
		Help: "Setup form submissions, by outcome",
	}, []string{"outcome"})
)

// RecordGateDecision counts one gate decision.
func RecordGateDecision(decision string) {
	gateDecisions.WithLabelValues(decision).Inc()
}

// ObserveProbe records a probe result. Its signature matches
// application.ProbeObserver.
func ObserveProbe(result model.DependencyCheckResult, elapsed time.Duration) {
	status := 0.0
	if result.Status {
		status = 1
	}
	probeStatus.WithLabelValues(result.Name).Set(status)
	probeDuration.WithLabelValues(result.Name).Observe(elapsed.Seconds())
}

// RecordSubmission counts one setup submission outcome.
func RecordSubmission(outcome string) {
	setupSubmissions.WithLabelValues(outcome).Inc()
}
