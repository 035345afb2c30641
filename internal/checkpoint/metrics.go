package checkpoint

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the run counters of a Runner.
type Metrics struct {
	runs               *prometheus.CounterVec
	validationDuration *prometheus.HistogramVec
	actionFailures     *prometheus.CounterVec
}

// NewMetrics registers the run metrics on reg. A nil reg gets a private
// registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Metrics{
		runs: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gx_checkpoint_runs_total",
				Help: "Checkpoint runs by checkpoint name and status",
			},
			[]string{"checkpoint", "status"},
		),
		validationDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gx_validation_duration_seconds",
				Help:    "Duration of suite validations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"suite"},
		),
		actionFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gx_action_failures_total",
				Help: "Failed actions by action name",
			},
			[]string{"action"},
		),
	}
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

func (m *Metrics) recordRun(checkpoint string, success bool) {
	m.runs.WithLabelValues(checkpoint, status(success)).Inc()
}

func (m *Metrics) recordValidation(suite string, seconds float64) {
	m.validationDuration.WithLabelValues(suite).Observe(seconds)
}

func (m *Metrics) recordActionFailure(action string) {
	m.actionFailures.WithLabelValues(action).Inc()
}
