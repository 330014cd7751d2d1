// Package metrics provides Prometheus metrics for the command console.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the console.
type Metrics struct {
	SubmissionsTotal *prometheus.CounterVec
	PollsTotal       *prometheus.CounterVec
	PollDuration     prometheus.Histogram
	TransitionsTotal *prometheus.CounterVec
	ApprovalsTotal   *prometheus.CounterVec
	ErrorsTotal      *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates and registers all metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		SubmissionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_command_submissions_total",
				Help: "Command submissions by accepted status.",
			},
			[]string{"status"},
		),
		PollsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_poll_ticks_total",
				Help: "Poll ticks by result (applied, unchanged, stale, error).",
			},
			[]string{"result"},
		),
		PollDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "console_poll_duration_seconds",
				Help:    "Duration of a single command poll fetch.",
				Buckets: prometheus.DefBuckets,
			},
		),
		TransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_command_transitions_total",
				Help: "Observed command status transitions by new status.",
			},
			[]string{"status"},
		),
		ApprovalsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_approvals_total",
				Help: "Approval attempts by result.",
			},
			[]string{"result"},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_errors_total",
				Help: "Errors by component and type.",
			},
			[]string{"component", "type"},
		),
		registry: reg,
	}

	reg.MustRegister(m.SubmissionsTotal)
	reg.MustRegister(m.PollsTotal)
	reg.MustRegister(m.PollDuration)
	reg.MustRegister(m.TransitionsTotal)
	reg.MustRegister(m.ApprovalsTotal)
	reg.MustRegister(m.ErrorsTotal)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObservePoll records one poll fetch outcome and its duration.
func (m *Metrics) ObservePoll(result string, elapsed time.Duration) {
	m.PollsTotal.WithLabelValues(result).Inc()
	m.PollDuration.Observe(elapsed.Seconds())
}

// RecordError increments the error counter.
func (m *Metrics) RecordError(component, errType string) {
	m.ErrorsTotal.WithLabelValues(component, errType).Inc()
}
