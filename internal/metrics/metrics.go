// Package metrics holds the prometheus collectors shared by the dispatcher,
// the model client and the shell executor.
//
// A nil *Metrics is valid and records nothing, so components can be built
// without instrumentation.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "shellmind"

// Metrics groups all collectors registered by shellmind.
type Metrics struct {
	registry *prometheus.Registry

	commands         *prometheus.CounterVec
	fastPath         prometheus.Counter
	generateDuration *prometheus.HistogramVec
	fallbacks        *prometheus.CounterVec
	shellDuration    prometheus.Histogram
	shellTimeouts    prometheus.Counter
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commands_total",
				Help:      "Commands processed by the dispatcher",
			},
			[]string{"action", "status"},
		),
		fastPath: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fast_path_total",
			Help:      "Commands routed straight to the shell without calling the model",
		}),
		generateDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "generate_duration_seconds",
				Help:      "Duration of model generation calls",
				Buckets:   []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"backend", "outcome"},
		),
		fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "endpoint_fallbacks_total",
				Help:      "Attempts that failed and fell through to the next endpoint",
			},
			[]string{"attempt"},
		),
		shellDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "shell_duration_seconds",
			Help:      "Wall-clock duration of shell executions",
			Buckets:   prometheus.DefBuckets,
		}),
		shellTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shell_timeouts_total",
			Help:      "Shell executions killed after exceeding the timeout",
		}),
	}

	m.registry.MustRegister(
		m.commands,
		m.fastPath,
		m.generateDuration,
		m.fallbacks,
		m.shellDuration,
		m.shellTimeouts,
	)
	return m
}

// Registry exposes the registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) CommandProcessed(action, status string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(action, status).Inc()
}

func (m *Metrics) FastPath() {
	if m == nil {
		return
	}
	m.fastPath.Inc()
}

func (m *Metrics) Generated(backend, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.generateDuration.WithLabelValues(backend, outcome).Observe(elapsed.Seconds())
}

func (m *Metrics) FellBack(attempt string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(attempt).Inc()
}

func (m *Metrics) ShellExecuted(elapsed time.Duration, timedOut bool) {
	if m == nil {
		return
	}
	m.shellDuration.Observe(elapsed.Seconds())
	if timedOut {
		m.shellTimeouts.Inc()
	}
}
