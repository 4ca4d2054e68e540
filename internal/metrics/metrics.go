// Package metrics exposes the process's live session/tag/trace gauges
// as Prometheus collectors, following the pack's convention of a
// dedicated registry plus a promhttp handler rather than relying on the
// default global registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the process's gauges and counters. The shell updates
// LiveSessions, RateLimited and AttachFailure; LiveTags and TraceBytes
// are registered but nothing in this module sets them.
type Metrics struct {
	registry *prometheus.Registry

	LiveSessions  prometheus.Gauge
	LiveTags      prometheus.Gauge
	TraceBytes    prometheus.Gauge
	RateLimited   prometheus.Counter
	AttachFailure prometheus.Counter
}

// New constructs a Metrics with its own registry, so tests can spin up
// multiple instances without colliding on prometheus's default registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		LiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "coh",
			Subsystem: "session",
			Name:      "live_sessions",
			Help:      "Number of sessions currently attached or versioned.",
		}),
		LiveTags: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "coh",
			Subsystem: "session",
			Name:      "live_tags",
			Help:      "Number of tags currently reserved across all sessions.",
		}),
		TraceBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "coh",
			Subsystem: "trace",
			Name:      "buffered_bytes",
			Help:      "Bytes buffered in the in-memory trace recorder, pre-seal.",
		}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "coh",
			Subsystem: "console",
			Name:      "rate_limited_total",
			Help:      "Console verbs rejected by the rate limiter.",
		}),
		AttachFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "coh",
			Subsystem: "session",
			Name:      "attach_failures_total",
			Help:      "Failed attach attempts, across all roles.",
		}),
	}

	reg.MustRegister(m.LiveSessions, m.LiveTags, m.TraceBytes, m.RateLimited, m.AttachFailure)
	return m
}

// Handler returns the promhttp handler serving this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
