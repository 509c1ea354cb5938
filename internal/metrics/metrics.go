// Package metrics provides Prometheus collectors for the render and commit
// path. A nil *Engine is valid and records nothing.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "synthplane"

// Engine holds every engine collector.
type Engine struct {
	BlocksRendered    prometheus.Counter
	CommitDuration    prometheus.Histogram
	MutationsApplied  *prometheus.CounterVec
	MutationsRejected *prometheus.CounterVec
	EventsRecorded    *prometheus.CounterVec
	EventsDropped     prometheus.Counter
	HandlesLive       prometheus.Gauge
	HandlesReaped     prometheus.Counter
	RoutesActive      prometheus.Gauge
}

// NewEngine creates the collectors and registers them on reg.
func NewEngine(reg prometheus.Registerer) (*Engine, error) {
	m := &Engine{
		BlocksRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_rendered_total",
			Help:      "Total number of audio blocks rendered across all contexts",
		}),
		CommitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "commit_duration_seconds",
			Help:      "Time spent applying staged mutations at a block boundary",
			Buckets:   prometheus.ExponentialBuckets(0.000001, 4, 10),
		}),
		MutationsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_applied_total",
			Help:      "Staged mutations committed, by kind",
		}, []string{"kind"}),
		MutationsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_rejected_total",
			Help:      "Staged mutations discarded at commit, by kind",
		}, []string{"kind"}),
		EventsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_recorded_total",
			Help:      "Events appended to context event queues, by type",
		}, []string{"type"}),
		EventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Unread events evicted from full queues",
		}),
		HandlesLive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "handles_live",
			Help:      "Handles currently allocated, including doomed ones",
		}),
		HandlesReaped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handles_reaped_total",
			Help:      "Handles destroyed after deferred deletion",
		}),
		RoutesActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "routes_active",
			Help:      "Routing edges across all contexts",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.BlocksRendered, m.CommitDuration, m.MutationsApplied, m.MutationsRejected,
		m.EventsRecorded, m.EventsDropped, m.HandlesLive, m.HandlesReaped, m.RoutesActive,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register engine metrics: %w", err)
		}
	}
	return m, nil
}

// ObserveBlock records one rendered block and its commit time.
func (m *Engine) ObserveBlock(commit time.Duration) {
	if m == nil {
		return
	}
	m.BlocksRendered.Inc()
	m.CommitDuration.Observe(commit.Seconds())
}

// Applied counts a committed mutation.
func (m *Engine) Applied(kind string) {
	if m == nil {
		return
	}
	m.MutationsApplied.WithLabelValues(kind).Inc()
}

// Rejected counts a mutation discarded at commit.
func (m *Engine) Rejected(kind string) {
	if m == nil {
		return
	}
	m.MutationsRejected.WithLabelValues(kind).Inc()
}

// Event counts a recorded event; evicted reports that an older one was dropped.
func (m *Engine) Event(typ string, evicted bool) {
	if m == nil {
		return
	}
	m.EventsRecorded.WithLabelValues(typ).Inc()
	if evicted {
		m.EventsDropped.Inc()
	}
}

// Reaped counts destroyed handles.
func (m *Engine) Reaped(n int) {
	if m == nil || n == 0 {
		return
	}
	m.HandlesReaped.Add(float64(n))
}

// SetLive sets the live handle gauge.
func (m *Engine) SetLive(n int) {
	if m == nil {
		return
	}
	m.HandlesLive.Set(float64(n))
}

// AddRoutes moves the active route gauge by delta.
func (m *Engine) AddRoutes(delta int) {
	if m == nil || delta == 0 {
		return
	}
	m.RoutesActive.Add(float64(delta))
}
