package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks the analytics pipeline.
type Metrics struct {
	Published    *prometheus.CounterVec
	Dropped      prometheus.Counter
	SinkFailures prometheus.Counter

	// 1 while events are diverted away from the primary sink
	FallbackActive prometheus.Gauge
}

func New() *Metrics {
	return &Metrics{
		Published: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "schemeflow_analytics_events_published_total",
			Help: "Analytics events accepted into the buffer by type",
		}, []string{"type"}),
		Dropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "schemeflow_analytics_events_dropped_total",
			Help: "Analytics events dropped because the buffer was full or closed",
		}),
		SinkFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "schemeflow_analytics_sink_failures_total",
			Help: "Analytics events the sink failed to write",
		}),
		FallbackActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "schemeflow_analytics_fallback_active",
			Help: "Whether analytics events are being written to the fallback sink",
		}),
	}
}

func (m *Metrics) IncPublished(eventType string) {
	if m != nil {
		m.Published.WithLabelValues(eventType).Inc()
	}
}

func (m *Metrics) IncDropped() {
	if m != nil {
		m.Dropped.Inc()
	}
}

func (m *Metrics) IncSinkFailures() {
	if m != nil {
		m.SinkFailures.Inc()
	}
}

func (m *Metrics) SetFallbackActive(active bool) {
	if m == nil {
		return
	}
	if active {
		m.FallbackActive.Set(1)
		return
	}
	m.FallbackActive.Set(0)
}
