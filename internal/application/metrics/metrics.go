package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the application flow.
type Metrics struct {
	// Transitions by kind: started, resumed, step_saved, submitted
	Transitions *prometheus.CounterVec

	SubmitLatency prometheus.Histogram

	// Tracking references that were already reserved and had to be regenerated
	TrackingCollisions prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "schemeflow_application_transitions_total",
			Help: "Application state transitions by kind and scheme",
		}, []string{"transition", "scheme"}),

		SubmitLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "schemeflow_application_submit_duration_seconds",
			Help:    "Duration of application submission including tracking reference reservation",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),

		TrackingCollisions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "schemeflow_tracking_reference_collisions_total",
			Help: "Generated tracking references rejected because they were already reserved",
		}),
	}
}

func (m *Metrics) IncrementTransition(transition, scheme string) {
	if m != nil {
		m.Transitions.WithLabelValues(transition, scheme).Inc()
	}
}

func (m *Metrics) ObserveSubmitLatency(d time.Duration) {
	if m != nil {
		m.SubmitLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementTrackingCollision() {
	if m != nil {
		m.TrackingCollisions.Inc()
	}
}
