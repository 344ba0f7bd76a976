package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for eligibility checks.
type Metrics struct {
	// Outcomes by scheme: eligible, ineligible, invalid_inputs
	CheckOutcome *prometheus.CounterVec

	// Criteria whose input could not be compared, by scheme and field
	MismatchedInputs *prometheus.CounterVec

	EvaluateLatency prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		CheckOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "schemeflow_eligibility_checks_total",
			Help: "Eligibility checks by scheme and outcome",
		}, []string{"scheme", "outcome"}),

		MismatchedInputs: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "schemeflow_eligibility_mismatched_inputs_total",
			Help: "Inputs whose type did not match the criterion operator",
		}, []string{"scheme", "field"}),

		EvaluateLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "schemeflow_eligibility_evaluate_duration_seconds",
			Help:    "Duration of eligibility checks including the catalog lookup",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		}),
	}
}

func (m *Metrics) IncrementOutcome(scheme, outcome string) {
	if m != nil {
		m.CheckOutcome.WithLabelValues(scheme, outcome).Inc()
	}
}

func (m *Metrics) IncrementMismatch(scheme, field string) {
	if m != nil {
		m.MismatchedInputs.WithLabelValues(scheme, field).Inc()
	}
}

func (m *Metrics) ObserveEvaluateLatency(d time.Duration) {
	if m != nil {
		m.EvaluateLatency.Observe(d.Seconds())
	}
}
