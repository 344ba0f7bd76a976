package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for conversation sessions.
type Metrics struct {
	SessionsCreated prometheus.Counter

	// Lookups that found the session past its window
	ExpiredLookups prometheus.Counter

	SessionsArchived prometheus.Counter
	SweepFailures    prometheus.Counter

	LanguageSwitches *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		SessionsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "schemeflow_sessions_created_total",
			Help: "Conversation sessions created",
		}),
		ExpiredLookups: promauto.NewCounter(prometheus.CounterOpts{
			Name: "schemeflow_session_expired_lookups_total",
			Help: "Session lookups rejected because the 24h window had closed",
		}),
		SessionsArchived: promauto.NewCounter(prometheus.CounterOpts{
			Name: "schemeflow_sessions_archived_total",
			Help: "Expired sessions moved to the archive by the sweeper",
		}),
		SweepFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "schemeflow_session_sweep_failures_total",
			Help: "Session sweeps that returned an error",
		}),
		LanguageSwitches: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "schemeflow_session_language_switches_total",
			Help: "Presentation language changes by target language",
		}, []string{"language"}),
	}
}

func (m *Metrics) IncrementCreated() {
	if m != nil {
		m.SessionsCreated.Inc()
	}
}

func (m *Metrics) IncrementExpiredLookup() {
	if m != nil {
		m.ExpiredLookups.Inc()
	}
}

func (m *Metrics) AddArchived(n int) {
	if m != nil {
		m.SessionsArchived.Add(float64(n))
	}
}

func (m *Metrics) IncrementSweepFailure() {
	if m != nil {
		m.SweepFailures.Inc()
	}
}

func (m *Metrics) IncrementLanguageSwitch(lang string) {
	if m != nil {
		m.LanguageSwitches.WithLabelValues(lang).Inc()
	}
}
