package dfu

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the orchestrator's prometheus collectors.
// A nil *Metrics records nothing.
type Metrics struct {
	SessionsStarted  prometheus.Counter
	Outcomes         *prometheus.CounterVec
	ResourceRequests prometheus.Counter
	ResourceUploads  prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg, if not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dfu_sessions_started_total",
			Help: "Number of upgrade sessions loaded",
		}),
		Outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dfu_session_outcomes_total",
			Help: "Number of upgrade sessions by terminal outcome",
		}, []string{"outcome"}),
		ResourceRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dfu_resource_requests_total",
			Help: "Number of resources requested by the engine",
		}),
		ResourceUploads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dfu_resource_uploads_total",
			Help: "Number of resources uploaded by the caller",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.SessionsStarted, m.Outcomes, m.ResourceRequests, m.ResourceUploads)
	}
	return m
}

func (m *Metrics) sessionStarted() {
	if m != nil {
		m.SessionsStarted.Inc()
	}
}

func (m *Metrics) sessionEnded(s State) {
	if m != nil {
		m.Outcomes.WithLabelValues(string(s)).Inc()
	}
}

func (m *Metrics) resourceRequested() {
	if m != nil {
		m.ResourceRequests.Inc()
	}
}

func (m *Metrics) resourceUploaded() {
	if m != nil {
		m.ResourceUploads.Inc()
	}
}
