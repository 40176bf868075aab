package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"securelink/internal/domain"
)

const namespace = "securelink"

// Handshake outcomes.
const (
	OutcomeEstablished = "established"
	OutcomeAborted     = "aborted"
	OutcomeRejected    = "rejected"
)

// Metrics groups the node's collectors.
type Metrics struct {
	HandshakeDuration *prometheus.HistogramVec
	Handshakes        *prometheus.CounterVec
	Rejections        *prometheus.CounterVec
	Sessions          *prometheus.GaugeVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HandshakeDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "handshake_duration_seconds",
				Help:      "Time from session creation to establishment.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"role"},
		),
		Handshakes: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "handshakes_total",
				Help:      "Finished handshakes by role and outcome.",
			},
			[]string{"role", "outcome"},
		),
		Rejections: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rejections_total",
				Help:      "Dropped inbound messages by rejection kind.",
			},
			[]string{"kind"},
		),
		Sessions: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sessions",
				Help:      "Sessions currently held, by state.",
			},
			[]string{"state"},
		),
	}
}

// Handshake records a finished handshake.
func (m *Metrics) Handshake(role domain.Role, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.Handshakes.WithLabelValues(role.String(), outcome).Inc()
	if outcome == OutcomeEstablished {
		m.HandshakeDuration.WithLabelValues(role.String()).Observe(took.Seconds())
	}
}

// Rejected counts a dropped message.
func (m *Metrics) Rejected(kind domain.EventKind) {
	if m == nil {
		return
	}
	m.Rejections.WithLabelValues(string(kind)).Inc()
}

var trackedStates = []domain.State{
	domain.StateAwaitingResponse,
	domain.StateAwaitingConfirm,
	domain.StateConfirming,
	domain.StateEstablished,
}

// SetSessions publishes per-state session counts.
func (m *Metrics) SetSessions(counts map[domain.State]int) {
	if m == nil {
		return
	}
	for _, st := range trackedStates {
		m.Sessions.WithLabelValues(st.String()).Set(float64(counts[st]))
	}
}
