// Package metrics defines the Prometheus metrics of the auth service.
//
// Every collector is registered on a private registry owned by Metrics, so
// tests can build as many instances as they like. A nil *Metrics is valid and
// records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bookstore_auth"

// Eviction reasons.
const (
	EvictExpired = "expired"
	EvictLogout  = "logout"
	EvictRevoked = "revoked"
	EvictSweep   = "sweep"
)

// Guard decisions.
const (
	DecisionAllowed         = "allowed"
	DecisionUnauthenticated = "unauthenticated"
	DecisionForbidden       = "forbidden"
)

type Metrics struct {
	Registry *prometheus.Registry

	// LoginsTotal counts login attempts by result.
	LoginsTotal *prometheus.CounterVec

	// SessionsIssuedTotal counts issued session tokens.
	SessionsIssuedTotal prometheus.Counter

	// SessionsEvictedTotal counts removed sessions by reason.
	SessionsEvictedTotal *prometheus.CounterVec

	// GuardDecisionsTotal counts authorization decisions.
	GuardDecisionsTotal *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "logins_total",
				Help:      "Total login attempts by result.",
			},
			[]string{"result"},
		),
		SessionsIssuedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_issued_total",
				Help:      "Total session tokens issued.",
			},
		),
		SessionsEvictedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_evicted_total",
				Help:      "Total sessions removed from the registry by reason.",
			},
			[]string{"reason"},
		),
		GuardDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "guard_decisions_total",
				Help:      "Total authorization decisions by outcome.",
			},
			[]string{"decision"},
		),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.LoginsTotal,
		m.SessionsIssuedTotal,
		m.SessionsEvictedTotal,
		m.GuardDecisionsTotal,
	)
	return m
}

// TrackActiveSessions exposes the current registry size as a gauge.
func (m *Metrics) TrackActiveSessions(count func() int) {
	if m == nil {
		return
	}
	m.Registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of sessions currently held in the registry.",
		},
		func() float64 { return float64(count()) },
	))
}

func (m *Metrics) RecordLogin(result string) {
	if m == nil {
		return
	}
	m.LoginsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordIssued() {
	if m == nil {
		return
	}
	m.SessionsIssuedTotal.Inc()
}

func (m *Metrics) RecordEvicted(reason string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SessionsEvictedTotal.WithLabelValues(reason).Add(float64(n))
}

func (m *Metrics) RecordDecision(decision string) {
	if m == nil {
		return
	}
	m.GuardDecisionsTotal.WithLabelValues(decision).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
