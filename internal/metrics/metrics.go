// Package metrics exposes Prometheus instruments for session authentication.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Session outcomes
const (
	OutcomeReused   = "reused"
	OutcomeRefresh  = "refreshed"
	OutcomeAcquired = "acquired"
	OutcomeTimeout  = "timeout"
	OutcomeMismatch = "mismatch"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

type Metrics struct {
	registry         *prometheus.Registry
	sessionOutcomes  *prometheus.CounterVec
	exchangeDuration *prometheus.HistogramVec
	jwksFetches      *prometheus.CounterVec
}

// New creates the instruments and registers them on a dedicated registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		sessionOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_session_outcomes_total",
				Help: "Authenticated request outcomes by result",
			},
			[]string{"outcome"},
		),
		exchangeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "auth_token_exchange_duration_seconds",
				Help:    "Upstream token endpoint latency",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"kind", "result"},
		),
		jwksFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_jwks_fetches_total",
				Help: "Live JWKS fetches by result",
			},
			[]string{"result"},
		),
	}
	m.registry.MustRegister(m.sessionOutcomes, m.exchangeDuration, m.jwksFetches)
	return m
}

func (m *Metrics) SessionOutcome(outcome string) {
	if m == nil {
		return
	}
	m.sessionOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) TokenExchange(kind string, started time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.exchangeDuration.WithLabelValues(kind, result).Observe(time.Since(started).Seconds())
}

func (m *Metrics) JWKSFetch(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.jwksFetches.WithLabelValues(result).Inc()
}

// SessionOutcomes is exposed for assertions in tests.
func (m *Metrics) SessionOutcomes() *prometheus.CounterVec {
	return m.sessionOutcomes
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// JWKSFetches is exposed for assertions in tests.
func (m *Metrics) JWKSFetches() *prometheus.CounterVec {
	return m.jwksFetches
}
