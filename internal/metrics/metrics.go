// Package metrics exposes Prometheus collectors for game and persistence
// events. Collectors live in a private registry served at /metrics.
//
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wordle_corner"

// Metrics holds the server's collectors.
type Metrics struct {
	registry *prometheus.Registry

	gamesStarted    *prometheus.CounterVec
	gamesFinished   *prometheus.CounterVec
	guesses         *prometheus.CounterVec
	persistFailures *prometheus.CounterVec
	persistFatal    *prometheus.CounterVec
}

// New registers all collectors, plus the Go runtime and process collectors,
// in a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		gamesStarted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_started_total",
			Help:      "Games started, by difficulty.",
		}, []string{"difficulty"}),
		gamesFinished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_finished_total",
			Help:      "Games that reached a terminal state, by difficulty and status.",
		}, []string{"difficulty", "status"}),
		guesses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guesses_total",
			Help:      "Guess submissions, by outcome (accepted or the rejection reason).",
		}, []string{"outcome"}),
		persistFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_failures_total",
			Help:      "Document flushes that failed after all retries, by record.",
		}, []string{"record"}),
		persistFatal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_fatal_total",
			Help:      "Times a record crossed the consecutive-failure threshold.",
		}, []string{"record"}),
	}
}

func (m *Metrics) GameStarted(difficulty string) {
	if m == nil {
		return
	}
	m.gamesStarted.WithLabelValues(difficulty).Inc()
}

func (m *Metrics) GameFinished(difficulty, status string) {
	if m == nil {
		return
	}
	m.gamesFinished.WithLabelValues(difficulty, status).Inc()
}

// Guess counts one submission; outcome is "accepted" or a rejection reason.
func (m *Metrics) Guess(outcome string) {
	if m == nil {
		return
	}
	m.guesses.WithLabelValues(outcome).Inc()
}

func (m *Metrics) PersistFailed(record string) {
	if m == nil {
		return
	}
	m.persistFailures.WithLabelValues(record).Inc()
}

func (m *Metrics) PersistFatal(record string) {
	if m == nil {
		return
	}
	m.persistFatal.WithLabelValues(record).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Gatherer exposes the registry for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer { return m.registry }
