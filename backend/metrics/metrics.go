// Package metrics holds the Prometheus collectors of the game server.
//
// Metrics:
//   - treasurehunt_http_request_duration_seconds{method,path,status}: histogram
//   - treasurehunt_http_requests_inflight: gauge
//   - treasurehunt_answers_total{phase,outcome}: counter
//   - treasurehunt_hints_total{phase}: counter
//   - treasurehunt_levels_completed_total, treasurehunt_games_completed_total: counters
//   - treasurehunt_storage_failures_total{backend,op}: counter
//   - treasurehunt_sessions_active: gauge
//
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "treasurehunt"

type Metrics struct {
	registry *prometheus.Registry

	reqDuration     *prometheus.HistogramVec
	reqInflight     prometheus.Gauge
	answers         *prometheus.CounterVec
	hints           *prometheus.CounterVec
	levelsCompleted prometheus.Counter
	gamesCompleted  prometheus.Counter
	storageFailures *prometheus.CounterVec
	sessions        prometheus.Gauge
}

// New builds the collectors on a private registry, so several servers (and
// tests) can coexist in one process.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		reqDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"method", "path", "status"}),
		reqInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_inflight",
			Help:      "HTTP requests currently being served.",
		}),
		answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_total",
			Help:      "Submitted answers and keys by phase and outcome.",
		}, []string{"phase", "outcome"}),
		hints: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hints_total",
			Help:      "Charged hint requests by phase.",
		}, []string{"phase"}),
		levelsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "levels_completed_total",
			Help:      "Levels unlocked with the security key.",
		}),
		gamesCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_completed_total",
			Help:      "Games played through the last level.",
		}),
		storageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_failures_total",
			Help:      "Failed progress storage calls by backend and operation.",
		}, []string{"backend", "op"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Live game sessions.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.reqDuration, m.reqInflight, m.answers, m.hints,
		m.levelsCompleted, m.gamesCompleted, m.storageFailures, m.sessions,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Gatherer exposes the registry for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

func (m *Metrics) RequestStarted() {
	if m == nil {
		return
	}
	m.reqInflight.Inc()
}

func (m *Metrics) RequestFinished(method, path, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.reqInflight.Dec()
	m.reqDuration.WithLabelValues(method, path, status).Observe(elapsed.Seconds())
}

func (m *Metrics) Answer(phase string, correct bool) {
	if m == nil {
		return
	}
	outcome := "wrong"
	if correct {
		outcome = "correct"
	}
	m.answers.WithLabelValues(phase, outcome).Inc()
}

func (m *Metrics) Hint(phase string) {
	if m == nil {
		return
	}
	m.hints.WithLabelValues(phase).Inc()
}

func (m *Metrics) LevelCompleted() {
	if m == nil {
		return
	}
	m.levelsCompleted.Inc()
}

func (m *Metrics) GameCompleted() {
	if m == nil {
		return
	}
	m.gamesCompleted.Inc()
}

func (m *Metrics) StorageFailure(backend, op string) {
	if m == nil {
		return
	}
	m.storageFailures.WithLabelValues(backend, op).Inc()
}

func (m *Metrics) SetSessions(n int) {
	if m == nil {
		return
	}
	m.sessions.Set(float64(n))
}
