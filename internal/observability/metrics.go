package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonathan/resume-screener/internal/types"
)

const namespace = "screener"

// Metrics records match session outcomes in a dedicated Prometheus registry
type Metrics struct {
	registry *prometheus.Registry

	sessionsStarted  prometheus.Counter
	sessionsFinished *prometheus.CounterVec
	activeSessions   prometheus.Gauge
	sessionDuration  *prometheus.HistogramVec
	candidatesScored prometheus.Counter
	candidatesFailed prometheus.Counter
	candidateLatency prometheus.Histogram
	httpRequests     *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them, along with Go runtime collectors
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		sessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Match sessions that entered processing.",
		}),
		sessionsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_finished_total",
			Help:      "Match sessions that reached a terminal state.",
		}, []string{"status"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Match sessions currently processing.",
		}),
		sessionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Wall time from session start to its terminal state.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"status"}),
		candidatesScored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_scored_total",
			Help:      "Candidates scored successfully.",
		}),
		candidatesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_failed_total",
			Help:      "Candidates skipped because scoring failed.",
		}),
		candidateLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "candidate_score_seconds",
			Help:      "Time spent scoring one candidate.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
	}

	m.registry.MustRegister(
		m.sessionsStarted,
		m.sessionsFinished,
		m.activeSessions,
		m.sessionDuration,
		m.candidatesScored,
		m.candidatesFailed,
		m.candidateLatency,
		m.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// SessionStarted counts a session entering processing
func (m *Metrics) SessionStarted() {
	m.sessionsStarted.Inc()
	m.activeSessions.Inc()
}

// SessionFinished records the terminal status and duration of a session
func (m *Metrics) SessionFinished(status types.SessionStatus, elapsed time.Duration) {
	m.activeSessions.Dec()
	m.sessionsFinished.WithLabelValues(string(status)).Inc()
	m.sessionDuration.WithLabelValues(string(status)).Observe(elapsed.Seconds())
}

// CandidateScored records one successfully scored candidate
func (m *Metrics) CandidateScored(elapsed time.Duration) {
	m.candidatesScored.Inc()
	m.candidateLatency.Observe(elapsed.Seconds())
}

// CandidateFailed counts one skipped candidate
func (m *Metrics) CandidateFailed() {
	m.candidatesFailed.Inc()
}

// ObserveRequest counts an HTTP request by route pattern and status code
func (m *Metrics) ObserveRequest(route string, code int) {
	m.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
