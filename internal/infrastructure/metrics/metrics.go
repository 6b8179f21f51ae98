// Package metrics holds the Prometheus collectors of the roll-call service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "rollcall"

// Metrics groups the domain and HTTP collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	SessionsCreated     prometheus.Counter
	SessionsClosed      *prometheus.CounterVec
	TokensIssued        *prometheus.CounterVec
	Submissions         *prometheus.CounterVec
	RateLimitRejections *prometheus.CounterVec
	RateLimitErrors     *prometheus.CounterVec
	Exports             prometheus.Counter
	PurgeFailures       prometheus.Counter

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New registers every collector on reg. Passing a fresh registry per server
// (and per test) avoids duplicate registration panics.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		SessionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_created_total",
			Help:      "Sessions opened by organizers.",
		}),
		SessionsClosed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_closed_total",
			Help:      "Session close transitions by trigger.",
		}, []string{"trigger"}),
		TokensIssued: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_issued_total",
			Help:      "Attendance tokens minted by source.",
		}, []string{"source"}),
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attendance_submissions_total",
			Help:      "Attendance submissions by result.",
		}, []string{"result"}),
		RateLimitRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_rejections_total",
			Help:      "Requests rejected by a rate limiter.",
		}, []string{"purpose"}),
		RateLimitErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_errors_total",
			Help:      "Rate limit checks that failed and let the request through.",
		}, []string{"purpose"}),
		Exports: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Attendance exports served.",
		}),
		PurgeFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "purge_failures_total",
			Help:      "Post-export session deletions that failed.",
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method, route and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// NewRegistry returns a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func (m *Metrics) SessionCreated() {
	if m == nil {
		return
	}
	m.SessionsCreated.Inc()
}

func (m *Metrics) SessionClosed(trigger string) {
	if m == nil {
		return
	}
	m.SessionsClosed.WithLabelValues(trigger).Inc()
}

func (m *Metrics) TokenIssued(source string) {
	if m == nil {
		return
	}
	m.TokensIssued.WithLabelValues(source).Inc()
}

// Submission records the outcome of a submission; result is "ok" or a reason.
func (m *Metrics) Submission(result string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(result).Inc()
}

func (m *Metrics) RateLimited(purpose string) {
	if m == nil {
		return
	}
	m.RateLimitRejections.WithLabelValues(purpose).Inc()
}

func (m *Metrics) RateLimitFailed(purpose string) {
	if m == nil {
		return
	}
	m.RateLimitErrors.WithLabelValues(purpose).Inc()
}

func (m *Metrics) Exported() {
	if m == nil {
		return
	}
	m.Exports.Inc()
}

func (m *Metrics) PurgeFailed() {
	if m == nil {
		return
	}
	m.PurgeFailures.Inc()
}
