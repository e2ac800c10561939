// Package metrics holds the Prometheus collectors of the storefront API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/storefront/pkg/retry"
)

const namespace = "storefront"

// Metrics owns a private registry so tests can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	dbRetries        *prometheus.CounterVec
	rateLimitRejects *prometheus.CounterVec
	csrfRejects      *prometheus.CounterVec
	notifications    *prometheus.CounterVec
	rfqSubmissions   prometheus.Counter
}

// New registers every collector plus the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		dbRetries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_retries_total",
			Help:      "Database operations retried, by operation and fault.",
		}, []string{"operation", "fault"}),
		rateLimitRejects: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_rejections_total",
			Help:      "Requests rejected by the rate limiter, by route class.",
		}, []string{"class"}),
		csrfRejects: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "csrf_rejections_total",
			Help:      "Requests rejected by CSRF validation, by reason.",
		}, []string{"reason"}),
		notifications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification emails by kind and result.",
		}, []string{"kind", "result"}),
		rfqSubmissions: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rfq_submissions_total",
			Help:      "RFQ orders created.",
		}),
	}
}

// ObserveHTTP implements middleware.HTTPObserver.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// OnRetry matches retry.WithOnRetry.
func (m *Metrics) OnRetry(operation string, _ int, fault retry.Fault, _ error) {
	m.dbRetries.WithLabelValues(operation, fault.String()).Inc()
}

func (m *Metrics) RateLimitRejected(class string) { m.rateLimitRejects.WithLabelValues(class).Inc() }
func (m *Metrics) CSRFRejected(reason string)     { m.csrfRejects.WithLabelValues(reason).Inc() }
func (m *Metrics) RFQSubmitted()                  { m.rfqSubmissions.Inc() }

// NotificationSent records a delivery attempt; err nil counts as success.
func (m *Metrics) NotificationSent(kind string, err error) {
	result := "sent"
	if err != nil {
		result = "failed"
	}
	m.notifications.WithLabelValues(kind, result).Inc()
}

// Registry exposes the registry, e.g. for testutil.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
