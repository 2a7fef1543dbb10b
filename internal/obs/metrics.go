// Package obs holds the Prometheus collectors of the service.
package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups every collector on a private registry.
type Metrics struct {
	SearchRequests      *prometheus.CounterVec
	CacheLookups        *prometheus.CounterVec
	SupplierErrors      *prometheus.CounterVec
	SupplierLatency     *prometheus.HistogramVec
	RateLimitDrops      prometheus.Counter
	HTTPRequestDuration *prometheus.HistogramVec
	Registry            *prometheus.Registry
}

// NewMetrics creates the collectors and registers them on a new registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		SearchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hotel_search_requests_total",
			Help: "Search pipeline runs by operation and outcome",
		}, []string{"operation", "outcome"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hotel_cache_lookups_total",
			Help: "Cache lookups by namespace and result (hit, miss, error)",
		}, []string{"namespace", "result"}),
		SupplierErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "supplier_errors_total",
			Help: "Failed supplier API calls by operation",
		}, []string{"operation"}),
		SupplierLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "supplier_request_duration_seconds",
			Help:    "Supplier API latency by operation",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		RateLimitDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "http_ratelimit_drops_total",
			Help: "Requests rejected by the rate limiter",
		}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		Registry: prometheus.NewRegistry(),
	}

	m.Registry.MustRegister(
		m.SearchRequests,
		m.CacheLookups,
		m.SupplierErrors,
		m.SupplierLatency,
		m.RateLimitDrops,
		m.HTTPRequestDuration,
	)
	return m
}

// ObserveSupplier records one supplier call.
func (m *Metrics) ObserveSupplier(op string, elapsed time.Duration, err error) {
	m.SupplierLatency.WithLabelValues(op).Observe(elapsed.Seconds())
	if err != nil {
		m.SupplierErrors.WithLabelValues(op).Inc()
	}
}

// ObserveCache records a cache lookup result.
func (m *Metrics) ObserveCache(namespace, result string) {
	m.CacheLookups.WithLabelValues(namespace, result).Inc()
}

// ObserveSearch records the outcome of one pipeline run.
func (m *Metrics) ObserveSearch(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.SearchRequests.WithLabelValues(operation, outcome).Inc()
}

// IncRateLimitDrops counts one rejected request.
func (m *Metrics) IncRateLimitDrops() {
	m.RateLimitDrops.Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Middleware times every request by its route template.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			m.HTTPRequestDuration.
				WithLabelValues(c.Request().Method, c.Path(), strconv.Itoa(status)).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}
