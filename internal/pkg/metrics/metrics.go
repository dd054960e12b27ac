package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yigit/schoolmanager/internal/pkg/apperrors"
)

// Metrics holds the Prometheus collectors for the record store and HTTP layer
type Metrics struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	durations  *prometheus.HistogramVec
	requests   *prometheus.CounterVec
	latency    *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "schoolmanager",
			Name:      "record_operations_total",
			Help:      "Record store operations by category, operation and result.",
		}, []string{"category", "operation", "result"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "schoolmanager",
			Name:      "record_operation_duration_seconds",
			Help:      "Record store operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"category", "operation"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "schoolmanager",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "schoolmanager",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	m.registry.MustRegister(
		m.operations,
		m.durations,
		m.requests,
		m.latency,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveOperation records a record store operation; result is "ok" or the error kind
func (m *Metrics) ObserveOperation(category, operation string, err error, duration time.Duration) {
	result := "ok"
	if err != nil {
		result = string(apperrors.KindOf(err))
		if result == "" {
			result = "error"
		}
	}
	m.operations.WithLabelValues(category, operation, result).Inc()
	m.durations.WithLabelValues(category, operation).Observe(duration.Seconds())
}

// Middleware counts requests per matched route
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.latency.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
