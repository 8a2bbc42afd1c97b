package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Order metrics
	OrdersCreatedTotal *prometheus.CounterVec

	// Subscription metrics
	ActivationsOpenedTotal prometheus.Counter
	UpgradesTotal          prometheus.Counter

	// Sweep metrics
	SweepRunsTotal        prometheus.Counter
	SweepExpirationsTotal prometheus.Counter
	SweepRenewalsTotal    prometheus.Counter
	SweepDuration         prometheus.Histogram

	// Database metrics
	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "subledger_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "subledger_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		OrdersCreatedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "subledger_orders_created_total",
				Help: "Total number of orders created",
			},
			[]string{"status", "source"},
		),

		ActivationsOpenedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "subledger_activations_opened_total",
				Help: "Total number of subscription activations opened",
			},
		),
		UpgradesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "subledger_upgrades_total",
				Help: "Total number of subscription upgrades",
			},
		),

		SweepRunsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "subledger_sweep_runs_total",
				Help: "Total number of expiry sweep runs",
			},
		),
		SweepExpirationsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "subledger_sweep_expirations_total",
				Help: "Total number of subscriptions expired by the sweeper",
			},
		),
		SweepRenewalsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "subledger_sweep_renewals_total",
				Help: "Total number of renewal orders issued by the sweeper",
			},
		),
		SweepDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "subledger_sweep_duration_seconds",
				Help:    "Expiry sweep duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),

		DBConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "subledger_db_connections_active",
				Help: "Number of active database connections",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "subledger_db_connections_idle",
				Help: "Number of idle database connections",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.OrdersCreatedTotal,
		m.ActivationsOpenedTotal,
		m.UpgradesTotal,
		m.SweepRunsTotal,
		m.SweepExpirationsTotal,
		m.SweepRenewalsTotal,
		m.SweepDuration,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
	)

	return m
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rw.statusCode)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
		})
	}
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(mux *http.ServeMux, registry *prometheus.Registry) {
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
