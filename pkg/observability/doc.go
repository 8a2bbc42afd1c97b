// Package observability provides structured logging, Prometheus metrics,
// health checks, and graceful shutdown for the billing service.
//
// # Structured Logging
//
// Create a logger:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("subscription_id", id).Info("order recorded")
//
// # Prometheus Metrics
//
// Initialize and use metrics:
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	metrics.OrdersCreatedTotal.WithLabelValues("PAID", "charge").Inc()
//
// # Health Checks
//
//	checker := observability.NewHealthChecker(db)
//	observability.RegisterHealthRoutes(mux, checker)
//
// # Related Packages
//
//   - pkg/config: observability configuration
//   - pkg/httputil: request logging middleware
package observability
