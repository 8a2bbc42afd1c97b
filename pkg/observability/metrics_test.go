package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	if m == nil {
		t.Fatal("NewMetrics returned nil")
	}

	// Exercise each family once so Gather sees them.
	m.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/plans", "200").Inc()
	m.OrdersCreatedTotal.WithLabelValues("PAID", "charge").Inc()
	m.ActivationsOpenedTotal.Inc()
	m.UpgradesTotal.Inc()
	m.SweepRunsTotal.Inc()
	m.SweepExpirationsTotal.Add(2)
	m.SweepRenewalsTotal.Add(2)
	m.SweepDuration.Observe(0.05)

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}

	for _, want := range []string{
		"subledger_http_requests_total",
		"subledger_orders_created_total",
		"subledger_activations_opened_total",
		"subledger_upgrades_total",
		"subledger_sweep_runs_total",
		"subledger_sweep_expirations_total",
		"subledger_sweep_renewals_total",
		"subledger_sweep_duration_seconds",
	} {
		if !names[want] {
			t.Errorf("Expected metric family %s to be registered", want)
		}
	}
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	handler := HTTPMetricsMiddleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/plans", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", rec.Code)
	}

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	found := false
	for _, f := range families {
		if f.GetName() != "subledger_http_requests_total" {
			continue
		}
		for _, metric := range f.GetMetric() {
			labels := make(map[string]string)
			for _, l := range metric.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["method"] == "POST" && labels["path"] == "/api/v1/plans" && labels["status"] == "201" {
				found = true
				if metric.GetCounter().GetValue() != 1 {
					t.Errorf("Expected counter value 1, got %f", metric.GetCounter().GetValue())
				}
			}
		}
	}
	if !found {
		t.Error("Expected labeled request counter for POST /api/v1/plans 201")
	}
}

func TestRegisterMetricsEndpoint(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)
	m.SweepRunsTotal.Inc()

	mux := http.NewServeMux()
	RegisterMetricsEndpoint(mux, registry)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "subledger_sweep_runs_total") {
		t.Error("Expected /metrics output to contain subledger_sweep_runs_total")
	}
}
