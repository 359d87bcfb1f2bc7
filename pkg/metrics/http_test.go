package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestObserveRequestRecordsLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	m.ObserveRequest("POST", "/api/v1/members/{memberId}/borrowed-books", 200, 25*time.Millisecond)
	m.ObserveRequest("POST", "/api/v1/members/{memberId}/borrowed-books", 403, 5*time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	var requests *dto.MetricFamily
	for _, fam := range families {
		if fam.GetName() == "http_requests_total" {
			requests = fam
		}
	}
	if requests == nil {
		t.Fatal("http_requests_total not registered")
	}
	if len(requests.GetMetric()) != 2 {
		t.Fatalf("expected 2 labelled series, got %d", len(requests.GetMetric()))
	}
	for _, metric := range requests.GetMetric() {
		if metric.GetCounter().GetValue() != 1 {
			t.Fatalf("expected each series counted once, got %v", metric.GetCounter().GetValue())
		}
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *HTTPMetrics
	m.ObserveRequest("GET", "/health/live", 200, time.Millisecond)

	empty := NewHTTPMetrics(nil)
	empty.ObserveRequest("GET", "/health/live", 200, time.Millisecond)
}

func TestNormalizeLabel(t *testing.T) {
	if got := normalizeLabel(""); got != "unknown" {
		t.Fatalf("empty route should normalize to unknown, got %q", got)
	}
	if got := normalizeLabel("/books"); got != "/books" {
		t.Fatalf("route should pass through, got %q", got)
	}
}
