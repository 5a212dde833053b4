package observability

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_ObserveSubmit(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveSubmit("applied")
	m.ObserveSubmit("applied")
	m.ObserveSubmit("match_locked")

	if got := testutil.ToFloat64(m.submitOutcomes.WithLabelValues("applied")); got != 2 {
		t.Fatalf("expected 2 applied submissions, got %v", got)
	}
	if got := testutil.ToFloat64(m.submitOutcomes.WithLabelValues("match_locked")); got != 1 {
		t.Fatalf("expected 1 locked submission, got %v", got)
	}
}

func TestMetrics_ObserveHTTPRequest(t *testing.T) {
	m := NewMetrics(nil)

	m.ObserveHTTPRequest("GET", "GET /v1/matches", 200, 15*time.Millisecond)
	m.ObserveHTTPRequest("GET", "", 404, time.Millisecond)

	expected := `
# HELP fantasy_prediction_http_requests_total HTTP requests by method, route pattern and status code.
# TYPE fantasy_prediction_http_requests_total counter
fantasy_prediction_http_requests_total{code="200",method="GET",route="GET /v1/matches"} 1
fantasy_prediction_http_requests_total{code="404",method="GET",route="unmatched"} 1
`
	if err := testutil.CollectAndCompare(m.httpRequests, strings.NewReader(expected)); err != nil {
		t.Fatalf("unexpected request metrics: %v", err)
	}
}
