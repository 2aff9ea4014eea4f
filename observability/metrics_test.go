package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestModuleMetricsObserve(t *testing.T) {
	m := newModuleMetrics()
	m.Observe("generator", "query", 200, time.Millisecond)
	m.Observe("generator", "query", 404, time.Millisecond)
	m.RecordThrottle("", "")

	if got := testutil.ToFloat64(m.requests.WithLabelValues("generator", "query", "success")); got != 1 {
		t.Fatalf("expected 1 success, got %v", got)
	}
	if got := testutil.ToFloat64(m.errors.WithLabelValues("generator", "query", "404")); got != 1 {
		t.Fatalf("expected 1 error, got %v", got)
	}
	if got := testutil.ToFloat64(m.throttles.WithLabelValues("unknown", "unspecified")); got != 1 {
		t.Fatalf("expected 1 throttle, got %v", got)
	}
}
