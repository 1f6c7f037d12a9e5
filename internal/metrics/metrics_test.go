package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()
	m.Request("spotify", "ok")
	m.Request("spotify", "ok")
	m.Retry("spotify", "rate_limited")
	m.TokenRefresh()
	m.Item("enrich", "not_found")

	if got := testutil.ToFloat64(m.requests.WithLabelValues("spotify", "ok")); got != 2 {
		t.Errorf("requests = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.retries.WithLabelValues("spotify", "rate_limited")); got != 1 {
		t.Errorf("retries = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.tokenRefresh); got != 1 {
		t.Errorf("token refreshes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.items.WithLabelValues("enrich", "not_found")); got != 1 {
		t.Errorf("items = %v, want 1", got)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.Request("x", "y")
	m.Retry("x", "y")
	m.TokenRefresh()
	m.Item("x", "y")
	m.StageDone("x", 1)
	m.SinkDocuments(3)
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.SinkDocuments(42)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "lyrics_harvester_sink_documents 42") {
		t.Errorf("metrics output missing gauge:\n%s", body)
	}
}
