package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ContentFlow/internal/model"
)

func TestNew_Handler(t *testing.T) {
	m := New()
	m.ObserveRequest(http.MethodGet, "/api/content", http.StatusOK, 10*time.Millisecond)
	m.Submitted()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	body := rec.Body.String()
	for _, name := range []string{
		"http_requests_total",
		"http_request_duration_seconds",
		"contentflow_submissions_total",
		"go_goroutines",
	} {
		if !strings.Contains(body, name) {
			t.Errorf("metric %q missing", name)
		}
	}
}

// counterValue 从 registry 中读取指定标签的 counter 值
func counterValue(t *testing.T, m *Metrics, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := m.reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
	next:
		for _, metric := range f.GetMetric() {
			for _, lp := range metric.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue next
				}
			}
			return metric.GetCounter().GetValue()
		}
	}
	return 0
}

func TestObserveRequest_Unmatched(t *testing.T) {
	m := New()
	m.ObserveRequest(http.MethodGet, "", http.StatusNotFound, time.Millisecond)
	if got := counterValue(t, m, "http_requests_total", map[string]string{"method": "GET", "route": "unmatched", "status": "404"}); got != 1 {
		t.Errorf("unmatched = %v", got)
	}
}

func TestDecided(t *testing.T) {
	m := New()
	m.Decided(model.StatusApproved)
	m.Decided(model.StatusApproved)
	m.Decided(model.StatusRejected)

	if got := counterValue(t, m, "contentflow_decisions_total", map[string]string{"status": "approved"}); got != 2 {
		t.Errorf("approved = %v", got)
	}
	if got := counterValue(t, m, "contentflow_decisions_total", map[string]string{"status": "rejected"}); got != 1 {
		t.Errorf("rejected = %v", got)
	}
	m.IncRateLimited()
	if got := counterValue(t, m, "http_requests_rate_limited_total", nil); got != 1 {
		t.Errorf("rate limited = %v", got)
	}
}
