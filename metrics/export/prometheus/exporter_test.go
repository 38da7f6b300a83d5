package prometheus

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goSession "github.com/MrEthical07/goSession"
)

type fakeSource struct {
	snapshot goSession.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() goSession.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                       { return f.dropped }

func emptySnapshot() goSession.MetricsSnapshot {
	return goSession.MetricsSnapshot{
		Counters:   map[goSession.MetricID]uint64{},
		Histograms: map[goSession.MetricID][]uint64{},
	}
}

func TestRenderEmptyWhenMetricsDisabled(t *testing.T) {
	exp := New(fakeSource{snapshot: emptySnapshot()})
	if got := exp.Render(); got != "" {
		t.Fatalf("expected empty output for disabled metrics, got:\n%s", got)
	}
}

func TestRenderCountersAndHistograms(t *testing.T) {
	exp := New(fakeSource{
		snapshot: goSession.MetricsSnapshot{
			Counters: map[goSession.MetricID]uint64{
				goSession.MetricSessionCreated:       7,
				goSession.MetricRefreshReuseDetected: 1,
			},
			Histograms: map[goSession.MetricID][]uint64{
				goSession.MetricRotateLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	out := exp.Render()
	for _, want := range []string{
		"gosession_session_created_total 7",
		"gosession_refresh_reuse_detected_total 1",
		"gosession_signout_all_total 0",
		"# TYPE gosession_rotate_latency_seconds histogram",
		"gosession_rotate_latency_seconds_bucket{le=\"0.005\"} 1",
		"gosession_rotate_latency_seconds_bucket{le=\"+Inf\"} 36",
		"gosession_rotate_latency_seconds_count 36",
		"gosession_audit_dropped_total 2",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "gosession_validate_latency_seconds") {
		t.Fatalf("histogram absent from snapshot was rendered:\n%s", out)
	}
}

func TestRenderDroppedOnly(t *testing.T) {
	exp := New(fakeSource{snapshot: emptySnapshot(), dropped: 3})
	if out := exp.Render(); !strings.Contains(out, "gosession_audit_dropped_total 3") {
		t.Fatalf("expected dropped counter, got:\n%s", out)
	}
}

func TestHandlerWritesPrometheusContentType(t *testing.T) {
	exp := New(fakeSource{
		snapshot: goSession.MetricsSnapshot{
			Counters:   map[goSession.MetricID]uint64{goSession.MetricSignout: 1},
			Histograms: map[goSession.MetricID][]uint64{},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected prometheus content type, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "gosession_signout_total 1") {
		t.Fatalf("unexpected body:\n%s", rec.Body.String())
	}
}

func TestNilExporterRendersNothing(t *testing.T) {
	var exp *Exporter
	if got := exp.Render(); got != "" {
		t.Fatalf("got %q", got)
	}
}

func BenchmarkRender(b *testing.B) {
	exp := New(fakeSource{
		snapshot: goSession.MetricsSnapshot{
			Counters: map[goSession.MetricID]uint64{
				goSession.MetricSigninStarted:  1000,
				goSession.MetricSigninFailure:  40,
				goSession.MetricRefreshSuccess: 800,
				goSession.MetricRefreshFailure: 10,
				goSession.MetricSessionCreated: 800,
			},
			Histograms: map[goSession.MetricID][]uint64{
				goSession.MetricValidateLatency: {10, 20, 30, 40, 50, 60, 70, 80},
				goSession.MetricRotateLatency:   {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
	})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = exp.Render()
	}
}
