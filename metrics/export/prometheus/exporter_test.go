package prometheus

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goParse "github.com/MrEthical07/goParse"
	"github.com/MrEthical07/goParse/metrics/export/internaldefs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeSource struct {
	snapshot goParse.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() goParse.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                     { return f.dropped }

func sampleSource() fakeSource {
	return fakeSource{
		snapshot: goParse.MetricsSnapshot{
			Counters: map[goParse.MetricID]uint64{
				goParse.MetricLogInSuccess: 7,
				goParse.MetricRetry:        2,
			},
			Histograms: map[goParse.MetricID][]uint64{
				goParse.MetricCommandLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 3,
	}
}

func TestCollectorEmitsEveryDefinition(t *testing.T) {
	c := NewCollector(sampleSource(), nil)

	want := len(internaldefs.CounterDefs) + len(internaldefs.HistogramDefs) + 1
	if got := testutil.CollectAndCount(c); got != want {
		t.Fatalf("expected %d series, got %d", want, got)
	}
}

func TestCollectorValues(t *testing.T) {
	c := NewCollector(sampleSource(), nil)

	expected := `
# HELP goparse_log_in_success_total Successful username/password log-ins.
# TYPE goparse_log_in_success_total counter
goparse_log_in_success_total 7
# HELP goparse_audit_dropped_total Audit events dropped due to dispatcher backpressure.
# TYPE goparse_audit_dropped_total counter
goparse_audit_dropped_total 3
`
	if err := testutil.CollectAndCompare(c, strings.NewReader(expected),
		"goparse_log_in_success_total", "goparse_audit_dropped_total"); err != nil {
		t.Fatalf("unexpected metrics: %v", err)
	}
}

func TestCollectorLintClean(t *testing.T) {
	problems, err := testutil.CollectAndLint(NewCollector(sampleSource(), prometheus.Labels{"client": "test"}))
	if err != nil {
		t.Fatalf("CollectAndLint failed: %v", err)
	}
	if len(problems) != 0 {
		t.Fatalf("lint problems: %v", problems)
	}
}

func TestHandlerServesHistogram(t *testing.T) {
	h, err := Handler(sampleSource())
	if err != nil {
		t.Fatalf("Handler failed: %v", err)
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	for _, want := range []string{
		`goparse_command_latency_seconds_bucket{le="0.025"} 1`,
		`goparse_command_latency_seconds_bucket{le="2.5"} 28`,
		`goparse_command_latency_seconds_bucket{le="+Inf"} 36`,
		`goparse_command_latency_seconds_count 36`,
		`goparse_retry_total 2`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output:\n%s", want, out)
		}
	}
}
