package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestWorkflowMetricsCounts(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewWorkflowMetrics(reg)

	m.ObserveAward("success")
	m.ObserveAward("success")
	m.ObserveAward("pool_exceeded")
	m.ObserveRedemption("process", "success")
	m.AddPoints("credit", 500)
	m.AddPoints("credit", -10)

	if got := testutil.ToFloat64(m.awards.WithLabelValues("success")); got != 2 {
		t.Fatalf("expected 2 successful awards, got %v", got)
	}
	if got := testutil.ToFloat64(m.awards.WithLabelValues("pool_exceeded")); got != 1 {
		t.Fatalf("expected 1 pool_exceeded award, got %v", got)
	}
	if got := testutil.ToFloat64(m.points.WithLabelValues("credit")); got != 500 {
		t.Fatalf("expected 500 credited points, got %v", got)
	}
}

func TestWorkflowMetricsNilSafe(t *testing.T) {
	t.Parallel()

	var m *WorkflowMetrics
	m.ObserveAward("success")
	m.ObserveRedemption("process", "success")
	m.AddPoints("debit", 10)

	empty := NewWorkflowMetrics(nil)
	empty.ObserveAward("")
}
