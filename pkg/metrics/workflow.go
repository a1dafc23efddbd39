package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// WorkflowMetrics records outcomes for the award and redemption workflows.
type WorkflowMetrics struct {
	awards      *prometheus.CounterVec
	redemptions *prometheus.CounterVec
	points      *prometheus.CounterVec
}

// NewWorkflowMetrics registers the workflow metrics on the provided registerer.
func NewWorkflowMetrics(reg prometheus.Registerer) *WorkflowMetrics {
	if reg == nil {
		return &WorkflowMetrics{}
	}
	awards := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "point_awards_total",
		Help: "Event point awards by outcome.",
	}, []string{"outcome"})
	redemptions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "redemptions_total",
		Help: "Redemption workflow operations by operation and outcome.",
	}, []string{"operation", "outcome"})
	points := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "points_moved_total",
		Help: "Points credited and debited through the ledger.",
	}, []string{"direction"})
	reg.MustRegister(awards, redemptions, points)
	return &WorkflowMetrics{
		awards:      awards,
		redemptions: redemptions,
		points:      points,
	}
}

// ObserveAward records one award attempt outcome.
func (m *WorkflowMetrics) ObserveAward(outcome string) {
	if m == nil || m.awards == nil {
		return
	}
	m.awards.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveRedemption records one redemption operation outcome.
func (m *WorkflowMetrics) ObserveRedemption(operation, outcome string) {
	if m == nil || m.redemptions == nil {
		return
	}
	m.redemptions.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Inc()
}

// AddPoints accumulates moved points for the given direction (credit/debit).
func (m *WorkflowMetrics) AddPoints(direction string, points int) {
	if m == nil || m.points == nil || points <= 0 {
		return
	}
	m.points.WithLabelValues(normalizeLabel(direction)).Add(float64(points))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
