package votes

import "github.com/prometheus/client_golang/prometheus"

const namespace = "subboard"

// Metrics holds Prometheus metrics for the vote state machine.
type Metrics struct {
	Applied   *prometheus.CounterVec
	Conflicts prometheus.Counter
	Failures  *prometheus.CounterVec
	Duration  prometheus.Histogram
}

// NewMetrics creates and registers vote metrics on the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Applied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_applied_total",
			Help:      "Total number of committed votes, by state transition.",
		}, []string{"transition"}),
		Conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vote_conflicts_total",
			Help:      "Total number of vote attempts retried after a concurrent change.",
		}),
		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vote_failures_total",
			Help:      "Total number of votes that failed, by reason.",
		}, []string{"reason"}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "vote_duration_seconds",
			Help:      "Duration of vote processing in seconds, including lock wait and retries.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),
	}

	reg.MustRegister(m.Applied, m.Conflicts, m.Failures, m.Duration)
	return m
}
