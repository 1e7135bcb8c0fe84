package observability

import (
	"context"

	"github.com/aretw0/aime/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "aime"

// Metrics holds the generator collectors.
type Metrics struct {
	Rounds        prometheus.Counter
	OracleCalls   *prometheus.CounterVec
	OracleLatency prometheus.Histogram
	Candidates    *prometheus.CounterVec
	Leaves        *prometheus.CounterVec
	Runs          *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Rounds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_total",
			Help:      "Total number of expansion rounds started.",
		}),
		OracleCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oracle_calls_total",
			Help:      "Total number of batched oracle calls by result.",
		}, []string{"result"}),
		OracleLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "oracle_latency_seconds",
			Help:      "Latency of batched oracle calls.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
		Candidates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_total",
			Help:      "Predicted modes by outcome.",
		}, []string{"outcome"}),
		Leaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "leaf_decisions_total",
			Help:      "Leaf decisions by kind.",
		}, []string{"decision"}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed generations by result.",
		}, []string{"result"}),
	}
	if reg != nil {
		reg.MustRegister(m.Rounds, m.OracleCalls, m.OracleLatency, m.Candidates, m.Leaves, m.Runs)
	}
	return m
}

// Hooks returns the hook set that feeds the collectors.
func (m *Metrics) Hooks() domain.Hooks {
	return domain.Hooks{
		OnRoundStart: func(context.Context, *domain.RoundEvent) {
			m.Rounds.Inc()
		},
		OnOracleCall: func(_ context.Context, e *domain.OracleEvent) {
			m.OracleCalls.WithLabelValues(result(e.Err)).Inc()
			m.OracleLatency.Observe(e.Latency.Seconds())
		},
		OnCandidate: func(_ context.Context, e *domain.CandidateEvent) {
			m.Candidates.WithLabelValues(string(e.Outcome)).Inc()
		},
		OnLeafDecision: func(_ context.Context, e *domain.LeafEvent) {
			m.Leaves.WithLabelValues(string(e.Decision)).Inc()
		},
		OnComplete: func(_ context.Context, e *domain.CompleteEvent) {
			m.Runs.WithLabelValues(result(e.Err)).Inc()
		},
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
