package sat

import "github.com/prometheus/client_golang/prometheus"

// metrics holds the optional Prometheus collectors a Solver updates as it
// runs. It is nil whenever Options.Registry is nil, so every update site
// guards with a nil check (see search.go's conflict handling) rather than paying
// for a no-op collector on every hot-path call.
type metrics struct {
	conflicts   prometheus.Counter
	restarts    prometheus.Counter
	reductions  prometheus.Counter
	propagations prometheus.Counter
	learnts     prometheus.Counter
	learntSize  prometheus.Histogram
	reorganises prometheus.Counter
}

func newMetrics(reg *prometheus.Registry) *metrics {
	if reg == nil {
		return nil
	}
	m := &metrics{
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "driftwood_conflicts_total",
			Help: "Number of conflicts encountered during search.",
		}),
		restarts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "driftwood_restarts_total",
			Help: "Number of restarts performed.",
		}),
		reductions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "driftwood_reductions_total",
			Help: "Number of clause database reduction passes.",
		}),
		propagations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "driftwood_propagations_total",
			Help: "Number of literals propagated.",
		}),
		learnts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "driftwood_learnt_clauses_total",
			Help: "Number of clauses learnt by conflict analysis.",
		}),
		learntSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "driftwood_learnt_clause_size",
			Help:    "Size distribution of learnt clauses.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		reorganises: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "driftwood_portfolio_reorganises_total",
			Help: "Number of clause-arena reorganisations this instance performed.",
		}),
	}
	reg.MustRegister(m.conflicts, m.restarts, m.reductions, m.propagations, m.learnts, m.learntSize, m.reorganises)
	return m
}
