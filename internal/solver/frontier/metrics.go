package frontier

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Search duration metrics
	solveDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "blueprint_solve_duration_seconds",
			Help:    "Duration of a single blueprint search in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		},
	)

	// Frontier metrics
	statesExpanded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "blueprint_states_expanded_total",
			Help: "Total number of candidate states generated by frontier expansion",
		},
	)
	statesPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "blueprint_states_pruned_total",
			Help: "Total number of candidate states removed by duplicate, dominance or bound pruning",
		},
	)
	frontierSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "blueprint_frontier_size",
			Help:    "Number of states kept in the frontier after each step",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		},
	)
)
