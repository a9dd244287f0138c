package treemerge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// targetsMerged counts completed target passes.
	targetsMerged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "treemerge_targets_merged_total",
		Help: "Total targets folded into a merged tree",
	})

	// nodesCreated counts tree nodes created across all merges.
	nodesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "treemerge_nodes_created_total",
		Help: "Total merged tree nodes created",
	})

	// declarationsSkipped counts declarations kept out of the tree by reason
	declarationsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "treemerge_declarations_skipped_total",
		Help: "Total declarations skipped by kind and reason",
	}, []string{"kind", "reason"})

	// modulesMissing counts modules a target supplied that were not common
	modulesMissing = promauto.NewCounter(prometheus.CounterOpts{
		Name: "treemerge_modules_missing_total",
		Help: "Total non-common modules reported as missing",
	})

	// targetDuration tracks the time to load and fold one target
	targetDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "treemerge_target_duration_seconds",
		Help:    "Time to load and fold one target in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms to ~4.4min
	})
)
