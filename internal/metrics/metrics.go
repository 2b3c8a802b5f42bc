// Package metrics holds the Prometheus collectors exported on the metrics port.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "triage"

var (
	BatchesRanked = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "batches_ranked_total",
		Help:      "Ranking runs completed, by entry point.",
	}, []string{"source"})

	TasksScored = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_scored_total",
		Help:      "Task descriptors scored.",
	})

	TasksRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_rejected_total",
		Help:      "Task records rejected at validation, by field.",
	}, []string{"field"})

	TaskScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "task_score",
		Help:      "Distribution of weighted task scores.",
		Buckets:   prometheus.LinearBuckets(10, 10, 10),
	})

	BatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "batch_duration_seconds",
		Help:      "Time to validate, score and rank one batch.",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
	})

	StoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_errors_total",
		Help:      "Failed store operations, by operation.",
	}, []string{"op"})

	PublishErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "publish_errors_total",
		Help:      "Failed NATS publishes.",
	})
)
