// Package metrics holds the Prometheus collectors exported by the worker.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Sub-task outcome labels.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

var (
	// SubTasksTotal counts orchestrator sub-tasks by content kind, output type and outcome.
	SubTasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repurposer_subtasks_total",
			Help: "Total number of generation sub-tasks",
		},
		[]string{"kind", "type", "status"},
	)

	// SubTaskDuration tracks how long each sub-task took in seconds.
	SubTaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "repurposer_subtask_duration_seconds",
			Help:    "Duration of generation sub-tasks in seconds",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10), // 250ms to ~2m
		},
		[]string{"kind", "type"},
	)

	// JobsTotal counts jobs by the status a processing attempt left them in.
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repurposer_jobs_total",
			Help: "Total number of job processing attempts by resulting status",
		},
		[]string{"status"},
	)

	// WorkersActive tracks the number of workers currently processing a job.
	WorkersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "repurposer_workers_active",
			Help: "Number of workers currently processing a job",
		},
	)

	// DeliveriesTotal counts how queue deliveries were settled.
	DeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repurposer_deliveries_total",
			Help: "Total number of queue deliveries by settlement",
		},
		[]string{"settlement"},
	)

	// ProviderRetriesTotal counts retried provider calls by operation.
	ProviderRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repurposer_provider_retries_total",
			Help: "Total number of retried generation provider calls",
		},
		[]string{"op"},
	)
)
