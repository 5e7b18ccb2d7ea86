package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsEnqueued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "library_jobs_enqueued_total",
		Help: "Jobs put on the queue, by job and origin",
	}, []string{"job", "origin"})

	jobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "library_jobs_processed_total",
		Help: "Jobs taken off the queue, by job and result",
	}, []string{"job", "result"})

	jobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "library_job_duration_seconds",
		Help:    "Job handler duration",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
)
