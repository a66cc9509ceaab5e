// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)

var (
	MembershipEvaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "membership_evaluations_total",
			Help: "Membership lifecycle decisions persisted, by tier and action",
		},
		[]string{"tier", "action"},
	)

	MembershipLogAppendFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "membership_log_append_failures_total",
			Help: "Activity log appends that failed after the membership was saved",
		},
	)

	MembershipCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "membership_cache_requests_total",
			Help: "Current-membership cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of membership API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method", "status"},
	)
)
