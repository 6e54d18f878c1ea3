package authsvc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for the hashing pool.
//
//nolint:gochecknoglobals
var (
	// hashingJobs counts finished hashing jobs by operation and result.
	hashingJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authsvc_hashing_jobs_total",
		Help: "Total number of password hashing jobs",
	}, []string{"op", "result"})

	// hashingDuration tracks the time a worker spends on one job.
	hashingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "authsvc_hashing_duration_seconds",
		Help:    "Histogram of password hashing latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	// hashingQueueLength is the number of jobs waiting for a worker.
	hashingQueueLength = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "authsvc_hashing_queue_length",
		Help: "Number of password hashing jobs waiting for a worker",
	})
)

const (
	opHash   = "hash"
	opVerify = "verify"

	resultOK        = "ok"
	resultMismatch  = "mismatch"
	resultError     = "error"
	resultCancelled = "cancelled"
)
