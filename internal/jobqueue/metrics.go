package jobqueue

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storyarc",
		Subsystem: "jobqueue",
		Name:      "submissions_total",
		Help:      "Jobs accepted per worker lane.",
	}, []string{"lane"})

	queueFullTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storyarc",
		Subsystem: "jobqueue",
		Name:      "queue_full_total",
		Help:      "Submissions rejected because a lane was full.",
	}, []string{"lane"})

	jobsCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "storyarc",
		Subsystem: "jobqueue",
		Name:      "jobs_completed_total",
		Help:      "Jobs that reached the COMPLETED state.",
	})

	jobsFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "storyarc",
		Subsystem: "jobqueue",
		Name:      "jobs_failed_total",
		Help:      "Jobs that reached the FAILED state.",
	})

	retriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "storyarc",
		Subsystem: "jobqueue",
		Name:      "retries_total",
		Help:      "Attempts that failed recoverably and were retried.",
	})

	queueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "storyarc",
		Subsystem: "jobqueue",
		Name:      "queue_depth",
		Help:      "Current number of queued jobs per lane.",
	}, []string{"lane"})

	runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "storyarc",
		Subsystem: "jobqueue",
		Name:      "run_duration_seconds",
		Help:      "Wall-clock duration of a single pipeline attempt.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
	}, []string{"lane"})
)

func laneLabel(i int) string { return strconv.Itoa(i) }
