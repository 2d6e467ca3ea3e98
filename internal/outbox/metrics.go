package outbox

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sakina",
		Subsystem: "outbox",
		Name:      "jobs_total",
		Help:      "Outbox jobs handled, by op and outcome (done, failed, dead).",
	}, []string{"op", "outcome"})

	jobDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "sakina",
		Subsystem: "outbox",
		Name:      "job_duration_seconds",
		Help:      "Time spent handling a successful outbox job.",
		Buckets:   prometheus.DefBuckets,
	})

	requeuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sakina",
		Subsystem: "outbox",
		Name:      "requeued_total",
		Help:      "Unanalyzed entries re-enqueued by the sweep.",
	})
)
