package gemini

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sakina",
			Subsystem: "generative",
			Name:      "requests_total",
			Help:      "Generative calls by outcome (ok, error, unconfigured).",
		},
		[]string{"outcome"},
	)

	latency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "sakina",
			Subsystem: "generative",
			Name:      "call_duration_seconds",
			Help:      "Wall time of a Complete call including retries.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)
