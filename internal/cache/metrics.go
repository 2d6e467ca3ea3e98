package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "sakina",
	Subsystem: "cache",
	Name:      "lookups_total",
	Help:      "Cache lookups by result (hit or miss).",
}, []string{"result"})
