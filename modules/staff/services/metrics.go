package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	staffWriteConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "staffledger",
		Subsystem: "staff",
		Name:      "write_conflicts_total",
		Help:      "Total number of staff write conflicts broken down by kind.",
	}, []string{"kind"})

	staffLockTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "staffledger",
		Subsystem: "staff",
		Name:      "lock_timeouts_total",
		Help:      "Total number of bounded waits for a staff row lock that timed out.",
	})
)

func recordWriteConflict(kind string) {
	if kind == "" {
		kind = "other"
	}
	staffWriteConflicts.WithLabelValues(kind).Inc()
}

func recordLockTimeout() {
	staffLockTimeouts.Inc()
}
