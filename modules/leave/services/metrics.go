package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	leaveWriteConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "staffledger",
		Subsystem: "leave",
		Name:      "write_conflicts_total",
		Help:      "Total number of leave ledger write conflicts broken down by kind.",
	}, []string{"kind"})

	leaveLockTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "staffledger",
		Subsystem: "leave",
		Name:      "lock_timeouts_total",
		Help:      "Total number of bounded waits for an entitlement row lock that timed out.",
	})

	leaveDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "staffledger",
		Subsystem: "leave",
		Name:      "decisions_total",
		Help:      "Total number of leave application decisions broken down by outcome.",
	}, []string{"decision"})
)

func recordWriteConflict(kind string) {
	if kind == "" {
		kind = "other"
	}
	leaveWriteConflicts.WithLabelValues(kind).Inc()
}

func recordLockTimeout() {
	leaveLockTimeouts.Inc()
}

func recordDecision(decision string) {
	leaveDecisions.WithLabelValues(decision).Inc()
}
