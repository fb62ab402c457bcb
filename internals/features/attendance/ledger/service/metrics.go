// file: internals/features/attendance/ledger/service/metrics.go
package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	outcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendance",
		Name:      "outcomes_total",
		Help:      "Evidence applications by outcome kind.",
	}, []string{"kind"})

	persistRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "attendance",
		Name:      "persist_retries_total",
		Help:      "Ledger persistence attempts that were retried.",
	})

	persistExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "attendance",
		Name:      "persist_exhausted_total",
		Help:      "Ledger operations that gave up after the retry budget.",
	})

	reconciledTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendance",
		Name:      "reconciled_total",
		Help:      "Deferred records processed by the reconciliation sweep.",
	}, []string{"result"})
)
