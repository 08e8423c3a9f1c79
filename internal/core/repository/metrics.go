package repository

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/duynhne/account-service/internal/core/domain"
)

var (
	storeOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "account_store_operations_total",
			Help: "Account store operations by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	storeOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "account_store_operation_duration_seconds",
			Help:    "Latency of account store operations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

// observe records the outcome and latency of op and passes err through.
func observe(op string, start time.Time, err error) error {
	storeOperationsTotal.WithLabelValues(op, domain.OutcomeOf(err).String()).Inc()
	storeOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	return err
}
