package storage

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OperationHistogram storage operation latencies
var OperationHistogram = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name: "maskgif_storage_operation_duration_seconds",
		Help: "A histogram of storage operation latencies",
	},
	[]string{"storage", "operation"},
)

func init() {
	prometheus.MustRegister(OperationHistogram)
}

// Observe records a storage operation started at start
func Observe(storage, operation string, start time.Time) {
	OperationHistogram.WithLabelValues(storage, operation).Observe(time.Since(start).Seconds())
}
