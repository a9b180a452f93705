package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects the service counters exposed on /metrics.
type Metrics struct {
	Processed  prometheus.Counter
	Rejected   prometheus.Counter
	Duplicates prometheus.Counter
	Anomalies  *prometheus.CounterVec
}

// NewMetrics registers the ingest counters on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Processed: factory.NewCounter(prometheus.CounterOpts{
			Name: "ingest_readings_processed_total",
			Help: "Readings cleaned, scored and published.",
		}),
		Rejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "ingest_readings_rejected_total",
			Help: "Readings dropped by validation or cleaning.",
		}),
		Duplicates: factory.NewCounter(prometheus.CounterOpts{
			Name: "ingest_readings_duplicate_total",
			Help: "Re-delivered readings suppressed by the deduper.",
		}),
		Anomalies: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ingest_anomalies_detected_total",
			Help: "Anomalous readings by severity.",
		}, []string{"severity"}),
	}
}
