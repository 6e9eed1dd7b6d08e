package estimate

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *metrics
	metricsOnce   sync.Once
)

type metrics struct {
	events  *prometheus.CounterVec
	reloads prometheus.Counter
	errors  *prometheus.CounterVec
	records prometheus.Gauge
}

// newMetrics registers the session metrics once per process:
//   - tally_stream_events_total{kind}
//   - tally_store_reloads_total
//   - tally_store_errors_total{op}
//   - tally_records
func newMetrics() *metrics {
	metricsOnce.Do(func() {
		globalMetrics = &metrics{
			events: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "tally_stream_events_total",
					Help: "Change notifications applied to the session, by kind",
				},
				[]string{"kind"},
			),
			reloads: promauto.NewCounter(prometheus.CounterOpts{
				Name: "tally_store_reloads_total",
				Help: "Full reloads of the estimate list",
			}),
			errors: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "tally_store_errors_total",
					Help: "Failed datastore operations, by operation",
				},
				[]string{"op"},
			),
			records: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "tally_records",
				Help: "Estimates currently held by the session",
			}),
		}
	})

	return globalMetrics
}
