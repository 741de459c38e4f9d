package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	dErrors "guardhouse/pkg/domain-errors"
)

// Metrics covers roster writes: how many ran, how they ended and how long
// their unit of work took.
type Metrics struct {
	Writes          *prometheus.CounterVec
	WriteDuration   *prometheus.HistogramVec
	Guards          prometheus.Gauge
	ObjectsReleased *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Writes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "guardhouse_roster_writes_total",
			Help: "Roster write operations by operation and outcome (ok or error code)",
		}, []string{"operation", "outcome"}),
		WriteDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "guardhouse_roster_write_duration_seconds",
			Help:    "Duration of roster write operations including retries",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"operation"}),
		Guards: factory.NewGauge(prometheus.GaugeOpts{
			Name: "guardhouse_roster_guards",
			Help: "Guards on record as of the last dashboard read",
		}),
		ObjectsReleased: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "guardhouse_roster_objects_released_total",
			Help: "Stored files released after a purge, by result",
		}, []string{"result"}),
	}
}

// ObserveWrite records one finished write.
func (m *Metrics) ObserveWrite(operation string, started time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(dErrors.CodeOf(err))
	}
	m.Writes.WithLabelValues(operation, outcome).Inc()
	m.WriteDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}
