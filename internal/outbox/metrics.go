package outbox

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Published prometheus.Counter
	Failed    prometheus.Counter
	Batches   prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Published: factory.NewCounter(prometheus.CounterOpts{
			Name: "guardhouse_outbox_published_total",
			Help: "Outbox entries published downstream",
		}),
		Failed: factory.NewCounter(prometheus.CounterOpts{
			Name: "guardhouse_outbox_failed_total",
			Help: "Outbox publish attempts that failed",
		}),
		Batches: factory.NewCounter(prometheus.CounterOpts{
			Name: "guardhouse_outbox_batches_total",
			Help: "Non-empty outbox batches claimed",
		}),
	}
}
