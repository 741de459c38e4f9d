package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Intents *prometheus.CounterVec
	Dropped prometheus.Counter
	Events  *prometheus.CounterVec
	Pushes  *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Intents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "guardhouse_dispatch_intents_total",
			Help: "Side-effect intents accepted for delivery, by kind",
		}, []string{"kind"}),
		Dropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "guardhouse_dispatch_dropped_total",
			Help: "Intents dropped because the dispatcher was saturated or closed",
		}),
		Events: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "guardhouse_dispatch_events_total",
			Help: "Notification events recorded by the dispatcher, by result",
		}, []string{"result"}),
		Pushes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "guardhouse_dispatch_pushes_total",
			Help: "Push sends, by result (sent, skipped, failed)",
		}, []string{"result"}),
	}
}
