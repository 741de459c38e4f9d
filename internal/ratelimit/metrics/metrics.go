package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Rejected    *prometheus.CounterVec
	StoreErrors prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "guardhouse_ratelimit_rejected_total",
			Help: "Requests rejected by the rate limiter, by endpoint class",
		}, []string{"class"}),
		StoreErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "guardhouse_ratelimit_store_errors_total",
			Help: "Rate limit checks that failed open because the bucket store errored",
		}),
	}
}

func (m *Metrics) IncrementRejected(class string) {
	m.Rejected.WithLabelValues(class).Inc()
}

func (m *Metrics) IncrementStoreErrors() {
	m.StoreErrors.Inc()
}
