package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks notification volume by type and by audience.
type Metrics struct {
	Recorded *prometheus.CounterVec
	Read     prometheus.Counter
	Deleted  prometheus.Counter
}

// New registers the notification metrics with reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Recorded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "guardhouse_notifications_recorded_total",
			Help: "Notifications recorded, by type and audience (supervisor or admin)",
		}, []string{"type", "audience"}),
		Read: factory.NewCounter(prometheus.CounterOpts{
			Name: "guardhouse_notifications_read_total",
			Help: "Notifications marked read",
		}),
		Deleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "guardhouse_notifications_deleted_total",
			Help: "Notifications deleted",
		}),
	}
}

func (m *Metrics) IncRecorded(eventType string, admin bool) {
	audience := "supervisor"
	if admin {
		audience = "admin"
	}
	m.Recorded.WithLabelValues(eventType, audience).Inc()
}
