package share

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the broadcast core.
type Metrics struct {
	Connections     prometheus.Gauge
	SharesTotal     *prometheus.CounterVec
	RejectionsTotal *prometheus.CounterVec
	BroadcastsTotal *prometheus.CounterVec
}

// NewMetrics registers the core metrics on reg.
// A nil reg falls back to the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		Connections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "sharepal",
			Name:      "connections",
			Help:      "Number of currently connected sessions",
		}),

		SharesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sharepal",
			Name:      "shares_total",
			Help:      "Share requests by content kind and result",
		}, []string{"kind", "result"}),

		RejectionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sharepal",
			Name:      "rejections_total",
			Help:      "Rejected share requests by reason code",
		}, []string{"code"}),

		BroadcastsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sharepal",
			Name:      "broadcasts_total",
			Help:      "Fan-out broadcasts by envelope type",
		}, []string{"type"}),
	}
}
