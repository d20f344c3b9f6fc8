package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	PulseStatus        prometheus.Gauge
	ChecksTotal        prometheus.Counter
	HealingsAttempted  prometheus.Counter
	HealingsSucceeded  prometheus.Counter
	PersistenceLatency prometheus.Gauge
	DownstreamLatency  prometheus.Gauge
}

func New() *Metrics {
	return &Metrics{
		PulseStatus: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "tributo_health_pulse_status",
			Help: "Current pulse status: 0 healthy, 1 strained, 2 critical",
		}),
		ChecksTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tributo_health_checks_total",
			Help: "Total number of pulse checks performed",
		}),
		HealingsAttempted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tributo_health_healings_attempted_total",
			Help: "Total number of connection pool healing attempts",
		}),
		HealingsSucceeded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tributo_health_healings_succeeded_total",
			Help: "Total number of successful connection pool healings",
		}),
		PersistenceLatency: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "tributo_health_persistence_latency_ms",
			Help: "Latency of the last persistence liveness probe in milliseconds",
		}),
		DownstreamLatency: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "tributo_health_downstream_latency_ms",
			Help: "Latency of the last downstream liveness probe in milliseconds",
		}),
	}
}
