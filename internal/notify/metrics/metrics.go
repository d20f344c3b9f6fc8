package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Delivered prometheus.Counter
	Failed    prometheus.Counter
	Skipped   prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Delivered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tributo_webhook_deliveries_total",
			Help: "Total number of status webhooks delivered with a 2xx response",
		}),
		Failed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tributo_webhook_failures_total",
			Help: "Total number of status webhook attempts that failed or timed out",
		}),
		Skipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tributo_webhook_skipped_total",
			Help: "Total number of status changes for organizations without a webhook URL",
		}),
	}
}
