// Package metrics exposes prometheus instrumentation for the emission
// facade.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	DocumentsPrepared *prometheus.CounterVec
	PrepareDenied     *prometheus.CounterVec
	PrepareFailed     prometheus.Counter
	StatusChanges     *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		DocumentsPrepared: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tributo_emission_documents_prepared_total",
			Help: "Documents successfully prepared for emission, by document type.",
		}, []string{"document_type"}),
		PrepareDenied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tributo_emission_prepare_denied_total",
			Help: "Preparations denied by the access enforcer, by reason.",
		}, []string{"reason"}),
		PrepareFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tributo_emission_prepare_failed_total",
			Help: "Preparations that failed for infrastructure or input reasons.",
		}),
		StatusChanges: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tributo_emission_status_changes_total",
			Help: "Document status transitions recorded, by new status.",
		}, []string{"status"}),
	}
}
