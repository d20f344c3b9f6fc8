// Package httptransport is the thin HTTP layer over the emission facade,
// plus the ops surface (liveness, metrics). Handlers delegate to domain
// services without embedding business logic; XML signing and submission to
// the authority live outside this process.
package httptransport

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tributo/internal/health"
	platformmw "tributo/internal/platform/middleware"
)

// PulseChecker reports the current system pulse.
type PulseChecker interface {
	CheckPulse(ctx context.Context) health.Pulse
}

// NewRouter wires the document endpoints and the ops endpoints. /healthz
// answers 200 only on a healthy pulse; strained and critical both map to
// 503 so a load balancer drains the instance while the monitor heals it.
func NewRouter(svc EmissionService, checker PulseChecker, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(platformmw.RequestID)

	r.Route("/v1/documents", func(r chi.Router) {
		r.Post("/prepare", handlePrepare(svc))
		r.Post("/{clave}/responses", handleAuthorityResponse(svc))
	})

	r.Get("/healthz", handleHealthz(checker))
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return r
}

func handleHealthz(checker PulseChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pulse := checker.CheckPulse(r.Context())

		status := http.StatusOK
		if pulse.Status != health.StatusHealthy {
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(pulse)
	}
}
