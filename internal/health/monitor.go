// Package health probes the persistence layer and downstream liveness,
// classifies system strain, and can trigger a connection-reset healing
// action.
//
// Every check is stateless: status is re-derived from fresh probes, nothing
// is persisted between ticks. The monitor must never itself become a failure
// source, so CheckPulse catches all probe failures and folds them into the
// returned status instead of raising.
package health

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"tributo/internal/health/metrics"
	"tributo/internal/platform/config"
)

// Status is the derived strain classification.
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusStrained Status = "strained"
	StatusCritical Status = "critical"
)

// Pulse is one stateless health snapshot.
type Pulse struct {
	Status               Status  `json:"status"`
	PersistenceLatencyMS int64   `json:"persistence_latency_ms"`
	DownstreamLatencyMS  int64   `json:"downstream_latency_ms"`
	CacheHitRatio        float64 `json:"cache_hit_ratio"`
	ChecksPerformed      int64   `json:"checks_performed"`
}

// Persistence is the slice of the connection pool the monitor needs: a
// liveness probe and the healing reset.
type Persistence interface {
	PingContext(ctx context.Context) error
	Reset(ctx context.Context) error
}

// ProbeFunc checks one downstream dependency; latency is measured by the
// monitor.
type ProbeFunc func(ctx context.Context) error

// CacheStats reports the advisory cache-hit ratio for the pulse record.
type CacheStats interface {
	HitRatio(ctx context.Context) (float64, error)
}

type Monitor struct {
	persistence Persistence
	downstream  ProbeFunc
	cache       CacheStats
	cfg         config.HealthConfig
	logger      *slog.Logger
	metrics     *metrics.Metrics

	checks atomic.Int64
}

type Option func(*Monitor)

// WithDownstream sets the downstream liveness probe. Without one, the
// downstream leg reports zero latency and never strains the status.
func WithDownstream(probe ProbeFunc) Option {
	return func(m *Monitor) {
		m.downstream = probe
	}
}

// WithCacheStats wires the advisory cache-hit ratio source.
func WithCacheStats(cache CacheStats) Option {
	return func(m *Monitor) {
		m.cache = cache
	}
}

func WithMetrics(mx *metrics.Metrics) Option {
	return func(m *Monitor) {
		m.metrics = mx
	}
}

func New(persistence Persistence, cfg config.HealthConfig, logger *slog.Logger, opts ...Option) *Monitor {
	m := &Monitor{
		persistence: persistence,
		cfg:         cfg,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// HTTPProbe builds a downstream probe that HEADs the given URL. Any
// response, including 5xx, counts as alive; only transport failure is a
// probe failure, since strain is judged on latency.
func HTTPProbe(client *http.Client, url string) ProbeFunc {
	return func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		_ = resp.Body.Close()
		return nil
	}
}

// CheckPulse derives the current status from fresh probes. It never returns
// an error: probe failures surface as CRITICAL (persistence) or STRAINED
// (downstream) in the pulse.
func (m *Monitor) CheckPulse(ctx context.Context) Pulse {
	checks := m.checks.Add(1)

	pulse := Pulse{
		Status:          StatusHealthy,
		ChecksPerformed: checks,
	}

	persistenceLatency, persistenceErr := m.timed(ctx, m.persistence.PingContext)
	pulse.PersistenceLatencyMS = persistenceLatency.Milliseconds()

	switch {
	case persistenceErr != nil:
		pulse.Status = StatusCritical
		m.logger.Error("persistence probe failed", "error", persistenceErr)
	case persistenceLatency >= m.cfg.PersistenceWarn:
		pulse.Status = StatusStrained
	}

	if m.downstream != nil {
		downstreamLatency, downstreamErr := m.timed(ctx, m.downstream)
		pulse.DownstreamLatencyMS = downstreamLatency.Milliseconds()

		if pulse.Status == StatusHealthy {
			if downstreamErr != nil || downstreamLatency >= m.cfg.DownstreamWarn {
				pulse.Status = StatusStrained
			}
		}
		if downstreamErr != nil {
			m.logger.Warn("downstream probe failed", "error", downstreamErr)
		}
	}

	if m.cache != nil {
		// Advisory only: a cache failure never degrades the status.
		if ratio, err := m.cache.HitRatio(ctx); err == nil {
			pulse.CacheHitRatio = ratio
		}
	}

	m.record(pulse)
	return pulse
}

// AttemptHealing forcibly rebuilds the persistence connection pool. Healing
// is best-effort: failures are logged, never propagated, and the caller
// decides whether to retry the original operation afterward. In-flight
// transactions on the old pool are not aborted; the reset only routes new
// acquisitions to the fresh pool.
func (m *Monitor) AttemptHealing(ctx context.Context) bool {
	if m.metrics != nil {
		m.metrics.HealingsAttempted.Inc()
	}

	if err := m.persistence.Reset(ctx); err != nil {
		m.logger.Error("connection pool healing failed", "error", err)
		return false
	}

	if m.metrics != nil {
		m.metrics.HealingsSucceeded.Inc()
	}
	m.logger.Info("connection pool healed")
	return true
}

// Run executes the periodic probe loop until ctx is cancelled. On a CRITICAL
// pulse it invokes the healing action before the next tick.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pulse := m.CheckPulse(ctx)
			if pulse.Status == StatusCritical {
				m.AttemptHealing(ctx)
			}
		}
	}
}

func (m *Monitor) timed(ctx context.Context, probe ProbeFunc) (time.Duration, error) {
	probeCtx, cancel := context.WithTimeout(ctx, m.cfg.ProbeTimeout)
	defer cancel()

	start := time.Now()
	err := probe(probeCtx)
	return time.Since(start), err
}

func (m *Monitor) record(pulse Pulse) {
	if m.metrics == nil {
		return
	}
	m.metrics.ChecksTotal.Inc()
	m.metrics.PersistenceLatency.Set(float64(pulse.PersistenceLatencyMS))
	m.metrics.DownstreamLatency.Set(float64(pulse.DownstreamLatencyMS))

	switch pulse.Status {
	case StatusHealthy:
		m.metrics.PulseStatus.Set(0)
	case StatusStrained:
		m.metrics.PulseStatus.Set(1)
	case StatusCritical:
		m.metrics.PulseStatus.Set(2)
	}
}
