package health

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"tributo/internal/platform/config"
)

type fakePersistence struct {
	pingErr   error
	pingDelay time.Duration
	resetErr  error
	resets    int
}

func (f *fakePersistence) PingContext(ctx context.Context) error {
	if f.pingDelay > 0 {
		select {
		case <-time.After(f.pingDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.pingErr
}

func (f *fakePersistence) Reset(context.Context) error {
	f.resets++
	return f.resetErr
}

type fakeCache struct {
	ratio float64
	err   error
}

func (f *fakeCache) HitRatio(context.Context) (float64, error) {
	return f.ratio, f.err
}

type MonitorSuite struct {
	suite.Suite
	persistence *fakePersistence
	cfg         config.HealthConfig
}

func TestMonitorSuite(t *testing.T) {
	suite.Run(t, new(MonitorSuite))
}

func (s *MonitorSuite) SetupTest() {
	s.persistence = &fakePersistence{}
	s.cfg = config.HealthConfig{
		Interval:        time.Second,
		PersistenceWarn: 50 * time.Millisecond,
		DownstreamWarn:  100 * time.Millisecond,
		ProbeTimeout:    time.Second,
	}
}

func (s *MonitorSuite) newMonitor(opts ...Option) *Monitor {
	return New(s.persistence, s.cfg, slog.New(slog.DiscardHandler), opts...)
}

func (s *MonitorSuite) TestCheckPulse() {
	ctx := context.Background()

	s.Run("healthy when probes are fast", func() {
		pulse := s.newMonitor().CheckPulse(ctx)
		s.Equal(StatusHealthy, pulse.Status)
	})

	s.Run("critical when persistence probe fails, without raising", func() {
		s.persistence.pingErr = errors.New("connection refused")
		defer func() { s.persistence.pingErr = nil }()

		pulse := s.newMonitor().CheckPulse(ctx)
		s.Equal(StatusCritical, pulse.Status)
	})

	s.Run("strained when persistence latency exceeds threshold", func() {
		s.persistence.pingDelay = 60 * time.Millisecond
		defer func() { s.persistence.pingDelay = 0 }()

		pulse := s.newMonitor().CheckPulse(ctx)
		s.Equal(StatusStrained, pulse.Status)
		s.GreaterOrEqual(pulse.PersistenceLatencyMS, int64(50))
	})

	s.Run("strained when downstream is slow", func() {
		slow := func(ctx context.Context) error {
			time.Sleep(120 * time.Millisecond)
			return nil
		}
		pulse := s.newMonitor(WithDownstream(slow)).CheckPulse(ctx)
		s.Equal(StatusStrained, pulse.Status)
	})

	s.Run("strained when downstream fails", func() {
		failing := func(context.Context) error { return errors.New("downstream gone") }
		pulse := s.newMonitor(WithDownstream(failing)).CheckPulse(ctx)
		s.Equal(StatusStrained, pulse.Status)
	})

	s.Run("persistence failure dominates downstream strain", func() {
		s.persistence.pingErr = errors.New("down")
		defer func() { s.persistence.pingErr = nil }()

		failing := func(context.Context) error { return errors.New("also down") }
		pulse := s.newMonitor(WithDownstream(failing)).CheckPulse(ctx)
		s.Equal(StatusCritical, pulse.Status)
	})

	s.Run("cache ratio is advisory", func() {
		pulse := s.newMonitor(WithCacheStats(&fakeCache{ratio: 0.87})).CheckPulse(ctx)
		s.Equal(StatusHealthy, pulse.Status)
		s.InDelta(0.87, pulse.CacheHitRatio, 0.0001)

		// A cache stats failure must not degrade status.
		pulse = s.newMonitor(WithCacheStats(&fakeCache{err: errors.New("no redis")})).CheckPulse(ctx)
		s.Equal(StatusHealthy, pulse.Status)
		s.Zero(pulse.CacheHitRatio)
	})

	s.Run("checks performed counts across calls", func() {
		m := s.newMonitor()
		first := m.CheckPulse(ctx)
		second := m.CheckPulse(ctx)
		s.Equal(first.ChecksPerformed+1, second.ChecksPerformed)
	})
}

func (s *MonitorSuite) TestAttemptHealing() {
	ctx := context.Background()

	s.Run("successful reset returns true", func() {
		m := s.newMonitor()
		s.True(m.AttemptHealing(ctx))
		s.Equal(1, s.persistence.resets)
	})

	s.Run("failed reset returns false without raising", func() {
		s.persistence.resetErr = errors.New("cannot reconnect")
		defer func() { s.persistence.resetErr = nil }()

		m := s.newMonitor()
		s.False(m.AttemptHealing(ctx))
	})
}
