package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"tributo/internal/access"
	accessstore "tributo/internal/access/store"
	"tributo/internal/emission"
	emissionmetrics "tributo/internal/emission/metrics"
	"tributo/internal/events"
	"tributo/internal/health"
	healthmetrics "tributo/internal/health/metrics"
	"tributo/internal/notify"
	notifymetrics "tributo/internal/notify/metrics"
	"tributo/internal/organization"
	"tributo/internal/platform/config"
	"tributo/internal/platform/httpserver"
	"tributo/internal/platform/logger"
	"tributo/internal/platform/postgres"
	platformredis "tributo/internal/platform/redis"
	"tributo/internal/sequence"
	sequencestore "tributo/internal/sequence/store"
	httptransport "tributo/internal/transport/http"
)

// main wires the dependency graph and keeps the process lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.New(ctx, cfg.Postgres)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}

	var orgs organization.Store = organization.NewPostgres(pool)
	if redisClient != nil {
		orgs = organization.NewCached(orgs, redisClient, log)
	}

	enforcer, err := access.New(orgs, accessstore.NewPostgres(pool), access.WithLogger(log))
	if err != nil {
		log.Error("access enforcer init failed", "error", err)
		os.Exit(1)
	}

	sequencer, err := sequence.New(sequencestore.NewPostgres(pool), sequence.WithLogger(log))
	if err != nil {
		log.Error("sequence service init failed", "error", err)
		os.Exit(1)
	}

	dispatcher := notify.New(orgs, cfg.Webhook.Timeout, log, notify.WithMetrics(notifymetrics.New()))

	var stream emission.StreamPublisher
	kafkaClient, err := events.NewKafkaClient(cfg.Kafka)
	if err != nil {
		log.Error("kafka connection failed", "error", err)
		os.Exit(1)
	}
	if kafkaClient != nil {
		defer kafkaClient.Close()
		if err := events.EnsureTopic(ctx, kafkaClient, cfg.Kafka.StatusTopic); err != nil {
			log.Error("kafka topic creation failed", "topic", cfg.Kafka.StatusTopic, "error", err)
			os.Exit(1)
		}
		stream = events.NewPublisher(kafkaClient, cfg.Kafka.StatusTopic, log)
	}

	svc, err := emission.New(enforcer, sequencer, dispatcher, stream, log,
		emission.WithMetrics(emissionmetrics.New()))
	if err != nil {
		log.Error("emission service init failed", "error", err)
		os.Exit(1)
	}

	monitorOpts := []health.Option{health.WithMetrics(healthmetrics.New())}
	if cfg.Health.DownstreamURL != "" {
		monitorOpts = append(monitorOpts, health.WithDownstream(
			health.HTTPProbe(&http.Client{Timeout: cfg.Health.ProbeTimeout}, cfg.Health.DownstreamURL)))
	}
	if redisClient != nil {
		monitorOpts = append(monitorOpts, health.WithCacheStats(redisClient))
	}
	monitor := health.New(pool, cfg.Health, log, monitorOpts...)

	router := httptransport.NewRouter(svc, monitor, prometheus.DefaultGatherer)
	srv := httpserver.New(cfg.OpsAddr, router)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		monitor.Run(groupCtx)
		return nil
	})

	group.Go(func() error {
		log.Info("tributo listening", "addr", cfg.OpsAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	log.Info("tributo stopped")
}
