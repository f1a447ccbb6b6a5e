// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal matching
// packages.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"duomatch/internal/matching/handler"
	matchingmetrics "duomatch/internal/matching/metrics"
	"duomatch/internal/matching/persistence"
	"duomatch/internal/matching/service"
	"duomatch/internal/matching/store"
	"duomatch/internal/platform/config"
	"duomatch/internal/platform/httpserver"
	"duomatch/internal/platform/logger"
	platformpostgres "duomatch/internal/platform/postgres"
	platformredis "duomatch/internal/platform/redis"
	audit "duomatch/pkg/platform/audit"
	"duomatch/pkg/platform/audit/publisher"
	"duomatch/pkg/platform/audit/sink"
	auditmemory "duomatch/pkg/platform/audit/store/memory"
)

const demoPairCount = 3

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx := context.Background()

	adapter, cleanup, err := buildAdapter(ctx, cfg)
	if err != nil {
		log.Error("persistence setup failed", "error", err.Error())
		os.Exit(1)
	}
	defer cleanup()

	auditSink, closeSink := buildAuditSink(cfg, log)
	defer closeSink()
	auditPub := publisher.NewPublisher(auditSink,
		publisher.WithAsyncBuffer(256),
		publisher.WithLogger(log),
	)
	defer auditPub.Close()

	opts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(matchingmetrics.New()),
		service.WithAudit(auditPub),
		service.WithPersistTimeout(cfg.PersistTimeout),
	}
	if cfg.BootstrapDemoData {
		opts = append(opts, service.WithDemoBootstrap(demoPairCount))
	}
	matching := service.NewService(store.NewInMemory(), adapter, opts...)

	if err := matching.Initialize(ctx); err != nil {
		// A load failure leaves the registry empty but usable; keep serving.
		log.Warn("initialize degraded", "error", err.Error())
	}

	router := chi.NewRouter()
	handler.New(matching, log).Register(router)
	router.Handle("/metrics", promhttp.Handler())

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting duomatch",
		"addr", cfg.Addr,
		"persistence", string(cfg.PersistenceBackend),
	)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err.Error())
		os.Exit(1)
	}
}

// buildAdapter selects the persistence backend from config. The memory
// backend is the development default; redis/postgres give durability across
// restarts.
func buildAdapter(ctx context.Context, cfg config.Server) (persistence.Adapter, func(), error) {
	switch cfg.PersistenceBackend {
	case config.BackendRedis:
		client, err := platformredis.New(config.RedisFromEnv())
		if err != nil {
			return nil, nil, err
		}
		if client == nil {
			return nil, nil, errors.New("redis backend selected but DUOMATCH_REDIS_URL is empty")
		}
		return persistence.NewRedisAdapter(client.Client), func() { _ = client.Close() }, nil
	case config.BackendPostgres:
		pool, err := platformpostgres.NewPool(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, nil, err
		}
		if pool == nil {
			return nil, nil, errors.New("postgres backend selected but DUOMATCH_POSTGRES_URL is empty")
		}
		adapter, err := persistence.NewPostgresAdapter(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		return adapter, pool.Close, nil
	default:
		return persistence.NewInMemoryAdapter(), func() {}, nil
	}
}

// buildAuditSink prefers Kafka when brokers are configured and falls back to
// the in-process store otherwise.
func buildAuditSink(cfg config.Server, log *slog.Logger) (audit.Sink, func()) {
	if len(cfg.AuditBrokers) == 0 {
		return auditmemory.NewInMemoryStore(), func() {}
	}
	kafka, err := sink.NewKafkaSink(cfg.AuditBrokers, cfg.AuditTopic)
	if err != nil {
		log.Warn("kafka audit sink unavailable, using memory store", "error", err.Error())
		return auditmemory.NewInMemoryStore(), func() {}
	}
	return kafka, kafka.Close
}
