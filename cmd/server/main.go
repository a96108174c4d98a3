package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"vigil/internal/alert"
	alertmetrics "vigil/internal/alert/metrics"
	"vigil/internal/attendance"
	"vigil/internal/compliance"
	compliancemetrics "vigil/internal/compliance/metrics"
	"vigil/internal/identity"
	"vigil/internal/ledger"
	ledgermetrics "vigil/internal/ledger/metrics"
	"vigil/internal/notify"
	"vigil/internal/pipeline"
	"vigil/internal/platform/config"
	"vigil/internal/platform/httpserver"
	"vigil/internal/platform/logger"
	platformredis "vigil/internal/platform/redis"
	"vigil/internal/ratelimit"
	"vigil/internal/schedule"
	httptransport "vigil/internal/transport/http"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal packages; everything here is construction order,
// fallbacks, and shutdown.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("vigil exited", "error", err.Error())
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	table := loadTimetable(cfg.TimetablePath, log)
	resolver := schedule.NewResolver(table, schedule.WithLogger(log))
	registry := identity.NewInMemoryRegistry()

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector())
	promReg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	evaluator := compliance.NewEvaluator(
		compliance.WithThreshold(cfg.DebounceThreshold),
		compliance.WithLogger(log),
		compliance.WithMetrics(compliancemetrics.New(promReg)),
	)

	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	suppression := alert.SuppressionStore(alert.NewInMemorySuppressionStore())
	limitStore := ratelimit.Store(ratelimit.NewInMemoryStore())
	if redisClient != nil {
		defer redisClient.Close()
		log.Info("alert suppression and rate limiting backed by redis")
		suppression = alert.NewRedisSuppressionStore(redisClient)
		limitStore = ratelimit.NewRedisStore(redisClient)
	} else {
		log.Info("redis not configured, suppression and rate limiting are in-memory")
	}

	alertMetrics := alertmetrics.New(promReg)
	roleOpts := []alert.RegistryOption{
		alert.WithRegistryLogger(log),
		alert.WithRegistryMetrics(alertMetrics),
	}
	if hierarchy := alert.ParseHierarchy(cfg.RoleHierarchy, log); len(hierarchy) > 0 {
		roleOpts = append(roleOpts, alert.WithHierarchy(hierarchy))
	}
	engine := alert.NewEngine(
		alert.NewRoleRegistry(cfg.Departments, roleOpts...),
		suppression,
		alert.WithEscalationAfter(cfg.EscalationAfter),
		alert.WithSustainedTruancy(cfg.SustainedTruancy),
		alert.WithSustainedAudio(cfg.SustainedAudio),
		alert.WithAudioThresholds(cfg.AudioActiveDB, cfg.AudioInactiveDB),
		alert.WithEngineLogger(log),
		alert.WithEngineMetrics(alertMetrics),
	)

	store, closeStore, err := ledgerStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	led, err := ledger.New(ctx, store, ledger.NewKeyring(),
		ledger.WithBatchSize(cfg.LedgerBatchSize),
		ledger.WithLogger(log),
		ledger.WithMetrics(ledgermetrics.New(promReg)),
	)
	if err != nil {
		return err
	}

	pipe := pipeline.New(registry, resolver, evaluator, engine, led,
		pipeline.WithLogger(log),
		pipeline.WithTracker(attendance.NewTracker(led, attendance.WithLogger(log))),
	)

	recent := notify.NewMemorySink(notify.DefaultRetention)
	sinks := notify.Fanout{recent}
	var kafkaSink *notify.KafkaSink
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err = notify.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.AlertTopic, cfg.Kafka.CommitTopic,
			notify.WithKafkaLogger(log))
		if err != nil {
			return err
		}
		defer kafkaSink.Close()
		// A dead broker must not stall alerting; the breaker sheds
		// deliveries while Kafka is down and probes for recovery.
		sinks = append(sinks, notify.NewGuardedSink(kafkaSink, "kafka", log))
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Observations: httptransport.NewObservationHandler(pipe, registry, recent, log),
		Ledger:       httptransport.NewLedgerHandler(led, store, log),
		Schedule:     httptransport.NewScheduleHandler(table, cfg.TimetablePath, log),
		JWTKey:       []byte(cfg.JWTSigningKey),
		Logger:       log,
		Metrics:      promReg,
		Ingest:       ratelimit.NewMiddleware(limitStore, cfg.IngestRateLimit, cfg.IngestRateWindow, log).Limit,
	})
	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return led.Run(ctx) })
	g.Go(func() error { return pipe.Run(ctx) })
	g.Go(func() error {
		return notify.NewDispatcher(sinks, pipe.Alerts(), log).Run(ctx)
	})
	if kafkaSink != nil {
		g.Go(func() error {
			return notify.NewCommitExporter(kafkaSink, led.Sealed(), log).Run(ctx)
		})
	}
	g.Go(func() error {
		// A ledger that cannot persist halts the pipeline; availability never
		// outranks audit completeness.
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-led.Fatal():
			return err
		}
	})
	g.Go(func() error {
		log.Info("vigil listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		// Seal the open batch so the tail of the stream gets a commitment.
		if err := led.Close(context.Background()); err != nil {
			return err
		}
		return ctx.Err()
	})
	return g.Wait()
}

func loadTimetable(path string, log *slog.Logger) *schedule.Table {
	snap, err := schedule.LoadCSV(path)
	if err != nil {
		log.Warn("timetable unavailable, starting with no expectations",
			"path", path, "error", err.Error())
		return schedule.NewTable(nil)
	}
	log.Info("timetable loaded", "path", path, "entries", snap.Len())
	return schedule.NewTable(snap)
}

func ledgerStore(ctx context.Context, cfg config.Config, log *slog.Logger) (ledger.Store, func(), error) {
	if cfg.Postgres.URL == "" {
		log.Warn("postgres not configured, ledger is in-memory and non-durable")
		return ledger.NewInMemoryStore(), func() {}, nil
	}
	db, err := sql.Open("postgres", cfg.Postgres.URL)
	if err != nil {
		return nil, nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	store := ledger.NewPostgresStore(db)
	if err := store.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	log.Info("ledger backed by postgres")
	return store, func() { _ = db.Close() }, nil
}
