package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/patthub/impact-measurement-tool/internal/config"
	"github.com/patthub/impact-measurement-tool/internal/events"
	"github.com/patthub/impact-measurement-tool/internal/impact"
	"github.com/patthub/impact-measurement-tool/internal/ingestion"
	"github.com/patthub/impact-measurement-tool/internal/radon"
	"github.com/patthub/impact-measurement-tool/internal/storage"
)

const pushTimeout = 10 * time.Second

// store is everything a run writes to; both the Postgres and in-memory stores satisfy it.
type store interface {
	impact.Store
	impact.EvaluationStore
	ingestion.RunLog
}

type globalOptions struct {
	dryRun      bool
	pageSize    int
	pushgateway string
}

// app holds the process-wide dependencies of one CLI invocation.
type app struct {
	logger    *slog.Logger
	client    *radon.Client
	store     store
	publisher events.Publisher
	registry  *prometheus.Registry
	metrics   *ingestion.Metrics
	pageSize  int
	opts      globalOptions
	closers   []func() error
}

func newApp(out io.Writer, opts globalOptions) (*app, error) {
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: config.GetEnvLogLevel("LOG_LEVEL", slog.LevelInfo),
	}))

	radonCfg := radon.LoadConfig()

	client, err := radon.NewClient(radonCfg, radon.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("invalid RAD-on configuration: %w", err)
	}

	a := &app{
		logger:   logger,
		client:   client,
		registry: prometheus.NewRegistry(),
		pageSize: opts.pageSize,
		opts:     opts,
	}

	if a.pageSize <= 0 {
		a.pageSize = radonCfg.PageSize
	}

	a.metrics = ingestion.NewMetrics(a.registry)

	if opts.dryRun {
		logger.Warn("Dry run: records are kept in memory and discarded at exit")

		a.store = storage.NewMemoryStore()
	} else {
		dbCfg := storage.LoadConfig()

		conn, err := storage.NewConnection(dbCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		a.closers = append(a.closers, conn.Close)

		pg, err := storage.NewImpactStore(conn, storage.WithStoreLogger(logger))
		if err != nil {
			_ = a.close(context.Background())

			return nil, err
		}

		logger.Info("Connected to impact store", slog.String("database_url", dbCfg.MaskDatabaseURL()))

		a.store = pg
	}

	publisher, err := events.NewPublisherFromEnv()
	if err != nil {
		_ = a.close(context.Background())

		return nil, fmt.Errorf("invalid Kafka configuration: %w", err)
	}

	a.publisher = publisher
	a.closers = append(a.closers, publisher.Close)

	return a, nil
}

func (a *app) ingester() *ingestion.Ingester {
	return ingestion.NewIngester(a.client, a.store,
		ingestion.WithLogger(a.logger),
		ingestion.WithPublisher(a.publisher),
		ingestion.WithMetrics(a.metrics),
		ingestion.WithRunLog(a.store),
	)
}

func (a *app) evaluationIngester() *ingestion.EvaluationIngester {
	return ingestion.NewEvaluationIngester(a.client, a.store, ingestion.WithLogger(a.logger))
}

// close pushes metrics when a Pushgateway is configured, then releases resources in reverse order.
func (a *app) close(ctx context.Context) error {
	var errs []error

	if a.opts.pushgateway != "" {
		pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pushTimeout)

		err := push.New(a.opts.pushgateway, "imeto_ingester").Gatherer(a.registry).PushContext(pushCtx)

		cancel()

		if err != nil {
			a.logger.Warn("Failed to push metrics", slog.String("error", err.Error()))
		}
	}

	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}

	a.closers = nil

	return errors.Join(errs...)
}
