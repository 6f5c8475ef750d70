// Package main provides the imeto read API service.
//
// The service serves impact cases and institution evaluations that the
// ingester has stored in PostgreSQL.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/patthub/impact-measurement-tool/internal/api"
	"github.com/patthub/impact-measurement-tool/internal/api/middleware"
	"github.com/patthub/impact-measurement-tool/internal/storage"
)

const name = "imeto"

// Set at build time with -ldflags.
var version = "1.0.0-dev"

func main() {
	versionFlag := flag.Bool("version", false, "show version information")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("%s v%s\n", name, version)

		return
	}

	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	serverConfig := api.LoadServerConfig()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: serverConfig.LogLevel,
	}))

	logger.Info("Starting imeto service",
		slog.String("service", name),
		slog.String("version", version),
	)

	logger.Info("Loaded server configuration",
		slog.String("host", serverConfig.Host),
		slog.Int("port", serverConfig.Port),
		slog.Duration("read_timeout", serverConfig.ReadTimeout),
		slog.Duration("write_timeout", serverConfig.WriteTimeout),
		slog.Duration("shutdown_timeout", serverConfig.ShutdownTimeout),
		slog.String("log_level", serverConfig.LogLevel.String()),
	)

	middlewareConfig := middleware.LoadConfig()

	// Closed by the server on shutdown.
	rateLimiter := middleware.NewInMemoryRateLimiter(middlewareConfig)

	logger.Info("Rate limiter initialized",
		slog.Int("global_rps", middlewareConfig.GlobalRPS),
		slog.Int("global_burst", middlewareConfig.GlobalBurst),
		slog.Int("client_rps", middlewareConfig.ClientRPS),
		slog.Int("client_burst", middlewareConfig.ClientBurst),
		slog.Bool("trust_proxy", middlewareConfig.TrustProxy),
	)

	storageConfig := storage.LoadConfig()

	dbConn, err := storage.NewConnection(storageConfig)
	if err != nil {
		logger.Error("Failed to connect to database", slog.String("error", err.Error()))

		return err
	}

	defer func() {
		_ = dbConn.Close()
	}()

	impactStore, err := storage.NewImpactStore(dbConn,
		storage.WithStoreLogger(logger),
		storage.WithQueryTimeout(storageConfig.QueryTimeout),
	)
	if err != nil {
		logger.Error("Failed to create impact store", slog.String("error", err.Error()))

		return err
	}

	logger.Info("Impact store initialized",
		slog.String("database_url", storageConfig.MaskDatabaseURL()),
		slog.Int("database_max_open_conns", storageConfig.MaxOpenConns),
		slog.Int("database_max_idle_conns", storageConfig.MaxIdleConns),
		slog.Duration("database_conn_max_lifetime", storageConfig.ConnMaxLifetime),
		slog.Duration("database_query_timeout", storageConfig.QueryTimeout),
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(dbConn.DB, "imeto"),
	)

	server := api.NewServer(serverConfig, impactStore,
		api.WithEvaluations(impactStore),
		api.WithRateLimiter(rateLimiter),
		api.WithRegistry(registry),
		api.WithLogger(logger),
		api.WithVersion(version),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Error("Server failed", slog.String("error", err.Error()))

		return err
	}

	logger.Info("imeto service stopped")

	return nil
}
