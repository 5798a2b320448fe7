package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/northfarm/sales-backend/api/routes"
	"github.com/northfarm/sales-backend/internal/audit"
	"github.com/northfarm/sales-backend/internal/auth"
	"github.com/northfarm/sales-backend/internal/entries"
	"github.com/northfarm/sales-backend/internal/ledger"
	"github.com/northfarm/sales-backend/internal/snapshots"
	"github.com/northfarm/sales-backend/internal/summary"
	"github.com/northfarm/sales-backend/pkg/auth/session"
	"github.com/northfarm/sales-backend/pkg/config"
	"github.com/northfarm/sales-backend/pkg/db"
	"github.com/northfarm/sales-backend/pkg/logger"
	"github.com/northfarm/sales-backend/pkg/metrics"
	"github.com/northfarm/sales-backend/pkg/migrate"
	"github.com/northfarm/sales-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	saleRepo := entries.NewSaleRepository(dbClient.DB())
	closureRepo := entries.NewClosureRepository(dbClient.DB())

	auditService, err := audit.NewService(audit.NewRepository(dbClient.DB()), cfg.Ledger.AuditCap)
	if err != nil {
		logg.Error(context.Background(), "failed to create audit service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(cfg.Auth, cfg.JWT, sessionManager, auditService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	publisher, err := snapshots.NewPublisher(saleRepo, closureRepo, redisClient, cfg.Ledger.SnapshotChannel, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create snapshot publisher", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	ledgerMetrics := metrics.NewLedgerMetrics(registry)

	ledgerService, err := ledger.NewService(dbClient, saleRepo, closureRepo, auditService, cfg.Ledger, ledgerMetrics, publisher, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	summaryService, err := summary.NewService(saleRepo, closureRepo, cfg.Ledger.Locations)
	if err != nil {
		logg.Error(context.Background(), "failed to create summary service", err)
		os.Exit(1)
	}

	snapshotCache := snapshots.NewCache()
	subscriberCtx, stopSubscriber := context.WithCancel(context.Background())
	defer stopSubscriber()
	subscriber := snapshots.NewSubscriber(redisClient, cfg.Ledger.SnapshotChannel, snapshotCache, logg)
	go func() {
		if err := subscriber.Run(subscriberCtx); err != nil && subscriberCtx.Err() == nil {
			logg.Error(subscriberCtx, "snapshot subscriber stopped unexpectedly", err)
		}
	}()

	// Seed the live view so the first stream client is not empty.
	if err := publisher.PublishCurrent(context.Background()); err != nil {
		logg.Warn(context.Background(), "initial snapshot publish failed")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Dependencies{
			Config:      cfg,
			Logger:      logg,
			DB:          dbClient,
			Redis:       redisClient,
			Sessions:    sessionManager,
			AuthService: authService,
			Ledger:      ledgerService,
			Summary:     summaryService,
			Audit:       auditService,
			Snapshots:   snapshotCache,
			Gatherer:    registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
