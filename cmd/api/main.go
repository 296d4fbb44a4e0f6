package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/brandpulse/backend/api/routes"
	"github.com/brandpulse/backend/internal/attribution"
	"github.com/brandpulse/backend/internal/dispatch"
	"github.com/brandpulse/backend/internal/observe"
	"github.com/brandpulse/backend/pkg/config"
	"github.com/brandpulse/backend/pkg/db"
	"github.com/brandpulse/backend/pkg/logger"
	"github.com/brandpulse/backend/pkg/metrics"
	"github.com/brandpulse/backend/pkg/migrate"
	"github.com/brandpulse/backend/pkg/pubsub"
	"github.com/brandpulse/backend/pkg/redis"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	requireResource(ctx, logg, "dev migrations", migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient))

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "error closing pubsub", err)
		}
	}()

	repo := attribution.NewRepo(dbClient.DB())
	attrCfg := attribution.ConfigFromApp(cfg.Attribution)

	sink, err := observe.NewLogSink(logg)
	requireResource(ctx, logg, "observability sink", err)

	resolver, err := attribution.NewResolver(repo, repo, repo, repo, attrCfg)
	requireResource(ctx, logg, "attribution resolver", err)

	processor, err := attribution.NewBatchProcessor(resolver, sink, logg, attrCfg.Workers)
	requireResource(ctx, logg, "batch processor", err)

	runStats := metrics.NewRunMetrics(prometheus.DefaultRegisterer)

	attributionService, err := attribution.NewService(
		repo,
		repo,
		processor,
		sink,
		redisClient,
		runStats,
		attrCfg,
		cfg.Attribution.ResultCacheTTL,
		logg,
	)
	requireResource(ctx, logg, "attribution service", err)

	dispatcher, err := dispatch.NewDispatcher(pubsubClient)
	requireResource(ctx, logg, "run dispatcher", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(runCtx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, attributionService, dispatcher),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-runCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(runCtx, "api server shutdown failed", err)
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(runCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
