package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/brandpulse/backend/internal/attribution"
	"github.com/brandpulse/backend/internal/attribution/worker"
	"github.com/brandpulse/backend/internal/observe"
	"github.com/brandpulse/backend/pkg/bigquery"
	"github.com/brandpulse/backend/pkg/config"
	"github.com/brandpulse/backend/pkg/db"
	"github.com/brandpulse/backend/pkg/idempotency"
	"github.com/brandpulse/backend/pkg/instance"
	"github.com/brandpulse/backend/pkg/logger"
	"github.com/brandpulse/backend/pkg/pubsub"
	"github.com/brandpulse/backend/pkg/redis"
)

const flushTimeout = 10 * time.Second

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "attribution-worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	cfg.Service.Kind = "attribution-worker"

	logg = logger.New(logger.Options{
		ServiceName: "attribution-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	var closers []func() error
	defer func() {
		var closeErr error
		for i := len(closers) - 1; i >= 0; i-- {
			closeErr = multierr.Append(closeErr, closers[i]())
		}
		if closeErr != nil {
			logg.Error(ctx, "failed to close resources", closeErr)
		}
	}()

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	closers = append(closers, dbClient.Close)

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	requireResource(ctx, logg, "redis", err)
	closers = append(closers, redisClient.Close)

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	closers = append(closers, pubsubClient.Close)

	bqClient, err := bigquery.NewClient(context.Background(), cfg.GCP, cfg.BigQuery, logg)
	requireResource(ctx, logg, "bigquery client", err)
	closers = append(closers, bqClient.Close)

	subscription := pubsubClient.RunRequestSubscription()
	if subscription == nil {
		requireResource(ctx, logg, "run request subscription", errors.New("subscription not configured"))
	}

	manager, err := idempotency.NewManager(redisClient, cfg.Eventing.RunIdempotencyTTL)
	requireResource(ctx, logg, "idempotency manager", err)

	logSink, err := observe.NewLogSink(logg)
	requireResource(ctx, logg, "log sink", err)

	eventPublisher, err := observe.NewEventPublisher(pubsubClient, logg)
	requireResource(ctx, logg, "run event publisher", err)

	runLogWriter, err := observe.NewRunLogWriter(bqClient, logg, observe.RunLogConfig{
		Table: cfg.BigQuery.RunLogTable,
	})
	requireResource(ctx, logg, "run log writer", err)

	sink := observe.NewMultiSink(logSink, eventPublisher, runLogWriter)

	repo := attribution.NewRepo(dbClient.DB())
	attrCfg := attribution.ConfigFromApp(cfg.Attribution)

	resolver, err := attribution.NewResolver(repo, repo, repo, repo, attrCfg)
	requireResource(ctx, logg, "attribution resolver", err)

	processor, err := attribution.NewBatchProcessor(resolver, sink, logg, attrCfg.Workers)
	requireResource(ctx, logg, "batch processor", err)

	attributionService, err := attribution.NewService(
		repo,
		repo,
		processor,
		sink,
		redisClient,
		nil,
		attrCfg,
		cfg.Attribution.ResultCacheTTL,
		logg,
	)
	requireResource(ctx, logg, "attribution service", err)

	handler, err := worker.NewRunHandler(attributionService)
	requireResource(ctx, logg, "run handler", err)

	service, err := worker.NewService(subscription, handler, manager, logg)
	requireResource(ctx, logg, "worker service", err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.GetID(),
	})
	logg.Info(runCtx, "attribution worker ready")

	runErr := service.Run(runCtx)

	// Drain buffered run log rows before the clients close.
	flushCtx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if err := runLogWriter.Flush(flushCtx); err != nil {
		logg.Error(ctx, "failed to flush run log rows", err)
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		logg.Error(runCtx, "attribution worker failed", runErr)
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
