// The orchestrator process runs the three event consumers of the picking
// fulfillment choreography: planning fan-out, state convergence, and
// cross-service task completion.
package main

import (
	"context"
	"fmt"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"github.com/stocklift/picking-orchestrator/internal/broker"
	"github.com/stocklift/picking-orchestrator/internal/cache"
	"github.com/stocklift/picking-orchestrator/internal/clients"
	"github.com/stocklift/picking-orchestrator/internal/config"
	"github.com/stocklift/picking-orchestrator/internal/consumer/convergence"
	"github.com/stocklift/picking-orchestrator/internal/consumer/planfanout"
	"github.com/stocklift/picking-orchestrator/internal/consumer/taskcompletion"
	"github.com/stocklift/picking-orchestrator/internal/core"
	"github.com/stocklift/picking-orchestrator/internal/observability"
	"github.com/stocklift/picking-orchestrator/internal/publisher"
	"github.com/stocklift/picking-orchestrator/internal/shell"
	"github.com/stocklift/picking-orchestrator/internal/storage"
	"github.com/stocklift/picking-orchestrator/internal/storage/adapters"
)

func main() {
	if err := run(); err != nil {
		stdlog.Fatalf("orchestrator failed: %v", err)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := buildLogger(cfg.LoggerMode)
	if err != nil {
		return fmt.Errorf("building logger failed: %w", err)
	}
	defer logger.Sync()

	metrics := observability.NewOTelMetricsCollector(otel.Meter("picking-orchestrator"))

	dbAdapter, closeDB, err := buildDBAdapter(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("connecting to postgres failed: %w", err)
	}
	defer closeDB()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() { _ = redisClient.Close() }()

	listRepo := storage.NewPickingListRepository(dbAdapter, logger.With("component", "picking_list_repo"))
	loadRepo := storage.NewLoadRepository(dbAdapter, logger.With("component", "load_repo"))
	loadCache := cache.NewLoadCache(loadRepo, redisClient,
		logger.With("component", "load_cache"), cache.WithTTL(cfg.Redis.LoadTTL))

	listProducer := broker.NewKafkaProducer(cfg.Broker.Brokers, cfg.Broker.PickingListTopic)
	loadProducer := broker.NewKafkaProducer(cfg.Broker.Brokers, cfg.Broker.LoadTopic)
	movementProducer := broker.NewKafkaProducer(cfg.Broker.Brokers, cfg.Broker.StockMovementTopic)
	defer func() {
		_ = listProducer.Close()
		_ = loadProducer.Close()
		_ = movementProducer.Close()
	}()

	eventPublisher := publisher.NewEventPublisher(
		map[string]broker.Producer{
			core.AggregateTypePickingList:   listProducer,
			core.AggregateTypeLoad:          loadProducer,
			core.AggregateTypeStockMovement: movementProducer,
		},
		listProducer,
		logger.With("component", "publisher"),
	)

	plannerClient := clients.NewLocationPlannerClient(cfg.Clients.PlannerBaseURL)
	catalogClient := clients.NewProductCatalogClient(cfg.Clients.CatalogBaseURL)
	stockClient := clients.NewStockServiceClient(cfg.Clients.StockBaseURL)

	fanoutConsumer := planfanout.NewConsumer(plannerClient,
		logger.With("consumer", "plan_fanout"), metrics)

	convergenceConsumer := convergence.NewConsumer(
		listRepo,
		loadCache,
		eventPublisher,
		convergence.Config{
			ReadAttempts: cfg.Retry.ReadAttempts,
			ReadDelay:    cfg.Retry.ReadDelay,
			RetryOptions: []shell.RetryOption{
				shell.WithMaxAttempts(cfg.Retry.MaxAttempts),
				shell.WithBaseDelay(cfg.Retry.BaseDelay),
				shell.WithRetryMetrics(metrics, "convergence"),
			},
		},
		logger.With("consumer", "convergence"),
		metrics,
	)

	completionConsumer := taskcompletion.NewConsumer(catalogClient, stockClient, eventPublisher,
		logger.With("consumer", "task_completion"), metrics)

	runners := []*broker.Runner{
		broker.NewRunner("plan-fanout",
			broker.NewKafkaConsumerFactory(cfg.Broker.Brokers, cfg.Broker.PlanFanoutGroupID, cfg.Broker.PickingListTopic),
			fanoutConsumer, cfg.Broker.PlanFanoutConcurrency, logger, metrics),
		broker.NewRunner("convergence",
			broker.NewKafkaConsumerFactory(cfg.Broker.Brokers, cfg.Broker.ConvergenceGroupID, cfg.Broker.LoadTopic),
			convergenceConsumer, cfg.Broker.ConvergenceConcurrency, logger, metrics),
		broker.NewRunner("task-completion",
			broker.NewKafkaConsumerFactory(cfg.Broker.Brokers, cfg.Broker.TaskCompletionGroupID, cfg.Broker.TaskCompletedTopic),
			completionConsumer, cfg.Broker.TaskCompletionConcurrency, logger, metrics),
	}

	logger.Info("orchestrator starting",
		"brokers", cfg.Broker.Brokers, "postgres_adapter", cfg.Postgres.Adapter)

	group, groupCtx := errgroup.WithContext(ctx)
	for _, runner := range runners {
		r := runner
		group.Go(func() error {
			return r.Run(groupCtx)
		})
	}

	err = group.Wait()

	logger.Info("orchestrator stopped")

	return err
}

// buildLogger selects the logging backend: mode "otel" routes through the
// OpenTelemetry slog bridge (records correlate with the active trace),
// anything else through zap.
func buildLogger(mode string) (observability.AppLogger, error) {
	if mode == "otel" {
		return observability.NewSlogBridgeLogger("picking-orchestrator"), nil
	}

	return observability.NewZapLogger(mode)
}

// buildDBAdapter connects the configured driver stack. pgx is the default;
// sqlx over lib/pq stays available for environments where pgx is not an
// option.
func buildDBAdapter(ctx context.Context, cfg config.PostgresConfig) (adapters.DBAdapter, func(), error) {
	if cfg.Adapter == "sqlx" {
		db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN)
		if err != nil {
			return nil, nil, err
		}

		return adapters.NewSQLXAdapter(db), func() { _ = db.Close() }, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, err
	}

	if cfg.ReplicaDSN == "" {
		return adapters.NewPGXAdapter(pool), pool.Close, nil
	}

	replica, err := pgxpool.New(ctx, cfg.ReplicaDSN)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	closeBoth := func() {
		replica.Close()
		pool.Close()
	}

	return adapters.NewPGXAdapterWithReplica(pool, replica), closeBoth, nil
}
