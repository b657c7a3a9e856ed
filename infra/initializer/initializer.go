package initializer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/amirasaad/paygate/infra"
	infra_eventbus "github.com/amirasaad/paygate/infra/eventbus"
	infra_idempotency "github.com/amirasaad/paygate/infra/idempotency"
	"github.com/amirasaad/paygate/infra/metrics"
	"github.com/amirasaad/paygate/infra/provider/mercadopago"
	"github.com/amirasaad/paygate/infra/provider/stripepayment"
	paymentrepo "github.com/amirasaad/paygate/infra/repository/payment"
	"github.com/amirasaad/paygate/pkg/app"
	"github.com/amirasaad/paygate/pkg/config"
	"github.com/amirasaad/paygate/pkg/eventbus"
	"github.com/amirasaad/paygate/pkg/idempotency"
	"github.com/redis/go-redis/v9"
)

// InitializeDependencies builds every infrastructure dependency from cfg.
// Optional backends (Redis, Kafka, Postgres) are skipped when not
// configured; Redis and Kafka fall back to memory when unreachable.
func InitializeDependencies(cfg *config.App) (*app.Deps, error) {
	logger := SetupLogger(cfg.Log)
	return initializeDependencies(cfg, logger)
}

func initializeDependencies(cfg *config.App, logger *slog.Logger) (*app.Deps, error) {
	deps := &app.Deps{
		Logger:  logger,
		Metrics: metrics.New("paygate"),
	}
	if err := wire(deps, cfg, logger); err != nil {
		closeAll(deps, logger)
		return nil, err
	}
	logger.Info("✅ dependencies initialized",
		"database", deps.Payments != nil,
		"closers", len(deps.Closers),
	)
	return deps, nil
}

func wire(deps *app.Deps, cfg *config.App, logger *slog.Logger) error {
	redisClient, err := initRedis(cfg.Redis, logger)
	if err != nil {
		return err
	}
	if redisClient != nil {
		deps.Closers = append(deps.Closers, redisClient.Close)
	}

	deps.Idempotency = initIdempotency(redisClient, cfg.Redis, logger)

	bus, closer := initEventBus(cfg, redisClient, logger)
	deps.EventBus = bus
	if closer != nil {
		deps.Closers = append(deps.Closers, closer)
	}

	if cfg.DB != nil && cfg.DB.Url != "" {
		db, err := infra.NewDBConnection(cfg.DB, cfg.Env, logger)
		if err != nil {
			logger.Error("Failed to initialize database", "error", err)
			return err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		deps.Closers = append(deps.Closers, sqlDB.Close)
		deps.Payments = paymentrepo.New(db)
	} else {
		logger.Warn("⚠️ DATABASE_URL not set, payments will not be persisted")
	}

	deps.MercadoPago = mercadopago.New(cfg.PaymentProviders.MercadoPago, logger)
	deps.Stripe = stripepayment.New(bus, cfg.PaymentProviders.Stripe, logger)
	return nil
}

func initRedis(cfg *config.Redis, logger *slog.Logger) (*redis.Client, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	opts.PoolSize = cfg.PoolSize
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout+time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("⚠️ Redis unreachable, using in-memory backends", "error", err)
		_ = client.Close()
		return nil, nil
	}
	logger.Info("🔌 Redis connected", "addr", opts.Addr)
	return client, nil
}

func initIdempotency(
	client *redis.Client,
	cfg *config.Redis,
	logger *slog.Logger,
) idempotency.Store {
	if client == nil {
		logger.Info("Using in-memory idempotency store")
		return infra_idempotency.NewMemoryStore()
	}
	return infra_idempotency.NewRedisStore(client, cfg.KeyPrefix, logger)
}

// initEventBus prefers Kafka, then Redis streams, then memory.
func initEventBus(
	cfg *config.App,
	redisClient *redis.Client,
	logger *slog.Logger,
) (eventbus.Bus, func() error) {
	if cfg.Kafka != nil && strings.TrimSpace(cfg.Kafka.Brokers) != "" {
		bus, err := infra_eventbus.NewWithKafka(cfg.Kafka.Brokers, logger, &infra_eventbus.KafkaEventBusConfig{
			GroupID:     "paygate",
			TopicPrefix: cfg.Kafka.Topic,
		})
		if err == nil {
			return bus, bus.Close
		}
		logger.Warn("⚠️ Kafka event bus unavailable, falling back", "error", err)
	}

	if redisClient != nil {
		bus, err := infra_eventbus.NewWithRedis(redisClient, redisStreamPrefix(cfg.Redis), logger)
		if err == nil {
			return bus, bus.Close
		}
		logger.Warn("⚠️ Redis event bus unavailable, falling back", "error", err)
	}

	logger.Info("Using in-memory event bus")
	return infra_eventbus.NewWithMemory(logger), nil
}

// redisStreamPrefix names the event streams, falling back to the key prefix.
func redisStreamPrefix(cfg *config.Redis) string {
	if s := strings.TrimSpace(cfg.Stream); s != "" {
		return s
	}
	return strings.TrimSuffix(cfg.KeyPrefix, ":")
}

func closeAll(deps *app.Deps, logger *slog.Logger) {
	for i := len(deps.Closers) - 1; i >= 0; i-- {
		if err := deps.Closers[i](); err != nil {
			logger.Warn("close failed", "error", err)
		}
	}
}
