package idempotency

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/paygate/pkg/idempotency"
	"github.com/redis/go-redis/v9"
)

// RedisStore claims keys with SET NX so every replica sees the same claims.
type RedisStore struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

// NewRedisStore wraps an existing client. prefix is prepended to every key.
func NewRedisStore(client *redis.Client, prefix string, logger *slog.Logger) *RedisStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
		logger: logger.With("store", "redis-idempotency"),
	}
}

func (r *RedisStore) key(key string) string {
	return r.prefix + "idem:" + key
}

// Acquire sets the key only if absent.
func (r *RedisStore) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, r.key(key), time.Now().UTC().Format(time.RFC3339Nano), ttl).Result()
	if err != nil {
		r.logger.Error("Redis idempotency acquire error", "key", key, "error", err)
		return false, fmt.Errorf("idempotency acquire %q: %w", key, err)
	}
	r.logger.Debug("Redis idempotency acquire", "key", key, "acquired", ok)
	return ok, nil
}

// Release deletes the key.
func (r *RedisStore) Release(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		r.logger.Error("Redis idempotency release error", "key", key, "error", err)
		return fmt.Errorf("idempotency release %q: %w", key, err)
	}
	return nil
}

var _ idempotency.Store = (*RedisStore)(nil)
