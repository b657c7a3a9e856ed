package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/amirasaad/paygate/pkg/eventbus"
	"github.com/redis/go-redis/v9"
)

// RedisEventBus publishes events to one Redis stream per event type and
// consumes them through consumer groups. Failed deliveries go to a DLQ stream.
type RedisEventBus struct {
	client *redis.Client
	prefix string
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWithRedis connects to Redis. prefix namespaces stream names.
func NewWithRedis(client *redis.Client, prefix string, logger *slog.Logger) (*RedisEventBus, error) {
	if client == nil {
		return nil, fmt.Errorf("redis event bus: client is required")
	}
	if prefix == "" {
		prefix = "paygate"
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis event bus: connection failed: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisEventBus{
		client: client,
		prefix: prefix,
		logger: logger.With("bus", "redis"),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

func (b *RedisEventBus) streamName(eventType string) string {
	return nameFor(b.prefix+":events", eventType)
}

func (b *RedisEventBus) dlqStreamName(eventType string) string {
	return nameFor(b.prefix+":dlq", eventType)
}

// Emit appends the event to its stream.
func (b *RedisEventBus) Emit(ctx context.Context, event eventbus.Event) error {
	raw, err := encode(event)
	if err != nil {
		return fmt.Errorf("redis event bus: %w", err)
	}
	if err := b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: b.streamName(event.Type),
		Values: map[string]any{"event": string(raw)},
	}).Err(); err != nil {
		b.logger.Error("failed to emit event", "error", err, "type", event.Type)
		return fmt.Errorf("redis event bus: emit failed: %w", err)
	}
	b.logger.Debug("event emitted", "type", event.Type, "payment_id", event.PaymentID)
	return nil
}

// Register starts a consumer goroutine for eventType.
func (b *RedisEventBus) Register(eventType string, handler eventbus.HandlerFunc) {
	stream := b.streamName(eventType)
	group := nameFor(b.prefix+":group", eventType)
	consumer := fmt.Sprintf("consumer-%d", time.Now().UnixNano())

	if err := b.client.XGroupCreateMkStream(b.ctx, stream, group, "0").Err(); err != nil &&
		!strings.HasPrefix(err.Error(), "BUSYGROUP") {
		b.logger.Error("failed to create consumer group", "error", err, "stream", stream)
		return
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.consume(eventType, stream, group, consumer, handler)
	}()
	b.logger.Info("handler registered", "event_type", eventType, "consumer", consumer)
}

func (b *RedisEventBus) consume(eventType, stream, group, consumer string, handler eventbus.HandlerFunc) {
	for {
		if b.ctx.Err() != nil {
			return
		}
		res, err := b.client.XReadGroup(b.ctx, &redis.XReadGroupArgs{
			Group:    group,
			Consumer: consumer,
			Streams:  []string{stream, ">"},
			Count:    10,
			Block:    time.Second,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if b.ctx.Err() != nil {
				return
			}
			b.logger.Error("error reading from stream", "error", err, "stream", stream)
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, s := range res {
			for _, msg := range s.Messages {
				b.handleMessage(eventType, msg, handler)
				if err := b.client.XAck(b.ctx, stream, group, msg.ID).Err(); err != nil {
					b.logger.Error("failed to acknowledge message", "error", err, "msg_id", msg.ID)
				}
			}
		}
	}
}

func (b *RedisEventBus) handleMessage(eventType string, msg redis.XMessage, handler eventbus.HandlerFunc) {
	raw, ok := msg.Values["event"].(string)
	if !ok {
		return
	}
	evt, err := decode([]byte(raw))
	if err != nil {
		b.logger.Error("failed to decode event", "error", err, "msg_id", msg.ID)
		b.pushToDLQ(eventType, msg.Values)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("handler panic recovered", "panic", r, "event_type", eventType)
			b.pushToDLQ(eventType, msg.Values)
		}
	}()
	if err := handler(b.ctx, evt); err != nil {
		b.logger.Error("handler error", "error", err, "event_type", eventType)
		b.pushToDLQ(eventType, msg.Values)
	}
}

func (b *RedisEventBus) pushToDLQ(eventType string, values map[string]any) {
	dlq := b.dlqStreamName(eventType)
	if err := b.client.XAdd(b.ctx, &redis.XAddArgs{Stream: dlq, Values: values}).Err(); err != nil {
		b.logger.Error("failed to push to DLQ", "error", err, "stream", dlq)
		return
	}
	b.logger.Warn("event pushed to DLQ", "stream", dlq)
}

// Close stops every consumer. The client is owned by the caller.
func (b *RedisEventBus) Close() error {
	b.cancel()
	b.wg.Wait()
	return nil
}

var _ eventbus.Bus = (*RedisEventBus)(nil)
