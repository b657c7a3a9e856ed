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
	"github.com/segmentio/kafka-go"
)

// KafkaEventBusConfig holds configuration for the Kafka event bus.
type KafkaEventBusConfig struct {
	GroupID     string
	TopicPrefix string
}

// DefaultKafkaEventBusConfig returns default configuration for KafkaEventBus.
func DefaultKafkaEventBusConfig() *KafkaEventBusConfig {
	return &KafkaEventBusConfig{
		GroupID:     "paygate",
		TopicPrefix: "paygate.payments",
	}
}

// KafkaEventBus publishes each event type to its own topic.
type KafkaEventBus struct {
	brokers []string
	writer  *kafka.Writer
	dialer  *kafka.Dialer
	config  *KafkaEventBusConfig
	logger  *slog.Logger

	readersMtx sync.Mutex
	readers    map[string]*kafka.Reader
	topicsMtx  sync.Mutex
	topics     map[string]struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWithKafka creates a Kafka-backed event bus.
// brokers: comma-separated list (e.g. "localhost:9092,localhost:9093").
func NewWithKafka(brokers string, logger *slog.Logger, config *KafkaEventBusConfig) (*KafkaEventBus, error) {
	parsed := parseBrokers(brokers)
	if len(parsed) == 0 {
		return nil, fmt.Errorf("kafka event bus: brokers are required")
	}
	if config == nil {
		config = DefaultKafkaEventBusConfig()
	}
	if config.GroupID == "" {
		config.GroupID = "paygate"
	}
	if strings.TrimSpace(config.TopicPrefix) == "" {
		config.TopicPrefix = "paygate.payments"
	}
	if logger == nil {
		logger = slog.Default()
	}

	dialer := &kafka.Dialer{Timeout: 5 * time.Second}
	ctx, cancel := context.WithCancel(context.Background())
	bus := &KafkaEventBus{
		brokers: parsed,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(parsed...),
			AllowAutoTopicCreation: true,
			RequiredAcks:           kafka.RequireOne,
			Balancer:               &kafka.Hash{},
		},
		dialer:  dialer,
		config:  config,
		logger:  logger.With("bus", "kafka"),
		readers: make(map[string]*kafka.Reader),
		topics:  make(map[string]struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}

	conn, err := dialer.DialContext(ctx, "tcp", parsed[0])
	if err != nil {
		_ = bus.Close()
		return nil, fmt.Errorf("kafka event bus: connection failed: %w", err)
	}
	_ = conn.Close()

	bus.logger.Info("🚀 Kafka event bus initialized", "brokers", parsed, "group_id", config.GroupID)
	return bus, nil
}

// Emit publishes an event keyed by payment id so a payment's events keep
// their order within a partition.
func (b *KafkaEventBus) Emit(ctx context.Context, event eventbus.Event) error {
	raw, err := encode(event)
	if err != nil {
		return fmt.Errorf("kafka event bus: %w", err)
	}
	topic := topicNameFor(b.config.TopicPrefix, event.Type)
	if err := b.ensureTopic(ctx, topic); err != nil {
		return err
	}
	if err := b.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(event.PaymentID),
		Value: raw,
		Time:  time.Now(),
	}); err != nil {
		return fmt.Errorf("kafka event bus: publish failed: %w", err)
	}
	return nil
}

// Register starts a consumer group reader for eventType.
func (b *KafkaEventBus) Register(eventType string, handler eventbus.HandlerFunc) {
	b.readersMtx.Lock()
	defer b.readersMtx.Unlock()

	if _, exists := b.readers[eventType]; exists {
		b.logger.Warn("handler already registered", "event_type", eventType)
		return
	}
	topic := topicNameFor(b.config.TopicPrefix, eventType)
	if err := b.ensureTopic(b.ctx, topic); err != nil {
		b.logger.Error("kafka ensure topic error", "error", err, "event_type", eventType)
		return
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     b.brokers,
		GroupID:     b.config.GroupID,
		Topic:       topic,
		StartOffset: kafka.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     time.Second,
		Dialer:      b.dialer,
	})
	b.readers[eventType] = reader

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.consumeLoop(eventType, reader, handler)
	}()
}

func (b *KafkaEventBus) consumeLoop(eventType string, reader *kafka.Reader, handler eventbus.HandlerFunc) {
	for {
		msg, err := reader.FetchMessage(b.ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || b.ctx.Err() != nil {
				return
			}
			b.logger.Error("kafka consume error", "error", err, "event_type", eventType)
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if err := b.process(eventType, msg, handler); err != nil {
			if dlqErr := b.publishToDLQ(eventType, msg.Value); dlqErr != nil {
				b.logger.Error("kafka message processing failed; will retry",
					"error", dlqErr, "offset", msg.Offset)
				continue
			}
		}
		if err := reader.CommitMessages(b.ctx, msg); err != nil {
			b.logger.Error("kafka commit error", "error", err, "offset", msg.Offset)
		}
	}
}

func (b *KafkaEventBus) process(eventType string, msg kafka.Message, handler eventbus.HandlerFunc) (err error) {
	evt, err := decode(msg.Value)
	if err != nil {
		b.logger.Error("failed to decode event", "error", err, "offset", msg.Offset)
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("handler panic recovered", "panic", r, "event_type", eventType)
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	if err := handler(b.ctx, evt); err != nil {
		b.logger.Error("handler error", "error", err, "event_type", eventType, "offset", msg.Offset)
		return err
	}
	return nil
}

func (b *KafkaEventBus) publishToDLQ(eventType string, raw []byte) error {
	topic := dlqTopicNameFor(b.config.TopicPrefix, eventType)
	if err := b.ensureTopic(b.ctx, topic); err != nil {
		return err
	}
	if err := b.writer.WriteMessages(b.ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(eventType),
		Value: raw,
		Time:  time.Now(),
	}); err != nil {
		return fmt.Errorf("kafka event bus: dlq publish failed: %w", err)
	}
	b.logger.Warn("message sent to DLQ", "event_type", eventType, "dlq_topic", topic)
	return nil
}

func (b *KafkaEventBus) ensureTopic(ctx context.Context, topic string) error {
	b.topicsMtx.Lock()
	_, exists := b.topics[topic]
	b.topicsMtx.Unlock()
	if exists {
		return nil
	}

	conn, err := b.dialer.DialContext(ctx, "tcp", b.brokers[0])
	if err != nil {
		return fmt.Errorf("kafka event bus: dial failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
		return fmt.Errorf("kafka event bus: create topic failed: %w", err)
	}

	b.topicsMtx.Lock()
	b.topics[topic] = struct{}{}
	b.topicsMtx.Unlock()
	return nil
}

// Close stops consumers and flushes the writer.
func (b *KafkaEventBus) Close() error {
	b.cancel()
	b.readersMtx.Lock()
	for _, r := range b.readers {
		_ = r.Close()
	}
	b.readersMtx.Unlock()
	b.wg.Wait()
	return b.writer.Close()
}

func parseBrokers(brokers string) []string {
	parts := strings.Split(brokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func topicNameFor(prefix, eventType string) string {
	return fmt.Sprintf("%s.%s", prefix, strings.ToLower(eventType))
}

func dlqTopicNameFor(prefix, eventType string) string {
	return fmt.Sprintf("%s.dlq.%s", prefix, strings.ToLower(eventType))
}

var _ eventbus.Bus = (*KafkaEventBus)(nil)
