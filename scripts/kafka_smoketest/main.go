package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	infraeventbus "github.com/amirasaad/paygate/infra/eventbus"
	"github.com/amirasaad/paygate/pkg/domain"
	"github.com/amirasaad/paygate/pkg/eventbus"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RunSmokeTest publishes one event per payment status through the Kafka
// event bus and waits until every one is consumed back.
func RunSmokeTest() error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	brokers := strings.TrimSpace(os.Getenv("BROKERS"))
	if brokers == "" {
		brokers = "localhost:9093,localhost:9092"
	}
	groupID := strings.TrimSpace(os.Getenv("GROUP_ID"))
	if groupID == "" {
		groupID = "paygate-smoketest-" + uuid.NewString()[:8]
	}

	bus, err := infraeventbus.NewWithKafka(brokers, logger, &infraeventbus.KafkaEventBusConfig{
		GroupID:     groupID,
		TopicPrefix: "paygate.smoketest",
	})
	if err != nil {
		logger.Error("kafka bus unavailable", "error", err)
		return err
	}
	defer func() { _ = bus.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	runID := uuid.NewString()
	received := make(chan string, len(domain.Statuses))
	for _, status := range domain.Statuses {
		bus.Register(eventbus.TypeForStatus(status), func(_ context.Context, e eventbus.Event) error {
			if e.Metadata["run_id"] == runID {
				received <- e.Type
			}
			return nil
		})
	}

	for _, status := range domain.Statuses {
		p := &domain.Payment{
			ID:       "smoke-" + string(status),
			Status:   status,
			Amount:   decimal.RequireFromString("1.00"),
			Currency: "BRL",
			Metadata: map[string]string{"run_id": runID},
		}
		if err := bus.Emit(ctx, eventbus.NewPaymentEvent("smoketest", p)); err != nil {
			logger.Error("emit failed", "status", status, "error", err)
			return err
		}
		logger.Info("📨 produced", "type", eventbus.TypeForStatus(status))
	}

	for range domain.Statuses {
		select {
		case typ := <-received:
			logger.Info("✅ consumed", "type", typ)
		case <-ctx.Done():
			return fmt.Errorf("timed out waiting for events: %w", ctx.Err())
		}
	}

	logger.Info("kafka smoke test passed")
	return nil
}

// main runs the smoke test and exits non-zero on failure.
func main() {
	if err := RunSmokeTest(); err != nil {
		os.Exit(1)
	}
}
