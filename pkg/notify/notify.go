// Package notify announces payment status changes to external channels.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amirasaad/paygate/pkg/domain"
	"github.com/amirasaad/paygate/pkg/eventbus"
)

// Notifier tells some channel that a payment changed status.
type Notifier interface {
	Notify(ctx context.Context, p *domain.Payment) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, p *domain.Payment) error

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, p *domain.Payment) error { return f(ctx, p) }

// LogNotifier writes a structured log line per notification.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger.With("component", "notifier")}
}

// Notify logs the payment.
func (n *LogNotifier) Notify(_ context.Context, p *domain.Payment) error {
	n.logger.Info("📨 payment notification",
		"payment_id", p.ID,
		"status", p.Status,
		"status_detail", p.StatusDetail,
		"amount", p.Amount.StringFixed(2),
		"currency", p.Currency,
		"payer_email", p.PayerIdentity.Email,
	)
	return nil
}

// BusNotifier publishes a payment lifecycle event.
type BusNotifier struct {
	bus      eventbus.Bus
	provider string
}

// NewBusNotifier creates a BusNotifier tagging events with provider.
func NewBusNotifier(bus eventbus.Bus, provider string) *BusNotifier {
	return &BusNotifier{bus: bus, provider: provider}
}

// Notify emits the event for p's status.
func (n *BusNotifier) Notify(ctx context.Context, p *domain.Payment) error {
	if err := n.bus.Emit(ctx, eventbus.NewPaymentEvent(n.provider, p)); err != nil {
		return fmt.Errorf("publish payment event: %w", err)
	}
	return nil
}
