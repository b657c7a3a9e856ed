package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/amirasaad/paygate/pkg/domain"
	"github.com/amirasaad/paygate/pkg/provider"
)

// Processor handles verified notifications. It never trusts the payload
// beyond the resource id: the payment is always re-fetched.
type Processor struct {
	fetcher    provider.PaymentFetcher
	dispatcher *Dispatcher
	logger     *slog.Logger
}

// NewProcessor creates a Processor.
func NewProcessor(fetcher provider.PaymentFetcher, dispatcher *Dispatcher, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		fetcher:    fetcher,
		dispatcher: dispatcher,
		logger:     logger.With("component", "webhook-processor"),
	}
}

// Handle fetches and dispatches the payment a notification refers to.
// Non-payment notifications are ignored. The returned error is for logging
// and metrics; it must not change the acknowledgement sent to the processor.
func (p *Processor) Handle(ctx context.Context, n domain.WebhookNotification) error {
	log := p.logger.With("notification_type", n.Type, "action", n.Action, "resource_id", n.ResourceID)

	if n.Type != domain.NotificationTypePayment {
		log.Info("ignoring non-payment notification")
		return nil
	}
	if n.ResourceID == "" {
		log.Warn("payment notification without resource id")
		return &domain.ValidationError{Field: "data.id", Message: "is required"}
	}

	_, err := p.Reconcile(ctx, n.ResourceID)
	return err
}

// Reconcile re-fetches a payment and dispatches its current status.
func (p *Processor) Reconcile(ctx context.Context, paymentID string) (*domain.Payment, error) {
	log := p.logger.With("payment_id", paymentID)

	payment, err := p.fetcher.FetchPayment(ctx, paymentID)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownStatus) {
			log.Warn("⚠️ payment has unknown status, dropping", "error", err)
			return nil, nil
		}
		log.Error("failed to fetch payment", "error", err)
		return nil, fmt.Errorf("fetch payment %s: %w", paymentID, err)
	}

	if err := p.dispatcher.Dispatch(ctx, payment); err != nil {
		return payment, fmt.Errorf("dispatch payment %s: %w", paymentID, err)
	}
	log.Info("✅ payment dispatched", "status", payment.Status)
	return payment, nil
}
