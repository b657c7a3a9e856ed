package app

import (
	"context"
	"errors"

	"github.com/amirasaad/paygate/pkg/domain"
	"github.com/amirasaad/paygate/pkg/eventbus"
)

// ProviderStripe tags records that originate from Stripe checkouts.
const ProviderStripe = "stripe"

// setupEventBus registers consumers for events published by the hosted
// checkout webhook.
func (a *App) setupEventBus() {
	bus := a.Deps.EventBus
	if bus == nil {
		return
	}
	logger := a.Deps.Logger.With("component", "checkout-consumer")

	persist := func(ctx context.Context, e eventbus.Event) error {
		logger.Info("🛒 checkout event received",
			"type", e.Type,
			"payment_id", e.PaymentID,
			"status", e.Status,
		)
		if a.Deps.Payments == nil {
			return nil
		}
		err := a.Deps.Payments.Upsert(ctx, ProviderStripe, &domain.Payment{
			ID:        e.PaymentID,
			Status:    e.Status,
			Amount:    e.Amount,
			Currency:  e.Currency,
			Metadata:  e.Metadata,
			CreatedAt: e.OccurredAt,
		})
		if errors.Is(err, domain.ErrStaleTransition) {
			logger.Warn("⚠️ checkout event older than stored status", "payment_id", e.PaymentID, "status", e.Status)
			return nil
		}
		return err
	}

	bus.Register(eventbus.TypeCheckoutComplete, persist)
	bus.Register(eventbus.TypeCheckoutExpired, persist)
}
