package app

import (
	"context"
	"errors"

	"github.com/amirasaad/paygate/pkg/domain"
	"github.com/amirasaad/paygate/pkg/notify"
	"github.com/amirasaad/paygate/pkg/webhook"
)

// ProviderMercadoPago tags records and events that originate from Mercado Pago.
const ProviderMercadoPago = "mercadopago"

// Side effect names. They are part of the idempotency key, so renaming
// one re-runs it for already processed payments.
const (
	EffectPersist   = "persist"
	EffectNotifyLog = "notify-log"
	EffectNotifyBus = "notify-bus"
)

// storedStatus reads the persisted status used to reject backward moves.
func (a *App) storedStatus(ctx context.Context, paymentID string) (domain.Status, error) {
	p, err := a.Deps.Payments.Get(ctx, paymentID)
	if err != nil {
		return "", err
	}
	return p.Status, nil
}

// statusHandlers builds the per-status side effects, each guarded so
// redelivered webhooks run it at most once.
func (a *App) statusHandlers() webhook.Handlers {
	deps := a.Deps

	var effects webhook.Handler
	if deps.Payments != nil {
		effects = append(effects, webhook.Effect(EffectPersist, func(ctx context.Context, p *domain.Payment) error {
			err := deps.Payments.Upsert(ctx, ProviderMercadoPago, p)
			if errors.Is(err, domain.ErrStaleTransition) {
				deps.Logger.Warn("⚠️ stored payment not moved backwards", "payment_id", p.ID, "status", p.Status)
				return nil
			}
			return err
		}))
	} else {
		deps.Logger.Warn("⚠️ no payment repository configured, persist side effect disabled")
	}
	effects = append(effects,
		webhook.Effect(EffectNotifyLog, notify.NewLogNotifier(deps.Logger).Notify),
		webhook.Effect(EffectNotifyBus, notify.NewBusNotifier(deps.EventBus, ProviderMercadoPago).Notify),
	)

	handlers := webhook.Handlers{
		Approved:  effects,
		Pending:   effects,
		Rejected:  effects,
		Cancelled: effects,
		Refunded:  effects,
	}
	if deps.Idempotency == nil {
		return handlers
	}
	guard := webhook.NewGuard(deps.Idempotency, a.Config.Idempotency.TTL, deps.Logger)
	return handlers.WithGuard(guard)
}
