package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/paygate/pkg/domain"
	"github.com/amirasaad/paygate/pkg/idempotency"
	"golang.org/x/sync/singleflight"
)

// SideEffect is one named reaction to a payment status.
type SideEffect struct {
	Name string
	Run  func(ctx context.Context, p *domain.Payment) error
}

// Effect builds a SideEffect.
func Effect(name string, run func(ctx context.Context, p *domain.Payment) error) SideEffect {
	return SideEffect{Name: name, Run: run}
}

// Handler is the ordered list of effects for one status.
type Handler []SideEffect

// RunEffects executes every effect even when earlier ones fail or panic.
// Failures are logged and joined; the joined error is informational only.
func RunEffects(ctx context.Context, p *domain.Payment, h Handler, logger *slog.Logger, m Metrics) error {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = nopMetrics{}
	}
	var errs []error
	for _, e := range h {
		if err := runOne(ctx, p, e); err != nil {
			logger.Error("❌ side effect failed",
				"effect", e.Name,
				"payment_id", p.ID,
				"status", p.Status,
				"error", err,
			)
			m.EffectFailed(e.Name)
			errs = append(errs, fmt.Errorf("%s: %w", e.Name, err))
		}
	}
	return errors.Join(errs...)
}

func runOne(ctx context.Context, p *domain.Payment, e SideEffect) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return e.Run(ctx, p)
}

// IdempotencyKey is the store key of one effect for one payment status.
func IdempotencyKey(paymentID string, status domain.Status, effect string) string {
	return paymentID + ":" + string(status) + ":" + effect
}

// Guard makes effects at-most-once per (payment, status, effect) using an
// external store. Concurrent deliveries inside one process are coalesced.
type Guard struct {
	store    idempotency.Store
	ttl      time.Duration
	inflight singleflight.Group
	logger   *slog.Logger
}

// NewGuard creates a Guard. A ttl <= 0 keeps keys forever.
func NewGuard(store idempotency.Store, ttl time.Duration, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{store: store, ttl: ttl, logger: logger}
}

// Idempotent wraps e. A failed run releases its key so a later redelivery
// can retry it; a store error skips the effect and is reported as a failure.
func (g *Guard) Idempotent(e SideEffect) SideEffect {
	return SideEffect{
		Name: e.Name,
		Run: func(ctx context.Context, p *domain.Payment) error {
			key := IdempotencyKey(p.ID, p.Status, e.Name)
			log := g.logger.With("effect", e.Name, "idempotency_key", key)

			_, err, _ := g.inflight.Do(key, func() (any, error) {
				acquired, err := g.store.Acquire(ctx, key, g.ttl)
				if err != nil {
					return nil, err
				}
				if !acquired {
					log.Info("🔁 [SKIP] side effect already applied")
					return nil, nil
				}
				if err := runOne(ctx, p, e); err != nil {
					if relErr := g.store.Release(context.WithoutCancel(ctx), key); relErr != nil {
						log.Error("failed to release idempotency key", "error", relErr)
					}
					return nil, err
				}
				return nil, nil
			})
			return err
		},
	}
}

// Wrap applies Idempotent to every effect of h.
func (g *Guard) Wrap(h Handler) Handler {
	out := make(Handler, len(h))
	for i, e := range h {
		out[i] = g.Idempotent(e)
	}
	return out
}

// WithGuard returns a copy of hs where every effect is idempotent.
func (hs Handlers) WithGuard(g *Guard) Handlers {
	return Handlers{
		Approved:  g.Wrap(hs.Approved),
		Pending:   g.Wrap(hs.Pending),
		Rejected:  g.Wrap(hs.Rejected),
		Cancelled: g.Wrap(hs.Cancelled),
		Refunded:  g.Wrap(hs.Refunded),
	}
}
