// Package webhook turns verified processor notifications into side effects:
// it re-fetches the authoritative payment record and dispatches it to the
// handler registered for its status.
package webhook

import (
	"context"
	"errors"
	"log/slog"

	"github.com/amirasaad/paygate/pkg/domain"
)

// Handlers holds one slot per lifecycle status.
type Handlers struct {
	Approved  Handler
	Pending   Handler
	Rejected  Handler
	Cancelled Handler
	Refunded  Handler
}

// Metrics observes dispatch outcomes.
type Metrics interface {
	Dispatched(status domain.Status)
	EffectFailed(effect string)
}

type nopMetrics struct{}

func (nopMetrics) Dispatched(domain.Status) {}
func (nopMetrics) EffectFailed(string)      {}

// Dispatcher routes a payment to exactly one handler slot.
type Dispatcher struct {
	handlers Handlers
	logger   *slog.Logger
	metrics  Metrics
	stored   StatusLookup
}

// StatusLookup returns the locally stored status of a payment, or
// domain.ErrNotFound when it has never been seen.
type StatusLookup func(ctx context.Context, paymentID string) (domain.Status, error)

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithMetrics records dispatch counters.
func WithMetrics(m Metrics) DispatcherOption {
	return func(d *Dispatcher) {
		if m != nil {
			d.metrics = m
		}
	}
}

// WithStatusLookup drops payments whose status may not follow the stored
// one, so a late fetch never moves a record backwards.
func WithStatusLookup(lookup StatusLookup) DispatcherOption {
	return func(d *Dispatcher) {
		d.stored = lookup
	}
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(h Handlers, logger *slog.Logger, opts ...DispatcherOption) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		handlers: h,
		logger:   logger.With("component", "dispatcher"),
		metrics:  nopMetrics{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch runs the handler for p.Status. Statuses outside the lifecycle are
// logged and dropped.
func (d *Dispatcher) Dispatch(ctx context.Context, p *domain.Payment) error {
	var h Handler
	switch p.Status {
	case domain.StatusApproved:
		h = d.handlers.Approved
	case domain.StatusPending:
		h = d.handlers.Pending
	case domain.StatusRejected:
		h = d.handlers.Rejected
	case domain.StatusCancelled:
		h = d.handlers.Cancelled
	case domain.StatusRefunded:
		h = d.handlers.Refunded
	default:
		d.logger.Warn("⚠️ unknown payment status dropped", "payment_id", p.ID, "status", p.Status)
		return nil
	}

	if d.stored != nil {
		stored, err := d.stored(ctx, p.ID)
		switch {
		case err == nil && !domain.CanTransition(stored, p.Status):
			d.logger.Warn("⚠️ stale status transition dropped",
				"payment_id", p.ID,
				"stored_status", stored,
				"status", p.Status,
			)
			return nil
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			d.logger.Warn("stored status unavailable, dispatching anyway", "payment_id", p.ID, "error", err)
		}
	}

	d.logger.Info("📨 dispatching payment",
		"payment_id", p.ID,
		"status", p.Status,
		"status_detail", p.StatusDetail,
		"effects", len(h),
	)
	d.metrics.Dispatched(p.Status)
	return RunEffects(ctx, p, h, d.logger, d.metrics)
}
