package pix

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/amirasaad/paygate/pkg/domain"
)

// Poller defaults.
const (
	DefaultPollInterval = 5 * time.Second
	DefaultPollCeiling  = 30 * time.Minute
)

// Outcome is how a polling loop ended.
type Outcome string

const (
	// OutcomeApproved means the charge was paid.
	OutcomeApproved Outcome = "approved"
	// OutcomeRejected means the charge reached a final non-approved status.
	OutcomeRejected Outcome = "rejected"
	// OutcomeExpired means the deadline passed without approval.
	OutcomeExpired Outcome = "expired"
	// OutcomeCancelled means the caller stopped the loop.
	OutcomeCancelled Outcome = "cancelled"
)

// Result is the final state of a polling loop. Charge is the last
// successfully fetched snapshot and may be nil.
type Result struct {
	Outcome Outcome
	Charge  *domain.PixCharge
}

// ChargeReader reads a charge by id.
type ChargeReader interface {
	GetPixCharge(ctx context.Context, chargeID string) (*domain.PixCharge, error)
}

// Poller checks a charge on a fixed interval until it settles.
type Poller struct {
	reader   ChargeReader
	interval time.Duration
	ceiling  time.Duration
	onPoll   func(*domain.PixCharge)
	now      func() time.Time
	logger   *slog.Logger
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithInterval sets the time between checks.
func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithCeiling caps how long a loop may run.
func WithCeiling(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.ceiling = d
		}
	}
}

// WithOnPoll registers a callback for every fetched snapshot.
func WithOnPoll(fn func(*domain.PixCharge)) PollerOption {
	return func(p *Poller) { p.onPoll = fn }
}

// WithPollerClock overrides the time source used to compute deadlines.
func WithPollerClock(now func() time.Time) PollerOption {
	return func(p *Poller) { p.now = now }
}

// NewPoller creates a Poller.
func NewPoller(r ChargeReader, logger *slog.Logger, opts ...PollerOption) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Poller{
		reader:   r,
		interval: DefaultPollInterval,
		ceiling:  DefaultPollCeiling,
		now:      time.Now,
		logger:   logger.With("component", "pix-poller"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Handle controls one running loop.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	result Result
}

// Cancel stops the loop and waits for it to exit. Safe to call repeatedly
// and after the loop has finished.
func (h *Handle) Cancel() {
	h.cancel()
	<-h.done
}

// Done is closed once the loop exits.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Result blocks until the loop exits and returns how it ended.
func (h *Handle) Result() Result {
	<-h.done
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.result
}

// Deadline returns the earlier of now+ceiling and expiresAt. A zero
// expiresAt means the charge has no known expiry.
func (p *Poller) Deadline(expiresAt time.Time) time.Time {
	deadline := p.now().Add(p.ceiling)
	if !expiresAt.IsZero() && expiresAt.Before(deadline) {
		return expiresAt
	}
	return deadline
}

// Start polls chargeID until it is approved, reaches another final status,
// the deadline derived from expiresAt passes, or ctx is cancelled.
func (p *Poller) Start(ctx context.Context, chargeID string, expiresAt time.Time) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{cancel: cancel, done: make(chan struct{})}
	deadline := p.Deadline(expiresAt)

	go func() {
		defer close(h.done)
		defer cancel()
		res := p.run(ctx, chargeID, deadline)
		h.mu.Lock()
		h.result = res
		h.mu.Unlock()
	}()
	return h
}

func (p *Poller) run(ctx context.Context, chargeID string, deadline time.Time) Result {
	log := p.logger.With("charge_id", chargeID)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	timer := time.NewTimer(max(deadline.Sub(p.now()), 0))
	defer timer.Stop()

	var last *domain.PixCharge
	for {
		select {
		case <-ctx.Done():
			log.Debug("polling cancelled")
			return Result{Outcome: OutcomeCancelled, Charge: last}
		case <-timer.C:
			log.Info("⏱️ polling stopped at deadline", "deadline", deadline)
			return Result{Outcome: OutcomeExpired, Charge: last}
		case <-ticker.C:
		}

		charge, err := p.reader.GetPixCharge(ctx, chargeID)
		if err != nil {
			if ctx.Err() != nil {
				return Result{Outcome: OutcomeCancelled, Charge: last}
			}
			log.Warn("⚠️ charge status check failed", "error", err)
			continue
		}
		last = charge
		if p.onPoll != nil {
			p.onPoll(charge)
		}

		switch charge.Status {
		case domain.StatusApproved:
			log.Info("✅ charge approved")
			return Result{Outcome: OutcomeApproved, Charge: charge}
		case domain.StatusRejected, domain.StatusCancelled, domain.StatusRefunded:
			log.Info("charge closed without approval", "status", charge.Status)
			return Result{Outcome: OutcomeRejected, Charge: charge}
		}
	}
}
