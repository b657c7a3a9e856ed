package installments

import (
	"context"
	"sync"

	"github.com/amirasaad/paygate/pkg/domain"
	"github.com/shopspring/decimal"
)

// Watcher reacts to BIN changes from a card-number input. Each change
// cancels the lookup in flight; only the newest result is delivered.
type Watcher struct {
	resolver        *Resolver
	amount          decimal.Decimal
	paymentMethodID string
	deliver         func(bin string, opts []domain.InstallmentOption)

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	closed bool
	wg     sync.WaitGroup
}

// NewWatcher creates a Watcher that calls deliver with each fresh result.
func NewWatcher(
	r *Resolver,
	amount decimal.Decimal,
	paymentMethodID string,
	deliver func(bin string, opts []domain.InstallmentOption),
) *Watcher {
	return &Watcher{
		resolver:        r,
		amount:          amount,
		paymentMethodID: paymentMethodID,
		deliver:         deliver,
	}
}

// OnBINChange starts a lookup for digits. Inputs with fewer than six digits
// only cancel the pending lookup.
func (w *Watcher) OnBINChange(digits string) {
	bin, ok := NormalizeBIN(digits)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.gen++
	if !ok {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	gen := w.gen

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer cancel()
		opts := w.resolver.GetInstallments(ctx, w.amount, bin, w.paymentMethodID)

		w.mu.Lock()
		current := gen == w.gen && !w.closed
		w.mu.Unlock()
		if current {
			w.deliver(bin, opts)
		}
	}()
}

// Close cancels the pending lookup and waits for it to finish. No result
// is delivered after Close returns.
func (w *Watcher) Close() {
	w.mu.Lock()
	w.closed = true
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.mu.Unlock()
	w.wg.Wait()
}
