// Package eventbus defines payment lifecycle events and the bus contract
// used to publish them to downstream consumers.
package eventbus

import (
	"context"
	"time"

	"github.com/amirasaad/paygate/pkg/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types emitted by paygate.
const (
	TypePaymentApproved  = "payment.approved"
	TypePaymentPending   = "payment.pending"
	TypePaymentRejected  = "payment.rejected"
	TypePaymentCancelled = "payment.cancelled"
	TypePaymentRefunded  = "payment.refunded"
	TypeCheckoutComplete = "checkout.completed"
	TypeCheckoutExpired  = "checkout.expired"
)

// Event is a payment lifecycle fact. It carries the processor's payment id,
// never card data.
type Event struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Provider   string            `json:"provider"`
	PaymentID  string            `json:"payment_id"`
	Status     domain.Status     `json:"status,omitempty"`
	Amount     decimal.Decimal   `json:"amount"`
	Currency   string            `json:"currency,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// TypeForStatus returns the event type published for a dispatched status.
func TypeForStatus(s domain.Status) string {
	return "payment." + string(s)
}

// NewPaymentEvent builds the event for a dispatched payment.
func NewPaymentEvent(provider string, p *domain.Payment) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       TypeForStatus(p.Status),
		Provider:   provider,
		PaymentID:  p.ID,
		Status:     p.Status,
		Amount:     p.Amount,
		Currency:   p.Currency,
		Metadata:   p.Metadata,
		OccurredAt: time.Now().UTC(),
	}
}

// HandlerFunc consumes one event.
type HandlerFunc func(ctx context.Context, e Event) error

// Bus publishes events and registers consumers by event type.
type Bus interface {
	Emit(ctx context.Context, e Event) error
	Register(eventType string, handler HandlerFunc)
}
