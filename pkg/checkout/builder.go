// Package checkout assembles hosted checkout sessions with a fluent builder.
package checkout

import (
	"context"
	"maps"
	"net/url"
	"strings"
	"time"

	"github.com/amirasaad/paygate/pkg/domain"
	"github.com/amirasaad/paygate/pkg/provider"
)

// Hosted checkout expiry limits accepted by the processor.
const (
	MinExpiry = 30 * time.Minute
	MaxExpiry = 24 * time.Hour
)

// Builder collects checkout parameters. A Builder is not safe for
// concurrent use; create one per request.
type Builder struct {
	creator   provider.CheckoutSessionCreator
	params    provider.CheckoutSessionParams
	expiresIn time.Duration
	now       func() time.Time
}

// NewBuilder starts a session with quantity 1.
func NewBuilder(creator provider.CheckoutSessionCreator) *Builder {
	return &Builder{
		creator: creator,
		params: provider.CheckoutSessionParams{
			Quantity: 1,
			Metadata: map[string]string{},
		},
		now: time.Now,
	}
}

// Price sets the processor price reference (e.g. "price_123").
func (b *Builder) Price(ref string) *Builder {
	b.params.PriceRef = strings.TrimSpace(ref)
	return b
}

// Quantity sets the line item quantity.
func (b *Builder) Quantity(n int64) *Builder {
	b.params.Quantity = n
	return b
}

// CustomerEmail pre-fills the payer email.
func (b *Builder) CustomerEmail(email string) *Builder {
	b.params.CustomerEmail = strings.TrimSpace(email)
	return b
}

// SuccessURL is where the payer lands after paying.
func (b *Builder) SuccessURL(u string) *Builder {
	b.params.SuccessURL = strings.TrimSpace(u)
	return b
}

// CancelURL is where the payer lands after abandoning.
func (b *Builder) CancelURL(u string) *Builder {
	b.params.CancelURL = strings.TrimSpace(u)
	return b
}

// Metadata merges md into the session metadata.
func (b *Builder) Metadata(md map[string]string) *Builder {
	maps.Copy(b.params.Metadata, md)
	return b
}

// WithMetadata sets a single metadata entry.
func (b *Builder) WithMetadata(key, value string) *Builder {
	b.params.Metadata[key] = value
	return b
}

// PaymentMethods restricts the accepted method types (e.g. "card").
func (b *Builder) PaymentMethods(methods ...string) *Builder {
	b.params.PaymentMethods = append(b.params.PaymentMethods, methods...)
	return b
}

// AllowPromotionCodes lets the payer enter promotion codes.
func (b *Builder) AllowPromotionCodes(allow bool) *Builder {
	b.params.AllowPromotionCodes = allow
	return b
}

// ExpiresIn sets the session lifetime; zero keeps the processor default.
func (b *Builder) ExpiresIn(d time.Duration) *Builder {
	b.expiresIn = d
	return b
}

// Validate reports every missing or invalid parameter at once.
func (b *Builder) Validate() error {
	var errs domain.ValidationErrors
	p := b.params

	if p.PriceRef == "" {
		errs.Add("priceRef", "is required")
	}
	if p.Quantity < 1 {
		errs.Add("quantity", "must be at least 1")
	}
	if p.SuccessURL == "" {
		errs.Add("successUrl", "is required")
	} else if !isAbsoluteHTTP(p.SuccessURL) {
		errs.Add("successUrl", "must be an absolute http(s) URL")
	}
	if p.CancelURL == "" {
		errs.Add("cancelUrl", "is required")
	} else if !isAbsoluteHTTP(p.CancelURL) {
		errs.Add("cancelUrl", "must be an absolute http(s) URL")
	}
	if p.CustomerEmail != "" && !strings.Contains(p.CustomerEmail, "@") {
		errs.Add("customerEmail", "must be a valid email address")
	}
	if b.expiresIn != 0 && (b.expiresIn < MinExpiry || b.expiresIn > MaxExpiry) {
		errs.Add("expiresIn", "must be between 30m and 24h")
	}
	return errs.Err()
}

// Build validates and creates the session. Validation failures never reach
// the processor. Processor failures are wrapped in *domain.CheckoutError.
func (b *Builder) Build(ctx context.Context) (*domain.CheckoutSession, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	params := b.params
	params.Metadata = maps.Clone(b.params.Metadata)
	params.PaymentMethods = append([]string(nil), b.params.PaymentMethods...)
	if b.expiresIn != 0 {
		params.ExpiresAt = b.now().Add(b.expiresIn)
	}

	session, err := b.creator.CreateCheckoutSession(ctx, &params)
	if err != nil {
		return nil, &domain.CheckoutError{Cause: err}
	}
	return session, nil
}

func isAbsoluteHTTP(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
