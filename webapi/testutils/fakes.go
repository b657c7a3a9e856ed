package testutils

import (
	"context"
	"sync"

	"github.com/amirasaad/paygate/pkg/domain"
	"github.com/amirasaad/paygate/pkg/provider"
	"github.com/shopspring/decimal"
)

// FakeMercadoPago is an in-memory processor. Unknown ids yield
// domain.ErrNotFound.
type FakeMercadoPago struct {
	mu       sync.Mutex
	Payments map[string]*domain.Payment
	Charges  map[string]*domain.PixCharge
	Options  []domain.InstallmentOption
	// CardResult is returned by CreateCardPayment; Err fails every call.
	CardResult *domain.Payment
	Err        error

	FetchCalls   int
	PixParams    []*provider.PixParams
	CardParams   []*provider.CardPaymentParams
	InstallCalls int
}

// NewFakeMercadoPago returns an empty fake.
func NewFakeMercadoPago() *FakeMercadoPago {
	return &FakeMercadoPago{
		Payments: map[string]*domain.Payment{},
		Charges:  map[string]*domain.PixCharge{},
	}
}

// SetPayment stores p as the authoritative record.
func (f *FakeMercadoPago) SetPayment(p *domain.Payment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Payments[p.ID] = p
}

func (f *FakeMercadoPago) FetchPayment(_ context.Context, id string) (*domain.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FetchCalls++
	if f.Err != nil {
		return nil, f.Err
	}
	p, ok := f.Payments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *FakeMercadoPago) CreatePixCharge(_ context.Context, params *provider.PixParams) (*domain.PixCharge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PixParams = append(f.PixParams, params)
	if f.Err != nil {
		return nil, f.Err
	}
	c := &domain.PixCharge{
		ID:              "pix-1",
		Status:          domain.StatusPending,
		QRImageBase64:   "iVBORw0KGgo=",
		QRCopyPasteText: "00020126580014br.gov.bcb.pix",
		ExpiresAt:       params.ExpiresAt,
	}
	f.Charges[c.ID] = c
	return c, nil
}

func (f *FakeMercadoPago) GetPixCharge(_ context.Context, id string) (*domain.PixCharge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	c, ok := f.Charges[id]
	if !ok {
		return nil, &domain.ProviderAPIError{Provider: "mercadopago", StatusCode: 404, Message: "not found"}
	}
	cp := *c
	return &cp, nil
}

func (f *FakeMercadoPago) Installments(
	_ context.Context,
	_ decimal.Decimal,
	_ string,
	_ string,
) ([]domain.InstallmentOption, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.InstallCalls++
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Options, nil
}

func (f *FakeMercadoPago) CreateCardPayment(_ context.Context, params *provider.CardPaymentParams) (*domain.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CardParams = append(f.CardParams, params)
	if f.Err != nil {
		return nil, f.Err
	}
	cp := *f.CardResult
	return &cp, nil
}

// FakeStripe records checkout sessions and returns WebhookErr from
// HandleWebhook.
type FakeStripe struct {
	mu         sync.Mutex
	Sessions   []*provider.CheckoutSessionParams
	Session    *domain.CheckoutSession
	Err        error
	WebhookErr error
	Payloads   [][]byte
}

func (f *FakeStripe) CreateCheckoutSession(
	_ context.Context,
	params *provider.CheckoutSessionParams,
) (*domain.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Sessions = append(f.Sessions, params)
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Session != nil {
		return f.Session, nil
	}
	return &domain.CheckoutSession{
		SessionID: "cs_test_1",
		HostedURL: "https://checkout.stripe.com/c/pay/cs_test_1",
		ExpiresAt: params.ExpiresAt,
		Metadata:  params.Metadata,
	}, nil
}

func (f *FakeStripe) HandleWebhook(_ context.Context, payload []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Payloads = append(f.Payloads, payload)
	return f.WebhookErr
}
