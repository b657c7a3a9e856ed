package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amirasaad/paygate/pkg/domain"
	"github.com/amirasaad/paygate/pkg/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCreator struct {
	mock.Mock
}

func (m *mockCreator) CreateCheckoutSession(
	ctx context.Context,
	params *provider.CheckoutSessionParams,
) (*domain.CheckoutSession, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CheckoutSession), args.Error(1)
}

func validBuilder(c provider.CheckoutSessionCreator) *Builder {
	return NewBuilder(c).
		Price("price_123").
		SuccessURL("https://shop.example/success").
		CancelURL("https://shop.example/cancel")
}

func TestBuild_MissingRequiredFieldsNeverCallsCreator(t *testing.T) {
	tests := []struct {
		name   string
		build  func(*Builder) *Builder
		fields []string
	}{
		{"missing price", func(b *Builder) *Builder { return b.Price("") }, []string{"priceRef"}},
		{"missing success url", func(b *Builder) *Builder { return b.SuccessURL("") }, []string{"successUrl"}},
		{"missing cancel url", func(b *Builder) *Builder { return b.CancelURL(" ") }, []string{"cancelUrl"}},
		{"relative url", func(b *Builder) *Builder { return b.SuccessURL("/ok") }, []string{"successUrl"}},
		{"zero quantity", func(b *Builder) *Builder { return b.Quantity(0) }, []string{"quantity"}},
		{"bad email", func(b *Builder) *Builder { return b.CustomerEmail("nope") }, []string{"customerEmail"}},
		{"short expiry", func(b *Builder) *Builder { return b.ExpiresIn(time.Minute) }, []string{"expiresIn"}},
		{
			"everything missing",
			func(*Builder) *Builder { return NewBuilder(nil) },
			[]string{"priceRef", "successUrl", "cancelUrl"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creator := &mockCreator{}
			b := tt.build(validBuilder(creator))

			session, err := b.Build(context.Background())
			require.Error(t, err)
			assert.Nil(t, session)
			assert.True(t, errors.Is(err, domain.ErrValidation))

			var verrs domain.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			got := make([]string, 0, len(verrs))
			for _, v := range verrs {
				got = append(got, v.Field)
			}
			assert.Equal(t, tt.fields, got)
			creator.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
		})
	}
}

func TestBuild_PassesEveryParameter(t *testing.T) {
	creator := &mockCreator{}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	want := &domain.CheckoutSession{SessionID: "cs_test_1", HostedURL: "https://checkout.stripe.com/c/pay/cs_test_1"}

	creator.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(p *provider.CheckoutSessionParams) bool {
		return p.PriceRef == "price_123" &&
			p.Quantity == 2 &&
			p.CustomerEmail == "ana@example.com" &&
			p.Metadata["order_id"] == "o-1" &&
			p.Metadata["source"] == "web" &&
			len(p.PaymentMethods) == 1 && p.PaymentMethods[0] == "card" &&
			p.AllowPromotionCodes &&
			p.ExpiresAt.Equal(now.Add(time.Hour))
	})).Return(want, nil).Once()

	b := validBuilder(creator).
		Quantity(2).
		CustomerEmail("ana@example.com").
		Metadata(map[string]string{"order_id": "o-1"}).
		WithMetadata("source", "web").
		PaymentMethods("card").
		AllowPromotionCodes(true).
		ExpiresIn(time.Hour)
	b.now = func() time.Time { return now }

	got, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
	creator.AssertExpectations(t)
}

func TestBuild_CreatorFailureIsCheckoutError(t *testing.T) {
	creator := &mockCreator{}
	cause := &domain.NetworkError{Op: "stripe.CreateCheckoutSession", Err: errors.New("connection reset")}
	creator.On("CreateCheckoutSession", mock.Anything, mock.Anything).Return(nil, cause)

	_, err := validBuilder(creator).Build(context.Background())

	var checkoutErr *domain.CheckoutError
	require.ErrorAs(t, err, &checkoutErr)
	var netErr *domain.NetworkError
	assert.ErrorAs(t, err, &netErr)
	assert.False(t, errors.Is(err, domain.ErrValidation))
}
