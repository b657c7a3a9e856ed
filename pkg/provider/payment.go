package provider

import (
	"context"
	"time"

	"github.com/amirasaad/paygate/pkg/domain"
	"github.com/shopspring/decimal"
)

// PaymentFetcher retrieves the authoritative payment record by id.
type PaymentFetcher interface {
	FetchPayment(ctx context.Context, id string) (*domain.Payment, error)
}

// PixParams is the processor-facing shape of a PIX charge request. Names are
// already split and the CPF is already normalized.
type PixParams struct {
	Amount      decimal.Decimal
	Description string
	Email       string
	FirstName   string
	LastName    string
	CPF         string
	ExpiresAt   time.Time
	Metadata    map[string]string
}

// PixProvider creates and reads instant payment charges.
type PixProvider interface {
	CreatePixCharge(ctx context.Context, params *PixParams) (*domain.PixCharge, error)
	GetPixCharge(ctx context.Context, id string) (*domain.PixCharge, error)
}

// InstallmentsProvider lists installment plans for a BIN and amount.
type InstallmentsProvider interface {
	Installments(
		ctx context.Context,
		amount decimal.Decimal,
		bin string,
		paymentMethodID string,
	) ([]domain.InstallmentOption, error)
}

// CardPaymentParams charges a previously issued card token.
type CardPaymentParams struct {
	Token                string
	PaymentMethodID      string
	Installments         int
	Amount               decimal.Decimal
	Description          string
	Email                string
	IdentificationType   string
	IdentificationNumber string
	Metadata             map[string]string
}

// CardPaymentProvider charges card tokens.
type CardPaymentProvider interface {
	CreateCardPayment(ctx context.Context, params *CardPaymentParams) (*domain.Payment, error)
}

// CheckoutSessionParams is the validated input of a hosted checkout.
type CheckoutSessionParams struct {
	PriceRef            string
	Quantity            int64
	CustomerEmail       string
	SuccessURL          string
	CancelURL           string
	Metadata            map[string]string
	PaymentMethods      []string
	AllowPromotionCodes bool
	ExpiresAt           time.Time
}

// CheckoutSessionCreator issues hosted checkout sessions.
type CheckoutSessionCreator interface {
	CreateCheckoutSession(
		ctx context.Context,
		params *CheckoutSessionParams,
	) (*domain.CheckoutSession, error)
}
