package mercadopago

import (
	"context"
	"net/http"
	"net/url"

	"github.com/amirasaad/paygate/pkg/domain"
	"github.com/shopspring/decimal"
)

// Installments lists the payment plans for a card BIN and amount. Only the
// first method in the response is used; the API returns one per BIN.
func (c *Client) Installments(
	ctx context.Context,
	amount decimal.Decimal,
	bin, paymentMethodID string,
) ([]domain.InstallmentOption, error) {
	const op = "mercadopago.Installments"

	q := url.Values{}
	q.Set("amount", amount.StringFixed(2))
	q.Set("bin", bin)
	if paymentMethodID != "" {
		q.Set("payment_method_id", paymentMethodID)
	}

	var resp []installmentsResponse
	if err := c.do(ctx, op, http.MethodGet, "/v1/payment_methods/installments", q, nil, &resp); err != nil {
		return nil, err
	}
	if len(resp) == 0 {
		return []domain.InstallmentOption{}, nil
	}

	costs := resp[0].PayerCosts
	options := make([]domain.InstallmentOption, 0, len(costs))
	for _, pc := range costs {
		options = append(options, domain.InstallmentOption{
			Count:                pc.Installments,
			PerInstallmentAmount: pc.InstallmentAmount,
			TotalAmount:          pc.TotalAmount,
			HasInterest:          pc.InstallmentRate.IsPositive() || pc.TotalAmount.GreaterThan(amount),
			RecommendedLabel:     pc.RecommendedMessage,
		})
	}
	return options, nil
}
