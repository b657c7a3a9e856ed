package mercadopago

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/amirasaad/paygate/pkg/domain"
	"github.com/amirasaad/paygate/pkg/provider"
)

var (
	_ provider.PaymentFetcher       = (*Client)(nil)
	_ provider.PixProvider          = (*Client)(nil)
	_ provider.InstallmentsProvider = (*Client)(nil)
	_ provider.CardPaymentProvider  = (*Client)(nil)
)

// FetchPayment returns the authoritative record for a payment id.
func (c *Client) FetchPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	const op = "mercadopago.FetchPayment"
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return nil, &domain.ValidationError{Field: "paymentId", Message: "is required"}
	}

	var resp paymentResponse
	if err := c.do(ctx, op, http.MethodGet, "/v1/payments/"+url.PathEscape(paymentID), nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.toPayment()
}

// CreateCardPayment charges a tokenized card.
func (c *Client) CreateCardPayment(
	ctx context.Context,
	params *provider.CardPaymentParams,
) (*domain.Payment, error) {
	const op = "mercadopago.CreateCardPayment"

	req := cardPaymentRequest{
		TransactionAmount: toFloat(params.Amount),
		Token:             params.Token,
		Description:       params.Description,
		Installments:      params.Installments,
		PaymentMethodID:   params.PaymentMethodID,
		NotificationURL:   c.notificationURL,
		Payer:             payer{Email: params.Email},
		Metadata:          params.Metadata,
	}
	if req.Installments < 1 {
		req.Installments = 1
	}
	if params.IdentificationNumber != "" {
		req.Payer.Identification = &identification{
			Type:   params.IdentificationType,
			Number: params.IdentificationNumber,
		}
	}

	var resp paymentResponse
	if err := c.do(ctx, op, http.MethodPost, "/v1/payments", nil, req, &resp); err != nil {
		return nil, err
	}
	c.logger.Info("💳 Card payment created",
		"payment_id", resp.ID,
		"status", resp.Status,
		"status_detail", resp.StatusDetail,
	)
	return resp.toPayment()
}
