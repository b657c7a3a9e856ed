package mercadopago

import (
	"context"
	"net/http"
	"net/url"

	"github.com/amirasaad/paygate/pkg/domain"
	"github.com/amirasaad/paygate/pkg/provider"
)

const paymentMethodPix = "pix"

// CreatePixCharge creates a PIX payment and returns its QR payloads.
func (c *Client) CreatePixCharge(
	ctx context.Context,
	params *provider.PixParams,
) (*domain.PixCharge, error) {
	const op = "mercadopago.CreatePixCharge"

	req := pixRequest{
		TransactionAmount: toFloat(params.Amount),
		Description:       params.Description,
		PaymentMethodID:   paymentMethodPix,
		DateOfExpiration:  params.ExpiresAt.Format(dateLayout),
		NotificationURL:   c.notificationURL,
		Payer: payer{
			Email:     params.Email,
			FirstName: params.FirstName,
			LastName:  params.LastName,
			Identification: &identification{
				Type:   "CPF",
				Number: params.CPF,
			},
		},
		Metadata: params.Metadata,
	}

	var resp paymentResponse
	if err := c.do(ctx, op, http.MethodPost, "/v1/payments", nil, req, &resp); err != nil {
		return nil, err
	}
	charge, err := resp.toPixCharge()
	if err != nil {
		return nil, err
	}
	if charge.ExpiresAt.IsZero() {
		charge.ExpiresAt = params.ExpiresAt
	}
	c.logger.Info("🔳 PIX charge created", "charge_id", charge.ID, "expires_at", charge.ExpiresAt)
	return charge, nil
}

// GetPixCharge reads the current state of a PIX charge.
func (c *Client) GetPixCharge(ctx context.Context, chargeID string) (*domain.PixCharge, error) {
	const op = "mercadopago.GetPixCharge"

	var resp paymentResponse
	if err := c.do(ctx, op, http.MethodGet, "/v1/payments/"+url.PathEscape(chargeID), nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.toPixCharge()
}
