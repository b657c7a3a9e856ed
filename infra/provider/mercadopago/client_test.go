package mercadopago

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amirasaad/paygate/pkg/config"
	"github.com/amirasaad/paygate/pkg/domain"
	"github.com/amirasaad/paygate/pkg/provider"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(&config.MercadoPago{
		AccessToken: "TEST-token",
		BaseURL:     srv.URL,
		HTTPTimeout: 2 * time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

const approvedPayment = `{
	"id": 123456789,
	"status": "approved",
	"status_detail": "accredited",
	"transaction_amount": 397.00,
	"currency_id": "BRL",
	"payment_method_id": "visa",
	"date_created": "2026-03-20T10:00:00.000-03:00",
	"date_approved": "2026-03-20T10:00:05.000-03:00",
	"external_reference": "order-1",
	"metadata": {"order_id": "o-1", "units": 2},
	"payer": {"email": "ana@example.com", "identification": {"type": "CPF", "number": "12345678909"}}
}`

func TestFetchPayment_MapsRecord(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/payments/123456789", r.URL.Path)
		assert.Equal(t, "Bearer TEST-token", r.Header.Get("Authorization"))
		assert.Empty(t, r.Header.Get(headerIdempotencyKey))
		_, _ = io.WriteString(w, approvedPayment)
	})

	p, err := c.FetchPayment(context.Background(), "123456789")
	require.NoError(t, err)
	assert.Equal(t, "123456789", p.ID)
	assert.Equal(t, domain.StatusApproved, p.Status)
	assert.Equal(t, "accredited", p.StatusDetail)
	assert.True(t, decimal.RequireFromString("397").Equal(p.Amount))
	assert.Equal(t, "BRL", p.Currency)
	assert.Equal(t, "visa", p.MethodID)
	assert.Equal(t, "ana@example.com", p.PayerIdentity.Email)
	assert.Equal(t, "12345678909", p.PayerIdentity.IdentificationNumber)
	assert.Equal(t, "o-1", p.Metadata["order_id"])
	assert.Equal(t, "2", p.Metadata["units"])
	assert.Equal(t, "order-1", p.Metadata["external_reference"])
	require.NotNil(t, p.ApprovedAt)
}

func TestFetchPayment_StatusAliases(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"id": 1, "status": "in_process", "transaction_amount": 10}`)
	})
	p, err := c.FetchPayment(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, p.Status)
}

func TestFetchPayment_UnknownStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"id": 1, "status": "teleported", "transaction_amount": 10}`)
	})
	_, err := c.FetchPayment(context.Background(), "1")
	assert.ErrorIs(t, err, domain.ErrUnknownStatus)
}

func TestFetchPayment_APIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-Id", "trace-42")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message":"Payment not found","error":"not_found","status":404,"cause":[]}`)
	})

	_, err := c.FetchPayment(context.Background(), "999")
	var apiErr *domain.ProviderAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "trace-42", apiErr.TraceID)
	assert.Equal(t, "not_found", apiErr.Code)
	assert.Equal(t, "Payment not found", apiErr.Message)
	assert.True(t, IsNotFound(err))
}

func TestFetchPayment_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(&config.MercadoPago{AccessToken: "x", BaseURL: url, HTTPTimeout: time.Second}, nil)
	_, err := c.FetchPayment(context.Background(), "1")
	var netErr *domain.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, "mercadopago.FetchPayment", netErr.Op)
}

func TestFetchPayment_TimeoutIsNetworkError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := New(&config.MercadoPago{AccessToken: "x", BaseURL: srv.URL, HTTPTimeout: 50 * time.Millisecond}, nil)
	_, err := c.FetchPayment(context.Background(), "1")
	var netErr *domain.NetworkError
	require.ErrorAs(t, err, &netErr)
}

func TestFetchPayment_EmptyID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	_, err := c.FetchPayment(context.Background(), " ")
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestCreatePixCharge(t *testing.T) {
	expires := time.Date(2026, 3, 20, 10, 30, 0, 0, time.FixedZone("BRT", -3*3600))
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payments", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get(headerIdempotencyKey))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "pix", body["payment_method_id"])
		assert.InDelta(t, 150.5, body["transaction_amount"], 0.0001)
		assert.Equal(t, "2026-03-20T10:30:00.000-03:00", body["date_of_expiration"])
		payer := body["payer"].(map[string]any)
		assert.Equal(t, "Ana", payer["first_name"])
		assert.Equal(t, "Maria Souza", payer["last_name"])
		ident := payer["identification"].(map[string]any)
		assert.Equal(t, "CPF", ident["type"])
		assert.Equal(t, "12345678909", ident["number"])

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id": 555, "status": "pending",
			"date_of_expiration": "2026-03-20T10:30:00.000-03:00",
			"point_of_interaction": {"transaction_data": {"qr_code": "000201...", "qr_code_base64": "iVBORw0KGgo="}}}`)
	})

	charge, err := c.CreatePixCharge(context.Background(), &provider.PixParams{
		Amount:      decimal.RequireFromString("150.50"),
		Description: "Order 1",
		Email:       "ana@example.com",
		FirstName:   "Ana",
		LastName:    "Maria Souza",
		CPF:         "12345678909",
		ExpiresAt:   expires,
	})
	require.NoError(t, err)
	assert.Equal(t, "555", charge.ID)
	assert.Equal(t, domain.StatusPending, charge.Status)
	assert.Equal(t, "iVBORw0KGgo=", charge.QRImageBase64)
	assert.Equal(t, "000201...", charge.QRCopyPasteText)
	assert.True(t, expires.Equal(charge.ExpiresAt))
}

func TestWritesUseFreshIdempotencyKeys(t *testing.T) {
	var keys []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		keys = append(keys, r.Header.Get(headerIdempotencyKey))
		_, _ = io.WriteString(w, `{"id": 1, "status": "pending"}`)
	})
	for i := 0; i < 2; i++ {
		_, err := c.CreatePixCharge(context.Background(), &provider.PixParams{
			Amount: decimal.NewFromInt(1), ExpiresAt: time.Now(),
		})
		require.NoError(t, err)
	}
	require.Len(t, keys, 2)
	assert.NotEqual(t, keys[0], keys[1])
}

func TestInstallments(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_methods/installments", r.URL.Path)
		assert.Equal(t, "397.00", r.URL.Query().Get("amount"))
		assert.Equal(t, "411111", r.URL.Query().Get("bin"))
		_, _ = io.WriteString(w, `[{"payment_method_id":"visa","payer_costs":[
			{"installments":1,"installment_rate":0,"installment_amount":397,"total_amount":397,
			 "recommended_message":"1 parcela de R$ 397,00 (R$ 397,00)"},
			{"installments":3,"installment_rate":4.5,"installment_amount":138.3,"total_amount":414.9,
			 "recommended_message":"3 parcelas de R$ 138,30 (R$ 414,90)"}]}]`)
	})

	opts, err := c.Installments(context.Background(), decimal.RequireFromString("397"), "411111", "")
	require.NoError(t, err)
	require.Len(t, opts, 2)
	assert.Equal(t, 1, opts[0].Count)
	assert.True(t, decimal.RequireFromString("397.00").Equal(opts[0].PerInstallmentAmount))
	assert.False(t, opts[0].HasInterest)
	assert.Equal(t, 3, opts[1].Count)
	assert.True(t, opts[1].HasInterest)
	assert.Equal(t, "3 parcelas de R$ 138,30 (R$ 414,90)", opts[1].RecommendedLabel)
}

func TestCreateCardPayment_Rejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "tok_123", body["token"])
		assert.EqualValues(t, 3, body["installments"])
		_, _ = io.WriteString(w, `{"id": 77, "status": "rejected", "status_detail": "cc_rejected_insufficient_amount",
			"transaction_amount": 397}`)
	})

	p, err := c.CreateCardPayment(context.Background(), &provider.CardPaymentParams{
		Token:           "tok_123",
		PaymentMethodID: "visa",
		Installments:    3,
		Amount:          decimal.RequireFromString("397"),
		Email:           "ana@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, p.Status)
	assert.Equal(t, "cc_rejected_insufficient_amount", p.StatusDetail)
}
