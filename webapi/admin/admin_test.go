package admin_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/amirasaad/paygate/pkg/app"
	"github.com/amirasaad/paygate/pkg/config"
	"github.com/amirasaad/paygate/pkg/domain"
	"github.com/amirasaad/paygate/pkg/eventbus"
	"github.com/amirasaad/paygate/webapi/testutils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func token(t *testing.T, secret string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "operator",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

type memPayments struct {
	byID map[string]*domain.Payment
}

func (m *memPayments) Upsert(_ context.Context, _ string, p *domain.Payment) error {
	m.byID[p.ID] = p
	return nil
}

func (m *memPayments) Get(_ context.Context, id string) (*domain.Payment, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (m *memPayments) ListByStatus(_ context.Context, status domain.Status, limit int) ([]*domain.Payment, error) {
	out := []*domain.Payment{}
	for _, p := range m.byID {
		if p.Status == status && len(out) < limit {
			out = append(out, p)
		}
	}
	return out, nil
}

func TestRefreshPayment(t *testing.T) {
	env := testutils.NewEnv(t)
	env.MercadoPago.SetPayment(&domain.Payment{
		ID:     "777",
		Status: domain.StatusRefunded,
		Amount: decimal.RequireFromString("10.00"),
	})

	resp := env.MakeRequest(t, http.MethodPost, "/admin/payments/777/refresh", "", token(t, testutils.TestSecret))

	require.Equal(t, http.StatusOK, resp.StatusCode)
	published := env.Bus.Published()
	require.Len(t, published, 1)
	assert.Equal(t, eventbus.TypePaymentRefunded, published[0].Type)
}

func TestRefreshPayment_NotFound(t *testing.T) {
	env := testutils.NewEnv(t)

	resp := env.MakeRequest(t, http.MethodPost, "/admin/payments/404/refresh", "", token(t, testutils.TestSecret))

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdminRoutes_RequireJWT(t *testing.T) {
	env := testutils.NewEnv(t)

	resp := env.MakeRequest(t, http.MethodGet, "/admin/payments/1", "", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.MakeRequest(t, http.MethodGet, "/admin/payments/1", "", token(t, "other-secret"))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdminRoutes_DisabledWithoutSecret(t *testing.T) {
	env := testutils.NewEnv(t, func(_ *app.Deps, cfg *config.App) { cfg.Admin.JwtSecret = "" })

	resp := env.MakeRequest(t, http.MethodGet, "/admin/payments/1", "", token(t, testutils.TestSecret))

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetPayment_FromRepository(t *testing.T) {
	repo := &memPayments{byID: map[string]*domain.Payment{
		"42": {ID: "42", Status: domain.StatusApproved},
	}}
	env := testutils.NewEnv(t, func(d *app.Deps, _ *config.App) { d.Payments = repo })

	resp := env.MakeRequest(t, http.MethodGet, "/admin/payments/42", "", token(t, testutils.TestSecret))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.MakeRequest(t, http.MethodGet, "/admin/payments/43", "", token(t, testutils.TestSecret))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Zero(t, env.MercadoPago.FetchCalls)
}

func TestListPayments(t *testing.T) {
	repo := &memPayments{byID: map[string]*domain.Payment{
		"1": {ID: "1", Status: domain.StatusPending},
		"2": {ID: "2", Status: domain.StatusApproved},
		"3": {ID: "3", Status: domain.StatusPending},
	}}
	env := testutils.NewEnv(t, func(d *app.Deps, _ *config.App) { d.Payments = repo })

	resp := env.MakeRequest(t, http.MethodGet, "/admin/payments?status=pending", "", token(t, testutils.TestSecret))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Data []domain.Payment `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Data, 2)
	for _, p := range body.Data {
		assert.Equal(t, domain.StatusPending, p.Status)
	}
}

func TestListPayments_Validation(t *testing.T) {
	repo := &memPayments{byID: map[string]*domain.Payment{}}
	env := testutils.NewEnv(t, func(d *app.Deps, _ *config.App) { d.Payments = repo })

	tests := []struct {
		name  string
		query string
	}{
		{"missing status", ""},
		{"unknown status", "?status=teleported"},
		{"limit too large", "?status=approved&limit=1000"},
		{"limit zero", "?status=approved&limit=0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.MakeRequest(t, http.MethodGet, "/admin/payments"+tt.query, "", token(t, testutils.TestSecret))
			assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		})
	}
}

func TestListPayments_NoStore(t *testing.T) {
	env := testutils.NewEnv(t)

	resp := env.MakeRequest(t, http.MethodGet, "/admin/payments?status=approved", "", token(t, testutils.TestSecret))

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
