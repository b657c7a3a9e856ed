package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amirasaad/paygate/pkg/domain"
	"github.com/amirasaad/paygate/pkg/webhook"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ webhook.Metrics = (*Metrics)(nil)

func TestCounters(t *testing.T) {
	m := New("test")

	m.Dispatched(domain.StatusApproved)
	m.Dispatched(domain.StatusApproved)
	m.EffectFailed("notify")
	m.WebhookReceived("mercadopago", OutcomeProcessed)
	m.PixChargeCreated()
	m.CheckoutSession(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.dispatched.WithLabelValues("approved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.effectFailed.WithLabelValues("notify")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.webhooks.WithLabelValues("mercadopago", OutcomeProcessed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pixCharges))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.checkouts.WithLabelValues("error")))
}

func TestHandlerServesRegistry(t *testing.T) {
	m := New("test")
	m.Dispatched(domain.StatusRefunded)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `test_payments_dispatched_total{status="refunded"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
