// Package metrics exposes Prometheus counters for webhook processing.
package metrics

import (
	"net/http"

	"github.com/amirasaad/paygate/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Webhook outcomes recorded by WebhookReceived.
const (
	OutcomeProcessed        = "processed"
	OutcomeIgnored          = "ignored"
	OutcomeInvalidSignature = "invalid_signature"
	OutcomeInvalidBody      = "invalid_body"
	OutcomeFetchFailed      = "fetch_failed"
)

// Metrics holds the paygate collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	webhooks     *prometheus.CounterVec
	dispatched   *prometheus.CounterVec
	effectFailed *prometheus.CounterVec
	pixCharges   prometheus.Counter
	checkouts    *prometheus.CounterVec
}

// New registers every collector, plus Go runtime and process collectors.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "paygate"
	}
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhooks_received_total",
			Help:      "Inbound webhooks by provider and outcome.",
		}, []string{"provider", "outcome"}),
		dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_dispatched_total",
			Help:      "Payments dispatched to status handlers.",
		}, []string{"status"}),
		effectFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "side_effect_failures_total",
			Help:      "Side effects that returned an error or panicked.",
		}, []string{"effect"}),
		pixCharges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pix_charges_created_total",
			Help:      "PIX charges created.",
		}),
		checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_sessions_total",
			Help:      "Hosted checkout session attempts by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(
		m.webhooks,
		m.dispatched,
		m.effectFailed,
		m.pixCharges,
		m.checkouts,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Dispatched counts a dispatch for status.
func (m *Metrics) Dispatched(status domain.Status) {
	m.dispatched.WithLabelValues(string(status)).Inc()
}

// EffectFailed counts a failed side effect.
func (m *Metrics) EffectFailed(effect string) {
	m.effectFailed.WithLabelValues(effect).Inc()
}

// WebhookReceived counts an inbound webhook.
func (m *Metrics) WebhookReceived(provider, outcome string) {
	m.webhooks.WithLabelValues(provider, outcome).Inc()
}

// PixChargeCreated counts a created PIX charge.
func (m *Metrics) PixChargeCreated() {
	m.pixCharges.Inc()
}

// CheckoutSession counts a checkout attempt; ok reports success.
func (m *Metrics) CheckoutSession(ok bool) {
	result := "error"
	if ok {
		result = "created"
	}
	m.checkouts.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
