// Package metrics exposes payment lifecycle counters to Prometheus.
package metrics

import (
	"net/http"

	"lightning-payment-gateway/internal/core/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lpg"

// Recorder implements ports.MetricsRecorder on a dedicated registry.
type Recorder struct {
	registry           *prometheus.Registry
	paymentsCreated    *prometheus.CounterVec
	paymentTransitions *prometheus.CounterVec
	webhookDeliveries  *prometheus.CounterVec
	upstreamCalls      *prometheus.CounterVec
}

// NewRecorder registers the gateway counters plus the Go and process
// collectors on a fresh registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		paymentsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_created_total",
			Help:      "Payments created, by merchant.",
		}, []string{"merchant_id"}),
		paymentTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_transitions_total",
			Help:      "Applied payment status transitions, by resulting status.",
		}, []string{"status"}),
		webhookDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_deliveries_total",
			Help:      "Webhook delivery attempts, by event and result.",
		}, []string{"event", "result"}),
		upstreamCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lnurl_requests_total",
			Help:      "Outbound LNURL requests, by operation and result.",
		}, []string{"operation", "result"}),
	}
	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.paymentsCreated,
		r.paymentTransitions,
		r.webhookDeliveries,
		r.upstreamCalls,
	)
	return r
}

func (r *Recorder) PaymentCreated(merchantID string) {
	r.paymentsCreated.WithLabelValues(merchantID).Inc()
}

func (r *Recorder) PaymentTransitioned(status domain.PaymentStatus) {
	r.paymentTransitions.WithLabelValues(string(status)).Inc()
}

func (r *Recorder) WebhookDelivered(event domain.WebhookEvent, ok bool) {
	r.webhookDeliveries.WithLabelValues(string(event), result(ok)).Inc()
}

func (r *Recorder) UpstreamCall(operation string, ok bool) {
	r.upstreamCalls.WithLabelValues(operation, result(ok)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
