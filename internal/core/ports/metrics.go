package ports

import "lightning-payment-gateway/internal/core/domain"

// MetricsRecorder receives lifecycle counters. Implementations must be safe
// for concurrent use.
type MetricsRecorder interface {
	PaymentCreated(merchantID string)
	PaymentTransitioned(status domain.PaymentStatus)
	WebhookDelivered(event domain.WebhookEvent, ok bool)
	UpstreamCall(operation string, ok bool)
}
