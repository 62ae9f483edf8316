package domain

import "time"

// WebhookEvent names a payment lifecycle event delivered to merchants.
type WebhookEvent string

const (
	WebhookEventPaymentCreated   WebhookEvent = "payment.created"
	WebhookEventPaymentCompleted WebhookEvent = "payment.completed"
	WebhookEventPaymentExpired   WebhookEvent = "payment.expired"
)

// WebhookTarget is where and how to deliver an event. Secret is plaintext.
type WebhookTarget struct {
	URL    string
	Secret string
}

// PaymentEventPayload builds the event body fields shared by all payment events.
func PaymentEventPayload(p *Payment) map[string]interface{} {
	payload := map[string]interface{}{
		"paymentId":   p.ID,
		"merchantId":  p.MerchantID,
		"amountSats":  p.AmountSats,
		"status":      string(p.Status),
		"description": nil,
	}
	if p.Description != "" {
		payload["description"] = p.Description
	}
	if p.PaidAt != nil {
		payload["paidAt"] = p.PaidAt.UTC().Format(time.RFC3339)
	}
	return payload
}
