package service

import "lightning-payment-gateway/internal/core/domain"

type nopMetrics struct{}

func (nopMetrics) PaymentCreated(string) {}

func (nopMetrics) PaymentTransitioned(domain.PaymentStatus) {}

func (nopMetrics) WebhookDelivered(domain.WebhookEvent, bool) {}

func (nopMetrics) UpstreamCall(string, bool) {}
