package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"lightning-payment-gateway/internal/core/domain"
	"lightning-payment-gateway/internal/core/ports"

	"github.com/rs/zerolog"
)

const (
	// HeaderWebhookSignature carries hex(HMAC-SHA256(secret, body)).
	HeaderWebhookSignature = "X-Signature"

	defaultWebhookTimeout = 5 * time.Second
)

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// WebhookService implements ports.WebhookNotifier: one signed POST per event,
// never retried.
type WebhookService struct {
	sigSvc     ports.SignatureService
	httpClient HTTPClient
	timeout    time.Duration
	metrics    ports.MetricsRecorder
	now        func() time.Time
	log        zerolog.Logger
	inflight   sync.WaitGroup
}

// NewWebhookService creates a new webhook notifier. A zero timeout uses 5s;
// a nil metrics recorder discards counters.
func NewWebhookService(
	sigSvc ports.SignatureService,
	httpClient HTTPClient,
	timeout time.Duration,
	metrics ports.MetricsRecorder,
	log zerolog.Logger,
) *WebhookService {
	if timeout <= 0 {
		timeout = defaultWebhookTimeout
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &WebhookService{
		sigSvc:     sigSvc,
		httpClient: httpClient,
		timeout:    timeout,
		metrics:    metrics,
		now:        time.Now,
		log:        log,
	}
}

// BuildBody serializes {event, ...payload, timestamp} with sorted keys.
func (s *WebhookService) BuildBody(event domain.WebhookEvent, payload map[string]interface{}) ([]byte, error) {
	body := make(map[string]interface{}, len(payload)+2)
	body["event"] = string(event)
	for k, v := range payload {
		body[k] = v
	}
	body["timestamp"] = s.now().UTC().Format(time.RFC3339)

	// encoding/json writes map keys in sorted order.
	return json.Marshal(body)
}

// Send performs exactly one delivery attempt bounded by the configured timeout.
func (s *WebhookService) Send(ctx context.Context, target domain.WebhookTarget, event domain.WebhookEvent, payload map[string]interface{}) error {
	body, err := s.BuildBody(event, payload)
	if err != nil {
		return fmt.Errorf("marshal webhook body: %w", err)
	}
	signature := s.sigSvc.Sign(target.Secret, string(body))

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderWebhookSignature, signature)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("deliver webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook endpoint returned %d", resp.StatusCode)
	}
	return nil
}

// Dispatch sends in a detached goroutine. The caller never observes the outcome.
func (s *WebhookService) Dispatch(target domain.WebhookTarget, event domain.WebhookEvent, payload map[string]interface{}) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		err := s.Send(context.Background(), target, event, payload)
		s.metrics.WebhookDelivered(event, err == nil)
		if err != nil {
			s.log.Warn().Err(err).Str("event", string(event)).Str("url", target.URL).Msg("webhook delivery failed")
			return
		}
		s.log.Info().Str("event", string(event)).Str("url", target.URL).Msg("webhook delivered")
	}()
}

// Wait blocks until every dispatched delivery has finished. Used on shutdown.
func (s *WebhookService) Wait() {
	s.inflight.Wait()
}
