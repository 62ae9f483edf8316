package service

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"lightning-payment-gateway/internal/core/domain"
	"lightning-payment-gateway/internal/core/ports"
	"lightning-payment-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// DefaultExpiryWindow is how long an issued invoice is offered for.
	DefaultExpiryWindow = 10 * time.Minute

	defaultVerifyTimeout = 5 * time.Second
)

// PaymentConfig tunes the payment lifecycle.
type PaymentConfig struct {
	ExpiryWindow  time.Duration
	VerifyTimeout time.Duration
}

// PaymentServiceImpl implements ports.PaymentService.
type PaymentServiceImpl struct {
	merchantRepo ports.MerchantRepository
	paymentRepo  ports.PaymentRepository
	usageRepo    ports.AddressUsageRepository
	lnurl        ports.LNURLClient
	notifier     ports.WebhookNotifier
	encSvc       ports.EncryptionService
	metrics      ports.MetricsRecorder
	cfg          PaymentConfig
	log          zerolog.Logger

	now   func() time.Time
	rnd   func() float64
	newID func() string
}

// NewPaymentService creates a new PaymentServiceImpl.
func NewPaymentService(
	merchantRepo ports.MerchantRepository,
	paymentRepo ports.PaymentRepository,
	usageRepo ports.AddressUsageRepository,
	lnurl ports.LNURLClient,
	notifier ports.WebhookNotifier,
	encSvc ports.EncryptionService,
	metrics ports.MetricsRecorder,
	cfg PaymentConfig,
	log zerolog.Logger,
) *PaymentServiceImpl {
	if cfg.ExpiryWindow <= 0 {
		cfg.ExpiryWindow = DefaultExpiryWindow
	}
	if cfg.VerifyTimeout <= 0 {
		cfg.VerifyTimeout = defaultVerifyTimeout
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &PaymentServiceImpl{
		merchantRepo: merchantRepo,
		paymentRepo:  paymentRepo,
		usageRepo:    usageRepo,
		lnurl:        lnurl,
		notifier:     notifier,
		encSvc:       encSvc,
		metrics:      metrics,
		cfg:          cfg,
		log:          log,
		now:          time.Now,
		rnd:          rand.Float64,
		newID:        uuid.NewString,
	}
}

// Create issues an invoice from one of the merchant's addresses and stores a
// pending payment for it.
func (s *PaymentServiceImpl) Create(ctx context.Context, req ports.CreatePaymentRequest) (*ports.CreatePaymentResult, error) {
	merchant, err := s.merchantRepo.GetByID(ctx, req.MerchantID)
	if err != nil {
		return nil, apperror.ErrStoreError(fmt.Errorf("load merchant: %w", err))
	}
	if merchant == nil {
		return nil, apperror.ErrMerchantNotFound()
	}
	if !domain.ValidAmountSats(req.AmountSats) {
		return nil, apperror.ErrInvalidAmount()
	}

	sel, err := s.selectAddress(ctx, merchant)
	if err != nil {
		return nil, err
	}

	amountMsats := domain.SatsToMsats(req.AmountSats)

	info, err := s.lnurl.FetchPayInfo(ctx, sel.Address)
	s.metrics.UpstreamCall("pay_info", err == nil)
	if err != nil {
		return nil, apperror.ErrPayInfoFailed(err)
	}
	if amountMsats < info.MinSendable || amountMsats > info.MaxSendable {
		return nil, apperror.ErrAmountOutOfRange(
			domain.MsatsToSatsCeil(info.MinSendable),
			domain.MsatsToSatsFloor(info.MaxSendable),
		)
	}

	invoice, err := s.lnurl.RequestInvoice(ctx, info, amountMsats, req.Description)
	s.metrics.UpstreamCall("invoice", err == nil)
	if err != nil {
		return nil, apperror.ErrInvoiceRequestFailed(err)
	}

	verifyURL := invoice.Verify
	if verifyURL == "" {
		verifyURL = s.lnurl.VerifyURLFor(sel.Address, invoice.PR)
	}

	now := s.now().UTC()
	payment := &domain.Payment{
		ID:           s.newID(),
		MerchantID:   merchant.ID,
		AmountSats:   req.AmountSats,
		AmountMsats:  amountMsats,
		Description:  req.Description,
		Metadata:     req.Metadata,
		Status:       domain.PaymentStatusPending,
		Invoice:      invoice.PR,
		VerifyURL:    verifyURL,
		AccountIndex: sel.AccountIndex,
		UsedAddress:  sel.Address,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.cfg.ExpiryWindow),
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, apperror.ErrStoreError(fmt.Errorf("save payment: %w", err))
	}
	s.metrics.PaymentCreated(merchant.ID)

	s.log.Info().
		Str("payment_id", payment.ID).
		Str("merchant_id", merchant.ID).
		Int64("amount_sats", payment.AmountSats).
		Int("account_index", sel.AccountIndex).
		Bool("verifiable", verifyURL != "").
		Msg("payment created")

	s.notify(merchant, domain.WebhookEventPaymentCreated, payment)

	return &ports.CreatePaymentResult{
		PaymentID:  payment.ID,
		PaymentURL: fmt.Sprintf("%s/pay/%s/%s", strings.TrimRight(req.BaseURL, "/"), merchant.ID, payment.ID),
		Invoice:    payment.Invoice,
		ExpiresAt:  payment.ExpiresAt,
		VerifyURL:  payment.VerifyURL,
		AmountSats: payment.AmountSats,
	}, nil
}

// selectAddress picks and records the receiving address. Usage tracking is a
// soft heuristic, so store failures around it are logged and ignored.
func (s *PaymentServiceImpl) selectAddress(ctx context.Context, merchant *domain.Merchant) (domain.Selection, error) {
	usage, err := s.usageRepo.Get(ctx, merchant.ID)
	if err != nil {
		s.log.Warn().Err(err).Str("merchant_id", merchant.ID).Msg("address usage unavailable, rotating without history")
		usage = domain.AddressUsage{}
	}

	sel, err := SelectAddress(merchant.Addresses, usage, merchant.RotationEnabled, merchant.RotationCount, s.rnd)
	if err != nil {
		return sel, err
	}
	if sel.Fallback {
		s.log.Warn().
			Str("merchant_id", merchant.ID).
			Int("rotation_count", merchant.RotationCount).
			Msg("no rotation candidates after truncation, using primary address")
	}

	if err := s.usageRepo.Touch(ctx, merchant.ID, sel.AccountIndex, s.now()); err != nil {
		s.log.Warn().Err(err).Str("merchant_id", merchant.ID).Msg("failed to record address usage")
	}
	return sel, nil
}

// Reconcile brings a pending payment up to date with the provider.
// Terminal payments are returned as stored without any outbound call.
func (s *PaymentServiceImpl) Reconcile(ctx context.Context, paymentID string) (*domain.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, apperror.ErrStoreError(fmt.Errorf("load payment: %w", err))
	}
	if payment == nil {
		return nil, apperror.ErrPaymentNotFound()
	}
	if payment.IsTerminal() {
		return payment, nil
	}

	// Without a verify URL settlement cannot be observed, so the payment is
	// never declared expired either.
	if payment.VerifyURL == "" {
		return payment, nil
	}

	// A failed poll never completes a payment, but the wall-clock expiry
	// below still applies.
	settled, err := s.pollVerify(ctx, payment.VerifyURL)
	if err != nil {
		s.log.Warn().Err(err).Str("payment_id", payment.ID).Msg("verify poll failed")
	}
	if err == nil && settled {
		return s.transition(ctx, payment, domain.WebhookEventPaymentCompleted, func(p *domain.Payment) bool {
			return p.Complete(s.now())
		}), nil
	}

	if payment.IsPastExpiry(s.now()) {
		return s.transition(ctx, payment, domain.WebhookEventPaymentExpired, func(p *domain.Payment) bool {
			return p.Expire()
		}), nil
	}
	return payment, nil
}

// Status reconciles the payment and attaches the merchant's display info.
func (s *PaymentServiceImpl) Status(ctx context.Context, paymentID string) (*ports.PaymentStatusView, error) {
	payment, err := s.Reconcile(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	view := &ports.PaymentStatusView{Payment: payment}
	merchant, err := s.merchantRepo.GetByID(ctx, payment.MerchantID)
	if err != nil {
		s.log.Warn().Err(err).Str("merchant_id", payment.MerchantID).Msg("merchant lookup failed for status view")
	}
	if merchant != nil {
		view.Merchant = &ports.MerchantDisplay{StoreName: merchant.StoreName, RedirectURL: merchant.RedirectURL}
	}
	return view, nil
}

func (s *PaymentServiceImpl) pollVerify(ctx context.Context, verifyURL string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.VerifyTimeout)
	defer cancel()

	result, err := s.lnurl.Verify(ctx, verifyURL)
	s.metrics.UpstreamCall("verify", err == nil)
	if err != nil {
		return false, err
	}
	return result.Settled, nil
}

// transition applies fn atomically against the stored payment. Only the
// caller whose update actually applied fires the webhook.
func (s *PaymentServiceImpl) transition(ctx context.Context, loaded *domain.Payment, event domain.WebhookEvent, fn func(*domain.Payment) bool) *domain.Payment {
	updated, applied, err := s.paymentRepo.Transition(ctx, loaded.ID, fn)
	if err != nil {
		s.log.Warn().Err(err).Str("payment_id", loaded.ID).Str("event", string(event)).Msg("status transition not persisted")
		return loaded
	}
	if updated == nil {
		return loaded
	}
	if !applied {
		return updated
	}

	s.metrics.PaymentTransitioned(updated.Status)
	s.log.Info().
		Str("payment_id", updated.ID).
		Str("merchant_id", updated.MerchantID).
		Str("status", string(updated.Status)).
		Msg("payment status changed")

	merchant, err := s.merchantRepo.GetByID(ctx, updated.MerchantID)
	if err != nil {
		s.log.Warn().Err(err).Str("merchant_id", updated.MerchantID).Msg("merchant lookup failed, webhook skipped")
		return updated
	}
	s.notify(merchant, event, updated)
	return updated
}

func (s *PaymentServiceImpl) notify(merchant *domain.Merchant, event domain.WebhookEvent, payment *domain.Payment) {
	if merchant == nil || !merchant.HasWebhook() {
		return
	}
	secret, err := s.encSvc.Decrypt(merchant.WebhookSecretEnc)
	if err != nil {
		s.log.Warn().Err(err).Str("merchant_id", merchant.ID).Msg("cannot decrypt webhook secret, webhook skipped")
		return
	}
	s.notifier.Dispatch(
		domain.WebhookTarget{URL: merchant.WebhookURL, Secret: secret},
		event,
		domain.PaymentEventPayload(payment),
	)
}
