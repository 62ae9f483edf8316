package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"lightning-payment-gateway/internal/core/domain"
	"lightning-payment-gateway/internal/core/ports"
	"lightning-payment-gateway/pkg/apperror"

	"github.com/rs/zerolog"
)

const (
	apiKeyPrefix        = "gp_"
	webhookSecretPrefix = "whsec_"
	defaultKeyLabel     = "Default"
)

// MerchantServiceImpl implements ports.MerchantService.
type MerchantServiceImpl struct {
	merchantRepo ports.MerchantRepository
	auth         ports.AuthService
	encSvc       ports.EncryptionService
	log          zerolog.Logger

	now      func() time.Time
	randomID func(prefix string, length int) (string, error)
}

// NewMerchantService creates a new merchant management service.
func NewMerchantService(
	merchantRepo ports.MerchantRepository,
	auth ports.AuthService,
	encSvc ports.EncryptionService,
	log zerolog.Logger,
) *MerchantServiceImpl {
	return &MerchantServiceImpl{
		merchantRepo: merchantRepo,
		auth:         auth,
		encSvc:       encSvc,
		log:          log,
		now:          time.Now,
		randomID:     generateKey,
	}
}

// SyncConfig registers a merchant on first contact and overwrites its
// configuration on every later call. Fields left nil in req are kept.
func (s *MerchantServiceImpl) SyncConfig(ctx context.Context, req ports.SyncMerchantRequest) (*domain.Merchant, error) {
	addresses := normalizeAddresses(req.Addresses)
	if req.MerchantID == "" || len(addresses) == 0 {
		return nil, apperror.ErrMissingFields("merchantId, apiKey, lightningAddresses")
	}
	if req.RotationCount != nil && *req.RotationCount < 0 {
		return nil, apperror.Validation("rotationCount must not be negative")
	}

	existing, err := s.merchantRepo.GetByID(ctx, req.MerchantID)
	if err != nil {
		return nil, apperror.ErrStoreError(fmt.Errorf("load merchant: %w", err))
	}
	newHash, err := s.auth.AuthorizeMerchant(existing, req.BearerToken)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	m := existing
	if m == nil {
		m = &domain.Merchant{
			ID:              req.MerchantID,
			RotationEnabled: true,
			RegisteredAt:    now,
		}
	}

	keys, err := mergeKeys(m.APIKeys, req, now)
	if err != nil {
		return nil, err
	}
	removed := removedKeys(m.APIKeys, keys)

	m.StoreName = strings.TrimSpace(req.StoreName)
	m.Addresses = addresses
	m.APIKeys = keys
	if req.RotationEnabled != nil {
		m.RotationEnabled = *req.RotationEnabled
	}
	if req.RotationCount != nil {
		m.RotationCount = *req.RotationCount
	}
	if req.WebhookURL != nil {
		m.WebhookURL = strings.TrimSpace(*req.WebhookURL)
	}
	if req.RedirectURL != nil {
		m.RedirectURL = strings.TrimSpace(*req.RedirectURL)
	}
	if req.BrandColor != nil {
		m.BrandColor = *req.BrandColor
	}
	if req.LogoURL != nil {
		m.LogoURL = *req.LogoURL
	}
	if m.WebhookURL != "" && m.WebhookSecretEnc == "" {
		if err := s.issueWebhookSecret(m); err != nil {
			return nil, err
		}
	}
	if newHash != "" {
		m.AuthTokenHash = newHash
	}
	m.UpdatedAt = now

	if err := s.save(ctx, m, removed); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("merchant_id", m.ID).
		Int("addresses", len(m.Addresses)).
		Int("active_keys", m.ActiveKeyCount()).
		Bool("registered", existing == nil).
		Msg("merchant config synced")

	return m, nil
}

// GetConfig returns the owner's view of the merchant, including the
// plaintext webhook secret.
func (s *MerchantServiceImpl) GetConfig(ctx context.Context, merchantID, bearerToken string) (*ports.MerchantConfig, error) {
	m, err := s.loadAuthorized(ctx, merchantID, bearerToken)
	if err != nil {
		return nil, err
	}

	cfg := &ports.MerchantConfig{Merchant: m}
	if m.WebhookSecretEnc != "" {
		secret, err := s.encSvc.Decrypt(m.WebhookSecretEnc)
		if err != nil {
			return nil, apperror.ErrEncryptionFailure(fmt.Errorf("decrypt webhook secret: %w", err))
		}
		cfg.WebhookSecret = secret
	}
	return cfg, nil
}

// CreateAPIKey appends a new active key. Existing keys stay valid.
func (s *MerchantServiceImpl) CreateAPIKey(ctx context.Context, merchantID, bearerToken, label string) (*domain.APIKey, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, apperror.ErrMissingFields("label")
	}

	m, err := s.loadAuthorized(ctx, merchantID, bearerToken)
	if err != nil {
		return nil, err
	}

	key, err := s.randomID(apiKeyPrefix, 24)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate api key: %w", err))
	}

	now := s.now().UTC()
	created := domain.APIKey{Key: key, Label: label, CreatedAt: now, Active: true}
	m.APIKeys = append(m.APIKeys, created)
	m.UpdatedAt = now

	if err := s.save(ctx, m, nil); err != nil {
		return nil, err
	}

	s.log.Info().Str("merchant_id", m.ID).Str("label", label).Msg("api key created")
	return &created, nil
}

// RevokeAPIKey deactivates key and removes it from the key index. The last
// active key cannot be revoked.
func (s *MerchantServiceImpl) RevokeAPIKey(ctx context.Context, merchantID, bearerToken, key string) error {
	m, err := s.loadAuthorized(ctx, merchantID, bearerToken)
	if err != nil {
		return err
	}

	i := m.FindKey(key)
	if i < 0 {
		return apperror.ErrAPIKeyNotFound()
	}
	if !m.APIKeys[i].Active {
		return nil
	}
	if m.ActiveKeyCount() <= 1 {
		return apperror.ErrCannotRevokeLastActiveKey()
	}

	m.APIKeys[i].Active = false
	m.UpdatedAt = s.now().UTC()

	if err := s.save(ctx, m, nil); err != nil {
		return err
	}

	s.log.Info().Str("merchant_id", m.ID).Str("label", m.APIKeys[i].Label).Msg("api key revoked")
	return nil
}

// loadAuthorized loads an existing merchant and checks the bearer token,
// persisting the token hash when the merchant predates token auth. Unknown
// merchants fail exactly like a wrong token, so callers cannot learn which
// merchant IDs exist.
func (s *MerchantServiceImpl) loadAuthorized(ctx context.Context, merchantID, bearerToken string) (*domain.Merchant, error) {
	if bearerToken == "" {
		return nil, apperror.ErrUnauthorized()
	}
	if merchantID == "" {
		return nil, apperror.ErrMissingFields("merchantId")
	}
	m, err := s.merchantRepo.GetByID(ctx, merchantID)
	if err != nil {
		return nil, apperror.ErrStoreError(fmt.Errorf("load merchant: %w", err))
	}
	if m == nil {
		return nil, apperror.ErrInvalidAuthToken()
	}

	newHash, err := s.auth.AuthorizeMerchant(m, bearerToken)
	if err != nil {
		return nil, err
	}
	if newHash != "" {
		m.AuthTokenHash = newHash
		if err := s.save(ctx, m, nil); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// save persists m, reporting a key already owned by another merchant as a
// conflict.
func (s *MerchantServiceImpl) save(ctx context.Context, m *domain.Merchant, removed []string) error {
	err := s.merchantRepo.Save(ctx, m, removed)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrAPIKeyInUse):
		return apperror.ErrAPIKeyInUse()
	default:
		return apperror.ErrStoreError(fmt.Errorf("save merchant: %w", err))
	}
}

func (s *MerchantServiceImpl) issueWebhookSecret(m *domain.Merchant) error {
	secret, err := s.randomID(webhookSecretPrefix, 32)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("generate webhook secret: %w", err))
	}
	enc, err := s.encSvc.Encrypt(secret)
	if err != nil {
		return apperror.ErrEncryptionFailure(fmt.Errorf("encrypt webhook secret: %w", err))
	}
	m.WebhookSecretEnc = enc
	return nil
}

// mergeKeys computes the key set after a sync. An explicit set replaces the
// stored one; a legacy single key keeps the stored set when it already
// contains that key, and otherwise becomes the only key.
func mergeKeys(current []domain.APIKey, req ports.SyncMerchantRequest, now time.Time) ([]domain.APIKey, error) {
	if req.APIKeys != nil {
		out := make([]domain.APIKey, 0, len(req.APIKeys))
		seen := make(map[string]bool, len(req.APIKeys))
		for _, k := range req.APIKeys {
			k.Key = strings.TrimSpace(k.Key)
			if k.Key == "" || seen[k.Key] {
				continue
			}
			seen[k.Key] = true
			if k.CreatedAt.IsZero() {
				k.CreatedAt = now
			}
			out = append(out, k)
		}
		if len(out) == 0 {
			return nil, apperror.ErrMissingFields("merchantId, apiKey, lightningAddresses")
		}
		return out, nil
	}

	legacy := strings.TrimSpace(req.LegacyAPIKey)
	if legacy == "" {
		if len(current) == 0 {
			return nil, apperror.ErrMissingFields("merchantId, apiKey, lightningAddresses")
		}
		return current, nil
	}
	for _, k := range current {
		if k.Key == legacy {
			return current, nil
		}
	}
	return []domain.APIKey{{Key: legacy, Label: defaultKeyLabel, CreatedAt: now, Active: true}}, nil
}

func removedKeys(before, after []domain.APIKey) []string {
	keep := make(map[string]bool, len(after))
	for _, k := range after {
		keep[k.Key] = true
	}
	var removed []string
	for _, k := range before {
		if !keep[k.Key] {
			removed = append(removed, k.Key)
		}
	}
	return removed
}

func normalizeAddresses(in []string) []string {
	out := make([]string, 0, len(in))
	nonEmpty := 0
	for _, a := range in {
		a = strings.TrimSpace(a)
		if a != "" {
			nonEmpty++
		}
		out = append(out, a)
	}
	if nonEmpty == 0 {
		return nil
	}
	return out
}

func generateKey(prefix string, length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return prefix + hex.EncodeToString(b), nil
}
