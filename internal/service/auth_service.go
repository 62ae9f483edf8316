package service

import (
	"context"
	"fmt"
	"strings"

	"lightning-payment-gateway/internal/core/domain"
	"lightning-payment-gateway/internal/core/ports"
	"lightning-payment-gateway/pkg/apperror"
)

// AuthServiceImpl implements ports.AuthService.
type AuthServiceImpl struct {
	merchantRepo ports.MerchantRepository
	identity     ports.IdentityService
}

// NewAuthService creates a new AuthServiceImpl.
func NewAuthService(merchantRepo ports.MerchantRepository, identity ports.IdentityService) *AuthServiceImpl {
	return &AuthServiceImpl{
		merchantRepo: merchantRepo,
		identity:     identity,
	}
}

// AuthenticateAPIKey resolves an X-API-Key to its merchant. Unknown and
// revoked keys are indistinguishable to the caller.
func (s *AuthServiceImpl) AuthenticateAPIKey(ctx context.Context, apiKey string) (*domain.Merchant, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, apperror.ErrMissingAPIKey()
	}

	merchantID, err := s.merchantRepo.GetIDByAPIKey(ctx, apiKey)
	if err != nil {
		return nil, apperror.ErrStoreError(fmt.Errorf("resolve api key: %w", err))
	}
	if merchantID == "" {
		return nil, apperror.ErrInvalidAPIKey()
	}

	merchant, err := s.merchantRepo.GetByID(ctx, merchantID)
	if err != nil {
		return nil, apperror.ErrStoreError(fmt.Errorf("load merchant: %w", err))
	}
	// Revoked keys stay indexed to their owner; a failed save can also leave
	// an entry the document does not list.
	if merchant == nil || !merchant.IsKeyActive(apiKey) {
		return nil, apperror.ErrInvalidAPIKey()
	}

	return merchant, nil
}

// AuthorizeMerchant checks bearerToken against the stored hash. A merchant
// without a hash (or not yet stored) accepts the token once; the returned
// hash must then be persisted by the caller.
func (s *AuthServiceImpl) AuthorizeMerchant(merchant *domain.Merchant, bearerToken string) (string, error) {
	if bearerToken == "" {
		return "", apperror.ErrUnauthorized()
	}
	if merchant == nil || !merchant.HasAuthToken() {
		return s.identity.HashAuthToken(bearerToken), nil
	}
	if !s.identity.TokenMatches(bearerToken, merchant.AuthTokenHash) {
		return "", apperror.ErrInvalidAuthToken()
	}
	return "", nil
}
