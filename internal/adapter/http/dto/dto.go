package dto

import (
	"time"

	"lightning-payment-gateway/internal/core/domain"
	"lightning-payment-gateway/internal/core/ports"
)

// CreatePaymentRequest is the request body for POST /api/payments.
type CreatePaymentRequest struct {
	AmountSats  *int64                 `json:"amountSats" binding:"omitempty,min=1,max=9223372036854775"`
	Description string                 `json:"description" binding:"max=640"`
	Metadata    map[string]interface{} `json:"metadata"`
}

// SyncMerchantRequest is the request body for POST /api/merchants.
// Pointer fields left out of the body keep their stored value.
type SyncMerchantRequest struct {
	MerchantID         string          `json:"merchantId" binding:"omitempty,safe_id,max=64"`
	StoreName          string          `json:"storeName" binding:"max=100" sanitize:"html"`
	LightningAddresses []string        `json:"lightningAddresses" binding:"omitempty,max=20,dive,ln_address"`
	APIKey             string          `json:"apiKey" binding:"omitempty,safe_id,max=128"`
	APIKeys            []APIKeyPayload `json:"apiKeys" binding:"omitempty,max=50,dive"`
	RotationEnabled    *bool           `json:"rotationEnabled"`
	RotationCount      *int            `json:"rotationCount" binding:"omitempty,min=0"`
	WebhookURL         *string         `json:"webhookUrl" binding:"omitempty,safe_url"`
	RedirectURL        *string         `json:"redirectUrl" binding:"omitempty,safe_url"`
	BrandColor         *string         `json:"brandColor" binding:"omitempty,hexcolor"`
	LogoURL            *string         `json:"logoUrl" binding:"omitempty,safe_url"`
}

// APIKeyPayload is one key in a full key-set sync.
type APIKeyPayload struct {
	Key       string     `json:"key" binding:"required,safe_id,max=128"`
	Label     string     `json:"label" binding:"max=64"`
	CreatedAt *time.Time `json:"createdAt"`
	Active    *bool      `json:"active"`
}

// CreateKeyRequest is the request body for POST /api/merchants/keys.
type CreateKeyRequest struct {
	MerchantID string `json:"merchantId" binding:"required,safe_id,max=64"`
	Label      string `json:"label" binding:"max=64" sanitize:"html"`
}

// RevokeKeyRequest is the request body for POST /api/merchants/keys/revoke.
type RevokeKeyRequest struct {
	MerchantID string `json:"merchantId" binding:"required,safe_id,max=64"`
	Key        string `json:"key" binding:"required,max=128"`
}

// PaymentStatusResponse is the data of GET /api/payments/:id.
// Absent optional values are rendered as null.
type PaymentStatusResponse struct {
	ID          string                 `json:"id"`
	AmountSats  int64                  `json:"amountSats"`
	Description *string                `json:"description"`
	Invoice     string                 `json:"invoice"`
	Status      domain.PaymentStatus   `json:"status"`
	CreatedAt   time.Time              `json:"createdAt"`
	ExpiresAt   time.Time              `json:"expiresAt"`
	PaidAt      *time.Time             `json:"paidAt"`
	VerifyURL   *string                `json:"verifyUrl"`
	Merchant    *ports.MerchantDisplay `json:"merchant"`
}

// MerchantResponse is the owner's view of a merchant. The auth token hash
// is never returned.
type MerchantResponse struct {
	ID                 string          `json:"id"`
	StoreName          string          `json:"storeName"`
	LightningAddress   string          `json:"lightningAddress"`
	LightningAddresses []string        `json:"lightningAddresses"`
	APIKey             string          `json:"apiKey"`
	APIKeys            []domain.APIKey `json:"apiKeys"`
	RotationEnabled    bool            `json:"rotationEnabled"`
	RotationCount      int             `json:"rotationCount"`
	WebhookURL         *string         `json:"webhookUrl"`
	WebhookSecret      *string         `json:"webhookSecret"`
	RedirectURL        *string         `json:"redirectUrl"`
	BrandColor         *string         `json:"brandColor"`
	LogoURL            *string         `json:"logoUrl"`
	RegisteredAt       time.Time       `json:"registeredAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// ToSyncRequest maps the body onto the service request. bearerToken comes
// from the Authorization header.
func (r SyncMerchantRequest) ToSyncRequest(bearerToken string) ports.SyncMerchantRequest {
	req := ports.SyncMerchantRequest{
		MerchantID:      r.MerchantID,
		BearerToken:     bearerToken,
		StoreName:       r.StoreName,
		Addresses:       r.LightningAddresses,
		LegacyAPIKey:    r.APIKey,
		RotationEnabled: r.RotationEnabled,
		RotationCount:   r.RotationCount,
		WebhookURL:      r.WebhookURL,
		RedirectURL:     r.RedirectURL,
		BrandColor:      r.BrandColor,
		LogoURL:         r.LogoURL,
	}
	if r.APIKeys != nil {
		req.APIKeys = make([]domain.APIKey, 0, len(r.APIKeys))
		for _, k := range r.APIKeys {
			key := domain.APIKey{Key: k.Key, Label: k.Label, Active: true}
			if k.Active != nil {
				key.Active = *k.Active
			}
			if k.CreatedAt != nil {
				key.CreatedAt = *k.CreatedAt
			}
			req.APIKeys = append(req.APIKeys, key)
		}
	}
	return req
}

// NewPaymentStatusResponse flattens a reconciled payment for the status endpoint.
func NewPaymentStatusResponse(v *ports.PaymentStatusView) PaymentStatusResponse {
	p := v.Payment
	return PaymentStatusResponse{
		ID:          p.ID,
		AmountSats:  p.AmountSats,
		Description: nullable(p.Description),
		Invoice:     p.Invoice,
		Status:      p.Status,
		CreatedAt:   p.CreatedAt,
		ExpiresAt:   p.ExpiresAt,
		PaidAt:      p.PaidAt,
		VerifyURL:   nullable(p.VerifyURL),
		Merchant:    v.Merchant,
	}
}

// NewMerchantResponse renders a merchant config for its owner.
func NewMerchantResponse(cfg *ports.MerchantConfig) MerchantResponse {
	m := cfg.Merchant
	keys := m.APIKeys
	if keys == nil {
		keys = []domain.APIKey{}
	}
	return MerchantResponse{
		ID:                 m.ID,
		StoreName:          m.StoreName,
		LightningAddress:   m.PrimaryAddress(),
		LightningAddresses: m.Addresses,
		APIKey:             m.LegacyAPIKey(),
		APIKeys:            keys,
		RotationEnabled:    m.RotationEnabled,
		RotationCount:      m.RotationCount,
		WebhookURL:         nullable(m.WebhookURL),
		WebhookSecret:      nullable(cfg.WebhookSecret),
		RedirectURL:        nullable(m.RedirectURL),
		BrandColor:         nullable(m.BrandColor),
		LogoURL:            nullable(m.LogoURL),
		RegisteredAt:       m.RegisteredAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
