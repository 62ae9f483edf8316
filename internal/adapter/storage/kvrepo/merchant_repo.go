package kvrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lightning-payment-gateway/internal/core/domain"
	"lightning-payment-gateway/internal/core/ports"
)

const legacyKeyLabel = "Default"

// merchantRecord is the stored merchant document. It keeps the single-key
// and single-address fields older writers produced.
type merchantRecord struct {
	ID                 string          `json:"id"`
	StoreName          string          `json:"storeName"`
	LightningAddress   string          `json:"lightningAddress,omitempty"`
	LightningAddresses []string        `json:"lightningAddresses"`
	APIKey             string          `json:"apiKey,omitempty"`
	APIKeys            []domain.APIKey `json:"apiKeys,omitempty"`
	RotationEnabled    *bool           `json:"rotationEnabled,omitempty"`
	RotationCount      int             `json:"rotationCount,omitempty"`
	AuthTokenHash      string          `json:"authTokenHash,omitempty"`
	WebhookURL         string          `json:"webhookUrl,omitempty"`
	WebhookSecret      string          `json:"webhookSecret,omitempty"` // encrypted
	RedirectURL        string          `json:"redirectUrl,omitempty"`
	BrandColor         string          `json:"brandColor,omitempty"`
	LogoURL            string          `json:"logoUrl,omitempty"`
	RegisteredAt       time.Time       `json:"registeredAt"`
	UpdatedAt          time.Time       `json:"updatedAt,omitempty"`
}

func recordFromMerchant(m *domain.Merchant) merchantRecord {
	rotation := m.RotationEnabled
	return merchantRecord{
		ID:                 m.ID,
		StoreName:          m.StoreName,
		LightningAddress:   m.PrimaryAddress(),
		LightningAddresses: m.Addresses,
		APIKey:             m.LegacyAPIKey(),
		APIKeys:            m.APIKeys,
		RotationEnabled:    &rotation,
		RotationCount:      m.RotationCount,
		AuthTokenHash:      m.AuthTokenHash,
		WebhookURL:         m.WebhookURL,
		WebhookSecret:      m.WebhookSecretEnc,
		RedirectURL:        m.RedirectURL,
		BrandColor:         m.BrandColor,
		LogoURL:            m.LogoURL,
		RegisteredAt:       m.RegisteredAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

// toDomain upgrades legacy documents: a lone apiKey becomes one active key,
// a lone lightningAddress becomes the address list, rotation defaults on.
func (r merchantRecord) toDomain() *domain.Merchant {
	addresses := r.LightningAddresses
	if len(addresses) == 0 && r.LightningAddress != "" {
		addresses = []string{r.LightningAddress}
	}
	keys := r.APIKeys
	if len(keys) == 0 && r.APIKey != "" {
		keys = []domain.APIKey{{Key: r.APIKey, Label: legacyKeyLabel, CreatedAt: r.RegisteredAt, Active: true}}
	}
	rotation := true
	if r.RotationEnabled != nil {
		rotation = *r.RotationEnabled
	}
	return &domain.Merchant{
		ID:               r.ID,
		StoreName:        r.StoreName,
		Addresses:        addresses,
		APIKeys:          keys,
		RotationEnabled:  rotation,
		RotationCount:    r.RotationCount,
		AuthTokenHash:    r.AuthTokenHash,
		WebhookURL:       r.WebhookURL,
		WebhookSecretEnc: r.WebhookSecret,
		RedirectURL:      r.RedirectURL,
		BrandColor:       r.BrandColor,
		LogoURL:          r.LogoURL,
		RegisteredAt:     r.RegisteredAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

// MerchantRepo implements ports.MerchantRepository.
type MerchantRepo struct {
	store ports.KeyValueStore
}

// NewMerchantRepo creates a merchant repository over store.
func NewMerchantRepo(store ports.KeyValueStore) *MerchantRepo {
	return &MerchantRepo{store: store}
}

func (r *MerchantRepo) GetByID(ctx context.Context, id string) (*domain.Merchant, error) {
	raw, err := r.store.Get(ctx, merchantKey(id))
	if err != nil {
		return nil, fmt.Errorf("get merchant: %w", err)
	}
	if raw == nil {
		return nil, nil
	}

	var rec merchantRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode merchant %s: %w", id, err)
	}
	if rec.ID == "" {
		rec.ID = id
	}
	return rec.toDomain(), nil
}

func (r *MerchantRepo) GetIDByAPIKey(ctx context.Context, apiKey string) (string, error) {
	raw, err := r.store.Get(ctx, apiKeyKey(apiKey))
	if err != nil {
		return "", fmt.Errorf("get api key index: %w", err)
	}
	return string(raw), nil
}

// Save claims every key of m in the key index, then writes the document and
// releases removedKeys. A key indexed to another merchant fails the save with
// domain.ErrAPIKeyInUse before anything is written. Revoked keys stay indexed
// to their owner so they cannot be claimed by someone else.
func (r *MerchantRepo) Save(ctx context.Context, m *domain.Merchant, removedKeys []string) error {
	raw, err := json.Marshal(recordFromMerchant(m))
	if err != nil {
		return fmt.Errorf("encode merchant: %w", err)
	}

	var claimed []string
	for _, k := range m.APIKeys {
		fresh, err := r.claimKey(ctx, m.ID, k.Key)
		if err != nil {
			// Best effort: a leftover entry points at a document without the
			// key, which authentication rejects.
			_ = r.releaseOwned(ctx, m.ID, claimed)
			return err
		}
		if fresh {
			claimed = append(claimed, k.Key)
		}
	}

	if err := r.store.Set(ctx, merchantKey(m.ID), raw, 0); err != nil {
		_ = r.releaseOwned(ctx, m.ID, claimed)
		return fmt.Errorf("save merchant: %w", err)
	}

	if err := r.releaseOwned(ctx, m.ID, removedKeys); err != nil {
		return fmt.Errorf("unmap api keys: %w", err)
	}
	return nil
}

// claimKey points apikey:{key} at merchantID unless another merchant holds
// it. fresh reports whether the entry was created by this call.
func (r *MerchantRepo) claimKey(ctx context.Context, merchantID, key string) (fresh bool, err error) {
	err = r.store.Update(ctx, apiKeyKey(key), 0, func(current []byte) ([]byte, error) {
		fresh = false
		switch {
		case current == nil:
			fresh = true
			return []byte(merchantID), nil
		case string(current) == merchantID:
			return nil, nil
		default:
			return nil, domain.ErrAPIKeyInUse
		}
	})
	if err != nil {
		return false, fmt.Errorf("map api key: %w", err)
	}
	return fresh, nil
}

// releaseOwned deletes index entries that still point at merchantID.
func (r *MerchantRepo) releaseOwned(ctx context.Context, merchantID string, keys []string) error {
	var unmap []string
	for _, k := range keys {
		owner, err := r.GetIDByAPIKey(ctx, k)
		if err != nil {
			return err
		}
		if owner == merchantID {
			unmap = append(unmap, apiKeyKey(k))
		}
	}
	if len(unmap) == 0 {
		return nil
	}
	return r.store.Delete(ctx, unmap...)
}
