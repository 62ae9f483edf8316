package domain

import (
	"errors"
	"time"
)

// ErrAPIKeyInUse is returned by repositories when a key is already indexed
// to a different merchant.
var ErrAPIKeyInUse = errors.New("api key belongs to another merchant")

// APIKey is one credential allowed to create payments for a merchant.
// Revocation flips Active; keys are never removed by the key lifecycle.
type APIKey struct {
	Key       string    `json:"key"`
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"createdAt"`
	Active    bool      `json:"active"`
}

// Merchant represents one seller and its receiving configuration.
type Merchant struct {
	ID               string    `json:"id"`
	StoreName        string    `json:"storeName"`
	Addresses        []string  `json:"lightningAddresses"` // index 0 is the primary
	APIKeys          []APIKey  `json:"apiKeys"`
	RotationEnabled  bool      `json:"rotationEnabled"`
	RotationCount    int       `json:"rotationCount"` // 0 = every address participates
	AuthTokenHash    string    `json:"-"`             // sha256 hex of the bearer token
	WebhookURL       string    `json:"webhookUrl,omitempty"`
	WebhookSecretEnc string    `json:"-"` // AES-256-GCM encrypted
	RedirectURL      string    `json:"redirectUrl,omitempty"`
	BrandColor       string    `json:"brandColor,omitempty"`
	LogoURL          string    `json:"logoUrl,omitempty"`
	RegisteredAt     time.Time `json:"registeredAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// PrimaryAddress returns the address at index 0, or "" when none is configured.
func (m *Merchant) PrimaryAddress() string {
	if len(m.Addresses) == 0 {
		return ""
	}
	return m.Addresses[0]
}

// LegacyAPIKey is the single-key field older clients read: the first active key.
func (m *Merchant) LegacyAPIKey() string {
	for _, k := range m.APIKeys {
		if k.Active {
			return k.Key
		}
	}
	return ""
}

// ActiveKeyCount returns how many keys can currently authorize payment creation.
func (m *Merchant) ActiveKeyCount() int {
	n := 0
	for _, k := range m.APIKeys {
		if k.Active {
			n++
		}
	}
	return n
}

// FindKey returns the position of key in APIKeys, or -1.
func (m *Merchant) FindKey(key string) int {
	for i, k := range m.APIKeys {
		if k.Key == key {
			return i
		}
	}
	return -1
}

// IsKeyActive reports whether key is present and not revoked.
func (m *Merchant) IsKeyActive(key string) bool {
	i := m.FindKey(key)
	return i >= 0 && m.APIKeys[i].Active
}

// HasWebhook reports whether lifecycle events should be delivered.
func (m *Merchant) HasWebhook() bool {
	return m.WebhookURL != "" && m.WebhookSecretEnc != ""
}

// HasAuthToken reports whether the bearer token hash has been established.
func (m *Merchant) HasAuthToken() bool {
	return m.AuthTokenHash != ""
}
