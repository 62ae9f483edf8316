package ports

import (
	"context"
	"time"

	"lightning-payment-gateway/internal/core/domain"
)

// EncryptionService handles AES-256-GCM encryption/decryption.
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// SignatureService handles HMAC-SHA256 signing and verification.
type SignatureService interface {
	Sign(secretKey string, payload string) string
	Verify(secretKey string, payload string, signature string) bool
}

// IdentityService derives merchant identity from a seed phrase.
type IdentityService interface {
	DeriveMerchantID(seed string) string
	DeriveAuthToken(seed string) string
	HashAuthToken(token string) string
	// TokenMatches compares token against a stored hash in constant time.
	TokenMatches(token string, storedHash string) bool
}

// --- Service Ports (Business Logic) ---

// PaymentService defines the payment lifecycle.
type PaymentService interface {
	Create(ctx context.Context, req CreatePaymentRequest) (*CreatePaymentResult, error)
	Reconcile(ctx context.Context, paymentID string) (*domain.Payment, error)
	Status(ctx context.Context, paymentID string) (*PaymentStatusView, error)
}

// CreatePaymentRequest holds validated input for payment creation.
type CreatePaymentRequest struct {
	MerchantID  string
	AmountSats  int64
	Description string
	Metadata    map[string]interface{}
	BaseURL     string // scheme://host used for the payment page link
}

// CreatePaymentResult is returned to the API caller on creation.
type CreatePaymentResult struct {
	PaymentID  string    `json:"paymentId"`
	PaymentURL string    `json:"paymentUrl"`
	Invoice    string    `json:"invoice"`
	ExpiresAt  time.Time `json:"expiresAt"`
	VerifyURL  string    `json:"verifyUrl"`
	AmountSats int64     `json:"amountSats"`
}

// PaymentStatusView is a reconciled payment plus merchant display info.
type PaymentStatusView struct {
	Payment  *domain.Payment
	Merchant *MerchantDisplay // nil if the merchant document is gone
}

// MerchantDisplay is the public subset of a merchant shown on a payment page.
type MerchantDisplay struct {
	StoreName   string `json:"storeName"`
	RedirectURL string `json:"redirectUrl"`
}

// AuthService gates inbound requests.
type AuthService interface {
	// AuthenticateAPIKey resolves an active API key to its merchant.
	AuthenticateAPIKey(ctx context.Context, apiKey string) (*domain.Merchant, error)
	// AuthorizeMerchant checks a bearer token against the merchant's stored
	// hash. merchant may be nil for a merchant that does not exist yet.
	// Returns the token hash to persist when the merchant has none.
	AuthorizeMerchant(merchant *domain.Merchant, bearerToken string) (newHash string, err error)
}

// MerchantService manages merchant configuration and API keys.
type MerchantService interface {
	SyncConfig(ctx context.Context, req SyncMerchantRequest) (*domain.Merchant, error)
	GetConfig(ctx context.Context, merchantID string, bearerToken string) (*MerchantConfig, error)
	CreateAPIKey(ctx context.Context, merchantID string, bearerToken string, label string) (*domain.APIKey, error)
	RevokeAPIKey(ctx context.Context, merchantID string, bearerToken string, key string) error
}

// SyncMerchantRequest is a full merchant configuration pushed by the owner.
type SyncMerchantRequest struct {
	MerchantID      string
	BearerToken     string
	StoreName       string
	Addresses       []string
	APIKeys         []domain.APIKey // nil keeps the stored set
	LegacyAPIKey    string          // older clients send a single key
	RotationEnabled *bool
	RotationCount   *int
	WebhookURL      *string
	RedirectURL     *string
	BrandColor      *string
	LogoURL         *string
}

// MerchantConfig is the owner's view of a merchant: the stored document
// plus the decrypted webhook secret.
type MerchantConfig struct {
	Merchant      *domain.Merchant
	WebhookSecret string
}

// WebhookNotifier delivers signed lifecycle events.
type WebhookNotifier interface {
	// Send performs exactly one delivery attempt.
	Send(ctx context.Context, target domain.WebhookTarget, event domain.WebhookEvent, payload map[string]interface{}) error
	// Dispatch runs Send detached from the caller; failures are only logged.
	Dispatch(target domain.WebhookTarget, event domain.WebhookEvent, payload map[string]interface{})
}

// AuditService records audit entries without blocking the caller.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}
