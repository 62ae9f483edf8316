package ports

import (
	"context"
	"time"

	"lightning-payment-gateway/internal/core/domain"
)

// MerchantRepository defines persistence operations for merchants.
// Lookups return nil, nil when nothing is stored under the key.
type MerchantRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Merchant, error)
	// GetIDByAPIKey resolves the key index only; callers must still check
	// that the key is active on the merchant document.
	GetIDByAPIKey(ctx context.Context, apiKey string) (string, error)
	// Save maps every key of merchant to it, writes the document and unmaps
	// removedKeys still owned by it. A key mapped to another merchant fails
	// with domain.ErrAPIKeyInUse and nothing is written.
	Save(ctx context.Context, merchant *domain.Merchant, removedKeys []string) error
}

// PaymentRepository defines persistence operations for payments.
type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	GetByID(ctx context.Context, id string) (*domain.Payment, error)
	// Transition loads the payment inside an atomic update and hands it to fn.
	// fn reports whether it changed the payment; only then is it written.
	// Returns the stored payment after the update and whether fn applied.
	Transition(ctx context.Context, id string, fn func(p *domain.Payment) bool) (*domain.Payment, bool, error)
}

// AddressUsageRepository tracks per-merchant address selection times.
type AddressUsageRepository interface {
	Get(ctx context.Context, merchantID string) (domain.AddressUsage, error)
	Touch(ctx context.Context, merchantID string, accountIndex int, now time.Time) error
}

// AuditRepository persists audit entries.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
}

// IdempotencyCache stores replayable responses keyed by client idempotency key.
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // Returns cached response JSON or nil
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
