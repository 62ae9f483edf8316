package kvrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lightning-payment-gateway/internal/core/domain"
	"lightning-payment-gateway/internal/core/ports"
)

// UsageRepo implements ports.AddressUsageRepository. The map is stored as
// {"<accountIndex>": <epochMillis>}.
type UsageRepo struct {
	store ports.KeyValueStore
}

// NewUsageRepo creates an address usage repository over store.
func NewUsageRepo(store ports.KeyValueStore) *UsageRepo {
	return &UsageRepo{store: store}
}

func (r *UsageRepo) Get(ctx context.Context, merchantID string) (domain.AddressUsage, error) {
	raw, err := r.store.Get(ctx, usageKey(merchantID))
	if err != nil {
		return nil, fmt.Errorf("get address usage: %w", err)
	}
	return decodeUsage(raw)
}

func (r *UsageRepo) Touch(ctx context.Context, merchantID string, accountIndex int, now time.Time) error {
	err := r.store.Update(ctx, usageKey(merchantID), 0, func(cur []byte) ([]byte, error) {
		usage, err := decodeUsage(cur)
		if err != nil {
			// A corrupt map only skews rotation; start over.
			usage = domain.AddressUsage{}
		}
		usage.Touch(accountIndex, now)
		return json.Marshal(usage)
	})
	if err != nil {
		return fmt.Errorf("touch address usage: %w", err)
	}
	return nil
}

func decodeUsage(raw []byte) (domain.AddressUsage, error) {
	usage := domain.AddressUsage{}
	if raw == nil {
		return usage, nil
	}
	if err := json.Unmarshal(raw, &usage); err != nil {
		return nil, fmt.Errorf("decode address usage: %w", err)
	}
	return usage, nil
}
