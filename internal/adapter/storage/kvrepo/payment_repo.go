package kvrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lightning-payment-gateway/internal/core/domain"
	"lightning-payment-gateway/internal/core/ports"
)

// DefaultPaymentTTL is how long payment documents are kept.
const DefaultPaymentTTL = 24 * time.Hour

// PaymentRepo implements ports.PaymentRepository. Documents expire ttl
// after creation; transitions keep the original deadline.
type PaymentRepo struct {
	store ports.KeyValueStore
	ttl   time.Duration
	now   func() time.Time
}

// NewPaymentRepo creates a payment repository over store.
func NewPaymentRepo(store ports.KeyValueStore, ttl time.Duration) *PaymentRepo {
	if ttl <= 0 {
		ttl = DefaultPaymentTTL
	}
	return &PaymentRepo{store: store, ttl: ttl, now: time.Now}
}

func (r *PaymentRepo) Create(ctx context.Context, p *domain.Payment) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode payment: %w", err)
	}
	if err := r.store.Set(ctx, paymentKey(p.ID), raw, r.remaining(p)); err != nil {
		return fmt.Errorf("save payment: %w", err)
	}
	return nil
}

func (r *PaymentRepo) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	raw, err := r.store.Get(ctx, paymentKey(id))
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	if raw == nil {
		return nil, nil
	}
	return decodePayment(raw)
}

// Transition applies fn inside the store's atomic update. When the document
// is gone it returns nil, false, nil.
func (r *PaymentRepo) Transition(ctx context.Context, id string, fn func(p *domain.Payment) bool) (*domain.Payment, bool, error) {
	// CreatedAt never changes, so the deadline can be read ahead of the update.
	loaded, err := r.GetByID(ctx, id)
	if err != nil || loaded == nil {
		return nil, false, err
	}

	var (
		result  *domain.Payment
		applied bool
	)
	err = r.store.Update(ctx, paymentKey(id), r.remaining(loaded), func(cur []byte) ([]byte, error) {
		result, applied = nil, false
		if cur == nil {
			return nil, nil
		}
		p, err := decodePayment(cur)
		if err != nil {
			return nil, err
		}
		result = p
		if !fn(p) {
			return nil, nil
		}
		applied = true
		return json.Marshal(p)
	})
	if err != nil {
		return nil, false, fmt.Errorf("transition payment %s: %w", id, err)
	}
	return result, applied, nil
}

func (r *PaymentRepo) remaining(p *domain.Payment) time.Duration {
	left := p.CreatedAt.Add(r.ttl).Sub(r.now())
	if left < time.Second {
		return time.Second
	}
	return left
}

func decodePayment(raw []byte) (*domain.Payment, error) {
	var p domain.Payment
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode payment: %w", err)
	}
	return &p, nil
}
