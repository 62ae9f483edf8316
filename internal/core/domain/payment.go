package domain

import (
	"math"
	"time"
)

// PaymentStatus represents the lifecycle state of a payment.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusExpired   PaymentStatus = "expired"
)

// Payment is one Lightning invoice issued on behalf of a merchant.
// Status only moves forward: pending -> completed or pending -> expired.
type Payment struct {
	ID           string                 `json:"id"`
	MerchantID   string                 `json:"merchantId"`
	AmountSats   int64                  `json:"amountSats"`
	AmountMsats  int64                  `json:"amountMsats"`
	Description  string                 `json:"description,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	Status       PaymentStatus          `json:"status"`
	Invoice      string                 `json:"invoice"`
	VerifyURL    string                 `json:"verifyUrl,omitempty"`
	AccountIndex int                    `json:"accountIndex"`
	UsedAddress  string                 `json:"usedAddress"`
	CreatedAt    time.Time              `json:"createdAt"`
	ExpiresAt    time.Time              `json:"expiresAt"`
	PaidAt       *time.Time             `json:"paidAt,omitempty"`
}

// IsTerminal returns true if the payment can no longer change state.
func (p *Payment) IsTerminal() bool {
	return p.Status == PaymentStatusCompleted || p.Status == PaymentStatusExpired
}

// IsPastExpiry reports whether now is strictly after ExpiresAt.
func (p *Payment) IsPastExpiry(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// Complete moves a pending payment to completed and stamps PaidAt.
// Returns false, leaving the payment untouched, if it was not pending.
func (p *Payment) Complete(now time.Time) bool {
	if p.Status != PaymentStatusPending {
		return false
	}
	paid := now.UTC()
	p.Status = PaymentStatusCompleted
	p.PaidAt = &paid
	return true
}

// Expire moves a pending payment to expired.
// Returns false, leaving the payment untouched, if it was not pending.
func (p *Payment) Expire() bool {
	if p.Status != PaymentStatusPending {
		return false
	}
	p.Status = PaymentStatusExpired
	return true
}

// MaxAmountSats is the largest amount whose msat value fits in an int64.
const MaxAmountSats = math.MaxInt64 / 1000

// ValidAmountSats reports whether sats is positive and convertible to msats
// without overflow.
func ValidAmountSats(sats int64) bool {
	return sats > 0 && sats <= MaxAmountSats
}

// SatsToMsats converts whole satoshis to millisatoshis. Callers check
// ValidAmountSats first.
func SatsToMsats(sats int64) int64 {
	return sats * 1000
}

// MsatsToSatsFloor converts millisatoshis to whole sats, rounding down.
func MsatsToSatsFloor(msats int64) int64 {
	return msats / 1000
}

// MsatsToSatsCeil converts millisatoshis to whole sats, rounding up.
func MsatsToSatsCeil(msats int64) int64 {
	return (msats + 999) / 1000
}
