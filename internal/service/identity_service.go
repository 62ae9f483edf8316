package service

import (
	"crypto/subtle"
)

// DefaultIdentityProduct is the domain-separation prefix existing clients derive with.
const DefaultIdentityProduct = "glow-pay"

// IdentityDeriver turns a seed phrase into a merchant ID and bearer token.
// The server only ever sees the token and stores its SHA-256.
type IdentityDeriver struct {
	product string
	sig     *HMACSignatureService
}

// NewIdentityDeriver creates a deriver for the given product prefix.
func NewIdentityDeriver(product string) *IdentityDeriver {
	if product == "" {
		product = DefaultIdentityProduct
	}
	return &IdentityDeriver{product: product, sig: NewHMACSignatureService()}
}

// DeriveMerchantID returns "m_" followed by the first 16 hex chars of
// HMAC-SHA256(seed, "<product>:merchant-id").
func (d *IdentityDeriver) DeriveMerchantID(seed string) string {
	return "m_" + d.sig.Sign(seed, d.product+":merchant-id")[:16]
}

// DeriveAuthToken returns hex(HMAC-SHA256(seed, "<product>:auth-token")).
func (d *IdentityDeriver) DeriveAuthToken(seed string) string {
	return d.sig.Sign(seed, d.product+":auth-token")
}

// HashAuthToken returns the value stored as authTokenHash.
func (d *IdentityDeriver) HashAuthToken(token string) string {
	return d.sig.Digest(token)
}

// TokenMatches reports whether token hashes to storedHash.
func (d *IdentityDeriver) TokenMatches(token string, storedHash string) bool {
	got := d.HashAuthToken(token)
	return subtle.ConstantTimeCompare([]byte(got), []byte(storedHash)) == 1
}
