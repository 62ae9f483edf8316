package domain

// BuildIdempotencyKey scopes a client Idempotency-Key header to a merchant.
func BuildIdempotencyKey(merchantID string, clientKey string) string {
	return merchantID + ":" + clientKey
}
