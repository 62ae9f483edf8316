// Package kvrepo implements the repositories on top of ports.KeyValueStore,
// so every storage backend shares one document layout.
package kvrepo

const (
	merchantPrefix    = "merchant:"
	apiKeyPrefix      = "apikey:"
	paymentPrefix     = "payment:"
	usagePrefix       = "addr_usage:"
	idempotencyPrefix = "idempotency:"
	rateLimitPrefix   = "ratelimit:"
)

func merchantKey(id string) string      { return merchantPrefix + id }
func apiKeyKey(key string) string       { return apiKeyPrefix + key }
func paymentKey(id string) string       { return paymentPrefix + id }
func usageKey(merchantID string) string { return usagePrefix + merchantID }
