package middleware

import (
	"net/http"
	"strings"
	"time"

	"lightning-payment-gateway/internal/core/ports"
	"lightning-payment-gateway/pkg/apperror"
	"lightning-payment-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	HeaderAPIKey         = "X-API-Key"
	HeaderAuthorization  = "Authorization"
	HeaderRequestID      = "X-Request-ID"
	HeaderIdempotencyKey = "Idempotency-Key"

	// Context keys
	CtxRequestID  = "request_id"
	CtxMerchantID = "merchant_id"
	CtxMerchant   = "merchant"
	CtxResourceID = "resource_id"

	maxRequestIDLen = 128
)

// APIKeyAuth resolves X-API-Key to an active merchant key. Unknown and
// revoked keys get the same response.
func APIKeyAuth(authSvc ports.AuthService, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		merchant, err := authSvc.AuthenticateAPIKey(c.Request.Context(), c.GetHeader(HeaderAPIKey))
		if err != nil {
			if apperror.IsServerError(err) {
				log.Error().Err(err).Msg("api key lookup failed")
			}
			response.Abort(c, err)
			return
		}

		c.Set(CtxMerchantID, merchant.ID)
		c.Set(CtxMerchant, merchant)
		c.Next()
	}
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
// Returns "" when the header is missing or uses another scheme.
func BearerToken(c *gin.Context) string {
	h := c.GetHeader(HeaderAuthorization)
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

// RequestID propagates a caller-supplied X-Request-ID or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}
		c.Set(CtxRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// CORS allows any origin to call the API and answers preflights directly.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", strings.Join([]string{
			"Content-Type", HeaderAuthorization, HeaderAPIKey, HeaderIdempotencyKey, HeaderRequestID,
		}, ", "))
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}

// RequestLogger creates a middleware that logs every HTTP request.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		event := log.Info()
		if status >= http.StatusInternalServerError {
			event = log.Error()
		} else if status >= http.StatusBadRequest {
			event = log.Warn()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Str("request_id", c.GetString(CtxRequestID)).
			Str("merchant_id", c.GetString(CtxMerchantID)).
			Msg("http request")
	}
}

// Recovery creates a panic recovery middleware.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("path", c.Request.URL.Path).Msg("panic recovered")
				response.Abort(c, apperror.New("SYS_000", "Internal server error", http.StatusInternalServerError))
			}
		}()
		c.Next()
	}
}
