package handler

import (
	"net/http"

	"lightning-payment-gateway/internal/adapter/http/middleware"
	"lightning-payment-gateway/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc          ports.AuthService
	PaymentSvc       ports.PaymentService
	MerchantSvc      ports.MerchantService
	IdempotencyCache ports.IdempotencyCache // nil = Idempotency-Key ignored
	RateLimitStore   ports.RateLimitStore   // nil = rate limiting disabled
	AuditSvc         ports.AuditService     // nil = audit logging disabled
	HealthCheckers   []ports.HealthChecker
	MetricsHandler   http.Handler // nil = no /metrics
	OpenAPISpec      []byte
	PublicURL        string
	Mode             string // gin mode; empty = release
	Logger           zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	mode := deps.Mode
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.CORS())
	r.Use(middleware.MaxBodySize(maxBodyBytes))

	// Audit logging (after response)
	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	r.GET("/health", HealthCheck(deps.HealthCheckers...))
	if deps.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(deps.MetricsHandler))
	}

	docs := NewDocsHandler(deps.OpenAPISpec)
	swagger := r.Group("/swagger")
	{
		swagger.GET("", docs.UI)
		swagger.GET("/spec", docs.Spec)
	}

	rules := middleware.DefaultRateLimitRules()
	rl := func(group string) gin.HandlerFunc {
		rule, ok := rules[group]
		if deps.RateLimitStore == nil || !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	api := r.Group("/api")

	// --- Payments: API key to create, public status reads ---
	paymentHandler := NewPaymentHandler(deps.PaymentSvc, deps.IdempotencyCache, deps.PublicURL, deps.Logger)
	payments := api.Group("/payments")
	{
		payments.POST("", rl(middleware.GroupPaymentsCreate), middleware.APIKeyAuth(deps.AuthSvc, deps.Logger), paymentHandler.Create)
		payments.GET("/:id", rl(middleware.GroupPaymentsStatus), paymentHandler.Get)
	}

	// --- Merchants: bearer token checked by the merchant service ---
	merchantHandler := NewMerchantHandler(deps.MerchantSvc)
	merchants := api.Group("/merchants", rl(middleware.GroupMerchants))
	{
		merchants.POST("", merchantHandler.Sync)
		merchants.GET("", merchantHandler.Get)
		merchants.POST("/keys", merchantHandler.CreateKey)
		merchants.POST("/keys/revoke", merchantHandler.RevokeKey)
	}

	return r
}
