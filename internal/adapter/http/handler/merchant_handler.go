package handler

import (
	"strings"

	"lightning-payment-gateway/internal/adapter/http/dto"
	"lightning-payment-gateway/internal/adapter/http/middleware"
	"lightning-payment-gateway/internal/core/ports"
	"lightning-payment-gateway/pkg/response"

	"github.com/gin-gonic/gin"
)

// MerchantHandler handles the bearer-authenticated merchant endpoints.
type MerchantHandler struct {
	merchantSvc ports.MerchantService
}

// NewMerchantHandler creates a new merchant handler.
func NewMerchantHandler(merchantSvc ports.MerchantService) *MerchantHandler {
	return &MerchantHandler{merchantSvc: merchantSvc}
}

// Sync handles POST /api/merchants: create or update a merchant config.
func (h *MerchantHandler) Sync(c *gin.Context) {
	var req dto.SyncMerchantRequest
	if err := bindJSON(c, &req, ""); err != nil {
		response.Error(c, err)
		return
	}
	dto.SanitizeStruct(&req)

	m, err := h.merchantSvc.SyncConfig(c.Request.Context(), req.ToSyncRequest(middleware.BearerToken(c)))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxMerchantID, m.ID)
	c.Set(middleware.CtxResourceID, m.ID)
	response.Fields(c, gin.H{"merchantId": m.ID})
}

// Get handles GET /api/merchants?id=.
func (h *MerchantHandler) Get(c *gin.Context) {
	id := strings.TrimSpace(c.Query("id"))

	cfg, err := h.merchantSvc.GetConfig(c.Request.Context(), id, middleware.BearerToken(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewMerchantResponse(cfg))
}

// CreateKey handles POST /api/merchants/keys.
func (h *MerchantHandler) CreateKey(c *gin.Context) {
	var req dto.CreateKeyRequest
	if err := bindJSON(c, &req, ""); err != nil {
		response.Error(c, err)
		return
	}
	dto.SanitizeStruct(&req)

	key, err := h.merchantSvc.CreateAPIKey(c.Request.Context(), req.MerchantID, middleware.BearerToken(c), req.Label)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxMerchantID, req.MerchantID)
	c.Set(middleware.CtxResourceID, maskKey(key.Key))
	response.Created(c, key)
}

// RevokeKey handles POST /api/merchants/keys/revoke.
func (h *MerchantHandler) RevokeKey(c *gin.Context) {
	var req dto.RevokeKeyRequest
	if err := bindJSON(c, &req, ""); err != nil {
		response.Error(c, err)
		return
	}
	dto.SanitizeStruct(&req)

	if err := h.merchantSvc.RevokeAPIKey(c.Request.Context(), req.MerchantID, middleware.BearerToken(c), req.Key); err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxMerchantID, req.MerchantID)
	c.Set(middleware.CtxResourceID, maskKey(req.Key))
	response.OK(c, gin.H{"key": req.Key, "active": false})
}

// maskKey keeps enough of an API key to identify it in audit entries.
func maskKey(key string) string {
	const visible = 10
	if len(key) <= visible {
		return key
	}
	return key[:visible] + "..."
}
