package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"lightning-payment-gateway/internal/adapter/http/dto"
	"lightning-payment-gateway/internal/adapter/http/middleware"
	"lightning-payment-gateway/internal/core/domain"
	"lightning-payment-gateway/internal/core/ports"
	"lightning-payment-gateway/pkg/apperror"
	"lightning-payment-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	idempotencyTTL       = 24 * time.Hour
	maxIdempotencyKeyLen = 255
)

// PaymentHandler handles payment creation and status reads.
type PaymentHandler struct {
	paymentSvc ports.PaymentService
	idem       ports.IdempotencyCache // nil ignores Idempotency-Key
	publicURL  string
	log        zerolog.Logger
}

// NewPaymentHandler creates a new PaymentHandler. An empty publicURL builds
// payment links from the request's own scheme and host.
func NewPaymentHandler(paymentSvc ports.PaymentService, idem ports.IdempotencyCache, publicURL string, log zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentSvc: paymentSvc,
		idem:       idem,
		publicURL:  strings.TrimRight(publicURL, "/"),
		log:        log,
	}
}

// Create handles POST /api/payments.
func (h *PaymentHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()
	merchantID := c.GetString(middleware.CtxMerchantID)
	if merchantID == "" {
		response.Error(c, apperror.ErrMissingAPIKey())
		return
	}

	var cacheKey string
	if key := strings.TrimSpace(c.GetHeader(middleware.HeaderIdempotencyKey)); key != "" && h.idem != nil {
		if len(key) > maxIdempotencyKeyLen {
			response.Error(c, apperror.Validation("Idempotency-Key must be at most 255 characters"))
			return
		}
		cacheKey = domain.BuildIdempotencyKey(merchantID, key)
		cached, err := h.idem.Get(ctx, cacheKey)
		if err != nil {
			h.log.Warn().Err(err).Str("merchant_id", merchantID).Msg("idempotency lookup failed")
		} else if cached != nil {
			c.Header("Idempotent-Replayed", "true")
			c.Data(http.StatusCreated, jsonContentType, cached)
			return
		}
	}

	var req dto.CreatePaymentRequest
	if err := bindJSON(c, &req, "amountSats"); err != nil {
		response.Error(c, err)
		return
	}
	dto.SanitizeStruct(&req)
	if req.AmountSats == nil || !domain.ValidAmountSats(*req.AmountSats) {
		response.Error(c, apperror.ErrInvalidAmount())
		return
	}

	result, err := h.paymentSvc.Create(ctx, ports.CreatePaymentRequest{
		MerchantID:  merchantID,
		AmountSats:  *req.AmountSats,
		Description: req.Description,
		Metadata:    req.Metadata,
		BaseURL:     h.baseURL(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Set(middleware.CtxResourceID, result.PaymentID)

	body, err := json.Marshal(response.SuccessResponse{
		Success:   true,
		Data:      result,
		RequestID: response.RequestID(c),
	})
	if err != nil {
		response.Error(c, apperror.InternalError(err))
		return
	}
	if cacheKey != "" {
		if err := h.idem.Set(ctx, cacheKey, body, idempotencyTTL); err != nil {
			h.log.Warn().Err(err).Str("payment_id", result.PaymentID).Msg("idempotency store failed")
		}
	}
	c.Data(http.StatusCreated, jsonContentType, body)
}

// Get handles GET /api/payments/:id. Reading a pending payment reconciles it.
func (h *PaymentHandler) Get(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		response.Error(c, apperror.ErrMissingFields("id"))
		return
	}

	view, err := h.paymentSvc.Status(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewPaymentStatusResponse(view))
}

func (h *PaymentHandler) baseURL(c *gin.Context) string {
	if h.publicURL != "" {
		return h.publicURL
	}
	scheme := "http"
	if c.Request.TLS != nil || strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}
