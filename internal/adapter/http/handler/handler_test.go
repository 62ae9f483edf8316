package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lightning-payment-gateway/internal/adapter/http/middleware"
	"lightning-payment-gateway/internal/core/domain"
	"lightning-payment-gateway/internal/core/ports"
	"lightning-payment-gateway/internal/core/ports/mocks"
	"lightning-payment-gateway/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var handlerNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func serve(r *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

// --- Payment Handler ---

type paymentHandlerDeps struct {
	svc  *mocks.MockPaymentService
	idem *mocks.MockIdempotencyCache
	r    *gin.Engine
}

func setupPaymentHandler(t *testing.T, publicURL string) *paymentHandlerDeps {
	ctrl := gomock.NewController(t)
	d := &paymentHandlerDeps{
		svc:  mocks.NewMockPaymentService(ctrl),
		idem: mocks.NewMockIdempotencyCache(ctrl),
	}
	h := NewPaymentHandler(d.svc, d.idem, publicURL, zerolog.Nop())

	d.r = gin.New()
	d.r.POST("/api/payments", func(c *gin.Context) {
		c.Set(middleware.CtxMerchantID, "m_1")
		c.Next()
	}, h.Create)
	d.r.GET("/api/payments/:id", h.Get)
	return d
}

func createResult() *ports.CreatePaymentResult {
	return &ports.CreatePaymentResult{
		PaymentID:  "p1",
		PaymentURL: "https://gw.example/pay/m_1/p1",
		Invoice:    "lnbc210n1p",
		ExpiresAt:  handlerNow.Add(10 * time.Minute),
		VerifyURL:  "https://pay.example/lnurlp/bob/verify/h",
		AmountSats: 21,
	}
}

func TestCreatePayment_Success(t *testing.T) {
	d := setupPaymentHandler(t, "https://gw.example/")

	d.svc.EXPECT().Create(gomock.Any(), ports.CreatePaymentRequest{
		MerchantID:  "m_1",
		AmountSats:  21,
		Description: "Coffee & cake",
		Metadata:    map[string]interface{}{"order": "A-17"},
		BaseURL:     "https://gw.example",
	}).Return(createResult(), nil)

	w := serve(d.r, http.MethodPost, "/api/payments",
		`{"amountSats":21,"description":" Coffee & cake ","metadata":{"order":"A-17"}}`, nil)

	assert.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "p1", data["paymentId"])
	assert.Equal(t, "https://gw.example/pay/m_1/p1", data["paymentUrl"])
	assert.Equal(t, "lnbc210n1p", data["invoice"])
	assert.Equal(t, float64(21), data["amountSats"])
	assert.Equal(t, "2026-03-01T12:10:00Z", data["expiresAt"])
}

func TestCreatePayment_BaseURLFromRequest(t *testing.T) {
	d := setupPaymentHandler(t, "")

	d.svc.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req ports.CreatePaymentRequest) (*ports.CreatePaymentResult, error) {
			assert.Equal(t, "https://example.com", req.BaseURL)
			return createResult(), nil
		})

	w := serve(d.r, http.MethodPost, "/api/payments", `{"amountSats":21}`, map[string]string{"X-Forwarded-Proto": "https"})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCreatePayment_InvalidAmount(t *testing.T) {
	bodies := map[string]string{
		"missing":       `{"description":"x"}`,
		"fractional":    `{"amountSats":1.5}`,
		"string":        `{"amountSats":"21"}`,
		"zero":          `{"amountSats":0}`,
		"negative":      `{"amountSats":-5}`,
		"msat overflow": `{"amountSats":2305843009213694952}`,
		"empty body":    ``,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			d := setupPaymentHandler(t, "")
			w := serve(d.r, http.MethodPost, "/api/payments", body, nil)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "VAL_002", decode(t, w)["error_code"])
			assert.Equal(t, "amountSats must be a positive integer", decode(t, w)["error"])
		})
	}
}

func TestCreatePayment_ServiceErrors(t *testing.T) {
	tests := []struct {
		err      error
		status   int
		code     string
		contains string
	}{
		{apperror.ErrAmountOutOfRange(1, 100000), http.StatusBadRequest, "UPS_002", "Amount must be between 1 and 100000 sats"},
		{apperror.ErrInvoiceRequestFailed(errors.New("boom")), http.StatusBadGateway, "UPS_004", "Failed to request invoice"},
		{apperror.ErrMerchantNotFound(), http.StatusNotFound, "NF_001", "Merchant not found"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			d := setupPaymentHandler(t, "")
			d.svc.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, tt.err)

			w := serve(d.r, http.MethodPost, "/api/payments", `{"amountSats":21}`, nil)
			assert.Equal(t, tt.status, w.Code)
			body := decode(t, w)
			assert.Equal(t, tt.code, body["error_code"])
			assert.Equal(t, tt.contains, body["error"])
			assert.NotContains(t, w.Body.String(), "boom")
		})
	}
}

func TestCreatePayment_IdempotentReplay(t *testing.T) {
	d := setupPaymentHandler(t, "")
	cached := []byte(`{"success":true,"data":{"paymentId":"p0"},"request_id":"r0"}`)
	d.idem.EXPECT().Get(gomock.Any(), "m_1:order-17").Return(cached, nil)

	w := serve(d.r, http.MethodPost, "/api/payments", `{"amountSats":21}`,
		map[string]string{middleware.HeaderIdempotencyKey: "order-17"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, string(cached), w.Body.String())
	assert.Equal(t, "true", w.Header().Get("Idempotent-Replayed"))
}

func TestCreatePayment_IdempotentFirstCallIsCached(t *testing.T) {
	d := setupPaymentHandler(t, "")
	d.idem.EXPECT().Get(gomock.Any(), "m_1:order-17").Return(nil, nil)
	d.svc.EXPECT().Create(gomock.Any(), gomock.Any()).Return(createResult(), nil)

	var stored []byte
	d.idem.EXPECT().Set(gomock.Any(), "m_1:order-17", gomock.Any(), 24*time.Hour).DoAndReturn(
		func(_ context.Context, _ string, value []byte, _ time.Duration) error {
			stored = value
			return nil
		})

	w := serve(d.r, http.MethodPost, "/api/payments", `{"amountSats":21}`,
		map[string]string{middleware.HeaderIdempotencyKey: "order-17"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, w.Body.String(), string(stored))
}

func TestCreatePayment_IdempotencyFailuresAreIgnored(t *testing.T) {
	d := setupPaymentHandler(t, "")
	d.idem.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, errors.New("redis down"))
	d.svc.EXPECT().Create(gomock.Any(), gomock.Any()).Return(createResult(), nil)
	d.idem.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

	w := serve(d.r, http.MethodPost, "/api/payments", `{"amountSats":21}`,
		map[string]string{middleware.HeaderIdempotencyKey: "order-17"})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCreatePayment_FailuresAreNotCached(t *testing.T) {
	d := setupPaymentHandler(t, "")
	d.idem.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, nil)
	d.svc.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, apperror.ErrAmountOutOfRange(1, 10))

	w := serve(d.r, http.MethodPost, "/api/payments", `{"amountSats":21}`,
		map[string]string{middleware.HeaderIdempotencyKey: "order-17"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetPayment_Success(t *testing.T) {
	d := setupPaymentHandler(t, "")
	paid := handlerNow.Add(time.Minute)
	d.svc.EXPECT().Status(gomock.Any(), "p1").Return(&ports.PaymentStatusView{
		Payment: &domain.Payment{
			ID:          "p1",
			MerchantID:  "m_1",
			AmountSats:  21,
			Description: "Coffee",
			Invoice:     "lnbc210n1p",
			Status:      domain.PaymentStatusCompleted,
			CreatedAt:   handlerNow,
			ExpiresAt:   handlerNow.Add(10 * time.Minute),
			PaidAt:      &paid,
			VerifyURL:   "https://pay.example/v",
		},
		Merchant: &ports.MerchantDisplay{StoreName: "Corner Coffee", RedirectURL: "https://coffee.example/thanks"},
	}, nil)

	w := serve(d.r, http.MethodGet, "/api/payments/p1", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "completed", data["status"])
	assert.Equal(t, "Coffee", data["description"])
	assert.Equal(t, "2026-03-01T12:01:00Z", data["paidAt"])
	assert.Equal(t, map[string]interface{}{"storeName": "Corner Coffee", "redirectUrl": "https://coffee.example/thanks"}, data["merchant"])
	assert.NotContains(t, data, "merchantId")
}

func TestGetPayment_PendingRendersNulls(t *testing.T) {
	d := setupPaymentHandler(t, "")
	d.svc.EXPECT().Status(gomock.Any(), "p2").Return(&ports.PaymentStatusView{
		Payment: &domain.Payment{ID: "p2", Status: domain.PaymentStatusPending},
	}, nil)

	w := serve(d.r, http.MethodGet, "/api/payments/p2", "", nil)
	data := decode(t, w)["data"].(map[string]interface{})
	for _, k := range []string{"paidAt", "description", "verifyUrl", "merchant"} {
		v, ok := data[k]
		assert.True(t, ok, k)
		assert.Nil(t, v, k)
	}
}

func TestGetPayment_NotFound(t *testing.T) {
	d := setupPaymentHandler(t, "")
	d.svc.EXPECT().Status(gomock.Any(), "nope").Return(nil, apperror.ErrPaymentNotFound())

	w := serve(d.r, http.MethodGet, "/api/payments/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NF_002", decode(t, w)["error_code"])
}

// --- Merchant Handler ---

func setupMerchantHandler(t *testing.T) (*mocks.MockMerchantService, *gin.Engine) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockMerchantService(ctrl)
	h := NewMerchantHandler(svc)

	r := gin.New()
	r.POST("/api/merchants", h.Sync)
	r.GET("/api/merchants", h.Get)
	r.POST("/api/merchants/keys", h.CreateKey)
	r.POST("/api/merchants/keys/revoke", h.RevokeKey)
	return svc, r
}

var bearer = map[string]string{"Authorization": "Bearer tok123"}

func TestSyncMerchant_Success(t *testing.T) {
	svc, r := setupMerchantHandler(t)
	rotation := 2

	svc.EXPECT().SyncConfig(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req ports.SyncMerchantRequest) (*domain.Merchant, error) {
			assert.Equal(t, "m_1", req.MerchantID)
			assert.Equal(t, "tok123", req.BearerToken)
			assert.Equal(t, "gp_live", req.LegacyAPIKey)
			assert.Equal(t, []string{"alice@pay.example", "bob@pay.example"}, req.Addresses)
			assert.Equal(t, &rotation, req.RotationCount)
			assert.Nil(t, req.WebhookURL)
			return &domain.Merchant{ID: "m_1"}, nil
		})

	w := serve(r, http.MethodPost, "/api/merchants",
		`{"merchantId":"m_1","apiKey":"gp_live","storeName":"Shop","lightningAddresses":["alice@pay.example","bob@pay.example"],"rotationCount":2}`,
		bearer)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "m_1", body["merchantId"])
}

func TestSyncMerchant_Errors(t *testing.T) {
	t.Run("invalid address is rejected before the service", func(t *testing.T) {
		_, r := setupMerchantHandler(t)
		w := serve(r, http.MethodPost, "/api/merchants", `{"merchantId":"m_1","lightningAddresses":["nope"]}`, bearer)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VAL_001", decode(t, w)["error_code"])
	})

	t.Run("malformed json", func(t *testing.T) {
		_, r := setupMerchantHandler(t)
		w := serve(r, http.MethodPost, "/api/merchants", `{"merchantId":`, bearer)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	for _, tt := range []struct {
		err    error
		status int
	}{
		{apperror.ErrMissingFields("merchantId, apiKey, lightningAddresses"), http.StatusBadRequest},
		{apperror.ErrUnauthorized(), http.StatusUnauthorized},
		{apperror.ErrInvalidAuthToken(), http.StatusForbidden},
	} {
		svc, r := setupMerchantHandler(t)
		svc.EXPECT().SyncConfig(gomock.Any(), gomock.Any()).Return(nil, tt.err)
		w := serve(r, http.MethodPost, "/api/merchants", `{"merchantId":"m_1"}`, nil)
		assert.Equal(t, tt.status, w.Code)
	}
}

func TestGetMerchant(t *testing.T) {
	svc, r := setupMerchantHandler(t)
	svc.EXPECT().GetConfig(gomock.Any(), "m_1", "tok123").Return(&ports.MerchantConfig{
		Merchant: &domain.Merchant{
			ID:            "m_1",
			StoreName:     "Shop",
			Addresses:     []string{"alice@pay.example"},
			APIKeys:       []domain.APIKey{{Key: "gp_live", Label: "Default", Active: true, CreatedAt: handlerNow}},
			AuthTokenHash: "deadbeef",
			WebhookURL:    "https://shop.example/hook",
		},
		WebhookSecret: "whsec_abc",
	}, nil)

	w := serve(r, http.MethodGet, "/api/merchants?id=m_1", "", bearer)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "deadbeef")
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "gp_live", data["apiKey"])
	assert.Equal(t, "alice@pay.example", data["lightningAddress"])
	assert.Equal(t, "whsec_abc", data["webhookSecret"])
	assert.NotContains(t, data, "authTokenHash")
}

func TestGetMerchant_NotFound(t *testing.T) {
	svc, r := setupMerchantHandler(t)
	svc.EXPECT().GetConfig(gomock.Any(), "m_x", "tok123").Return(nil, apperror.ErrMerchantNotFound())

	w := serve(r, http.MethodGet, "/api/merchants?id=m_x", "", bearer)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateKey(t *testing.T) {
	svc, r := setupMerchantHandler(t)
	svc.EXPECT().CreateAPIKey(gomock.Any(), "m_1", "tok123", "POS").
		Return(&domain.APIKey{Key: "gp_new", Label: "POS", Active: true, CreatedAt: handlerNow}, nil)

	w := serve(r, http.MethodPost, "/api/merchants/keys", `{"merchantId":"m_1","label":"POS"}`, bearer)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "gp_new", data["key"])
	assert.Equal(t, true, data["active"])
}

func TestCreateKey_MissingMerchantID(t *testing.T) {
	_, r := setupMerchantHandler(t)
	w := serve(r, http.MethodPost, "/api/merchants/keys", `{"label":"POS"}`, bearer)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRevokeKey(t *testing.T) {
	svc, r := setupMerchantHandler(t)
	svc.EXPECT().RevokeAPIKey(gomock.Any(), "m_1", "tok123", "gp_old").Return(nil)

	w := serve(r, http.MethodPost, "/api/merchants/keys/revoke", `{"merchantId":"m_1","key":"gp_old"}`, bearer)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRevokeKey_Errors(t *testing.T) {
	for _, tt := range []struct {
		err    error
		status int
		code   string
	}{
		{apperror.ErrCannotRevokeLastActiveKey(), http.StatusConflict, "KEY_001"},
		{apperror.ErrAPIKeyNotFound(), http.StatusNotFound, "NF_003"},
	} {
		svc, r := setupMerchantHandler(t)
		svc.EXPECT().RevokeAPIKey(gomock.Any(), "m_1", "tok123", "gp_x").Return(tt.err)

		w := serve(r, http.MethodPost, "/api/merchants/keys/revoke", `{"merchantId":"m_1","key":"gp_x"}`, bearer)
		assert.Equal(t, tt.status, w.Code)
		assert.Equal(t, tt.code, decode(t, w)["error_code"])
	}
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "gp_0123456...", maskKey("gp_0123456789abcdef"))
	assert.Equal(t, "gp_short", maskKey("gp_short"))
}

// --- Health Check ---

func TestHealthCheck(t *testing.T) {
	ctrl := gomock.NewController(t)
	up := mocks.NewMockHealthChecker(ctrl)
	up.EXPECT().Ping(gomock.Any()).Return(nil)
	up.EXPECT().Name().Return("redis").AnyTimes()

	r := gin.New()
	r.GET("/health", HealthCheck(up))
	w := serve(r, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "healthy", body["status"])
	deps := body["dependencies"].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{"status": "healthy"}, deps["redis"])
}

func TestHealthCheck_Degraded(t *testing.T) {
	ctrl := gomock.NewController(t)
	down := mocks.NewMockHealthChecker(ctrl)
	down.EXPECT().Ping(gomock.Any()).Return(errors.New("connection refused"))
	down.EXPECT().Name().Return("postgresql").AnyTimes()

	r := gin.New()
	r.GET("/health", HealthCheck(down))
	w := serve(r, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := decode(t, w)
	assert.Equal(t, "degraded", body["status"])
	assert.Contains(t, w.Body.String(), "connection refused")
}

// --- Docs ---

func TestDocs(t *testing.T) {
	r := gin.New()
	loaded := NewDocsHandler([]byte("openapi: 3.0.3\n"))
	missing := NewDocsHandler(nil)
	r.GET("/swagger", loaded.UI)
	r.GET("/swagger/spec", loaded.Spec)
	r.GET("/missing/spec", missing.Spec)

	w := serve(r, http.MethodGet, "/swagger", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "swagger-ui")
	assert.Contains(t, w.Body.String(), "/swagger/spec")

	w = serve(r, http.MethodGet, "/swagger/spec", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/x-yaml", w.Header().Get("Content-Type"))
	assert.Equal(t, "openapi: 3.0.3\n", w.Body.String())

	w = serve(r, http.MethodGet, "/missing/spec", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
