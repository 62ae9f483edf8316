package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"lightning-payment-gateway/internal/core/domain"
	"lightning-payment-gateway/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditLog records successful write operations after the handler ran.
// Handlers set CtxMerchantID and CtxResourceID for the entry.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 300 || c.Request.Method != http.MethodPost {
			return
		}

		action, resourceType := mapRouteToAction(c.FullPath())
		if action == "" {
			return
		}

		details, _ := json.Marshal(map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"request_id": c.GetString(CtxRequestID),
		})

		auditSvc.Log(c.Request.Context(), &domain.AuditLog{
			ID:           uuid.New(),
			MerchantID:   c.GetString(CtxMerchantID),
			Action:       action,
			ResourceType: resourceType,
			ResourceID:   c.GetString(CtxResourceID),
			IPAddress:    c.ClientIP(),
			Details:      string(details),
			CreatedAt:    time.Now().UTC(),
		})
	}
}

func mapRouteToAction(route string) (domain.AuditAction, string) {
	switch route {
	case "/api/merchants":
		return domain.AuditActionMerchantSync, "merchant"
	case "/api/merchants/keys":
		return domain.AuditActionAPIKeyCreate, "api_key"
	case "/api/merchants/keys/revoke":
		return domain.AuditActionAPIKeyRevoke, "api_key"
	case "/api/payments":
		return domain.AuditActionPaymentCreate, "payment"
	}
	return "", ""
}
