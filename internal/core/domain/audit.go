package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audited action.
type AuditAction string

const (
	AuditActionMerchantSync  AuditAction = "MERCHANT_SYNC"
	AuditActionAPIKeyCreate  AuditAction = "API_KEY_CREATE"
	AuditActionAPIKeyRevoke  AuditAction = "API_KEY_REVOKE"
	AuditActionPaymentCreate AuditAction = "PAYMENT_CREATE"
)

// AuditLog records a single audited action in the system.
type AuditLog struct {
	ID           uuid.UUID   `json:"id"`
	MerchantID   string      `json:"merchant_id,omitempty"`
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id,omitempty"`
	Details      string      `json:"details,omitempty"` // JSON string
	IPAddress    string      `json:"ip_address"`
	CreatedAt    time.Time   `json:"created_at"`
}
