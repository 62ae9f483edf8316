package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"error"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches on Code so callers can test errors.Is(err, apperror.ErrPaymentNotFound()).
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// IsServerError reports whether err maps to a 5xx response. Errors that are
// not AppErrors count as server errors.
func IsServerError(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus >= http.StatusInternalServerError
	}
	return err != nil
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Validation (VAL) ----

// Validation returns a VAL_001 error carrying a caller-safe message.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}

func ErrInvalidAmount() *AppError {
	return New("VAL_002", "amountSats must be a positive integer", http.StatusBadRequest)
}

func ErrMissingFields(fields string) *AppError {
	return New("VAL_003", fmt.Sprintf("Missing required fields: %s", fields), http.StatusBadRequest)
}

func ErrPayloadTooLarge(maxBytes int64) *AppError {
	return New("VAL_004", fmt.Sprintf("Request body exceeds %d bytes", maxBytes), http.StatusRequestEntityTooLarge)
}

// ---- Authentication (AUTH) ----

func ErrUnauthorized() *AppError {
	return New("AUTH_001", "Authorization required", http.StatusUnauthorized)
}

func ErrInvalidAuthToken() *AppError {
	return New("AUTH_002", "Invalid auth token", http.StatusForbidden)
}

// ErrInvalidAPIKey covers both unknown and revoked keys.
func ErrInvalidAPIKey() *AppError {
	return New("AUTH_003", "Invalid API key", http.StatusUnauthorized)
}

func ErrMissingAPIKey() *AppError {
	return New("AUTH_004", "Missing API key", http.StatusUnauthorized)
}

// ---- Not Found (NF) ----

func ErrMerchantNotFound() *AppError {
	return New("NF_001", "Merchant not found", http.StatusNotFound)
}

func ErrPaymentNotFound() *AppError {
	return New("NF_002", "Payment not found", http.StatusNotFound)
}

func ErrAPIKeyNotFound() *AppError {
	return New("NF_003", "API key not found", http.StatusNotFound)
}

func ErrNotFound(entity string) *AppError {
	return New("NF_000", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ---- API key lifecycle (KEY) ----

func ErrCannotRevokeLastActiveKey() *AppError {
	return New("KEY_001", "Cannot revoke the last active API key", http.StatusConflict)
}

func ErrAPIKeyInUse() *AppError {
	return New("KEY_002", "API key is already registered to another merchant", http.StatusConflict)
}

// ---- Upstream LNURL provider (UPS) ----

func ErrNoAddressesAvailable() *AppError {
	return New("UPS_001", "No Lightning addresses configured", http.StatusBadRequest)
}

// ErrAmountOutOfRange reports the provider's sendable bounds in whole sats.
func ErrAmountOutOfRange(minSats, maxSats int64) *AppError {
	return New("UPS_002",
		fmt.Sprintf("Amount must be between %d and %d sats", minSats, maxSats),
		http.StatusBadRequest)
}

func ErrPayInfoFailed(err error) *AppError {
	return Wrap("UPS_003", "Failed to fetch LNURL pay info", http.StatusBadGateway, err)
}

func ErrInvoiceRequestFailed(err error) *AppError {
	return Wrap("UPS_004", "Failed to request invoice", http.StatusBadGateway, err)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrStoreError(err error) *AppError {
	return Wrap("SYS_001", "Internal storage error", http.StatusInternalServerError, err)
}

func ErrEncryptionFailure(err error) *AppError {
	return Wrap("SYS_003", "Encryption service failure", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_002 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_002", "Internal server error", http.StatusInternalServerError, err)
}
