// Package errors provides standardized error handling for the connector
// and its BPMN workflow integration.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Input validation
	ErrCodeInvalidVinFormat ErrorCode = "INVALID_VIN_FORMAT"
	ErrCodeNoVinsConfigured ErrorCode = "NO_VINS_CONFIGURED"

	// Fetcher (NHTSA API)
	ErrCodeNetworkError ErrorCode = "NETWORK_ERROR"
	ErrCodeHTTPError    ErrorCode = "HTTP_ERROR"
	ErrCodeParseError   ErrorCode = "PARSE_ERROR"

	// Mapper
	ErrCodeMalformedField ErrorCode = "MALFORMED_FIELD"

	// Sink / state
	ErrCodeWarehouseConnectionFailed ErrorCode = "WAREHOUSE_CONNECTION_FAILED"
	ErrCodeWarehouseUpsertFailed     ErrorCode = "WAREHOUSE_UPSERT_FAILED"
	ErrCodeStateLoadFailed           ErrorCode = "STATE_LOAD_FAILED"
	ErrCodeStateSaveFailed           ErrorCode = "STATE_SAVE_FAILED"
	ErrCodeSearchIndexFailed         ErrorCode = "SEARCH_INDEX_FAILED"

	// Notifications
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// CodeOf extracts the ErrorCode from err, or "INTERNAL_ERROR" when err
// is not a StandardError.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code
	}
	return "INTERNAL_ERROR"
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	if e.ErrorVariables != nil {
		for k, v := range e.ErrorVariables {
			vars[k] = v
		}
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewInvalidVinFormatError creates a non-retryable VIN validation error.
// Raised before any network call is made.
func NewInvalidVinFormatError(vin, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidVinFormat,
		Message:   "VIN failed format validation",
		Details:   details,
		Retryable: false,
		Metadata:  map[string]interface{}{"vin": vin},
		Timestamp: time.Now().UTC(),
	}
}

// NewNoVinsConfiguredError creates a non-retryable configuration error.
// This is the only error fatal to a whole run.
func NewNoVinsConfiguredError() *StandardError {
	return &StandardError{
		Code:      ErrCodeNoVinsConfigured,
		Message:   "No VINs configured for sync",
		Details:   "connector.vins must contain at least one VIN",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNetworkError creates a retryable transport-level error.
func NewNetworkError(endpoint string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNetworkError,
		Message:   "NHTSA API request failed",
		Details:   err.Error(),
		Retryable: true,
		Metadata:  map[string]interface{}{"endpoint": endpoint},
		Timestamp: time.Now().UTC(),
	}
}

// NewHTTPError creates an error for a non-2xx API response. 5xx responses
// are considered transient, 4xx are not.
func NewHTTPError(endpoint string, status int, body string) *StandardError {
	return &StandardError{
		Code:      ErrCodeHTTPError,
		Message:   fmt.Sprintf("NHTSA API returned status %d", status),
		Details:   body,
		Retryable: status >= 500,
		Metadata:  map[string]interface{}{"endpoint": endpoint, "status": status},
		Timestamp: time.Now().UTC(),
	}
}

// NewParseError creates a non-retryable error for an unparseable API payload.
func NewParseError(endpoint string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeParseError,
		Message:   "NHTSA API response could not be parsed",
		Details:   err.Error(),
		Retryable: false,
		Metadata:  map[string]interface{}{"endpoint": endpoint},
		Timestamp: time.Now().UTC(),
	}
}

// NewMalformedFieldError creates a non-retryable error that aborts only the
// record being built, never the whole run.
func NewMalformedFieldError(field, value string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMalformedField,
		Message:   fmt.Sprintf("Field '%s' has malformed value", field),
		Details:   fmt.Sprintf("value: %q", value),
		Retryable: false,
		Metadata:  map[string]interface{}{"field": field},
		Timestamp: time.Now().UTC(),
	}
}

// NewWarehouseConnectionFailedError creates a retryable warehouse connection error.
func NewWarehouseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeWarehouseConnectionFailed,
		Message:   "Warehouse connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewWarehouseUpsertFailedError creates a retryable upsert error.
func NewWarehouseUpsertFailedError(table string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeWarehouseUpsertFailed,
		Message:   "Warehouse upsert failed",
		Details:   fmt.Sprintf("table: %s, error: %s", table, err.Error()),
		Retryable: true,
		Metadata:  map[string]interface{}{"table": table},
		Timestamp: time.Now().UTC(),
	}
}

// NewStateLoadFailedError creates a retryable state store read error.
func NewStateLoadFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStateLoadFailed,
		Message:   "Failed to load sync state",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewStateSaveFailedError creates a retryable state store write error.
func NewStateSaveFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStateSaveFailed,
		Message:   "Failed to save sync state",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchIndexFailedError creates a retryable recall index write error.
func NewSearchIndexFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchIndexFailed,
		Message:   "Recall search index write failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Recall notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Metadata:  map[string]interface{}{"channel": channel},
		Timestamp: time.Now().UTC(),
	}
}

// Generic constructors

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "EXTERNAL_SERVICE_ERROR",
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "TIMEOUT_ERROR",
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return &StandardError{
		Code:      "RESOURCE_NOT_FOUND",
		Message:   fmt.Sprintf("Resource not found in %s", service),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
// The codes are intentionally identical on both sides.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidVinFormat:          "INVALID_VIN_FORMAT",
	ErrCodeNoVinsConfigured:          "NO_VINS_CONFIGURED",
	ErrCodeNetworkError:              "NETWORK_ERROR",
	ErrCodeHTTPError:                 "HTTP_ERROR",
	ErrCodeParseError:                "PARSE_ERROR",
	ErrCodeMalformedField:            "MALFORMED_FIELD",
	ErrCodeWarehouseConnectionFailed: "WAREHOUSE_CONNECTION_FAILED",
	ErrCodeWarehouseUpsertFailed:     "WAREHOUSE_UPSERT_FAILED",
	ErrCodeStateLoadFailed:           "STATE_LOAD_FAILED",
	ErrCodeStateSaveFailed:           "STATE_SAVE_FAILED",
	ErrCodeSearchIndexFailed:         "SEARCH_INDEX_FAILED",
	ErrCodeNotificationSendFailed:    "NOTIFICATION_SEND_FAILED",
}

// GetRetryCount returns the recommended retry count for a failed job.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeNetworkError,
		ErrCodeWarehouseConnectionFailed,
		ErrCodeWarehouseUpsertFailed,
		ErrCodeStateLoadFailed,
		ErrCodeStateSaveFailed,
		ErrCodeSearchIndexFailed,
		ErrCodeNotificationSendFailed:
		return 3 // Retryable technical errors

	case ErrCodeHTTPError:
		return 2 // Server-side API errors; 4xx never reach here

	default:
		return 0 // Validation and parse errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code) // Fallback
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "VIN"):
		return "VALIDATION"
	case strings.Contains(codeStr, "NETWORK") || strings.Contains(codeStr, "HTTP") || strings.Contains(codeStr, "PARSE"):
		return "FETCH"
	case strings.Contains(codeStr, "MALFORMED"):
		return "MAPPING"
	case strings.Contains(codeStr, "WAREHOUSE") || strings.Contains(codeStr, "STATE") || strings.Contains(codeStr, "INDEX"):
		return "SINK"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	default:
		return "OTHER"
	}
}
