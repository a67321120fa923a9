package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPError_RetryableByStatus(t *testing.T) {
	serverErr := NewHTTPError("/decodevin/X", 503, "unavailable")
	assert.True(t, serverErr.Retryable)
	assert.Equal(t, 503, serverErr.Metadata["status"])

	clientErr := NewHTTPError("/decodevin/X", 404, "not found")
	assert.False(t, clientErr.Retryable)
}

func TestNewInvalidVinFormatError(t *testing.T) {
	err := NewInvalidVinFormatError("SHORT", "VIN must be 17 characters long")
	assert.Equal(t, ErrCodeInvalidVinFormat, err.Code)
	assert.False(t, err.Retryable)
	assert.Equal(t, "SHORT", err.Metadata["vin"])
	assert.Contains(t, err.Error(), "INVALID_VIN_FORMAT")
}

func TestGetRetryCount(t *testing.T) {
	tests := []struct {
		code    ErrorCode
		retries int
	}{
		{ErrCodeNetworkError, 3},
		{ErrCodeWarehouseUpsertFailed, 3},
		{ErrCodeHTTPError, 2},
		{ErrCodeInvalidVinFormat, 0},
		{ErrCodeParseError, 0},
		{ErrCodeMalformedField, 0},
		{ErrCodeNoVinsConfigured, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.retries, GetRetryCount(tt.code))
			assert.Equal(t, tt.retries > 0, IsRetryableErrorCode(tt.code))
		})
	}
}

func TestConvertToBPMNError(t *testing.T) {
	stdErr := NewNetworkError("/recalls/vin/X", fmt.Errorf("connection refused"))
	bpmnErr := ConvertToBPMNError(stdErr)

	require.NotNil(t, bpmnErr)
	assert.Equal(t, "NETWORK_ERROR", bpmnErr.Code)
	assert.Equal(t, 3, bpmnErr.Retries)
	assert.True(t, bpmnErr.Retryable)

	vars := bpmnErr.ToErrorVariables()
	assert.Equal(t, "NETWORK_ERROR", vars["errorCode"])
	assert.Equal(t, "NETWORK_ERROR", vars["originalErrorCode"])
}

func TestConvertToBPMNError_NonRetryableZeroesRetries(t *testing.T) {
	bpmnErr := ConvertToBPMNError(NewMalformedFieldError("model_year", "twenty13"))
	assert.Equal(t, 0, bpmnErr.Retries)
	assert.False(t, bpmnErr.Retryable)
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidVinFormat))
	assert.Equal(t, "FETCH", GetErrorCategory(ErrCodeHTTPError))
	assert.Equal(t, "MAPPING", GetErrorCategory(ErrCodeMalformedField))
	assert.Equal(t, "SINK", GetErrorCategory(ErrCodeWarehouseUpsertFailed))
	assert.Equal(t, "NOTIFICATION", GetErrorCategory(ErrCodeNotificationSendFailed))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrCodeParseError, CodeOf(NewParseError("/decodevin/X", fmt.Errorf("bad json"))))
	assert.Equal(t, ErrorCode("INTERNAL_ERROR"), CodeOf(fmt.Errorf("plain error")))
}
