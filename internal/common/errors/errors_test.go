package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("list candidates: %w", NewQueryTimeoutError("list_candidates"))

	assert.Equal(t, ErrCodeQueryTimeout, CodeOf(wrapped))
	assert.Equal(t, ErrCodeUnknown, CodeOf(stderrors.New("plain")))
	assert.True(t, IsNotFound(NewResourceNotFoundError("animals", "id: 9")))
	assert.False(t, IsNotFound(wrapped))
}

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name        string
		err         *StandardError
		wantCode    string
		wantRetries int
	}{
		{"invalid page", NewInvalidPageError(-1, 10), "INVALID_PAGE", 0},
		{"query failed", NewQueryExecutionFailedError("get_senior", stderrors.New("eof")), "QUERY_EXECUTION_FAILED", 3},
		{"catalog unavailable", NewCatalogUnavailableError("elasticsearch", stderrors.New("open")), "CATALOG_UNAVAILABLE", 2},
		{"duplicate", NewDuplicateApplicationError("s1", "a1"), "DUPLICATE_APPLICATION", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := ConvertToBPMNError(tt.err)
			assert.Equal(t, tt.wantCode, b.Code)
			assert.Equal(t, tt.wantRetries, b.Retries)
			assert.Equal(t, string(tt.err.Code), b.ErrorVariables["originalErrorCode"])

			vars := b.ToErrorVariables()
			assert.Equal(t, tt.wantCode, vars["errorCode"])
			assert.Equal(t, tt.err.Retryable, vars["retryable"])
		})
	}
}

func TestToBPMN_UnknownError(t *testing.T) {
	b := ToBPMN(stderrors.New("boom"))
	assert.Equal(t, "UNKNOWN_ERROR", b.Code)
	assert.Equal(t, 0, b.Retries)
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeQueryTimeout))
	assert.Equal(t, "CATALOG", GetErrorCategory(ErrCodeCatalogUnavailable))
	assert.Equal(t, "NOTIFICATION", GetErrorCategory(ErrCodeTemplateNotFound))
	assert.Equal(t, "APPLICATION", GetErrorCategory(ErrCodeApplicationIneligible))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidMode))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeUnknown))
}

func TestApplicationIneligibleDetails(t *testing.T) {
	err := NewApplicationIneligibleError([]string{"terms not agreed", "district mismatch"})
	assert.Equal(t, "terms not agreed, district mismatch", err.Details)
	assert.False(t, IsRetryableErrorCode(err.Code))
	assert.Contains(t, err.Error(), "APPLICATION_INELIGIBLE")
}
