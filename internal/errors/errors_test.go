package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorFormatting(t *testing.T) {
	err := NewValidationError(ErrCodeMissingField, "user_id is required", nil)
	assert.Equal(t, "MISSING_FIELD: user_id is required", err.Error())

	cause := fmt.Errorf("dial tcp: timeout")
	wrapped := NewNetworkError(ErrCodeNetworkTimeout, "provider unreachable", cause)
	assert.Equal(t, "NETWORK_TIMEOUT: provider unreachable (caused by: dial tcp: timeout)", wrapped.Error())
	assert.ErrorIs(t, wrapped, cause)
}

func TestTypeOfThroughWrapping(t *testing.T) {
	base := NewNotFoundError(ErrCodeResumeNotFound, "resume not found", nil).WithContext("resume_id", "r1")
	err := fmt.Errorf("analyze: %w", base)

	assert.Equal(t, ErrorTypeNotFound, TypeOf(err))
	assert.True(t, IsType(err, ErrorTypeNotFound))
	assert.False(t, IsType(nil, ErrorTypeNotFound))
	assert.Equal(t, ErrorTypeInternal, TypeOf(stderrors.New("plain")))

	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "r1", appErr.Context["resume_id"])
}

func TestHTTPStatusAndRetry(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		status    int
		retryable bool
	}{
		{"validation", NewValidationError(ErrCodeInvalidRequest, "bad", nil), http.StatusBadRequest, false},
		{"not found", NewNotFoundError(ErrCodeVersionNotFound, "missing", nil), http.StatusNotFound, false},
		{"provider", NewProviderError(ErrCodeProviderFailed, "failed", nil), http.StatusBadGateway, false},
		{"model unavailable", NewModelUnavailableError(ErrCodeModelNotReady, "loading", nil), http.StatusServiceUnavailable, true},
		{"network", NewNetworkError(ErrCodeNetworkTimeout, "timeout", nil), http.StatusServiceUnavailable, true},
		{"io", NewIOError(ErrCodeFileNotReadable, "io", nil), http.StatusInternalServerError, false},
		{"config", NewConfigError(ErrCodeInvalidConfig, "config", nil), http.StatusInternalServerError, false},
		{"plain", stderrors.New("boom"), http.StatusInternalServerError, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
			assert.Equal(t, tt.retryable, IsRetryable(tt.err))
		})
	}
}

func TestNewLoggerLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		logger, err := New(level)
		require.NoError(t, err, level)
		assert.NotNil(t, logger)
	}

	_, err := New("verbose")
	assert.EqualError(t, err, "invalid log level: verbose")
}

func TestNopLoggerAcceptsAppErrors(t *testing.T) {
	logger := NewNopLogger().With("component", "test")
	logger.LogError(NewInternalError("X", "y", stderrors.New("z")).WithContext("k", 1), "failed")
	logger.LogError(stderrors.New("plain"), "failed", "extra", true)
}
