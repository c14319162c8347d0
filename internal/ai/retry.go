package ai

import (
	"context"
	"crypto/rand"
	stderrors "errors"
	"fmt"
	"math"
	"math/big"
	"net"
	"net/http"
	"time"

	"skillsnap/internal/errors"

	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// retryDelay returns the backoff before the given retry attempt (1-based).
var retryDelay = func(attempt int) time.Duration {
	// Exponential backoff with jitter to prevent thundering herd
	baseDelay := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
	jitterMax := big.NewInt(int64(float64(baseDelay) * 0.1))
	jitterBig, _ := rand.Int(rand.Reader, jitterMax)
	jitter := time.Duration(jitterBig.Int64())
	// Cap maximum backoff at 30 seconds
	return min(baseDelay+jitter, 30*time.Second)
}

// withRetry executes fn with retry logic and exponential backoff
func withRetry[T any](ctx context.Context, logger *errors.Logger, operation string, maxRetries int, fn func() (T, error)) (T, error) {
	var (
		zero    T
		lastErr error
	)

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			logger.Warn("Retrying AI operation",
				"operation", operation,
				"attempt", attempt,
				"max_retries", maxRetries,
				"error", lastErr.Error())

			select {
			case <-time.After(retryDelay(attempt)):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}

		result, err := fn()
		if err == nil {
			if attempt > 0 {
				logger.Info("AI operation succeeded after retry",
					"operation", operation,
					"total_attempts", attempt+1)
			}
			return result, nil
		}

		lastErr = err

		// Don't retry on certain errors (auth, invalid input, etc.)
		if ctx.Err() != nil || !isRetryableError(err) {
			logger.Debug("Error is not retryable, stopping retry attempts",
				"operation", operation,
				"error", err.Error())
			return zero, err
		}
	}

	logger.LogError(lastErr, "AI operation failed after all retry attempts",
		"operation", operation,
		"total_attempts", maxRetries+1)

	return zero, fmt.Errorf("operation '%s' failed after %d retries: %w", operation, maxRetries, lastErr)
}

// isRetryableError determines if an error should trigger a retry
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// the caller's deadline also satisfies net.Error, so it is checked first
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// Network errors (timeouts, connection refused) are retryable
	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return true
	}

	var apiErr *googleapi.Error
	if stderrors.As(err, &apiErr) {
		return retryableStatus(apiErr.Code)
	}

	var genaiErr genai.APIError
	if stderrors.As(err, &genaiErr) {
		return retryableStatus(genaiErr.Code)
	}
	var genaiErrPtr *genai.APIError
	if stderrors.As(err, &genaiErrPtr) {
		return retryableStatus(genaiErrPtr.Code)
	}

	return false
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
