// Package retry provides exponential backoff retry helpers.
package retry

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/wallet-scanner/internal/logging"
)

// RetryConfig configures retry behavior
type RetryConfig struct {
	MaxAttempts  int           // Maximum number of attempts including the first
	InitialDelay time.Duration // Initial delay before first retry
	MaxDelay     time.Duration // Maximum delay between retries
	Multiplier   float64       // Multiplier for exponential backoff
}

// DefaultRetryConfig returns a default retry configuration
// Pattern: 1s, 2s, 4s, 8s, 16s, max 60s
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:  5,
		InitialDelay: 1 * time.Second,
		MaxDelay:     60 * time.Second,
		Multiplier:   2.0,
	}
}

// PageRetryConfig returns the retry configuration used for individual
// upstream page fetches: one retry, short delay.
func PageRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:  2,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   2.0,
	}
}

// RetryResult contains information about the retry operation
type RetryResult struct {
	Attempts      int           `json:"attempts"`
	Success       bool          `json:"success"`
	TotalDuration time.Duration `json:"totalDuration"`
	LastError     error         `json:"lastError,omitempty"`
}

// RetryFunc is a function that can be retried
type RetryFunc func(ctx context.Context, attempt int) error

// WithExponentialBackoff executes a function with exponential backoff retry logic
func WithExponentialBackoff(ctx context.Context, config *RetryConfig, fn RetryFunc) *RetryResult {
	logger := logging.FromContext(ctx)
	startTime := time.Now()

	result := &RetryResult{
		Attempts: 0,
		Success:  false,
	}

	var lastErr error

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		result.Attempts = attempt

		err := fn(ctx, attempt)
		if err == nil {
			result.Success = true
			result.TotalDuration = time.Since(startTime)

			if attempt > 1 {
				logger.WithFields(map[string]interface{}{
					"attempts":      attempt,
					"totalDuration": result.TotalDuration,
				}).Info("Operation succeeded after retry")
			}

			return result
		}

		lastErr = err
		result.LastError = err

		if attempt >= config.MaxAttempts {
			logger.WithFields(map[string]interface{}{
				"attempts":      attempt,
				"totalDuration": time.Since(startTime),
				"error":         err.Error(),
			}).Error("Operation failed after max retry attempts")
			break
		}

		if ctx.Err() != nil {
			logger.WithError(ctx.Err()).Warn("Retry cancelled due to context cancellation")
			result.LastError = ctx.Err()
			break
		}

		delay := calculateDelay(config, attempt)

		logger.WithFields(map[string]interface{}{
			"attempt":     attempt,
			"maxAttempts": config.MaxAttempts,
			"delay":       delay,
			"error":       err.Error(),
		}).Warn("Operation failed, retrying with exponential backoff")

		select {
		case <-time.After(delay):
			// Continue to next attempt
		case <-ctx.Done():
			logger.WithError(ctx.Err()).Warn("Retry cancelled during backoff")
			result.LastError = ctx.Err()
			result.TotalDuration = time.Since(startTime)
			return result
		}
	}

	result.TotalDuration = time.Since(startTime)
	result.LastError = lastErr
	return result
}

// calculateDelay calculates the delay for the next retry attempt
func calculateDelay(config *RetryConfig, attempt int) time.Duration {
	// Exponential delay: initialDelay * multiplier^(attempt-1)
	delay := float64(config.InitialDelay) * math.Pow(config.Multiplier, float64(attempt-1))

	if delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}

	return time.Duration(delay)
}

// WithRetry is a simpler retry function that uses default configuration
func WithRetry(ctx context.Context, fn RetryFunc) error {
	config := DefaultRetryConfig()
	result := WithExponentialBackoff(ctx, config, fn)

	if !result.Success {
		return fmt.Errorf("operation failed after %d attempts: %w", result.Attempts, result.LastError)
	}

	return nil
}
