package apilocale

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// RetryConfig holds configuration for retry behavior.
type RetryConfig struct {
	MaxRetries int           // Maximum number of retry attempts after the first call
	BaseDelay  time.Duration // Initial delay between retries
	MaxDelay   time.Duration // Maximum delay between retries
	Jitter     float64       // Fraction of the delay randomised, 0 disables
}

// DefaultRetryConfig returns the defaults used by the gateway.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 2,
		BaseDelay:  200 * time.Millisecond,
		MaxDelay:   5 * time.Second,
		Jitter:     0.2,
	}
}

// RetryFunc is a function that can be retried.
type RetryFunc[T any] func() (T, error)

// WithRetry executes fn with exponential backoff while it returns retryable errors.
func WithRetry[T any](ctx context.Context, cfg RetryConfig, fn RetryFunc[T]) (T, error) {
	var lastErr error
	var zero T

	for attempt := range max(cfg.MaxRetries, 0) + 1 {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return zero, err
		}

		if attempt < cfg.MaxRetries {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(backoff(cfg, attempt)):
			}
		}
	}

	return zero, lastErr
}

func backoff(cfg RetryConfig, attempt int) time.Duration {
	delay := cfg.BaseDelay * time.Duration(1<<attempt)
	if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}
	if cfg.Jitter > 0 && delay > 0 {
		spread := float64(delay) * cfg.Jitter
		delay += time.Duration((rand.Float64()*2 - 1) * spread)
	}
	return max(delay, 0)
}

// IsRetryable reports whether err is an EndpointError flagged as retryable.
// Context errors are never retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var endpointErr *EndpointError
	if errors.As(err, &endpointErr) {
		return endpointErr.Retryable
	}
	return false
}

// RetryableEndpoint wraps an Endpoint with retry logic.
type RetryableEndpoint struct {
	endpoint Endpoint
	config   RetryConfig
}

// NewRetryableEndpoint creates a new endpoint with retry logic.
func NewRetryableEndpoint(endpoint Endpoint, cfg RetryConfig) *RetryableEndpoint {
	return &RetryableEndpoint{
		endpoint: endpoint,
		config:   cfg,
	}
}

// Translate implements Endpoint with retry logic.
func (e *RetryableEndpoint) Translate(ctx context.Context, req TranslateRequest) (string, error) {
	return WithRetry(ctx, e.config, func() (string, error) {
		return e.endpoint.Translate(ctx, req)
	})
}

var _ Endpoint = (*RetryableEndpoint)(nil)
