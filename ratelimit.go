package apilocale

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimitConfig configures the endpoint rate limiter.
type RateLimitConfig struct {
	RequestsPerMinute int // Maximum sustained requests per minute
	BurstSize         int // Maximum burst size (default: RequestsPerMinute)
}

// NewRateLimiter builds a token bucket limiter from cfg.
func NewRateLimiter(cfg RateLimitConfig) *rate.Limiter {
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}
	burst := cfg.BurstSize
	if burst <= 0 {
		burst = rpm
	}
	return rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst)
}

// RateLimitedEndpoint wraps an Endpoint with a token bucket.
type RateLimitedEndpoint struct {
	endpoint Endpoint
	limiter  *rate.Limiter
}

// NewRateLimitedEndpoint creates a new rate-limited endpoint.
func NewRateLimitedEndpoint(endpoint Endpoint, cfg RateLimitConfig) *RateLimitedEndpoint {
	return &RateLimitedEndpoint{
		endpoint: endpoint,
		limiter:  NewRateLimiter(cfg),
	}
}

// Translate waits for a token and then delegates.
func (e *RateLimitedEndpoint) Translate(ctx context.Context, req TranslateRequest) (string, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return "", &EndpointError{
			Message:   "rate limit wait cancelled",
			Cause:     err,
			Retryable: false,
		}
	}

	return e.endpoint.Translate(ctx, req)
}

// Limiter returns the underlying limiter for inspection.
func (e *RateLimitedEndpoint) Limiter() *rate.Limiter {
	return e.limiter
}

var _ Endpoint = (*RateLimitedEndpoint)(nil)
