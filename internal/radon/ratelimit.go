package radon

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter throttles outgoing requests to the open-data API.
//
// RAD-on publishes no quota headers, so only the proactive token bucket is used.
type RateLimiter struct {
	bucket *rate.Limiter
}

// NewRateLimiter creates a limiter allowing rps requests per second with a burst of one.
func NewRateLimiter(rps int) *RateLimiter {
	if rps <= 0 {
		rps = defaultRequestsPerSecond
	}

	return &RateLimiter{
		bucket: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Wait blocks until a request may be sent or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.bucket.Wait(ctx)
}
