package processor

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

const defaultRequestsPerMinute = 30

// RateLimiter throttles generation model calls. The upstream quota is
// expressed per minute, so the limiter is too.
type RateLimiter struct {
	limiter *rate.Limiter
	logger  Logger
}

// NewRateLimiter creates a rate limiter allowing requestsPerMinute
// model calls with a burst of one minute's worth.
func NewRateLimiter(requestsPerMinute int, logger Logger) *RateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = defaultRequestsPerMinute
	}

	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), requestsPerMinute),
		logger:  logger,
	}
}

// Wait blocks until the rate limit allows another call or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if err := r.limiter.Wait(ctx); err != nil {
		if r.logger != nil {
			r.logger.Warn("rate limiter wait failed", "error", err)
		}
		return err
	}
	return nil
}

// Allow reports whether a call may proceed without waiting.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// SetLimit updates the per-minute rate.
func (r *RateLimiter) SetLimit(requestsPerMinute int) {
	if requestsPerMinute <= 0 {
		return
	}
	r.limiter.SetLimit(rate.Every(time.Minute / time.Duration(requestsPerMinute)))
	r.limiter.SetBurst(requestsPerMinute)
	if r.logger != nil {
		r.logger.Info("rate limit updated", "requests_per_minute", requestsPerMinute)
	}
}
