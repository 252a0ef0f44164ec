package ratelimit

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Limiter paces outbound calls to a provider API.
// A nil *Limiter never blocks.
type Limiter struct {
	limiter *rate.Limiter
	name    string
}

// NewLimiter creates a limiter allowing requestsPerMinute calls with a burst of
// 10% of the per-minute budget. It returns nil when requestsPerMinute <= 0.
func NewLimiter(name string, requestsPerMinute int) *Limiter {
	if requestsPerMinute <= 0 {
		return nil
	}

	rps := float64(requestsPerMinute) / 60.0

	burst := requestsPerMinute / 10
	if burst < 1 {
		burst = 1
	}

	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		name:    name,
	}
}

// Wait blocks until the limiter allows a call or ctx ends. When the wait
// would outlast ctx's deadline the error matches context.DeadlineExceeded,
// even though the deadline has not passed yet.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	if err := l.limiter.Wait(ctx); err != nil {
		if _, ok := ctx.Deadline(); ok && ctx.Err() == nil {
			return fmt.Errorf("rate limiter %s: %w: %v", l.name, context.DeadlineExceeded, err)
		}
		return fmt.Errorf("rate limiter %s: %w", l.name, err)
	}
	return nil
}

// Allow reports whether a call may proceed now without blocking
func (l *Limiter) Allow() bool {
	if l == nil {
		return true
	}
	return l.limiter.Allow()
}

// Name returns the limiter name
func (l *Limiter) Name() string {
	if l == nil {
		return ""
	}
	return l.name
}
