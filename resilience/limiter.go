package resilience

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Limiter throttles calls with a token bucket.
type Limiter struct {
	l *rate.Limiter
}

// NewLimiter allows r events per second with the given burst. rate.Inf
// disables throttling.
func NewLimiter(r rate.Limit, burst int) *Limiter {
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{l: rate.NewLimiter(r, burst)}
}

// Wait blocks until a token is available or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.l.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrRateLimitExceeded, err)
	}
	return nil
}

// Do waits for a token and runs op.
func (l *Limiter) Do(ctx context.Context, op func(context.Context) error) error {
	if err := l.Wait(ctx); err != nil {
		return err
	}
	return op(ctx)
}

// Limit returns the configured rate.
func (l *Limiter) Limit() rate.Limit {
	return l.l.Limit()
}
