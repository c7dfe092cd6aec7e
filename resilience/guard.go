package resilience

import (
	"context"
	"time"
)

// Guard composes the resilience layers around a single call.
type Guard struct {
	limiter *Limiter
	breaker *Breaker
	retry   *Retry
	timeout *Timeout
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// NewGuard creates a Guard. With no options Do simply calls op.
func NewGuard(opts ...GuardOption) *Guard {
	g := &Guard{}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// WithLimiter throttles calls before any other layer.
func WithLimiter(l *Limiter) GuardOption {
	return func(g *Guard) { g.limiter = l }
}

// WithBreaker adds a circuit breaker. The breaker sees one outcome per Do,
// after retries.
func WithBreaker(b *Breaker) GuardOption {
	return func(g *Guard) { g.breaker = b }
}

// WithRetry adds retry with backoff.
func WithRetry(r *Retry) GuardOption {
	return func(g *Guard) { g.retry = r }
}

// WithTimeout bounds every individual attempt.
func WithTimeout(d time.Duration) GuardOption {
	return func(g *Guard) { g.timeout = NewTimeout(d) }
}

// Do runs op as limiter → breaker → retry → timeout → op.
func (g *Guard) Do(ctx context.Context, op func(context.Context) error) error {
	call := op

	if g.timeout != nil {
		inner := call
		call = func(ctx context.Context) error {
			return g.timeout.Do(ctx, inner)
		}
	}

	if g.retry != nil {
		inner := call
		call = func(ctx context.Context) error {
			return g.retry.Do(ctx, inner)
		}
	}

	if g.breaker != nil {
		inner := call
		call = func(ctx context.Context) error {
			return g.breaker.Do(ctx, inner)
		}
	}

	if g.limiter != nil {
		inner := call
		call = func(ctx context.Context) error {
			return g.limiter.Do(ctx, inner)
		}
	}

	return call(ctx)
}
