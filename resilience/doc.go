// Package resilience guards outbound calls made by opswatch transports.
//
// The patterns compose into a Guard, which wraps one call as
//
//	limiter → breaker → retry → timeout → call
//
// Each layer is optional. The breaker is sony/gobreaker; the limiter is
// golang.org/x/time/rate.
//
// # Usage
//
//	g := resilience.NewGuard(
//	    resilience.WithBreaker(resilience.NewBreaker(resilience.BreakerConfig{Name: "webhook"})),
//	    resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{MaxAttempts: 3})),
//	    resilience.WithTimeout(5*time.Second),
//	)
//
//	err := g.Do(ctx, func(ctx context.Context) error {
//	    return post(ctx, body)
//	})
//
// Return Permanent(err) from the call to stop retrying an error that will not
// succeed on a second attempt.
package resilience
