package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/jonwraymond/opswatch/observe"
	"github.com/jonwraymond/opswatch/resilience"
)

// Webhook POSTs each alert as a JSON Message. Every call runs under a
// resilience.Guard with an optional rate limit, a circuit breaker, retry with
// backoff and a per-attempt timeout. 4xx responses are not retried.
//
// The Message topic carries only the scheme and host of the URL; paths and
// queries of chat webhooks usually embed credentials.
type Webhook struct {
	url    string
	topic  string
	client *http.Client
	guard  *resilience.Guard
	logger observe.Logger
	now    func() time.Time
}

// NewWebhook creates a webhook notifier for rawURL.
func NewWebhook(rawURL string, cfg Config) *Webhook {
	cfg = cfg.withDefaults()

	w := &Webhook{
		url:    rawURL,
		topic:  redactURL(rawURL),
		client: cfg.HTTPClient,
		logger: cfg.Logger,
		now:    cfg.Now,
	}
	var opts []resilience.GuardOption
	if cfg.RateLimit > 0 && cfg.RateLimit != rate.Inf {
		opts = append(opts, resilience.WithLimiter(resilience.NewLimiter(cfg.RateLimit, cfg.Burst)))
	}
	opts = append(opts,
		resilience.WithBreaker(resilience.NewBreaker(resilience.BreakerConfig{
			Name:   "notify.webhook",
			Logger: cfg.Logger,
		})),
		resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{
			MaxAttempts:  cfg.MaxAttempts,
			InitialDelay: 200 * time.Millisecond,
			Jitter:       true,
			OnRetry: func(attempt int, err error, delay time.Duration) {
				w.logger.Debug(context.Background(), "retrying webhook",
					observe.Field{Key: "attempt", Value: attempt},
					observe.Field{Key: "delay", Value: delay.String()},
					observe.Err(err),
				)
			},
		})),
		resilience.WithTimeout(cfg.Timeout),
	)
	w.guard = resilience.NewGuard(opts...)
	return w
}

// Publish delivers the alert.
func (w *Webhook) Publish(ctx context.Context, subject, message string) error {
	body, err := json.Marshal(Message{
		Topic:   w.topic,
		Subject: subject,
		Message: message,
		SentAt:  w.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrNotifyFailed, err)
	}

	err = w.guard.Do(ctx, func(ctx context.Context) error {
		return w.post(ctx, body)
	})
	if err != nil {
		return fmt.Errorf("%w: webhook: %w", ErrNotifyFailed, err)
	}
	return nil
}

func (w *Webhook) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return resilience.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests:
		return resilience.Permanent(fmt.Errorf("unexpected status %d", resp.StatusCode))
	default:
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
}

// redactURL keeps the scheme and host of raw.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "webhook"
	}
	return u.Scheme + "://" + u.Host
}
