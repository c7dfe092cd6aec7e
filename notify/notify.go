package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jonwraymond/opswatch/observe"
)

// Notifier publishes an alert with a subject and a body.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: failures wrap ErrNotifyFailed.
type Notifier interface {
	Publish(ctx context.Context, subject, message string) error
}

// Message is the JSON payload sent by Webhook and RedisPublisher.
type Message struct {
	Topic   string    `json:"topic"`
	Subject string    `json:"subject"`
	Message string    `json:"message"`
	SentAt  time.Time `json:"sent_at"`
}

// Config selects and tunes a notifier.
type Config struct {
	// Topic picks the channel; see the package documentation.
	Topic string

	// Timeout bounds each delivery attempt.
	// Default: 5 seconds
	Timeout time.Duration

	// MaxAttempts is the number of webhook delivery attempts.
	// Default: 3
	MaxAttempts int

	// RateLimit caps webhook deliveries per second; Burst sizes the bucket.
	// Default: 0 (unlimited), burst 1
	RateLimit rate.Limit
	Burst     int

	// HTTPClient is used by Webhook.
	// Default: a client without its own timeout
	HTTPClient *http.Client

	Logger observe.Logger

	// Now stamps outgoing messages.
	// Default: time.Now
	Now func() time.Time
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{}
	}
	if c.Logger == nil {
		c.Logger = observe.NopLogger()
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// New returns the notifier for cfg.Topic. An empty topic returns a nil
// Notifier and no error.
func New(cfg Config) (Notifier, error) {
	cfg = cfg.withDefaults()

	topic := strings.TrimSpace(cfg.Topic)
	if topic == "" {
		return nil, nil
	}

	if strings.HasPrefix(topic, "log:") {
		return NewLogNotifier(cfg.Logger), nil
	}

	u, err := url.Parse(topic)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrUnsupportedTopic, topic, err)
	}

	switch u.Scheme {
	case "http", "https":
		return NewWebhook(topic, cfg), nil
	case "redis", "rediss":
		p, err := OpenRedisPublisher(topic, cfg)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedTopic, topic)
	}
}
