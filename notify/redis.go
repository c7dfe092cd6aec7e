package notify

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// DefaultChannel is used when a redis topic names no channel.
const DefaultChannel = "opswatch:alerts"

// RedisPublisher PUBLISHes each alert as a JSON Message on a channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
	timeout time.Duration
	now     func() time.Time
	owned   bool
}

// NewRedisPublisher wraps an existing client. Close does not close it.
func NewRedisPublisher(client *redis.Client, channel string, cfg Config) *RedisPublisher {
	cfg = cfg.withDefaults()
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{
		client:  client,
		channel: channel,
		timeout: cfg.Timeout,
		now:     cfg.Now,
	}
}

// OpenRedisPublisher connects using a topic of the form
// redis://[:password@]host:port/db#channel.
func OpenRedisPublisher(topic string, cfg Config) (*RedisPublisher, error) {
	u, err := url.Parse(topic)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrUnsupportedTopic, topic, err)
	}
	channel := u.Fragment
	u.Fragment = ""

	opts, err := redis.ParseURL(u.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrUnsupportedTopic, topic, err)
	}

	p := NewRedisPublisher(redis.NewClient(opts), channel, cfg)
	p.owned = true
	return p, nil
}

// Publish sends the alert. Zero subscribers is not an error.
func (p *RedisPublisher) Publish(ctx context.Context, subject, message string) error {
	payload, err := json.Marshal(Message{
		Topic:   p.channel,
		Subject: subject,
		Message: message,
		SentAt:  p.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrNotifyFailed, err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("%w: redis publish %s: %w", ErrNotifyFailed, p.channel, err)
	}
	return nil
}

// Channel returns the channel alerts are published on.
func (p *RedisPublisher) Channel() string {
	return p.channel
}

// Close releases the client if the publisher opened it.
func (p *RedisPublisher) Close() error {
	if !p.owned {
		return nil
	}
	return p.client.Close()
}
