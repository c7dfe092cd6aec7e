package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each record as a JSON string under <table>:record:<id>.
// Scan maps onto Redis SCAN with the cursor as page token; SCAN may return a
// key more than once, so consumers must tolerate repeats.
type RedisStore struct {
	client    *redis.Client
	table     string
	scanCount int64
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, table string, opts ...Option) *RedisStore {
	return &RedisStore{
		client:    client,
		table:     table,
		scanCount: applyOptions(opts).scanCount,
	}
}

// OpenRedis connects to the Redis server at url (redis://[:password@]host:port/db).
func OpenRedis(url, table string, opts ...Option) (*RedisStore, error) {
	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedisStore(redis.NewClient(redisOpts), table, opts...), nil
}

func (s *RedisStore) recordKey(id string) string {
	return s.table + ":record:" + id
}

func (s *RedisStore) recordPattern() string {
	return s.table + ":record:*"
}

// StatusKey is the key an operator may set to override the reported table
// state, e.g. "SCALING" during maintenance. Absent means ACTIVE.
func (s *RedisStore) StatusKey() string {
	return s.table + ":status"
}

// Get returns the record with the given id.
func (s *RedisStore) Get(ctx context.Context, id string) (Record, error) {
	data, err := s.client.Get(ctx, s.recordKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("redis get %s: %w", id, err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("decode record %s: %w", id, err)
	}
	return rec, nil
}

// Put writes rec, replacing any record with the same id.
func (s *RedisStore) Put(ctx context.Context, rec Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record %s: %w", rec.ID, err)
	}

	if err := s.client.Set(ctx, s.recordKey(rec.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", rec.ID, err)
	}
	return nil
}

// Scan runs one SCAN step from the cursor in pageToken.
func (s *RedisStore) Scan(ctx context.Context, pageToken string) (Page, error) {
	var cursor uint64
	if pageToken != "" {
		c, err := strconv.ParseUint(pageToken, 10, 64)
		if err != nil {
			return Page{}, fmt.Errorf("%w: %q", ErrInvalidPageToken, pageToken)
		}
		cursor = c
	}

	keys, next, err := s.client.Scan(ctx, cursor, s.recordPattern(), s.scanCount).Result()
	if err != nil {
		return Page{}, fmt.Errorf("redis scan: %w", err)
	}

	page := Page{Records: make([]Record, 0, len(keys))}
	if next != 0 {
		page.NextToken = strconv.FormatUint(next, 10)
	}
	if len(keys) == 0 {
		return page, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return Page{}, fmt.Errorf("redis mget: %w", err)
	}

	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// deleted between SCAN and MGET
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return Page{}, fmt.Errorf("decode %s: %w", keys[i], err)
		}
		page.Records = append(page.Records, rec)
	}
	return page, nil
}

// DescribeStatus pings the server and reports the operator status key, or
// ACTIVE when it is unset.
func (s *RedisStore) DescribeStatus(ctx context.Context) (Status, error) {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return "", fmt.Errorf("redis ping: %w", err)
	}

	status, err := s.client.Get(ctx, s.StatusKey()).Result()
	if errors.Is(err, redis.Nil) {
		return StatusActive, nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get status: %w", err)
	}
	return Status(status), nil
}

// Client exposes the underlying client, e.g. for a shared publisher.
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
