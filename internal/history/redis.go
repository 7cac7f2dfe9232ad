package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"
)

// RedisStore keeps history in a capped Redis list, so several shellmind
// processes can share one history
type RedisStore struct {
	client     *backend.Client
	key        string
	maxEntries int
	ttl        time.Duration
}

// RedisOption configures a RedisStore
type RedisOption func(*RedisStore)

// WithKey overrides the list key
func WithKey(key string) RedisOption {
	return func(s *RedisStore) {
		s.key = key
	}
}

// WithMaxEntries caps the list length. 0 keeps everything.
func WithMaxEntries(n int) RedisOption {
	return func(s *RedisStore) {
		s.maxEntries = n
	}
}

// WithTTL expires the whole list after a period without appends
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// NewRedisStore connects to the server at address
func NewRedisStore(address, password string, db int, opts ...RedisOption) *RedisStore {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewRedisStoreFromClient(rdb, opts...)
}

// NewRedisStoreFromClient wraps an existing client
func NewRedisStoreFromClient(client *backend.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client: client,
		key:    "shellmind:history",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping checks connectivity
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Append(ctx context.Context, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal history entry: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, s.key, data)
	if s.maxEntries > 0 {
		pipe.LTrim(ctx, s.key, int64(-s.maxEntries), -1)
	}
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append history entry: %w", err)
	}
	return nil
}

func (s *RedisStore) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		return []Entry{}, nil
	}
	raw, err := s.client.LRange(ctx, s.key, int64(-n), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	entries := make([]Entry, 0, len(raw))
	for _, item := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, fmt.Errorf("failed to decode history entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
