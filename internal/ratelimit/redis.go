package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKeyPrefix namespaces contact rate limit keys in Redis.
const DefaultRedisKeyPrefix = "portfolio:ratelimit:contact:"

// NewRedisClient parses redisURL, connects and verifies the connection.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

// RedisStore keeps fixed windows in Redis so every instance shares one counter
// per identifier. Keys carry a TTL equal to the remaining window, which takes the
// place of the periodic sweep.
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisStore creates a Redis-backed store. An empty prefix selects DefaultRedisKeyPrefix.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

var _ Store = (*RedisStore)(nil)

func (s *RedisStore) key(identifier string) string {
	return s.prefix + identifier
}

// Increment implements Store. SET NX PX opens the window only when the key is
// absent (Redis already dropped expired keys), then INCR and PTTL run in the
// same MULTI so the returned count and reset time are consistent.
func (s *RedisStore) Increment(ctx context.Context, key string, window time.Duration, now time.Time) (Entry, error) {
	k := s.key(key)

	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, k, 0, window)
		incr = pipe.Incr(ctx, k)
		ttl = pipe.PTTL(ctx, k)
		return nil
	})
	if err != nil {
		return Entry{}, fmt.Errorf("redis increment %q: %w", key, err)
	}

	remaining := ttl.Val()
	if remaining <= 0 {
		// Key lost its TTL (e.g. written by something else); restore the window.
		if err := s.client.PExpire(ctx, k, window).Err(); err != nil {
			return Entry{}, fmt.Errorf("redis expire %q: %w", key, err)
		}
		remaining = window
	}

	return Entry{Count: int(incr.Val()), ResetTime: now.Add(remaining)}, nil
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	k := s.key(key)

	var get *redis.StringCmd
	var ttl *redis.DurationCmd
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		get = pipe.Get(ctx, k)
		ttl = pipe.PTTL(ctx, k)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return Entry{}, false, fmt.Errorf("redis get %q: %w", key, err)
	}
	if errors.Is(get.Err(), redis.Nil) {
		return Entry{}, false, nil
	}

	count, err := strconv.Atoi(get.Val())
	if err != nil {
		return Entry{}, false, fmt.Errorf("redis get %q: invalid count %q: %w", key, get.Val(), err)
	}

	entry := Entry{Count: count, ResetTime: s.now()}
	if d := ttl.Val(); d > 0 {
		entry.ResetTime = entry.ResetTime.Add(d)
	}
	return entry, true, nil
}

// Set implements Store. Entries whose window already closed are deleted instead.
func (s *RedisStore) Set(ctx context.Context, key string, entry Entry) error {
	ttl := entry.ResetTime.Sub(s.now())
	if ttl <= 0 {
		return s.Delete(ctx, key)
	}
	if err := s.client.Set(ctx, s.key(key), entry.Count, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis delete %q: %w", key, err)
	}
	return nil
}

// Sweep implements Store. Redis expires keys itself, so there is nothing to do.
func (s *RedisStore) Sweep(context.Context, time.Time) (int, error) {
	return 0, nil
}

// Ping checks if Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
