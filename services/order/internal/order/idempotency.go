package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const idempotencyPending = "pending"

// IdempotencyStore remembers which order an Idempotency-Key produced.
type IdempotencyStore interface {
	// Reserve claims key. When the key is already taken it returns the order id
	// recorded for it, or "" while the first request is still running.
	Reserve(ctx context.Context, key string) (existing string, reserved bool, err error)
	Complete(ctx context.Context, key, orderID string) error
	Release(ctx context.Context, key string) error
}

const (
	defaultIdempotencyTTL        = 24 * time.Hour
	defaultIdempotencyPendingTTL = 2 * time.Minute
)

// RedisIdempotencyStore keeps completed keys for ttl. A reservation that is
// never completed expires after pendingTTL, so a lost Complete blocks
// retries only briefly.
type RedisIdempotencyStore struct {
	client     *redis.Client
	ttl        time.Duration
	pendingTTL time.Duration
}

func NewRedisIdempotencyStore(client *redis.Client, ttl, pendingTTL time.Duration) *RedisIdempotencyStore {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	if pendingTTL <= 0 {
		pendingTTL = defaultIdempotencyPendingTTL
	}
	if pendingTTL > ttl {
		pendingTTL = ttl
	}
	return &RedisIdempotencyStore{client: client, ttl: ttl, pendingTTL: pendingTTL}
}

func (s *RedisIdempotencyStore) Reserve(ctx context.Context, key string) (string, bool, error) {
	redisKey := s.redisKey(key)

	ok, err := s.client.SetNX(ctx, redisKey, idempotencyPending, s.pendingTTL).Result()
	if err != nil {
		return "", false, fmt.Errorf("cannot reserve idempotency key: %w", err)
	}
	if ok {
		return "", true, nil
	}

	val, err := s.client.Get(ctx, redisKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// Expired between SETNX and GET; treat as in flight and let the client retry.
			return "", false, nil
		}
		return "", false, fmt.Errorf("cannot read idempotency key: %w", err)
	}
	if val == idempotencyPending {
		return "", false, nil
	}
	return val, false, nil
}

func (s *RedisIdempotencyStore) Complete(ctx context.Context, key, orderID string) error {
	if err := s.client.Set(ctx, s.redisKey(key), orderID, s.ttl).Err(); err != nil {
		return fmt.Errorf("cannot complete idempotency key: %w", err)
	}
	return nil
}

func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("cannot release idempotency key: %w", err)
	}
	return nil
}

// Stop lets the store be registered as a lifecycle.
func (s *RedisIdempotencyStore) Stop(context.Context) error {
	return s.client.Close()
}

func (s *RedisIdempotencyStore) redisKey(key string) string {
	return "idempotent-key:order:" + key
}
