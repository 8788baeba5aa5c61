package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache implements [Cache] on go-redis.
type RedisCache struct {
	redis redis.UniversalClient
}

var _ Cache = (*RedisCache)(nil)

// NewRedisCache wraps client. The client is owned by the caller.
func NewRedisCache(client redis.UniversalClient) *RedisCache {
	return &RedisCache{redis: client}
}

func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.redis.Set(ctx, key, value, ttl).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := c.redis.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, unavailable(err)
	}
	return v, true, nil
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

func (c *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.redis.Exists(ctx, key).Result()
	if err != nil {
		return false, unavailable(err)
	}
	return n > 0, nil
}

func (c *RedisCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := c.redis.Expire(ctx, key, ttl).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

func (c *RedisCache) Increment(ctx context.Context, key string) (int64, error) {
	n, err := c.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, unavailable(err)
	}
	return n, nil
}

// Apply runs the mutation inside MULTI/EXEC.
func (c *RedisCache) Apply(ctx context.Context, m Mutation) error {
	if m.empty() {
		return nil
	}
	if _, err := c.redis.TxPipelined(ctx, m.queue(ctx)); err != nil {
		return unavailable(err)
	}
	return nil
}

// maxUpdateRetries bounds optimistic retries. Every failed EXEC means some
// other writer committed, so n concurrent writers need at most n-1 retries.
const maxUpdateRetries = 32

// Update runs fn under WATCH key. fn's own error is returned unwrapped.
func (c *RedisCache) Update(ctx context.Context, key string, fn UpdateFunc) error {
	for i := 0; i < maxUpdateRetries; i++ {
		var fnErr error
		err := c.redis.Watch(ctx, func(tx *redis.Tx) error {
			current, err := tx.Get(ctx, key).Result()
			ok := true
			if errors.Is(err, redis.Nil) {
				ok = false
			} else if err != nil {
				return err
			}

			m, err := fn(current, ok)
			if err != nil {
				fnErr = err
				return nil
			}
			if m.empty() {
				return nil
			}
			_, err = tx.TxPipelined(ctx, m.queue(ctx))
			return err
		}, key)

		switch {
		case errors.Is(err, redis.TxFailedErr):
			continue
		case err != nil:
			return unavailable(err)
		default:
			return fnErr
		}
	}
	return fmt.Errorf("%w: %w", ErrCacheUnavailable, ErrContention)
}

func (m Mutation) queue(ctx context.Context) func(redis.Pipeliner) error {
	return func(pipe redis.Pipeliner) error {
		for k, v := range m.Set {
			pipe.Set(ctx, k, v, m.TTL)
		}
		if len(m.Delete) > 0 {
			pipe.Del(ctx, m.Delete...)
		}
		return nil
	}
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
}
