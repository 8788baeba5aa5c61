package session

import (
	"context"
	"errors"
	"time"
)

// ErrCacheUnavailable wraps every backend failure.
var ErrCacheUnavailable = errors.New("session cache unavailable")

// Mutation is a set of writes and deletes applied as one unit.
type Mutation struct {
	Set    map[string]string
	TTL    time.Duration
	Delete []string
}

// UpdateFunc derives a Mutation from the current value of a watched key.
// Returning an error aborts the update and nothing is written.
type UpdateFunc func(current string, ok bool) (Mutation, error)

// ErrContention is returned when Update keeps losing to concurrent writers.
var ErrContention = errors.New("session cache: too much contention")

// Cache is the key-value contract the Session Cache needs. Get reports a
// missing key as ("", false, nil).
type Cache interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, bool, error)
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Increment(ctx context.Context, key string) (int64, error)
	Apply(ctx context.Context, m Mutation) error
	// Update reads key and applies fn's Mutation only if key did not change
	// in between, retrying a bounded number of times.
	Update(ctx context.Context, key string, fn UpdateFunc) error
}

func (m Mutation) empty() bool {
	return len(m.Set) == 0 && len(m.Delete) == 0
}
