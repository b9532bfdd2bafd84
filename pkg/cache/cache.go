package cache

import (
	"context"
	"errors"
	"time"
)

var (
	ErrCacheMiss = errors.New("cache: key not found")
	// ErrLocked is returned by WithLock when another holder owns the key.
	ErrLocked = errors.New("cache: lock held")
)

// Service is the read-through cache used for statistics and performance snapshots.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	DeleteByPattern(ctx context.Context, pattern string) error
	Exists(ctx context.Context, keys ...string) (bool, error)
}

// Locker guards jobs that must not run concurrently across replicas.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// GetOrLoad returns the cached value for key, or calls load and caches its result.
// Cache read and write failures are reported through onErr and never fail the call.
func GetOrLoad[T any](ctx context.Context, c Service, key string, ttl time.Duration, load func(context.Context) (T, error), onErr func(error)) (T, bool, error) {
	var cached T
	if c != nil {
		err := c.Get(ctx, key, &cached)
		if err == nil {
			return cached, true, nil
		}
		if !errors.Is(err, ErrCacheMiss) && onErr != nil {
			onErr(err)
		}
	}
	v, err := load(ctx)
	if err != nil {
		return v, false, err
	}
	if c != nil {
		if err := c.Set(ctx, key, v, ttl); err != nil && onErr != nil {
			onErr(err)
		}
	}
	return v, false, nil
}

// WithLock runs fn while holding key. It returns ErrLocked when the key is taken.
func WithLock(ctx context.Context, l Locker, key string, ttl time.Duration, fn func(context.Context) error) error {
	if l == nil {
		return fn(ctx)
	}
	ok, err := l.TryLock(ctx, key, ttl)
	if err != nil {
		return err
	}
	if !ok {
		return ErrLocked
	}
	defer func() { _ = l.Unlock(context.WithoutCancel(ctx), key) }()
	return fn(ctx)
}
