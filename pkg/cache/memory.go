package cache

import (
	"container/list"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sync"
	"time"
)

const defaultMemoryTTL = 24 * time.Hour

type memoryEntry struct {
	key      string
	value    interface{}
	expireAt time.Time
}

func (e *memoryEntry) expired(now time.Time) bool { return now.After(e.expireAt) }

// MemoryCache is a bounded in-process LRU cache. It implements Service and Locker
// so a single instance can run without Redis. Locks live outside the LRU and are
// never evicted, only released or expired.
type MemoryCache struct {
	mu      sync.Mutex
	items   map[string]*list.Element
	order   *list.List // front is most recently used
	maxSize int
	locks   map[string]time.Time

	stop chan struct{}
	once sync.Once
}

// NewMemoryCache creates an in-memory cache and starts its expiry sweeper.
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	cfg := &MemoryConfig{
		MaxSize:         1000,
		CleanupInterval: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 1000
	}

	mc := &MemoryCache{
		items:   make(map[string]*list.Element),
		order:   list.New(),
		maxSize: cfg.MaxSize,
		locks:   make(map[string]time.Time),
		stop:    make(chan struct{}),
	}
	go mc.sweep(cfg.CleanupInterval)
	return mc
}

func (mc *MemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	if expiration <= 0 {
		expiration = defaultMemoryTTL
	}
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.put(key, value, time.Now().Add(expiration))
	return nil
}

func (mc *MemoryCache) put(key string, value interface{}, expireAt time.Time) {
	if el, ok := mc.items[key]; ok {
		e := el.Value.(*memoryEntry)
		e.value, e.expireAt = value, expireAt
		mc.order.MoveToFront(el)
		return
	}
	for len(mc.items) >= mc.maxSize {
		mc.removeElement(mc.order.Back())
	}
	mc.items[key] = mc.order.PushFront(&memoryEntry{key: key, value: value, expireAt: expireAt})
}

// Get copies the cached value into dest. Typed destinations round-trip through
// JSON so values read the same as they would from RedisCache.
func (mc *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	mc.mu.Lock()
	el, ok := mc.items[key]
	if !ok {
		mc.mu.Unlock()
		return ErrCacheMiss
	}
	e := el.Value.(*memoryEntry)
	if e.expired(time.Now()) {
		mc.removeElement(el)
		mc.mu.Unlock()
		return ErrCacheMiss
	}
	mc.order.MoveToFront(el)
	value := e.value
	mc.mu.Unlock()

	switch d := dest.(type) {
	case *string:
		if s, ok := value.(string); ok {
			*d = s
			return nil
		}
	case *interface{}:
		*d = value
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal cached value: %w", err)
		}
		raw = b
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal cached value: %w", err)
	}
	return nil
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for _, key := range keys {
		if el, ok := mc.items[key]; ok {
			mc.removeElement(el)
		}
	}
	return nil
}

// DeleteByPattern removes keys matching a glob pattern ("stats:mega645:*").
func (mc *MemoryCache) DeleteByPattern(_ context.Context, pattern string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for key, el := range mc.items {
		if ok, _ := path.Match(pattern, key); ok {
			mc.removeElement(el)
		}
	}
	return nil
}

func (mc *MemoryCache) Exists(_ context.Context, keys ...string) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	now := time.Now()
	for _, key := range keys {
		if el, ok := mc.items[key]; ok && !el.Value.(*memoryEntry).expired(now) {
			return true, nil
		}
	}
	return false, nil
}

func (mc *MemoryCache) TryLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = defaultMemoryTTL
	}
	mc.mu.Lock()
	defer mc.mu.Unlock()
	now := time.Now()
	if until, ok := mc.locks[key]; ok && now.Before(until) {
		return false, nil
	}
	mc.locks[key] = now.Add(ttl)
	return true, nil
}

func (mc *MemoryCache) Unlock(_ context.Context, key string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	delete(mc.locks, key)
	return nil
}

// Len reports the number of cached entries, expired ones included until swept.
// Held locks are not counted.
func (mc *MemoryCache) Len() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return len(mc.items)
}

func (mc *MemoryCache) removeElement(el *list.Element) {
	if el == nil {
		return
	}
	mc.order.Remove(el)
	delete(mc.items, el.Value.(*memoryEntry).key)
}

func (mc *MemoryCache) sweep(interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-mc.stop:
			return
		case now := <-ticker.C:
			mc.mu.Lock()
			for _, el := range mc.items {
				if el.Value.(*memoryEntry).expired(now) {
					mc.removeElement(el)
				}
			}
			for key, until := range mc.locks {
				if !now.Before(until) {
					delete(mc.locks, key)
				}
			}
			mc.mu.Unlock()
		}
	}
}

// Close stops the sweeper. It is safe to call more than once.
func (mc *MemoryCache) Close() error {
	mc.once.Do(func() { close(mc.stop) })
	return nil
}
