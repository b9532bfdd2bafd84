package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestMemoryCache_TypedGet(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryMaxSize(10))
	defer mc.Close()

	if err := mc.Set(ctx, "k", sample{Name: "a", Count: 2}, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	var got sample
	if err := mc.Get(ctx, "k", &got); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name != "a" || got.Count != 2 {
		t.Fatalf("Get() = %+v", got)
	}

	var s string
	_ = mc.Set(ctx, "s", "plain", time.Minute)
	if err := mc.Get(ctx, "s", &s); err != nil || s != "plain" {
		t.Fatalf("string Get() = %q, %v", s, err)
	}
}

func TestMemoryCache_MissAndExpiry(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	var got sample
	if err := mc.Get(ctx, "missing", &got); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("Get(missing) error = %v, want ErrCacheMiss", err)
	}

	_ = mc.Set(ctx, "short", sample{}, time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	if err := mc.Get(ctx, "short", &got); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("Get(expired) error = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCache_DeleteByPattern(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	_ = mc.Set(ctx, "stats:mega645:10", 1, time.Minute)
	_ = mc.Set(ctx, "stats:mega645:5", 1, time.Minute)
	_ = mc.Set(ctx, "stats:power655:10", 1, time.Minute)

	if err := mc.DeleteByPattern(ctx, Pattern("stats", "mega645")); err != nil {
		t.Fatalf("DeleteByPattern() error = %v", err)
	}
	if ok, _ := mc.Exists(ctx, "stats:mega645:10", "stats:mega645:5"); ok {
		t.Fatalf("mega645 keys should be gone")
	}
	if ok, _ := mc.Exists(ctx, "stats:power655:10"); !ok {
		t.Fatalf("power655 key should remain")
	}
}

func TestMemoryCache_Lock(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	if ok, _ := mc.TryLock(ctx, "lock", time.Minute); !ok {
		t.Fatalf("first TryLock should succeed")
	}
	if ok, _ := mc.TryLock(ctx, "lock", time.Minute); ok {
		t.Fatalf("second TryLock should fail")
	}
	_ = mc.Unlock(ctx, "lock")
	if ok, _ := mc.TryLock(ctx, "lock", time.Minute); !ok {
		t.Fatalf("TryLock after Unlock should succeed")
	}
}

func TestMemoryCache_LockSurvivesEviction(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()

	if ok, _ := mc.TryLock(ctx, "sync:mega645", time.Minute); !ok {
		t.Fatalf("TryLock should succeed")
	}
	for i := 0; i < 10; i++ {
		_ = mc.Set(ctx, fmt.Sprintf("stats:mega645:%d", i), i, time.Minute)
	}
	if ok, _ := mc.TryLock(ctx, "sync:mega645", time.Minute); ok {
		t.Fatalf("lock was released by cache eviction")
	}
	if mc.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", mc.Len())
	}
	_ = mc.DeleteByPattern(ctx, "sync:*")
	if ok, _ := mc.TryLock(ctx, "sync:mega645", time.Minute); ok {
		t.Fatalf("lock was released by DeleteByPattern")
	}
}

func TestMemoryCache_LockExpires(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	if ok, _ := mc.TryLock(ctx, "lock", 20*time.Millisecond); !ok {
		t.Fatalf("TryLock should succeed")
	}
	time.Sleep(40 * time.Millisecond)
	if ok, _ := mc.TryLock(ctx, "lock", time.Minute); !ok {
		t.Fatalf("TryLock after expiry should succeed")
	}
}

func TestMemoryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()

	_ = mc.Set(ctx, "a", 1, time.Minute)
	_ = mc.Set(ctx, "b", 2, time.Minute)
	var v int
	if err := mc.Get(ctx, "a", &v); err != nil {
		t.Fatalf("Get(a) error = %v", err)
	}
	_ = mc.Set(ctx, "c", 3, time.Minute)

	if ok, _ := mc.Exists(ctx, "b"); ok {
		t.Fatalf("b should have been evicted")
	}
	if ok, _ := mc.Exists(ctx, "a", "c"); !ok {
		t.Fatalf("a and c should remain")
	}
	if mc.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", mc.Len())
	}
}

func TestGetOrLoad(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	calls := 0
	load := func(context.Context) (sample, error) {
		calls++
		return sample{Name: "draws", Count: calls}, nil
	}
	first, hit, err := GetOrLoad(ctx, mc, Key("stats", "mega645", 10), time.Minute, load, nil)
	if err != nil || hit || first.Count != 1 {
		t.Fatalf("first load = %+v hit=%v err=%v", first, hit, err)
	}
	second, hit, err := GetOrLoad(ctx, mc, Key("stats", "mega645", 10), time.Minute, load, nil)
	if err != nil || !hit || second.Count != 1 || calls != 1 {
		t.Fatalf("second load = %+v hit=%v calls=%d err=%v", second, hit, calls, err)
	}

	boom := errors.New("boom")
	_, _, err = GetOrLoad(ctx, nil, "k", time.Minute, func(context.Context) (sample, error) { return sample{}, boom }, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("GetOrLoad without cache error = %v", err)
	}
}

func TestWithLock(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	err := WithLock(ctx, mc, "sync:mega645", time.Minute, func(ctx context.Context) error {
		if err := WithLock(ctx, mc, "sync:mega645", time.Minute, func(context.Context) error { return nil }); !errors.Is(err, ErrLocked) {
			t.Fatalf("nested WithLock error = %v, want ErrLocked", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithLock() error = %v", err)
	}
	if ok, _ := mc.Exists(ctx, "sync:mega645"); ok {
		t.Fatalf("lock should be released")
	}
	if got := Key("stats", "power655", 5); got != "stats:power655:5" {
		t.Fatalf("Key() = %q", got)
	}
}
