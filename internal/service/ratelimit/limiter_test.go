package ratelimit

import (
	"testing"
	"time"
)

func TestLimiter_RefillsOverTime(t *testing.T) {
	now := time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC)
	l := New()
	l.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if !l.Allow("ip:suggest", 2, 1) {
			t.Fatalf("request %d should pass", i)
		}
	}
	if l.Allow("ip:suggest", 2, 1) {
		t.Fatal("bucket should be empty")
	}
	if !l.Allow("other:suggest", 2, 1) {
		t.Fatal("keys must not share a bucket")
	}

	now = now.Add(1500 * time.Millisecond)
	if !l.Allow("ip:suggest", 2, 1) {
		t.Fatal("bucket should have refilled")
	}
}
