package ratelimit

import (
	"testing"
	"time"
)

func TestLimiterAllowsBurstThenBlocks(t *testing.T) {
	l := NewLimiter(3, 1)
	now := time.Now()
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !l.Allow("1.2.3.4") {
			t.Fatalf("request %d should pass within burst", i)
		}
	}
	if l.Allow("1.2.3.4") {
		t.Fatal("fourth request should be blocked")
	}
}

func TestLimiterRefillsOverTime(t *testing.T) {
	l := NewLimiter(1, 2)
	now := time.Now()
	l.now = func() time.Time { return now }

	if !l.Allow("k") {
		t.Fatal("first request should pass")
	}
	if l.Allow("k") {
		t.Fatal("bucket should be empty")
	}

	now = now.Add(time.Second)
	if !l.Allow("k") {
		t.Fatal("bucket should refill after a second")
	}
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	l := NewLimiter(1, 0)
	if !l.Allow("a") {
		t.Fatal("first key should pass")
	}
	if !l.Allow("b") {
		t.Fatal("second key should have its own bucket")
	}
	if l.Allow("a") {
		t.Fatal("first key should now be blocked")
	}
}
