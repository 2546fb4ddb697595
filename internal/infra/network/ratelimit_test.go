package network

import (
	"testing"
	"time"
)

func TestKeyedLimiterBurstPerKey(t *testing.T) {
	l := NewKeyedLimiter(1, 2, time.Minute)
	now := time.Now()
	if !l.Allow("a", now) || !l.Allow("a", now) {
		t.Fatalf("burst of 2 should pass")
	}
	if l.Allow("a", now) {
		t.Fatalf("third event in the same instant should be limited")
	}
	if !l.Allow("b", now) {
		t.Fatalf("other keys have their own bucket")
	}
	if !l.Allow("a", now.Add(time.Second)) {
		t.Fatalf("bucket should refill after one second")
	}
}

func TestKeyedLimiterForgetsIdleKeys(t *testing.T) {
	l := NewKeyedLimiter(1, 1, time.Second)
	now := time.Now()
	l.Allow("a", now)
	l.Allow("b", now)
	if len(l.buckets) != 2 {
		t.Fatalf("len = %d, want 2", len(l.buckets))
	}
	l.Allow("c", now.Add(3*time.Second))
	if len(l.buckets) != 1 {
		t.Fatalf("idle keys not evicted, len = %d", len(l.buckets))
	}
}
