package ratelimit

import (
	"testing"
	"time"
)

func TestAllowFixedWindow(t *testing.T) {
	now := time.Unix(1700000000, 0)
	l := NewWithClock(func() time.Time { return now })

	want := []bool{true, true, false}
	for i, expected := range want {
		if got := l.Allow("k", 2, time.Second); got != expected {
			t.Fatalf("call %d: got %v, want %v", i+1, got, expected)
		}
	}

	// Once the window elapses the counter restarts.
	now = now.Add(1001 * time.Millisecond)
	if !l.Allow("k", 2, time.Second) {
		t.Fatal("expected allow after window elapsed")
	}
}

func TestAllowIndependentKeys(t *testing.T) {
	now := time.Unix(1700000000, 0)
	l := NewWithClock(func() time.Time { return now })

	if !l.Allow("a", 1, time.Minute) {
		t.Fatal("first hit on a should pass")
	}
	if l.Allow("a", 1, time.Minute) {
		t.Fatal("second hit on a should be limited")
	}
	if !l.Allow("b", 1, time.Minute) {
		t.Fatal("b must not share a's window")
	}
	if l.Len() != 2 {
		t.Fatalf("expected 2 tracked keys, got %d", l.Len())
	}
}

func TestAllowRejectsNonPositiveMax(t *testing.T) {
	l := New()
	if l.Allow("k", 0, time.Second) {
		t.Fatal("max=0 must deny")
	}
}

func TestAllowDoesNotCountRejectedHits(t *testing.T) {
	now := time.Unix(1700000000, 0)
	l := NewWithClock(func() time.Time { return now })

	l.Allow("k", 1, time.Second)
	for i := 0; i < 5; i++ {
		if l.Allow("k", 1, time.Second) {
			t.Fatalf("hit %d should be limited", i+2)
		}
	}

	// Rejected hits must not have extended or re-counted the window.
	now = now.Add(1100 * time.Millisecond)
	if !l.Allow("k", 1, time.Second) {
		t.Fatal("expected allow in fresh window")
	}
}
