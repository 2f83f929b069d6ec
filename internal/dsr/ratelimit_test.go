package dsr

import (
	"testing"
	"time"
)

func TestLimiterCapsWindow(t *testing.T) {
	now := time.Unix(1700000000, 0)
	l := NewLimiter(3, time.Minute)
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !l.Allow() {
			t.Fatalf("call %d should be admitted", i+1)
		}
	}
	if l.Allow() {
		t.Fatal("fourth call within window should be rejected")
	}
	if got := l.Remaining(); got != 0 {
		t.Errorf("remaining = %d, want 0", got)
	}
}

func TestLimiterRecoversAfterWindow(t *testing.T) {
	now := time.Unix(1700000000, 0)
	l := NewLimiter(2, time.Minute)
	l.now = func() time.Time { return now }

	l.Allow()
	l.Allow()
	if l.Allow() {
		t.Fatal("expected rejection at cap")
	}

	now = now.Add(time.Minute + time.Second)
	if got := l.Remaining(); got != 2 {
		t.Errorf("remaining after window = %d, want 2", got)
	}
	if !l.Allow() {
		t.Error("expected admission after window elapsed")
	}
}

func TestLimiterSlidingPartialRecovery(t *testing.T) {
	now := time.Unix(1700000000, 0)
	l := NewLimiter(2, time.Minute)
	l.now = func() time.Time { return now }

	l.Allow()
	now = now.Add(30 * time.Second)
	l.Allow()
	if l.Allow() {
		t.Fatal("expected rejection at cap")
	}

	// first admission ages out, second is still inside the window
	now = now.Add(31 * time.Second)
	if got := l.Remaining(); got != 1 {
		t.Errorf("remaining = %d, want 1", got)
	}
	if !l.Allow() {
		t.Error("expected one slot to have recovered")
	}
	if l.Allow() {
		t.Error("expected cap to hold after partial recovery")
	}
}
