package ratelimit_test

import (
	"testing"
	"time"

	"github.com/leadops/leadbot/internal/ratelimit"
)

func TestAdmitUpToLimit(t *testing.T) {
	t.Parallel()

	l := ratelimit.New(3, time.Minute, true, nil)
	now := time.Now()

	for i := 0; i < 3; i++ {
		ok, _ := l.Admit(1, now.Add(time.Duration(i)*time.Second))
		if !ok {
			t.Fatalf("request %d rejected below the limit", i+1)
		}
	}

	ok, retryAfter := l.Admit(1, now.Add(3*time.Second))
	if ok {
		t.Fatal("request above the limit was admitted")
	}
	if retryAfter <= 0 {
		t.Errorf("retryAfter = %v, want a positive wait", retryAfter)
	}
}

func TestRejectionDoesNotConsumeSlot(t *testing.T) {
	t.Parallel()

	l := ratelimit.New(2, time.Minute, true, nil)
	now := time.Now()

	l.Admit(1, now)
	l.Admit(1, now.Add(time.Second))

	// Hammer the full window; none of these may extend the lockout.
	for i := 0; i < 10; i++ {
		if ok, _ := l.Admit(1, now.Add(2*time.Second)); ok {
			t.Fatal("request admitted while the window was full")
		}
	}

	// Once the first event leaves the window, a slot opens again exactly as
	// if the rejected attempts had never happened.
	if ok, _ := l.Admit(1, now.Add(time.Minute+time.Millisecond)); !ok {
		t.Error("request rejected after the oldest event left the window")
	}
}

func TestWindowBoundary(t *testing.T) {
	t.Parallel()

	l := ratelimit.New(1, time.Minute, true, nil)
	now := time.Now()

	l.Admit(1, now)

	// Just inside the window the old event still counts.
	if ok, _ := l.Admit(1, now.Add(time.Minute-time.Second)); ok {
		t.Error("request admitted while the old event was still inside the window")
	}
	// Once the full window has elapsed the event no longer counts.
	if ok, _ := l.Admit(1, now.Add(time.Minute)); !ok {
		t.Error("request rejected after the window fully elapsed")
	}
}

func TestUsersAreIndependent(t *testing.T) {
	t.Parallel()

	l := ratelimit.New(1, time.Minute, true, nil)
	now := time.Now()

	l.Admit(1, now)
	if ok, _ := l.Admit(1, now); ok {
		t.Fatal("second request from user 1 admitted over the limit")
	}
	if ok, _ := l.Admit(2, now); !ok {
		t.Error("user 2 was throttled by user 1's window")
	}
}

func TestDisabledLimiterAdmitsEverything(t *testing.T) {
	t.Parallel()

	l := ratelimit.New(1, time.Minute, false, nil)
	now := time.Now()

	for i := 0; i < 100; i++ {
		if ok, _ := l.Admit(1, now); !ok {
			t.Fatal("disabled limiter rejected a request")
		}
	}
}

func TestSweepDropsExpiredWindows(t *testing.T) {
	t.Parallel()

	l := ratelimit.New(5, time.Minute, true, nil)
	now := time.Now()

	l.Admit(1, now)
	l.Admit(2, now)

	if removed := l.Sweep(now.Add(30 * time.Second)); removed != 0 {
		t.Errorf("Sweep removed %d active windows, want 0", removed)
	}
	if removed := l.Sweep(now.Add(2 * time.Minute)); removed != 2 {
		t.Errorf("Sweep removed %d windows, want 2", removed)
	}
}
