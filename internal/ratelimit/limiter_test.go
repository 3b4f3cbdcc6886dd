package ratelimit

import (
	"testing"
	"time"
)

func TestLimiterAllowsUpToSecondWindow(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New(3, 100)
	l.now = func() time.Time { return clock }

	for i := 0; i < 3; i++ {
		l.AcquirePermit()
	}

	stats := l.Stats()
	if stats.TotalAcquired != 3 {
		t.Fatalf("expected 3 acquired, got %d", stats.TotalAcquired)
	}
	if stats.InSecondWindow != 3 {
		t.Fatalf("expected 3 in second window, got %d", stats.InSecondWindow)
	}
	if stats.TotalWaits != 0 {
		t.Fatalf("expected no waits yet, got %d", stats.TotalWaits)
	}
}

func TestLimiterWaitsWhenSecondWindowFull(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New(2, 100)
	l.now = func() time.Time {
		// Advance past the window on every read after the first two, so
		// the blocked acquire frees itself on its retry.
		c := clock
		clock = clock.Add(400 * time.Millisecond)
		return c
	}

	for i := 0; i < 3; i++ {
		l.AcquirePermit()
	}

	stats := l.Stats()
	if stats.TotalAcquired != 3 {
		t.Fatalf("expected 3 acquired, got %d", stats.TotalAcquired)
	}
}

func TestLimiterPrunesMinuteWindow(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New(10, 100)
	l.now = func() time.Time { return clock }

	for i := 0; i < 5; i++ {
		l.AcquirePermit()
	}

	clock = clock.Add(61 * time.Second)
	stats := l.Stats()
	if stats.InMinuteWindow != 0 {
		t.Fatalf("expected minute window pruned, got %d", stats.InMinuteWindow)
	}
	if stats.TotalAcquired != 5 {
		t.Fatalf("counters must survive pruning, got %d", stats.TotalAcquired)
	}
}

func TestLimiterReset(t *testing.T) {
	l := New(5, 100)
	for i := 0; i < 4; i++ {
		l.AcquirePermit()
	}

	l.Reset()

	stats := l.Stats()
	if stats.TotalAcquired != 0 || stats.TotalWaits != 0 {
		t.Fatalf("expected counters cleared, got %+v", stats)
	}
	if stats.InSecondWindow != 0 || stats.InMinuteWindow != 0 {
		t.Fatalf("expected windows cleared, got %+v", stats)
	}
}
