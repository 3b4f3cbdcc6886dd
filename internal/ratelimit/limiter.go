// Package ratelimit bounds the outbound request rate against a crawl
// target with two sliding windows, one per second and one per minute.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a shared, mutex-guarded permit source. AcquirePermit blocks
// the calling goroutine until both windows have capacity; there is no
// cancellation, callers wait until permitted.
type Limiter struct {
	mu        sync.Mutex
	perSecond int
	perMinute int

	// Acquisition timestamps younger than one minute, oldest first.
	history []time.Time

	totalAcquired int64
	totalWaits    int64

	now func() time.Time
}

// Stats is a snapshot of limiter activity for operational visibility.
type Stats struct {
	PerSecond      int   `json:"perSecond"`
	PerMinute      int   `json:"perMinute"`
	TotalAcquired  int64 `json:"totalAcquired"`
	TotalWaits     int64 `json:"totalWaits"`
	InSecondWindow int   `json:"inSecondWindow"`
	InMinuteWindow int   `json:"inMinuteWindow"`
}

func New(perSecond, perMinute int) *Limiter {
	return &Limiter{
		perSecond: perSecond,
		perMinute: perMinute,
		now:       time.Now,
	}
}

// AcquirePermit blocks until the caller may issue one outbound request.
func (l *Limiter) AcquirePermit() {
	for {
		l.mu.Lock()
		now := l.now()
		l.prune(now)

		if l.windowCount(now, time.Second) < l.perSecond && len(l.history) < l.perMinute {
			l.history = append(l.history, now)
			l.totalAcquired++
			l.mu.Unlock()
			return
		}

		wait := l.nextFree(now)
		l.totalWaits++
		l.mu.Unlock()
		time.Sleep(wait)
	}
}

// Stats returns a consistent snapshot of the limiter state.
func (l *Limiter) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	l.prune(now)
	return Stats{
		PerSecond:      l.perSecond,
		PerMinute:      l.perMinute,
		TotalAcquired:  l.totalAcquired,
		TotalWaits:     l.totalWaits,
		InSecondWindow: l.windowCount(now, time.Second),
		InMinuteWindow: len(l.history),
	}
}

// Reset clears all window state and counters.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.history = nil
	l.totalAcquired = 0
	l.totalWaits = 0
}

// prune drops timestamps older than the minute window. Callers hold mu.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-time.Minute)
	i := 0
	for i < len(l.history) && !l.history[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.history = append(l.history[:0], l.history[i:]...)
	}
}

// windowCount counts acquisitions inside the trailing window. Callers hold mu.
func (l *Limiter) windowCount(now time.Time, window time.Duration) int {
	cutoff := now.Add(-window)
	count := 0
	for i := len(l.history) - 1; i >= 0; i-- {
		if !l.history[i].After(cutoff) {
			break
		}
		count++
	}
	return count
}

// nextFree estimates how long until a slot opens in whichever window is
// currently saturated. Callers hold mu.
func (l *Limiter) nextFree(now time.Time) time.Duration {
	wait := 5 * time.Millisecond

	if sec := l.windowCount(now, time.Second); sec >= l.perSecond {
		oldest := l.history[len(l.history)-sec]
		if d := oldest.Add(time.Second).Sub(now); d > wait {
			wait = d
		}
	}
	if len(l.history) >= l.perMinute {
		if d := l.history[0].Add(time.Minute).Sub(now); d > wait {
			wait = d
		}
	}
	return wait
}
