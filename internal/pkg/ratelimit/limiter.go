// Package ratelimit implements the sliding-window limits venues impose on
// their public endpoints.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Limiter admits at most max calls per window. Safe for concurrent use; the
// window state is shared by every fetch running against the same client.
type Limiter struct {
	mu     sync.Mutex
	clk    clock.Clock
	max    int
	window time.Duration
	stamps []time.Time
}

// New builds a limiter on the wall clock. max <= 0 disables limiting.
func New(max int, window time.Duration) *Limiter {
	return NewWithClock(max, window, clock.New())
}

// NewWithClock is New with an injectable clock for tests.
func NewWithClock(max int, window time.Duration, clk clock.Clock) *Limiter {
	return &Limiter{clk: clk, max: max, window: window}
}

// Wait blocks until a slot frees up inside the window, then records the call.
// Returns early with the context error on cancellation.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil || l.max <= 0 || l.window <= 0 {
		return nil
	}
	for {
		l.mu.Lock()
		now := l.clk.Now()
		l.prune(now)
		if len(l.stamps) < l.max {
			l.stamps = append(l.stamps, now)
			l.mu.Unlock()
			return nil
		}
		wait := l.stamps[0].Add(l.window).Sub(now)
		l.mu.Unlock()

		timer := l.clk.Timer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.stamps) && !l.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.stamps = append(l.stamps[:0], l.stamps[i:]...)
	}
}
