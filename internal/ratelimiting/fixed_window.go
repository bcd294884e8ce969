package ratelimiting

import (
	"context"
	"sync"
	"time"
)

// Result is the outcome of a fixed-window rate limit check.
type Result struct {
	Allowed   bool
	Remaining int
	ResetTime time.Time
}

type windowTracker struct {
	windowStart time.Time
	count       int
}

// FixedWindowLimiter counts requests per endpoint key in fixed windows.
//
// Known limitation: fixed-window counting admits up to 2x the configured
// maximum across a window boundary (a full burst at the end of one window
// followed by a full burst at the start of the next). This is an accepted
// trade-off for simplicity; switch to a sliding window or token bucket if an
// upstream provider requires strict compliance.
type FixedWindowLimiter struct {
	mutex     sync.Mutex
	trackers  map[string]*windowTracker
	nowFunc   func() time.Time
	afterFunc func(time.Duration) <-chan time.Time
}

func NewFixedWindowLimiter(
	nowFunc func() time.Time,
	afterFunc func(time.Duration) <-chan time.Time,
) *FixedWindowLimiter {
	return &FixedWindowLimiter{
		trackers:  make(map[string]*windowTracker),
		nowFunc:   nowFunc,
		afterFunc: afterFunc,
	}
}

// Check records an attempted call against the endpoint key and reports
// whether it is allowed within the current window.
func (l *FixedWindowLimiter) Check(key string, maxRequests int, window time.Duration) Result {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	now := l.nowFunc()

	tracker, ok := l.trackers[key]
	if !ok || now.Sub(tracker.windowStart) >= window {
		tracker = &windowTracker{windowStart: now, count: 1}
		l.trackers[key] = tracker

		return Result{
			Allowed:   true,
			Remaining: maxRequests - 1,
			ResetTime: now.Add(window),
		}
	}

	tracker.count++

	remaining := maxRequests - tracker.count
	if remaining < 0 {
		remaining = 0
	}

	return Result{
		Allowed:   tracker.count <= maxRequests,
		Remaining: remaining,
		ResetTime: tracker.windowStart.Add(window),
	}
}

// WaitForReset sleeps cooperatively until resetTime has passed or the context
// is cancelled.
func (l *FixedWindowLimiter) WaitForReset(ctx context.Context, resetTime time.Time) error {
	wait := resetTime.Sub(l.nowFunc())
	if wait <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.afterFunc(wait):
		return nil
	}
}
