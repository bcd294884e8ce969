package coordinator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/pumpwatch/pumpwatch/internal/adapters/cache"
	e "github.com/pumpwatch/pumpwatch/internal/errors"
	"github.com/pumpwatch/pumpwatch/internal/logging"
	"github.com/pumpwatch/pumpwatch/internal/ratelimiting"
)

// staleAfter bounds how long an unresolved in-flight request may stay in the
// pending map before the janitor cancels it. Protects against fetch functions
// that never return.
const staleAfter = 30 * time.Second

// Options control a single coordinated fetch.
type Options struct {
	// CacheTTL is the time-to-live for a successfully fetched value. Zero
	// uses the cache's default TTL.
	CacheTTL time.Duration
	// SkipCache bypasses the cache lookup but still stores the result.
	SkipCache bool
	// Debounce collapses repeated calls for the same key within the window
	// into one execution fired after the quiet period (trailing edge).
	Debounce time.Duration

	// Endpoint is the outbound rate limit key. Empty disables rate limiting.
	Endpoint       string
	EndpointLimit  int
	EndpointWindow time.Duration

	// RetryOnRateLimit waits for the window to reset instead of failing.
	// Each retry backs off by RetryDelay times the attempt number, bounded
	// by MaxRetries.
	RetryOnRateLimit bool
	MaxRetries       int
	RetryDelay       time.Duration
}

type pendingRequest struct {
	startedAt time.Time
	cancel    context.CancelFunc
}

// Coordinator funnels all upstream fetches for one resource category through
// a cache, an outbound rate limiter, and in-flight request sharing: at most
// one upstream call is in flight per key, and every concurrent caller for
// that key observes the same value or the same error.
//
// The coordinator is the only component that mutates the cache and the
// pending map. Callers go through the accessor functions in the app package.
type Coordinator[T any] struct {
	cache   cache.Cache[T]
	limiter *ratelimiting.FixedWindowLimiter
	group   singleflight.Group

	pendingMutex sync.Mutex
	pending      map[string]*pendingRequest

	debounceMutex sync.Mutex
	debouncing    map[string]*debounceState[T]

	nowFunc   func() time.Time
	afterFunc func(time.Duration) <-chan time.Time
	newTimer  func(d time.Duration, f func()) debounceTimer

	stopJanitor chan struct{}
	stopOnce    sync.Once
}

func New[T any](
	fetchCache cache.Cache[T],
	limiter *ratelimiting.FixedWindowLimiter,
	nowFunc func() time.Time,
	afterFunc func(time.Duration) <-chan time.Time,
) (*Coordinator[T], func()) {
	c := &Coordinator[T]{
		cache:       fetchCache,
		limiter:     limiter,
		pending:     make(map[string]*pendingRequest),
		debouncing:  make(map[string]*debounceState[T]),
		nowFunc:     nowFunc,
		afterFunc:   afterFunc,
		newTimer:    func(d time.Duration, f func()) debounceTimer { return time.AfterFunc(d, f) },
		stopJanitor: make(chan struct{}),
	}

	go c.runJanitor()

	stop := func() {
		c.stopOnce.Do(func() {
			close(c.stopJanitor)
		})
	}

	return c, stop
}

// Fetch returns the cached value for key, or runs fetchFn through
// deduplication and rate limiting and caches the result. Errors are
// propagated and never cached.
func (c *Coordinator[T]) Fetch(ctx context.Context, key string, opts Options, fetchFn func(ctx context.Context) (T, error)) (T, error) {
	if opts.Debounce > 0 {
		// A cache hit answers immediately; only callers that would actually
		// go upstream wait out the quiet period.
		if !opts.SkipCache {
			if value, ok := c.cache.Get(key); ok {
				logging.FromContext(ctx).Info("Fetching upstream data", "cache", "hit", "key", key)
				return value, nil
			}
		}
		return c.debounced(ctx, key, opts, fetchFn)
	}
	return c.fetch(ctx, key, opts, fetchFn)
}

func (c *Coordinator[T]) fetch(ctx context.Context, key string, opts Options, fetchFn func(ctx context.Context) (T, error)) (T, error) {
	logger := logging.FromContext(ctx)

	if !opts.SkipCache {
		if value, ok := c.cache.Get(key); ok {
			logger.Info("Fetching upstream data", "cache", "hit", "key", key)
			return value, nil
		}
	}

	result, err, shared := c.group.Do(key, func() (any, error) {
		logger.Info("Fetching upstream data", "cache", "miss", "key", key)

		// The flight context is detached from the first caller's cancellation
		// so concurrent callers sharing this flight are not failed by one
		// caller going away. CancelRequest and the janitor can still abort it.
		flightCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		defer cancel()

		c.registerPending(key, cancel)
		defer c.unregisterPending(key)

		value, err := c.fetchRateLimited(flightCtx, opts, fetchFn)
		if err != nil {
			return nil, err
		}

		c.cache.Set(key, value, opts.CacheTTL)
		return value, nil
	})
	if shared {
		logger.Info("Fetching upstream data", "cache", "shared", "key", key)
	}
	if err != nil {
		var empty T
		return empty, err
	}

	return result.(T), nil
}

// fetchRateLimited wraps fetchFn with the outbound fixed-window check and a
// bounded retry loop. An unbounded loop here would turn a throttled upstream
// into a retry storm.
func (c *Coordinator[T]) fetchRateLimited(ctx context.Context, opts Options, fetchFn func(ctx context.Context) (T, error)) (T, error) {
	var empty T

	if opts.Endpoint == "" {
		return fetchFn(ctx)
	}

	for attempt := 0; ; attempt++ {
		result := c.limiter.Check(opts.Endpoint, opts.EndpointLimit, opts.EndpointWindow)
		if result.Allowed {
			return fetchFn(ctx)
		}

		if !opts.RetryOnRateLimit || attempt >= opts.MaxRetries {
			return empty, fmt.Errorf("%w: endpoint %q", e.RatelimitExceededError, opts.Endpoint)
		}

		waitUntil := result.ResetTime
		if backoff := c.nowFunc().Add(opts.RetryDelay * time.Duration(attempt+1)); backoff.After(waitUntil) {
			waitUntil = backoff
		}
		if err := c.limiter.WaitForReset(ctx, waitUntil); err != nil {
			return empty, fmt.Errorf("aborted while waiting for rate limit reset: %w", err)
		}
	}
}

// Delete removes the cached value for key. In-flight fetches for the key are
// unaffected and will store their result when they complete.
func (c *Coordinator[T]) Delete(key string) {
	c.cache.Delete(key)
}

// CancelRequest aborts the in-flight fetch for key, if any. Callers sharing
// the flight observe the cancellation error. A previously cached value for
// the key is left untouched.
func (c *Coordinator[T]) CancelRequest(key string) bool {
	c.pendingMutex.Lock()
	defer c.pendingMutex.Unlock()

	pending, ok := c.pending[key]
	if !ok {
		return false
	}

	pending.cancel()
	delete(c.pending, key)
	c.group.Forget(key)
	return true
}

func (c *Coordinator[T]) registerPending(key string, cancel context.CancelFunc) {
	c.pendingMutex.Lock()
	defer c.pendingMutex.Unlock()

	c.pending[key] = &pendingRequest{
		startedAt: c.nowFunc(),
		cancel:    cancel,
	}
}

func (c *Coordinator[T]) unregisterPending(key string) {
	c.pendingMutex.Lock()
	defer c.pendingMutex.Unlock()

	delete(c.pending, key)
}

func (c *Coordinator[T]) runJanitor() {
	for {
		select {
		case <-c.stopJanitor:
			return
		case <-c.afterFunc(staleAfter / 2):
			c.purgeStalePending()
		}
	}
}

// purgeStalePending cancels and drops pending entries older than staleAfter
// so abandoned requests cannot grow the map without bound.
func (c *Coordinator[T]) purgeStalePending() int {
	c.pendingMutex.Lock()
	defer c.pendingMutex.Unlock()

	now := c.nowFunc()
	purged := 0
	for key, pending := range c.pending {
		if now.Sub(pending.startedAt) < staleAfter {
			continue
		}

		pending.cancel()
		delete(c.pending, key)
		c.group.Forget(key)
		purged++
	}
	return purged
}
