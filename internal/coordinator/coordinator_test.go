package coordinator_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pumpwatch/pumpwatch/internal/adapters/cache"
	"github.com/pumpwatch/pumpwatch/internal/coordinator"
	e "github.com/pumpwatch/pumpwatch/internal/errors"
	"github.com/pumpwatch/pumpwatch/internal/ratelimiting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mutex sync.Mutex
	now   time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.now = c.now.Add(d)
}

// After advances the clock by d and fires immediately. Sleeps in the code
// under test complete instantly while the observed time still moves forward.
func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mutex.Lock()
	c.now = c.now.Add(d)
	now := c.now
	c.mutex.Unlock()

	ch := make(chan time.Time, 1)
	ch <- now
	return ch
}

// neverFire keeps the coordinator janitor idle during tests.
func neverFire(time.Duration) <-chan time.Time {
	return make(chan time.Time)
}

func newTestCoordinator(t *testing.T, clock *fakeClock) *coordinator.Coordinator[string] {
	t.Helper()

	limiter := ratelimiting.NewFixedWindowLimiter(clock.Now, clock.After)
	c, stop := coordinator.New(cache.NewBasicCache[string](clock.Now), limiter, clock.Now, neverFire)
	t.Cleanup(stop)
	return c
}

func TestFetchCaching(t *testing.T) {
	t.Parallel()

	t.Run("result is cached", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		c := newTestCoordinator(t, clock)

		calls := 0
		fetchFn := func(ctx context.Context) (string, error) {
			calls++
			return "value", nil
		}

		opts := coordinator.Options{CacheTTL: time.Minute}

		value, err := c.Fetch(context.Background(), "k", opts, fetchFn)
		require.NoError(t, err)
		require.Equal(t, "value", value)

		value, err = c.Fetch(context.Background(), "k", opts, fetchFn)
		require.NoError(t, err)
		require.Equal(t, "value", value)

		require.Equal(t, 1, calls)
	})

	t.Run("expired entry triggers a fresh fetch", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		c := newTestCoordinator(t, clock)

		calls := 0
		fetchFn := func(ctx context.Context) (string, error) {
			calls++
			return "value", nil
		}

		opts := coordinator.Options{CacheTTL: time.Minute}

		_, err := c.Fetch(context.Background(), "k", opts, fetchFn)
		require.NoError(t, err)

		clock.Advance(2 * time.Minute)

		_, err = c.Fetch(context.Background(), "k", opts, fetchFn)
		require.NoError(t, err)
		require.Equal(t, 2, calls)
	})

	t.Run("skip cache bypasses lookup but stores result", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		c := newTestCoordinator(t, clock)

		calls := 0
		fetchFn := func(ctx context.Context) (string, error) {
			calls++
			if calls == 1 {
				return "first", nil
			}
			return "second", nil
		}

		_, err := c.Fetch(context.Background(), "k", coordinator.Options{CacheTTL: time.Minute}, fetchFn)
		require.NoError(t, err)

		value, err := c.Fetch(context.Background(), "k", coordinator.Options{CacheTTL: time.Minute, SkipCache: true}, fetchFn)
		require.NoError(t, err)
		require.Equal(t, "second", value)
		require.Equal(t, 2, calls)

		// The refreshed value is now served from cache
		value, err = c.Fetch(context.Background(), "k", coordinator.Options{CacheTTL: time.Minute}, fetchFn)
		require.NoError(t, err)
		require.Equal(t, "second", value)
		require.Equal(t, 2, calls)
	})

	t.Run("errors are propagated and never cached", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		c := newTestCoordinator(t, clock)

		fetchErr := errors.New("upstream exploded")
		calls := 0
		fetchFn := func(ctx context.Context) (string, error) {
			calls++
			if calls == 1 {
				return "", fetchErr
			}
			return "recovered", nil
		}

		opts := coordinator.Options{CacheTTL: time.Minute}

		_, err := c.Fetch(context.Background(), "k", opts, fetchFn)
		require.ErrorIs(t, err, fetchErr)

		value, err := c.Fetch(context.Background(), "k", opts, fetchFn)
		require.NoError(t, err)
		require.Equal(t, "recovered", value)
		require.Equal(t, 2, calls)
	})
}

func TestFetchDeduplication(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	c := newTestCoordinator(t, clock)

	var upstreamCalls atomic.Int64
	release := make(chan struct{})
	started := make(chan struct{})
	var startedOnce sync.Once

	fetchFn := func(ctx context.Context) (string, error) {
		upstreamCalls.Add(1)
		startedOnce.Do(func() { close(started) })
		<-release
		return "shared-value", nil
	}

	const callers = 10
	results := make([]string, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		i := i
		go func() {
			defer wg.Done()
			results[i], errs[i] = c.Fetch(context.Background(), "station-42", coordinator.Options{CacheTTL: time.Minute}, fetchFn)
		}()
	}

	<-started
	// Give the remaining callers time to join the in-flight request
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	require.EqualValues(t, 1, upstreamCalls.Load(), "concurrent callers must share one upstream call")
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, "shared-value", results[i])
	}
}

func TestFetchRateLimiting(t *testing.T) {
	t.Parallel()

	t.Run("denied without retry", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		c := newTestCoordinator(t, clock)

		opts := coordinator.Options{
			CacheTTL:       time.Minute,
			Endpoint:       "fuelapi",
			EndpointLimit:  1,
			EndpointWindow: time.Minute,
		}

		fetchFn := func(ctx context.Context) (string, error) {
			return "value", nil
		}

		_, err := c.Fetch(context.Background(), "a", opts, fetchFn)
		require.NoError(t, err)

		_, err = c.Fetch(context.Background(), "b", opts, fetchFn)
		require.ErrorIs(t, err, e.RatelimitExceededError)
	})

	t.Run("retry waits for the window to reset", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		c := newTestCoordinator(t, clock)

		opts := coordinator.Options{
			CacheTTL:         time.Minute,
			Endpoint:         "fuelapi",
			EndpointLimit:    1,
			EndpointWindow:   time.Minute,
			RetryOnRateLimit: true,
			MaxRetries:       3,
			RetryDelay:       time.Second,
		}

		fetchFn := func(ctx context.Context) (string, error) {
			return "value", nil
		}

		_, err := c.Fetch(context.Background(), "a", opts, fetchFn)
		require.NoError(t, err)

		// The fake clock advances on every wait, so the retry lands in a
		// fresh window and succeeds.
		value, err := c.Fetch(context.Background(), "b", opts, fetchFn)
		require.NoError(t, err)
		require.Equal(t, "value", value)
	})

	t.Run("bounded attempts", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		limiter := ratelimiting.NewFixedWindowLimiter(clock.Now, func(d time.Duration) <-chan time.Time {
			// Time never advances: every retry lands in the same window
			ch := make(chan time.Time, 1)
			ch <- clock.Now()
			return ch
		})
		c, stop := coordinator.New(cache.NewBasicCache[string](clock.Now), limiter, clock.Now, neverFire)
		t.Cleanup(stop)

		opts := coordinator.Options{
			CacheTTL:         time.Minute,
			Endpoint:         "fuelapi",
			EndpointLimit:    1,
			EndpointWindow:   time.Minute,
			RetryOnRateLimit: true,
			MaxRetries:       2,
			RetryDelay:       time.Second,
		}

		fetchCalls := 0
		fetchFn := func(ctx context.Context) (string, error) {
			fetchCalls++
			return "value", nil
		}

		_, err := c.Fetch(context.Background(), "a", opts, fetchFn)
		require.NoError(t, err)

		_, err = c.Fetch(context.Background(), "b", opts, fetchFn)
		require.ErrorIs(t, err, e.RatelimitExceededError)
		require.Equal(t, 1, fetchCalls)
	})
}

func TestCancelRequest(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	c := newTestCoordinator(t, clock)

	started := make(chan struct{})
	fetchFn := func(ctx context.Context) (string, error) {
		close(started)
		<-ctx.Done()
		return "", ctx.Err()
	}

	errCh := make(chan error, 1)
	go func() {
		_, err := c.Fetch(context.Background(), "k", coordinator.Options{CacheTTL: time.Minute}, fetchFn)
		errCh <- err
	}()

	<-started
	require.True(t, c.CancelRequest("k"))

	err := <-errCh
	require.ErrorIs(t, err, context.Canceled)

	// No pending request left to cancel
	require.False(t, c.CancelRequest("k"))
}

func TestCancelRequestKeepsCachedValue(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	c := newTestCoordinator(t, clock)

	_, err := c.Fetch(context.Background(), "k", coordinator.Options{CacheTTL: time.Minute}, func(ctx context.Context) (string, error) {
		return "cached", nil
	})
	require.NoError(t, err)

	c.CancelRequest("k")

	value, err := c.Fetch(context.Background(), "k", coordinator.Options{CacheTTL: time.Minute}, func(ctx context.Context) (string, error) {
		t.Fatal("should be served from cache")
		return "", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "cached", value)
}

func TestFetchDebounce(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	c := newTestCoordinator(t, clock)

	var upstreamCalls atomic.Int64
	fetchFn := func(ctx context.Context) (string, error) {
		upstreamCalls.Add(1)
		return "debounced-value", nil
	}

	opts := coordinator.Options{
		CacheTTL: time.Minute,
		Debounce: 50 * time.Millisecond,
	}

	const callers = 5
	results := make([]string, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		i := i
		go func() {
			defer wg.Done()
			results[i], errs[i] = c.Fetch(context.Background(), "search:richmond", opts, fetchFn)
		}()
	}
	wg.Wait()

	require.EqualValues(t, 1, upstreamCalls.Load(), "burst should collapse into one execution")
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, "debounced-value", results[i])
	}
}

func TestFetchDebounceCallerCancellation(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	c := newTestCoordinator(t, clock)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Fetch(ctx, "search:fitzroy", coordinator.Options{Debounce: time.Hour}, func(ctx context.Context) (string, error) {
		return "", nil
	})
	require.ErrorIs(t, err, context.Canceled)
}
