package ratelimiting_test

import (
	"context"
	"testing"
	"time"

	"github.com/pumpwatch/pumpwatch/internal/ratelimiting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedWindowLimiterCheck(t *testing.T) {
	t.Parallel()

	t.Run("11th request in a window is denied", func(t *testing.T) {
		t.Parallel()

		now := time.Unix(1000, 0)
		limiter := ratelimiting.NewFixedWindowLimiter(func() time.Time { return now }, time.After)

		for i := 0; i < 10; i++ {
			result := limiter.Check("fuelapi", 10, time.Minute)
			require.True(t, result.Allowed, "request %d should be allowed", i+1)
			require.Equal(t, 9-i, result.Remaining)
		}

		result := limiter.Check("fuelapi", 10, time.Minute)
		require.False(t, result.Allowed)
		require.Equal(t, 0, result.Remaining)
		require.Equal(t, time.Unix(1060, 0), result.ResetTime)
	})

	t.Run("window elapse resets the counter", func(t *testing.T) {
		t.Parallel()

		now := time.Unix(1000, 0)
		limiter := ratelimiting.NewFixedWindowLimiter(func() time.Time { return now }, time.After)

		for i := 0; i < 11; i++ {
			limiter.Check("fuelapi", 10, time.Minute)
		}
		require.False(t, limiter.Check("fuelapi", 10, time.Minute).Allowed)

		now = now.Add(time.Minute)

		result := limiter.Check("fuelapi", 10, time.Minute)
		require.True(t, result.Allowed)
		require.Equal(t, 9, result.Remaining)
		require.Equal(t, now.Add(time.Minute), result.ResetTime)
	})

	t.Run("keys are tracked independently", func(t *testing.T) {
		t.Parallel()

		now := time.Unix(1000, 0)
		limiter := ratelimiting.NewFixedWindowLimiter(func() time.Time { return now }, time.After)

		require.True(t, limiter.Check("a", 1, time.Minute).Allowed)
		require.False(t, limiter.Check("a", 1, time.Minute).Allowed)

		require.True(t, limiter.Check("b", 1, time.Minute).Allowed)
	})
}

func TestFixedWindowLimiterWaitForReset(t *testing.T) {
	t.Parallel()

	t.Run("returns immediately when reset has passed", func(t *testing.T) {
		t.Parallel()

		now := time.Unix(1000, 0)
		afterFunc := func(time.Duration) <-chan time.Time {
			t.Fatal("afterFunc should not be called")
			return nil
		}
		limiter := ratelimiting.NewFixedWindowLimiter(func() time.Time { return now }, afterFunc)

		err := limiter.WaitForReset(context.Background(), now.Add(-time.Second))
		require.NoError(t, err)
	})

	t.Run("waits for the computed duration", func(t *testing.T) {
		t.Parallel()

		now := time.Unix(1000, 0)
		var waited time.Duration
		afterFunc := func(d time.Duration) <-chan time.Time {
			waited = d
			ch := make(chan time.Time, 1)
			ch <- now.Add(d)
			return ch
		}
		limiter := ratelimiting.NewFixedWindowLimiter(func() time.Time { return now }, afterFunc)

		err := limiter.WaitForReset(context.Background(), now.Add(30*time.Second))
		require.NoError(t, err)
		assert.Equal(t, 30*time.Second, waited)
	})

	t.Run("honors context cancellation", func(t *testing.T) {
		t.Parallel()

		now := time.Unix(1000, 0)
		afterFunc := func(d time.Duration) <-chan time.Time {
			return make(chan time.Time)
		}
		limiter := ratelimiting.NewFixedWindowLimiter(func() time.Time { return now }, afterFunc)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := limiter.WaitForReset(ctx, now.Add(time.Minute))
		require.ErrorIs(t, err, context.Canceled)
	})
}
