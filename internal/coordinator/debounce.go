package coordinator

import (
	"context"
	"time"
)

// debounceTimer is the part of *time.Timer the debouncer uses. The
// constructor is injected on the Coordinator so tests control when the quiet
// period elapses.
type debounceTimer interface {
	Reset(d time.Duration) bool
}

type debounceState[T any] struct {
	timer debounceTimer
	// fired flips once the quiet period has elapsed and the fetch is about
	// to run. Guarded by debounceMutex. After it is set the timer must not
	// be reset: resetting a fired AfterFunc timer schedules a second run.
	fired bool
	done  chan struct{}
	value T
	err   error
}

// debounced collapses bursts of calls for the same key: each new call within
// the window pushes the execution back, and once the quiet period elapses a
// single fetch runs. Every caller in the burst receives its result. A caller
// arriving while the fetch is already in flight joins it rather than
// scheduling another run.
func (c *Coordinator[T]) debounced(ctx context.Context, key string, opts Options, fetchFn func(ctx context.Context) (T, error)) (T, error) {
	c.debounceMutex.Lock()

	state, ok := c.debouncing[key]
	if ok {
		if !state.fired {
			state.timer.Reset(opts.Debounce)
		}
	} else {
		state = &debounceState[T]{
			done: make(chan struct{}),
		}
		c.debouncing[key] = state

		// Detached from the triggering caller: the burst may outlive any
		// individual caller's context.
		fireCtx := context.WithoutCancel(ctx)
		fire := func() {
			c.debounceMutex.Lock()
			if state.fired {
				// A reset raced with the timer firing and scheduled a
				// duplicate run. The first run owns the fetch.
				c.debounceMutex.Unlock()
				return
			}
			state.fired = true
			c.debounceMutex.Unlock()

			state.value, state.err = c.fetch(fireCtx, key, opts, fetchFn)

			c.debounceMutex.Lock()
			delete(c.debouncing, key)
			c.debounceMutex.Unlock()

			close(state.done)
		}
		state.timer = c.newTimer(opts.Debounce, fire)
	}

	c.debounceMutex.Unlock()

	select {
	case <-state.done:
		return state.value, state.err
	case <-ctx.Done():
		var empty T
		return empty, ctx.Err()
	}
}
