package testsupport

import (
	"context"
	"sync"
	"time"
)

// FakeClock is a manually driven utils.Clock. Sleep advances the clock instantly.
type FakeClock struct {
	mutex      sync.Mutex
	now        time.Time
	sleepCount int
	sleepHook  func(sleepCount int)
}

// NewFakeClock constructs a clock positioned at start.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now reports the simulated time.
func (clock *FakeClock) Now() time.Time {
	clock.mutex.Lock()
	defer clock.mutex.Unlock()
	return clock.now
}

// Advance moves the clock forward.
func (clock *FakeClock) Advance(duration time.Duration) {
	clock.mutex.Lock()
	defer clock.mutex.Unlock()
	clock.now = clock.now.Add(duration)
}

// OnSleep registers a hook invoked after every Sleep advanced the clock. The hook receives the 1-based sleep count.
func (clock *FakeClock) OnSleep(hook func(sleepCount int)) {
	clock.mutex.Lock()
	defer clock.mutex.Unlock()
	clock.sleepHook = hook
}

// SleepCount reports how many sleeps advanced the clock.
func (clock *FakeClock) SleepCount() int {
	clock.mutex.Lock()
	defer clock.mutex.Unlock()
	return clock.sleepCount
}

// Sleep advances the clock by duration unless the context is already done.
func (clock *FakeClock) Sleep(sleepContext context.Context, duration time.Duration) error {
	if sleepContext == nil {
		sleepContext = context.Background()
	}
	if contextError := sleepContext.Err(); contextError != nil {
		return contextError
	}

	clock.mutex.Lock()
	clock.now = clock.now.Add(duration)
	clock.sleepCount++
	sleepCount := clock.sleepCount
	hook := clock.sleepHook
	clock.mutex.Unlock()

	if hook != nil {
		hook(sleepCount)
	}
	return sleepContext.Err()
}
