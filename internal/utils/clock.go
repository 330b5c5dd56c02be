package utils

import (
	"context"
	"time"
)

// Clock supplies wall-clock readings and context-aware sleeping.
type Clock interface {
	// Now reports the current time.
	Now() time.Time
	// Sleep blocks for the provided duration or until the context is done, returning the context error in the latter case.
	Sleep(sleepContext context.Context, duration time.Duration) error
}

// SystemClock implements Clock using the time package.
type SystemClock struct{}

// NewSystemClock constructs a clock backed by the operating system.
func NewSystemClock() SystemClock {
	return SystemClock{}
}

// Now reports the current operating system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Sleep waits for the duration using a timer that is released when the context finishes first.
func (SystemClock) Sleep(sleepContext context.Context, duration time.Duration) error {
	if sleepContext == nil {
		sleepContext = context.Background()
	}
	if duration <= 0 {
		return sleepContext.Err()
	}

	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-sleepContext.Done():
		return sleepContext.Err()
	case <-timer.C:
		return nil
	}
}

// ResolveClock returns the provided clock or the system clock when none is supplied.
func ResolveClock(clock Clock) Clock {
	if clock == nil {
		return NewSystemClock()
	}
	return clock
}
