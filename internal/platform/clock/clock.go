// Package clock is the time source for capture loops
// Production code uses System; tests run the same code inside a testing/synctest bubble
package clock

import (
	"context"
	"time"
)

// Clock reads the time and sleeps in a cancellable way
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// System is the wall clock
type System struct{}

// Now returns time.Now
func (System) Now() time.Time { return time.Now() }

// Sleep blocks for d or until ctx is done, returning ctx.Err() in the latter case
func (System) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Or returns c, or System when c is nil
func Or(c Clock) Clock {
	if c == nil {
		return System{}
	}
	return c
}

// Since is c.Now().Sub(t)
func Since(c Clock, t time.Time) time.Duration { return c.Now().Sub(t) }
