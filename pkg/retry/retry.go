// Package retry centralizes the retry/backoff policy shared by the queue
// bridge, the worker queues, and outbound provider calls.
package retry

import (
	"context"
	"time"
)

// Policy describes a bounded exponential backoff schedule.
type Policy struct {
	MaxAttempts int           // total attempts including the first
	BaseDelay   time.Duration // delay before the first retry
	Multiplier  float64       // growth factor per retry
}

// Default matches the queue submission policy: three attempts, exponential
// backoff starting at five seconds.
func Default() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: 5 * time.Second, Multiplier: 2}
}

// Allow reports whether another attempt may run after `attempts` completed ones.
func (p Policy) Allow(attempts int) bool {
	return attempts < p.MaxAttempts
}

// Delay returns the backoff before retry number n (1-based).
func (p Policy) Delay(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	d := float64(p.BaseDelay)
	for i := 1; i < n; i++ {
		d *= p.Multiplier
	}
	return time.Duration(d)
}

// Do runs fn up to MaxAttempts times, sleeping the scheduled delay between
// attempts. It returns nil on the first success, the last error otherwise.
func (p Policy) Do(ctx context.Context, fn func(context.Context) error) error {
	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if !p.Allow(attempt) {
			return err
		}
		select {
		case <-time.After(p.Delay(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
