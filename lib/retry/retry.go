package retry

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

const (
	defaultDelay    = 10 * time.Millisecond
	defaultMaxDelay = time.Second
)

// Backoff returns the wait before the next attempt (attempt starts at 1)
type Backoff func(attempt int) time.Duration

// ShouldRetry reports whether fn should be called again after err
type ShouldRetry func(error) bool

// Config controls how often and how fast Do retries.
type Config struct {
	MaxAttempts int           // Number of calls (0 = 1, negative = until the context is done)
	Backoff     Backoff       // Wait between calls (nil = exponential from 10ms)
	MaxDelay    time.Duration // Upper bound of a single wait (0 = 1s)
	ShouldRetry ShouldRetry   // Retry filter (nil = retry every error)
}

func (c *Config) normalize() {
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 1
	}
	if c.Backoff == nil {
		c.Backoff = ExponentialBackoff(defaultDelay)
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = defaultMaxDelay
	}
	if c.ShouldRetry == nil {
		c.ShouldRetry = alwaysRetry
	}
}

func alwaysRetry(error) bool {
	return true
}

// ExponentialBackoff doubles delay with every attempt and adds up to 50% jitter.
func ExponentialBackoff(delay time.Duration) Backoff {
	return func(attempt int) time.Duration {
		if attempt > 30 {
			attempt = 30
		}
		base := delay << (attempt - 1)
		if base <= 1 {
			return base
		}
		return base + time.Duration(rand.Int64N(int64(base/2)+1))
	}
}

// LinearBackoff waits delay between all attempts.
func LinearBackoff(delay time.Duration) Backoff {
	return func(int) time.Duration {
		return delay
	}
}

// Do calls fn until it succeeds, returns an error ShouldRetry rejects, the
// attempts are used up or ctx is done.
func Do(ctx context.Context, c Config, fn func() error) error {
	_, err := DoWithResult(ctx, c, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// DoWithResult is Do for functions returning a value. On failure the error of
// the last attempt is returned, joined with the context error if ctx ended
// the loop.
func DoWithResult[T any](ctx context.Context, c Config, fn func() (T, error)) (T, error) {
	var zero T

	if err := ctx.Err(); err != nil {
		return zero, err
	}

	c.normalize()
	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	var err error
	for attempt := 1; c.MaxAttempts < 0 || attempt <= c.MaxAttempts; attempt++ {
		var result T
		result, err = fn()
		if err == nil {
			return result, nil
		}
		if !c.ShouldRetry(err) {
			return zero, err
		}
		if c.MaxAttempts > 0 && attempt == c.MaxAttempts {
			break
		}

		wait := min(c.Backoff(attempt), c.MaxDelay)
		timer.Reset(wait)
		select {
		case <-ctx.Done():
			return zero, fmt.Errorf("%w: %w", ctx.Err(), err)
		case <-timer.C:
		}
	}

	return zero, err
}
