package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTemporary = errors.New("temporary")

func TestDoWithResult(t *testing.T) {
	t.Run("succeeds after retries", func(t *testing.T) {
		calls := 0
		got, err := DoWithResult(context.Background(), Config{
			MaxAttempts: 5,
			Backoff:     LinearBackoff(time.Millisecond),
		}, func() (int, error) {
			calls++
			if calls < 3 {
				return 0, errTemporary
			}
			return 42, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 42, got)
		assert.Equal(t, 3, calls)
	})

	t.Run("returns last error when attempts are used up", func(t *testing.T) {
		calls := 0
		_, err := DoWithResult(context.Background(), Config{
			MaxAttempts: 3,
			Backoff:     LinearBackoff(time.Millisecond),
		}, func() (int, error) {
			calls++
			return 0, errTemporary
		})
		assert.ErrorIs(t, err, errTemporary)
		assert.Equal(t, 3, calls)
	})

	t.Run("does not retry rejected errors", func(t *testing.T) {
		permanent := errors.New("permanent")
		calls := 0
		err := Do(context.Background(), Config{
			MaxAttempts: 5,
			ShouldRetry: func(err error) bool { return errors.Is(err, errTemporary) },
		}, func() error {
			calls++
			return permanent
		})
		assert.ErrorIs(t, err, permanent)
		assert.Equal(t, 1, calls)
	})

	t.Run("stops when the context is done", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		err := Do(ctx, Config{
			MaxAttempts: -1,
			Backoff:     LinearBackoff(time.Millisecond),
		}, func() error {
			return errTemporary
		})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.ErrorIs(t, err, errTemporary)
	})

	t.Run("cancelled context is checked first", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		called := false
		err := Do(ctx, Config{}, func() error {
			called = true
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, called)
	})
}

func TestExponentialBackoff(t *testing.T) {
	backoff := ExponentialBackoff(10 * time.Millisecond)

	tests := []struct {
		attempt int
		min     time.Duration
		max     time.Duration
	}{
		{1, 10 * time.Millisecond, 15 * time.Millisecond},
		{2, 20 * time.Millisecond, 30 * time.Millisecond},
		{4, 80 * time.Millisecond, 120 * time.Millisecond},
	}
	for _, tt := range tests {
		got := backoff(tt.attempt)
		assert.GreaterOrEqual(t, got, tt.min, "attempt %d", tt.attempt)
		assert.LessOrEqual(t, got, tt.max, "attempt %d", tt.attempt)
	}

	// huge attempts must not overflow into negative waits
	assert.Greater(t, backoff(1000), time.Duration(0))
}
