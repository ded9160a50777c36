package lockmgr

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

const (
	defaultWaitDelay = 2 * time.Millisecond
	maxWaitDelay     = 50 * time.Millisecond
)

// generateOwnerID creates a new random owner ID.
func generateOwnerID() ([]byte, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}
	return id[:], nil
}

func isLockHeld(err error) bool {
	return errors.Is(err, ErrLockHeld)
}

// WithLocks acquires the locks for all keys (sorted, so concurrent callers
// never deadlock), runs fn and releases the locks in reverse order.
func WithLocks(ctx context.Context, lm ILockManager, keys []string, timeout uint64, fn func() error) (err error) {
	sorted := slices.Clone(keys)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	owners := make([][]byte, 0, len(sorted))
	defer func() {
		for i := len(owners) - 1; i >= 0; i-- {
			ok, relErr := lm.ReleaseLock(sorted[i], owners[i])
			if relErr != nil {
				err = errors.Join(err, relErr)
			} else if !ok {
				// the timeout elapsed and someone else took the lock
				err = errors.Join(err, fmt.Errorf("lock %s expired before release", sorted[i]))
			}
		}
	}()

	for _, key := range sorted {
		ownerID, lockErr := lm.Lock(ctx, key, timeout)
		if lockErr != nil {
			return lockErr
		}
		owners = append(owners, ownerID)
	}

	return fn()
}
