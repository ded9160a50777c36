package lockmgr

import (
	"context"
	"errors"
)

// ErrLockHeld is returned by Lock when the context ends while another owner
// still holds the lock.
var ErrLockHeld = errors.New("lock is held by another owner")

// ILockManager defines the interface for a lock provider.
type ILockManager interface {
	// AcquireLock tries once to acquire the lock for the given key with an optional timeout
	// (in store write operations, 0 = never).
	// Return a boolean indicating whether the lock was acquired, an owner ID, and an error if any.
	AcquireLock(key string, timeout uint64) (ok bool, ownerID []byte, err error)

	// Lock waits until the lock for key is acquired or ctx is done.
	// If ctx ends first the error wraps ErrLockHeld and the context error.
	Lock(ctx context.Context, key string, timeout uint64) (ownerID []byte, err error)

	// ReleaseLock releases the lock for the given key.
	// Return a boolean indicating whether the lock was released, and an error if any.
	// The method will also return True if the lock did not exist.
	ReleaseLock(key string, ownerID []byte) (ok bool, err error)
}
