package lockmgr

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ValentinKolb/dShop/lib/retry"
	"github.com/ValentinKolb/dShop/lib/store"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("store")

type lockMgrImpl struct {
	store store.IStore
	wait  retry.Config
}

// NewLockManager creates a lock manager on top of s. Lock retries until its
// context is done.
func NewLockManager(s store.IStore) ILockManager {
	return &lockMgrImpl{
		store: s,
		wait: retry.Config{
			MaxAttempts: -1,
			Backoff:     retry.ExponentialBackoff(defaultWaitDelay),
			MaxDelay:    maxWaitDelay,
			ShouldRetry: isLockHeld,
		},
	}
}

func (lm *lockMgrImpl) AcquireLock(key string, timeout uint64) (bool, []byte, error) {
	ownerID, err := generateOwnerID()
	if err != nil {
		return false, nil, err
	}

	// only one caller can create the key (atomic CAS operation)
	if err := lm.store.SetEIfUnset(key, ownerID, 0, timeout); err != nil {
		log.Errorf("set lock %s: %v", key, err)
		return false, nil, err
	}

	value, found, err := lm.store.Get(key)
	if err != nil {
		return false, nil, err
	}

	if found && bytes.Equal(value, ownerID) {
		return true, ownerID, nil
	}
	return false, nil, nil
}

func (lm *lockMgrImpl) Lock(ctx context.Context, key string, timeout uint64) ([]byte, error) {
	ownerID, err := retry.DoWithResult(ctx, lm.wait, func() ([]byte, error) {
		ok, ownerID, err := lm.AcquireLock(key, timeout)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrLockHeld
		}
		return ownerID, nil
	})
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", key, err)
	}
	return ownerID, nil
}

func (lm *lockMgrImpl) ReleaseLock(key string, ownerID []byte) (bool, error) {
	value, ok, err := lm.store.Get(key)
	if err != nil || !ok {
		return err == nil, err
	}

	if !bytes.Equal(ownerID, value) {
		return false, nil
	}

	err = lm.store.Delete(key)
	return err == nil, err
}
