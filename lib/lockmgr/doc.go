// Package lockmgr implements locks on top of any store.IStore. The shop
// uses them as the single-writer boundary of each table: every
// read-modify-write of a table slot runs while holding the lock of that
// table.
//
// The lock manager only ever stores in the provided IStore and has no other
// internal state. It is therefore safe to create several of them on the same
// store.
//
// Implementation Approach:
//
//   - Lock Acquisition: AcquireLock creates the key with SetEIfUnset, which
//     guarantees that only one requester can create it. The value is a
//     random owner ID (UUID v4).
//
//   - Lock Verification: A Get after the SetEIfUnset confirms the stored
//     value is our owner ID.
//
//   - Waiting: Lock repeats AcquireLock with exponential backoff (lib/retry)
//     until it succeeds or the context is done.
//
//   - Timeouts: A lock can carry a timeout (deleteIn, counted in store write
//     operations) so a crashed holder can not block a table forever.
//
//   - Safe Release: ReleaseLock compares owner IDs before deleting the key.
//
//   - Multiple Locks: WithLocks takes several locks in sorted key order and
//     releases them in reverse order.
//
// Usage Example:
//
//	locks := lockmgr.NewLockManager(lstore.NewLocalStore(factory))
//	err := lockmgr.WithLocks(ctx, locks, []string{"lock:orders", "lock:products"}, 1000, func() error {
//		// read-modify-write both tables
//		return nil
//	})
package lockmgr
