// Package lstore implements a local, single-node key-value store based on the
// store.IStore interface. It is a thin wrapper around any db.KVDB
// implementation with automatic write index management and optional
// snapshot persistence.
//
// Implementation Details:
//
//   - Write Index Management: The store maintains an atomic counter that
//     increments with each write operation. It is the logical clock for the
//     expiry and deletion offsets of SetE and SetEIfUnset. After loading a
//     snapshot the counter resumes at the write index stored in it.
//
//   - Feature Detection: Before executing an operation the store checks
//     db.KVDB.SupportsFeature and returns RetCUnsupportedOperation instead of
//     calling into the engine.
//
//   - Snapshots: OpenLocalStore loads the snapshot file (if any) through an
//     afero filesystem. Flush writes a new snapshot to "<path>.tmp" and
//     renames it over the old one. Writes share a read lock, Flush takes the
//     write lock, so every snapshot is a consistent cut. With SyncWrites set,
//     every write is followed by a Flush. Close always flushes.
//
// Usage Example:
//
//	factory := func() db.KVDB { return maple.NewMapleDB(nil) }
//	s, err := lstore.OpenLocalStore(factory, lstore.Options{Path: "shop.db"})
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
//	err = s.Set("supritec_brands", data)
//	value, exists, err := s.Get("supritec_brands")
//
// NewLocalStore creates a memory only store. The shop uses one for its table
// locks, which must never be persisted.
package lstore
