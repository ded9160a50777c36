// Package maple implements the in-memory db.KVDB engine that holds the shop
// tables, the store settings and the table locks.
//
// Key Components:
//
//   - mapleImpl: The engine. It owns the shards, the logical clock (write
//     index) and the garbage collector. The clock is advanced by the caller
//     through the writeIndex argument of every write, so the engine can be
//     driven by a plain atomic counter (see lstore) or any other monotonic
//     source.
//
//   - Shard: A partition of the key space. Each shard holds an xsync.MapOf
//     with the entries and two util.MapHeap queues with the pending expiry
//     and deletion deadlines of its keys.
//
//   - Entry: Value plus metadata (expiry index, deletion index and the index
//     of the last write).
//
// Internal Mechanisms:
//
//   - Sharding: A key is hashed with HashString and a per-engine seed, the
//     hash is shifted right by 7 bits and reduced modulo the shard count.
//
//   - Time-based Operations: Expiry and deletion offsets are relative to the
//     write index of the call. Expired entries return false for Get but true
//     for Has. Deleted entries return false for both. Get and Has check the
//     deadlines themselves, so results never depend on GC progress.
//
//   - Stale Write Prevention: A write is applied only if its index is greater
//     than or equal to the index stored with the entry.
//
//   - Conditional Writes: SetEIfUnset only writes when the key is absent or
//     logically deleted. The lock manager builds its table locks on this.
//
//   - Deadline Tracking: Deadlines are scheduled inside the atomic map
//     update of the key, so the heaps always agree with the stored entry.
//
//   - Persistence Format: A compact little endian binary format:
//     1. Magic number "MAPLEDB\x00"
//     2. Version number (currently 4)
//     3. Write index at the time of the snapshot
//     4. Number of entries
//     5. For each entry: key length, key, deletion index, expiry index,
//     write index, value length, value bytes
//     Snapshots are fuzzy per key. Callers that need a consistent cut
//     must stop writers first, lstore does this with its write lock.
//     Load replaces the contents only after the whole snapshot was parsed.
//
// Garbage Collection:
//
// A single goroutine wakes up every GCInterval, pops the due deadlines of
// each shard and frees expired values or removes deleted keys. Each popped
// key is re-checked under the map lock because it may have been rewritten
// after its deadline was scheduled. Close stops the collector.
package maple
