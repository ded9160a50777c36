// Package db defines the storage engine contract used underneath the dShop
// store layer.
//
// A KVDB is a flat map from slot names to opaque byte payloads. The shop
// keeps one slot per table (the encoded record sequence) plus one slot for
// the store settings, so the engine never needs to understand records.
//
// Key Components:
//
//   - KVDB Interface: writes (Set, SetE, SetEIfUnset, Expire, Delete),
//     reads (Get, Has, Keys), snapshot persistence (Save, Load) and
//     capability discovery (SupportsFeature, GetInfo).
//
//   - Feature Flags: implementations advertise what they support so the
//     store facade can reject unsupported calls with a typed error instead
//     of misbehaving.
//
//   - DatabaseInfo: entry count, payload size and engine specific metadata,
//     printed by `dshop stats`.
//
// Note on the write index:
//
//	Every write carries a monotonically increasing write index. It orders
//	writes (a write with an older index than the stored entry is ignored)
//	and acts as the clock for expiry and deletion. The lock manager relies
//	on this to let abandoned table locks lapse after a number of writes.
//	Reads always evaluate expiry against the latest index seen.
//
// Related Packages:
//
//   - engines/maple: the sharded in-memory engine with binary snapshots.
//   - testing: RunKVDBTests, the conformance suite every engine must pass.
//   - util: hashing and the deadline heap used by the maple GC.
package db
