// Package store provides the key-value interface the shop tables are built on.
// It sits on top of a db.KVDB engine and adds write index management, key
// listing, durability hooks and typed error reporting.
//
// Key Components:
//
//   - IStore Interface: Set, SetE, SetEIfUnset, Expire, Delete, Get, Has and
//     Keys plus Flush and Close for durable implementations. Callers never see
//     write indices; the store assigns them.
//
//   - Error System: Failures are reported as *Error values carrying a RetCode
//     (unsupported operation, I/O error, closed store, ...). Error implements
//     Is, so errors.Is can match on the code alone.
//
//   - DBFactory: Injects the db.KVDB engine used by an implementation.
//
// Implementations:
//
//   - Local Store (lstore): A single process store driving a db.KVDB with an
//     atomic write index. It can load and write a snapshot file through an
//     afero filesystem, which is how the shop state survives restarts.
//     Available in the "github.com/ValentinKolb/dShop/lib/store/lstore" package.
package store
