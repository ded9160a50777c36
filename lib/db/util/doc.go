// Package util contains helpers shared by KVDB engines:
//
//   - functions: seed generation, FNV-1a hashing and shard selection
//   - mapheap: a deadline min-heap keyed by slot name, used by the maple
//     garbage collector to find entries whose expiry or deletion index
//     has been reached
//   - statistics: the shard balance reported in the maple metadata
package util
