package db

import "io"

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

type Implementation string

const (
	ImplMaple Implementation = "maple"
)

// Feature represents engine capabilities as bit flags
type Feature uint64

const (
	FeatureSet            Feature = 1 << iota // Support for Set operations
	FeatureSetE                               // Support for SetE operations
	FeatureSetEIfUnset                        // Support for SetEIfUnset operations
	FeatureGet                                // Support for Get operations
	FeatureExpire                             // Support for Expire operations
	FeatureDelete                             // Support for Delete operations
	FeatureHas                                // Support for Has operations
	FeatureKeys                               // Support for listing keys by prefix
	FeatureSave                               // Support for Save operations
	FeatureLoad                               // Support for Load operations
	FeatureGarbageCollect                     // Support for background removal of expired entries
)

var featureNames = map[Feature]string{
	FeatureSet:            "Set",
	FeatureSetE:           "SetE",
	FeatureSetEIfUnset:    "SetEIfUnset",
	FeatureGet:            "Get",
	FeatureExpire:         "Expire",
	FeatureDelete:         "Delete",
	FeatureHas:            "Has",
	FeatureKeys:           "Keys",
	FeatureSave:           "Save",
	FeatureLoad:           "Load",
	FeatureGarbageCollect: "GarbageCollect",
}

func (f Feature) String() string {
	if name, ok := featureNames[f]; ok {
		return name
	}
	return "Unknown"
}

// DatabaseInfo describes the state of an engine. Counts are exact,
// byte sizes are the sum of stored values and keys.
type DatabaseInfo struct {
	Entries           int            `json:"entries"`
	SizeBytes         int            `json:"size_bytes"`
	DbType            Implementation `json:"db_type"`
	SupportedFeatures []Feature      `json:"supported_features"`
	Metadata          interface{}    `json:"metadata"`
}

// --------------------------------------------------------------------------
// Database Interface
// --------------------------------------------------------------------------

// KVDB is the storage engine underneath a store. Keys are slot names
// (e.g. "supritec_products"), values are opaque encoded payloads.
//
// Every write carries a write index that acts as the logical clock of the
// engine. Expiry and deletion offsets are measured in write indices, not
// wall clock time.
type KVDB interface {

	// --------------------------------------------------------------------------
	// Write Operations
	// --------------------------------------------------------------------------

	// Set inserts or overwrites the value of a key.
	Set(key string, value []byte, writeIndex uint64)

	// SetE inserts or overwrites the value of a key with a time to live.
	// After expireIn indices the value is gone but Has still reports the key,
	// after deleteIn indices the key is gone as well. Zero disables either.
	SetE(key string, value []byte, writeIndex uint64, expireIn, deleteIn uint64)

	// SetEIfUnset behaves like SetE but leaves an existing key untouched.
	SetEIfUnset(key string, value []byte, writeIndex uint64, expireIn, deleteIn uint64)

	// Expire drops the value of a key but keeps the key visible to Has.
	Expire(key string, writeIndex uint64)

	// Delete removes a key. Deleting an absent key is a no-op.
	Delete(key string, writeIndex uint64)

	// --------------------------------------------------------------------------
	// Query Operations
	// --------------------------------------------------------------------------

	// Get returns a copy of the value for a key and whether a live value exists.
	Get(key string) (value []byte, loaded bool)

	// Has reports whether a key exists, including keys whose value expired.
	Has(key string) (loaded bool)

	// Keys returns the sorted live keys starting with prefix.
	Keys(prefix string) (keys []string)

	// --------------------------------------------------------------------------
	// Persistence Operations
	// --------------------------------------------------------------------------

	// Save writes a snapshot of the engine to w.
	Save(w io.Writer) (err error)

	// Load replaces the engine contents with a snapshot read from r.
	Load(r io.Reader) (err error)

	// --------------------------------------------------------------------------
	// Feature Support
	// --------------------------------------------------------------------------

	// SupportsFeature reports whether all given features (OR'ed) are supported.
	SupportsFeature(feature Feature) (ok bool)

	// GetInfo returns information about the engine.
	GetInfo() (info DatabaseInfo)

	// --------------------------------------------------------------------------
	// Write Index Operations
	// --------------------------------------------------------------------------

	// SetWriteIdx advances the logical clock. Lower values are ignored.
	SetWriteIdx(index uint64)

	// WriteIdx returns the current logical clock.
	WriteIdx() (index uint64)

	// Close stops background work of the engine.
	Close() (err error)
}
