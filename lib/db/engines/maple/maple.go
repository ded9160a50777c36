package maple

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/dShop/lib/db"
	"github.com/ValentinKolb/dShop/lib/db/engines/maple/internal"
	"github.com/ValentinKolb/dShop/lib/db/util"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	magicNum          = "MAPLEDB\x00"          // File format identifier
	mapleVersion      = 4                      // Snapshot format version (4 = string keys)
	maxKeyLen         = 1<<16 - 1              // Keys are length prefixed with an uint16
	defaultGCInterval = 100 * time.Millisecond // Default interval between GC runs
)

// --------------------------------------------------------------------------
// Core Maple database structure
// --------------------------------------------------------------------------

// mapleImpl is a sharded in-memory engine
type mapleImpl struct {
	seed      uint64            // seed for shard selection
	shards    []*internal.Shard // partitions of the key space
	currIndex atomic.Uint64     // logical clock

	// garbage collection
	gcInterval time.Duration
	gcMu       sync.Mutex
	gcStop     chan struct{}
	gcDone     chan struct{}
}

// DBOptions configures the engine
type DBOptions struct {
	NumShards  int           // Number of shards (0 = number of CPUs)
	GCInterval time.Duration // Time between GC runs (0 = default)
}

// DefaultOptions returns the default engine options
func DefaultOptions() *DBOptions {
	return &DBOptions{
		NumShards:  runtime.NumCPU(),
		GCInterval: defaultGCInterval,
	}
}

// --------------------------------------------------------------------------
// Initialization and Setup
// --------------------------------------------------------------------------

// NewMapleDB creates a new engine with the given options (nil = defaults)
// and starts its garbage collector. Call Close to stop it.
func NewMapleDB(opts *DBOptions) db.KVDB {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.NumShards <= 0 {
		opts.NumShards = runtime.NumCPU()
	}
	if opts.GCInterval <= 0 {
		opts.GCInterval = defaultGCInterval
	}

	maple := &mapleImpl{
		seed:       util.GenerateSeed(),
		shards:     newShards(opts.NumShards),
		gcInterval: opts.GCInterval,
	}
	maple.startGC()

	return maple
}

func newShards(n int) []*internal.Shard {
	shards := make([]*internal.Shard, n)
	for i := range shards {
		shards[i] = internal.NewShard()
	}
	return shards
}

func (maple *mapleImpl) shard(key string) *internal.Shard {
	return maple.shards[util.ShardIndex(key, maple.seed, len(maple.shards))]
}

// --------------------------------------------------------------------------
// Write Operations
// --------------------------------------------------------------------------

// Set inserts or overwrites the value of key.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) Set(key string, value []byte, writeIndex uint64) {
	maple.compute(key, value, writeIndex, 0, 0, func(next, _ internal.Entry, _ bool) (internal.Entry, bool) {
		return next, false
	})
}

// SetE inserts or overwrites the value of key with expiry and deletion offsets
// relative to writeIndex (0 = never).
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) SetE(key string, value []byte, writeIndex uint64, expireIn, deleteIn uint64) {
	maple.compute(key, value, writeIndex, expireIn, deleteIn, func(next, _ internal.Entry, _ bool) (internal.Entry, bool) {
		return next, false
	})
}

// SetEIfUnset inserts key only if it does not exist (logically deleted keys
// count as absent, expired keys do not).
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) SetEIfUnset(key string, value []byte, writeIndex uint64, expireIn, deleteIn uint64) {
	maple.compute(key, value, writeIndex, expireIn, deleteIn, func(next, old internal.Entry, loaded bool) (internal.Entry, bool) {
		if loaded {
			return old, false
		}
		return next, false
	})
}

// Expire drops the value of key, the key stays visible to Has.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) Expire(key string, writeIndex uint64) {
	maple.compute(key, nil, writeIndex, 0, 0, func(_, old internal.Entry, loaded bool) (internal.Entry, bool) {
		if !loaded {
			return old, true
		}
		old.Value = nil
		old.ExpireAt = writeIndex
		old.Index = writeIndex
		return old, false
	})
}

// Delete removes key. Absent keys are ignored.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) Delete(key string, writeIndex uint64) {
	maple.compute(key, nil, writeIndex, 0, 0, func(_, _ internal.Entry, _ bool) (internal.Entry, bool) {
		return internal.Entry{}, true
	})
}

// compute is the single write path. It applies fn atomically for key unless
// the write is stale (older than the stored entry), and keeps the GC deadlines
// of the shard in sync with the resulting entry.
//
// fn receives the proposed entry, the old entry and whether the old entry is
// logically present. It returns the entry to store or true to delete the key.
func (maple *mapleImpl) compute(key string, value []byte, writeIndex uint64, expireIn, deleteIn uint64, fn func(next, old internal.Entry, loaded bool) (internal.Entry, bool)) {
	maple.SetWriteIdx(writeIndex)

	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	next := internal.Entry{Value: valueCopy, Index: writeIndex}
	if expireIn > 0 {
		next.ExpireAt = writeIndex + expireIn
	}
	if deleteIn > 0 {
		next.DeleteAt = writeIndex + deleteIn
	}

	shard := maple.shard(key)
	shard.Data.Compute(key, func(old internal.Entry, exists bool) (internal.Entry, bool) {
		if exists && writeIndex < old.Index {
			// stale write
			return old, false
		}

		loaded := exists
		if exists {
			expired, deleted := old.TTLInfo(writeIndex)
			loaded = !deleted
			if expired {
				old.Value = nil
			}
		}

		entry, del := fn(next, old, loaded)
		if del {
			if exists {
				shard.Untrack(key)
			}
			return old, true
		}

		if entry.ExpireAt != 0 || entry.DeleteAt != 0 || exists {
			shard.Track(key, entry)
		}
		return entry, false
	})
}

// --------------------------------------------------------------------------
// Read Operations
// --------------------------------------------------------------------------

// Get returns a copy of the live value of key.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) Get(key string) ([]byte, bool) {
	entry, ok := maple.shard(key).Data.Load(key)
	if !ok {
		return nil, false
	}
	if expired, _ := entry.TTLInfo(maple.currIndex.Load()); expired || entry.Value == nil {
		return nil, false
	}

	data := make([]byte, len(entry.Value))
	copy(data, entry.Value)
	return data, true
}

// Has reports whether key exists, expired values included.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) Has(key string) bool {
	entry, ok := maple.shard(key).Data.Load(key)
	if !ok {
		return false
	}
	_, deleted := entry.TTLInfo(maple.currIndex.Load())
	return !deleted
}

// Keys returns the sorted keys with the given prefix that are not deleted.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
// Keys written during the call may or may not be included.
func (maple *mapleImpl) Keys(prefix string) []string {
	idx := maple.currIndex.Load()
	keys := make([]string, 0)
	for _, shard := range maple.shards {
		shard.Data.Range(func(key string, entry internal.Entry) bool {
			if !strings.HasPrefix(key, prefix) {
				return true
			}
			if _, deleted := entry.TTLInfo(idx); !deleted {
				keys = append(keys, key)
			}
			return true
		})
	}
	sort.Strings(keys)
	return keys
}

// --------------------------------------------------------------------------
// Garbage Collection
// --------------------------------------------------------------------------

// startGC starts the collector if it is not running.
func (maple *mapleImpl) startGC() {
	maple.gcMu.Lock()
	defer maple.gcMu.Unlock()

	if maple.gcStop != nil {
		return
	}
	maple.gcStop = make(chan struct{})
	maple.gcDone = make(chan struct{})
	go maple.garbageCollector(maple.gcStop, maple.gcDone)
}

// stopGC stops the collector and waits until it has exited.
func (maple *mapleImpl) stopGC() {
	maple.gcMu.Lock()
	defer maple.gcMu.Unlock()

	if maple.gcStop == nil {
		return
	}
	close(maple.gcStop)
	<-maple.gcDone
	maple.gcStop, maple.gcDone = nil, nil
}

// garbageCollector frees expired values and removes deleted keys once
// their deadline index has been reached. It only touches an entry after
// re-checking it, since the entry may have been rewritten after its
// deadline was popped.
func (maple *mapleImpl) garbageCollector(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(maple.gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		// read once per cycle so a busy writer can not keep the loop going
		writeIndex := maple.currIndex.Load()

		for _, shard := range maple.shards {
			expired, deleted := shard.Due(writeIndex)

			for _, key := range expired {
				shard.Data.Compute(key, func(e internal.Entry, loaded bool) (internal.Entry, bool) {
					if !loaded {
						return e, true
					}
					if isExpired, _ := e.TTLInfo(writeIndex); isExpired {
						e.Value = nil
					}
					return e, false
				})
			}

			for _, key := range deleted {
				shard.Data.Compute(key, func(e internal.Entry, loaded bool) (internal.Entry, bool) {
					if !loaded {
						return e, true
					}
					_, isDeleted := e.TTLInfo(writeIndex)
					return e, isDeleted
				})
			}
		}
	}
}

// --------------------------------------------------------------------------
// Persistence Operations
// --------------------------------------------------------------------------

type snapshotEntry struct {
	key   string
	entry internal.Entry
}

// Save writes a snapshot of all keys that are not deleted.
//
// Layout (little endian):
//
//	magic[8] version:u8 writeIndex:u64 count:u64
//	count * ( keyLen:u16 key deleteAt:u64 expireAt:u64 index:u64 valueLen:u32 value )
//
// Thread-safety: writes may run concurrently, the snapshot is fuzzy per key.
func (maple *mapleImpl) Save(w io.Writer) error {
	bw := bufio.NewWriterSize(w, 64*1024)
	writeIndex := maple.currIndex.Load()

	var entries []snapshotEntry
	for _, shard := range maple.shards {
		shard.Data.Range(func(key string, entry internal.Entry) bool {
			if _, deleted := entry.TTLInfo(writeIndex); deleted {
				return true
			}
			value := make([]byte, len(entry.Value))
			copy(value, entry.Value)
			entry.Value = value
			entries = append(entries, snapshotEntry{key: key, entry: entry})
			return true
		})
	}
	// deterministic output
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	if _, err := bw.WriteString(magicNum); err != nil {
		return err
	}
	header := []any{uint8(mapleVersion), writeIndex, uint64(len(entries))}
	for _, v := range header {
		if err := binary.Write(bw, binary.LittleEndian, v); err != nil {
			return err
		}
	}

	for _, item := range entries {
		if len(item.key) > maxKeyLen {
			return fmt.Errorf("key too long for snapshot: %d bytes", len(item.key))
		}
		if err := binary.Write(bw, binary.LittleEndian, uint16(len(item.key))); err != nil {
			return err
		}
		if _, err := bw.WriteString(item.key); err != nil {
			return err
		}
		fields := []any{item.entry.DeleteAt, item.entry.ExpireAt, item.entry.Index, uint32(len(item.entry.Value))}
		for _, v := range fields {
			if err := binary.Write(bw, binary.LittleEndian, v); err != nil {
				return err
			}
		}
		if _, err := bw.Write(item.entry.Value); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// Load replaces the engine contents with the snapshot read from r.
// On error the previous contents are kept.
//
// Thread-safety: Load must not run concurrently with any other method.
func (maple *mapleImpl) Load(r io.Reader) error {
	br := bufio.NewReaderSize(r, 64*1024)

	magic := make([]byte, len(magicNum))
	if _, err := io.ReadFull(br, magic); err != nil {
		return fmt.Errorf("read magic number: %w", err)
	}
	if string(magic) != magicNum {
		return fmt.Errorf("invalid file format: magic number mismatch")
	}

	var version uint8
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return err
	}
	if version != mapleVersion {
		return fmt.Errorf("unsupported version: %d (expected %d)", version, mapleVersion)
	}

	var writeIndex, count uint64
	if err := binary.Read(br, binary.LittleEndian, &writeIndex); err != nil {
		return err
	}
	if err := binary.Read(br, binary.LittleEndian, &count); err != nil {
		return err
	}

	shards := newShards(len(maple.shards))
	for i := uint64(0); i < count; i++ {
		var keyLen uint16
		if err := binary.Read(br, binary.LittleEndian, &keyLen); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		key := make([]byte, keyLen)
		if _, err := io.ReadFull(br, key); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}

		var (
			entry    internal.Entry
			valueLen uint32
		)
		for _, v := range []any{&entry.DeleteAt, &entry.ExpireAt, &entry.Index, &valueLen} {
			if err := binary.Read(br, binary.LittleEndian, v); err != nil {
				return fmt.Errorf("entry %d: %w", i, err)
			}
		}
		entry.Value = make([]byte, valueLen)
		if _, err := io.ReadFull(br, entry.Value); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		if entry.Index > writeIndex {
			writeIndex = entry.Index
		}

		shard := shards[util.ShardIndex(string(key), maple.seed, len(shards))]
		shard.Data.Store(string(key), entry)
		shard.Track(string(key), entry)
	}

	maple.stopGC()
	maple.shards = shards
	maple.currIndex.Store(0)
	maple.SetWriteIdx(writeIndex)
	maple.startGC()

	return nil
}

// --------------------------------------------------------------------------
// Features and Metadata
// --------------------------------------------------------------------------

const supportedFeatures = db.FeatureSet |
	db.FeatureSetE |
	db.FeatureSetEIfUnset |
	db.FeatureGet |
	db.FeatureExpire |
	db.FeatureDelete |
	db.FeatureHas |
	db.FeatureKeys |
	db.FeatureSave |
	db.FeatureLoad |
	db.FeatureGarbageCollect

// Metadata is the engine specific part of db.DatabaseInfo
type Metadata struct {
	CurrentWriteIndex uint64       `json:"current_write_index"`
	ShardCount        int          `json:"shard_count"`
	ShardSizes        []int        `json:"shard_sizes"`
	Balance           util.Balance `json:"balance"`
	ExpiredEntries    int          `json:"expired_entries"`
	PendingDeadlines  int          `json:"pending_deadlines"`
}

// GetInfo counts live entries and their payload size.
func (maple *mapleImpl) GetInfo() db.DatabaseInfo {
	writeIndex := maple.currIndex.Load()

	var (
		entries, size, expired, pending int
		shardSizes                      = make([]int, len(maple.shards))
	)
	for i, shard := range maple.shards {
		shard.Data.Range(func(key string, entry internal.Entry) bool {
			isExpired, isDeleted := entry.TTLInfo(writeIndex)
			switch {
			case isDeleted:
			case isExpired:
				expired++
			default:
				entries++
				size += len(key) + len(entry.Value)
			}
			return true
		})
		shardSizes[i] = shard.Data.Size()
		pending += shard.Pending()
	}

	features := make([]db.Feature, 0)
	for f := db.FeatureSet; f <= db.FeatureGarbageCollect; f <<= 1 {
		if supportedFeatures&f != 0 {
			features = append(features, f)
		}
	}

	return db.DatabaseInfo{
		Entries:           entries,
		SizeBytes:         size,
		DbType:            db.ImplMaple,
		SupportedFeatures: features,
		Metadata: &Metadata{
			CurrentWriteIndex: writeIndex,
			ShardCount:        len(maple.shards),
			ShardSizes:        shardSizes,
			Balance:           util.NewBalance(shardSizes),
			ExpiredEntries:    expired,
			PendingDeadlines:  pending,
		},
	}
}

// SupportsFeature reports whether all given features are supported.
func (maple *mapleImpl) SupportsFeature(feature db.Feature) bool {
	return supportedFeatures&feature == feature
}

// Close stops the garbage collector.
func (maple *mapleImpl) Close() error {
	maple.stopGC()
	return nil
}

// --------------------------------------------------------------------------
// Write Index
// --------------------------------------------------------------------------

// SetWriteIdx advances the clock, lower values are ignored.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) SetWriteIdx(newIdx uint64) {
	for {
		currIdx := maple.currIndex.Load()
		if newIdx <= currIdx {
			return
		}
		if maple.currIndex.CompareAndSwap(currIdx, newIdx) {
			return
		}
	}
}

// WriteIdx returns the current clock.
func (maple *mapleImpl) WriteIdx() uint64 {
	return maple.currIndex.Load()
}
