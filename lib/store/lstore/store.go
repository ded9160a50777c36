package lstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/ValentinKolb/dShop/lib/db"
	"github.com/ValentinKolb/dShop/lib/store"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/afero"
)

var log = logger.GetLogger("store")

// Options configures the durability of a local store
type Options struct {
	Fs         afero.Fs // Filesystem for the snapshot (nil = OS filesystem)
	Path       string   // Snapshot file ("" = memory only)
	SyncWrites bool     // Write the snapshot after every write operation
}

type storeImpl struct {
	db    db.KVDB
	index atomic.Uint64

	fs         afero.Fs
	path       string
	syncWrites bool

	// writes hold the read lock, Flush holds the write lock so the
	// snapshot is a consistent cut
	mu     sync.RWMutex
	dirty  atomic.Bool
	closed atomic.Bool
}

// NewLocalStore creates a new memory only local store instance.
// This store implementation is not distributed and only works on a single node.
func NewLocalStore(factory store.DBFactory) store.IStore {
	return &storeImpl{
		db: factory(),
	}
}

// OpenLocalStore creates a local store backed by a snapshot file. If the
// file exists it is loaded, otherwise the store starts empty and the file is
// created on the first Flush.
func OpenLocalStore(factory store.DBFactory, opts Options) (store.IStore, error) {
	s := &storeImpl{
		db:         factory(),
		fs:         opts.Fs,
		path:       opts.Path,
		syncWrites: opts.SyncWrites,
	}
	if s.path == "" {
		return s, nil
	}
	if s.fs == nil {
		s.fs = afero.NewOsFs()
	}
	if !s.db.SupportsFeature(db.FeatureSave | db.FeatureLoad) {
		return nil, store.NewError(store.RetCUnsupportedOperation, "snapshots are not supported by the database")
	}

	if err := s.load(); err != nil {
		_ = s.db.Close()
		return nil, err
	}
	return s, nil
}

func (s *storeImpl) load() error {
	f, err := s.fs.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		log.Infof("no snapshot at %s, starting empty", s.path)
		return nil
	}
	if err != nil {
		return store.NewError(store.RetCIOError, fmt.Sprintf("open snapshot %s: %v", s.path, err))
	}
	defer f.Close()

	if err := s.db.Load(f); err != nil {
		return store.NewError(store.RetCIOError, fmt.Sprintf("load snapshot %s: %v", s.path, err))
	}
	s.index.Store(s.db.WriteIdx())
	log.Infof("loaded snapshot %s (write index %d)", s.path, s.index.Load())
	return nil
}

// incAndGetIndex increments the index and returns the new value.
// It is used to ensure that each write operation has a unique index.
//
// Thread-safety: This method is thread-safe since it uses atomic operations.
func (s *storeImpl) incAndGetIndex() uint64 {
	return s.index.Add(1)
}

// write runs op with a fresh write index and flushes afterwards if the store
// syncs writes.
func (s *storeImpl) write(feature db.Feature, name string, op func(idx uint64)) error {
	if s.closed.Load() {
		return store.NewError(store.RetCClosed, name+" on closed store")
	}
	if !s.db.SupportsFeature(feature) {
		return store.NewError(store.RetCUnsupportedOperation, name+" operation is not supported")
	}

	s.mu.RLock()
	op(s.incAndGetIndex())
	s.dirty.Store(true)
	s.mu.RUnlock()

	if s.syncWrites {
		return s.Flush()
	}
	return nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Set(key string, value []byte) error {
	return s.write(db.FeatureSet, "Set", func(idx uint64) {
		s.db.Set(key, value, idx)
	})
}

func (s *storeImpl) SetE(key string, value []byte, expireIn, deleteIn uint64) error {
	return s.write(db.FeatureSetE, "SetE", func(idx uint64) {
		s.db.SetE(key, value, idx, expireIn, deleteIn)
	})
}

func (s *storeImpl) SetEIfUnset(key string, value []byte, expireIn, deleteIn uint64) error {
	return s.write(db.FeatureSetEIfUnset, "SetEIfUnset", func(idx uint64) {
		s.db.SetEIfUnset(key, value, idx, expireIn, deleteIn)
	})
}

func (s *storeImpl) Expire(key string) error {
	return s.write(db.FeatureExpire, "Expire", func(idx uint64) {
		s.db.Expire(key, idx)
	})
}

func (s *storeImpl) Delete(key string) error {
	return s.write(db.FeatureDelete, "Delete", func(idx uint64) {
		s.db.Delete(key, idx)
	})
}

func (s *storeImpl) Get(key string) ([]byte, bool, error) {
	if !s.db.SupportsFeature(db.FeatureGet) {
		return nil, false, store.NewError(store.RetCUnsupportedOperation, "Get operation is not supported")
	}
	val, ok := s.db.Get(key)
	return val, ok, nil
}

func (s *storeImpl) Has(key string) (bool, error) {
	if !s.db.SupportsFeature(db.FeatureHas) {
		return false, store.NewError(store.RetCUnsupportedOperation, "Has operation is not supported")
	}
	return s.db.Has(key), nil
}

func (s *storeImpl) Keys(prefix string) ([]string, error) {
	if !s.db.SupportsFeature(db.FeatureKeys) {
		return nil, store.NewError(store.RetCUnsupportedOperation, "Keys operation is not supported")
	}
	return s.db.Keys(prefix), nil
}

func (s *storeImpl) GetDBInfo() (db.DatabaseInfo, error) {
	return s.db.GetInfo(), nil
}

// Flush writes the snapshot to a temporary file next to the target and
// renames it over the target, so a crash never leaves a torn snapshot.
func (s *storeImpl) Flush() error {
	if s.path == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty.Load() {
		return nil
	}

	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return store.NewError(store.RetCIOError, fmt.Sprintf("create snapshot dir: %v", err))
	}

	tmp := s.path + ".tmp"
	f, err := s.fs.Create(tmp)
	if err != nil {
		return store.NewError(store.RetCIOError, fmt.Sprintf("create %s: %v", tmp, err))
	}
	if err := s.db.Save(f); err != nil {
		_ = f.Close()
		_ = s.fs.Remove(tmp)
		return store.NewError(store.RetCIOError, fmt.Sprintf("write snapshot: %v", err))
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = s.fs.Remove(tmp)
		return store.NewError(store.RetCIOError, fmt.Sprintf("sync snapshot: %v", err))
	}
	if err := f.Close(); err != nil {
		_ = s.fs.Remove(tmp)
		return store.NewError(store.RetCIOError, fmt.Sprintf("close snapshot: %v", err))
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		return store.NewError(store.RetCIOError, fmt.Sprintf("replace snapshot: %v", err))
	}

	s.dirty.Store(false)
	log.Debugf("snapshot written to %s", s.path)
	return nil
}

func (s *storeImpl) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	flushErr := s.Flush()
	if err := s.db.Close(); err != nil && flushErr == nil {
		return store.NewError(store.RetCInternalError, fmt.Sprintf("close database: %v", err))
	}
	return flushErr
}
