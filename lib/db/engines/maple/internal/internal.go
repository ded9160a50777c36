package internal

import (
	"sync"

	"github.com/ValentinKolb/dShop/lib/db/util"
	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Entry
// --------------------------------------------------------------------------

// Entry is a stored value with its ttl metadata.
type Entry struct {
	Value    []byte // nil once expired
	ExpireAt uint64 // write index at which the value expires (0 = never)
	DeleteAt uint64 // write index at which the key is deleted (0 = never)
	Index    uint64 // write index of the last update
}

// TTLInfo reports whether the entry is expired and whether it is deleted at writeIdx.
func (e Entry) TTLInfo(writeIdx uint64) (expired bool, deleted bool) {
	expired = e.ExpireAt != 0 && writeIdx >= e.ExpireAt
	deleted = e.DeleteAt != 0 && writeIdx >= e.DeleteAt
	// a deleted entry is always expired as well
	return expired || deleted, deleted
}

// --------------------------------------------------------------------------
// Shard
// --------------------------------------------------------------------------

// Shard is one partition of the key space. Data is safe for concurrent use,
// the deadline heaps are guarded by mu.
//
// Lock order: an xsync bucket lock (inside Compute) may be held while
// taking mu, never the other way around.
type Shard struct {
	Data *xsync.MapOf[string, Entry]

	mu      sync.Mutex
	expires *util.MapHeap
	deletes *util.MapHeap
}

// NewShard creates an empty shard.
func NewShard() *Shard {
	return &Shard{
		Data:    xsync.NewMapOf[string, Entry](),
		expires: util.NewMapHeap(),
		deletes: util.NewMapHeap(),
	}
}

// Track (re)schedules the deadlines of key according to e.
func (s *Shard) Track(key string, e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expires.Cancel(key)
	s.deletes.Cancel(key)
	if e.ExpireAt != 0 && e.Value != nil {
		s.expires.Schedule(key, e.ExpireAt)
	}
	if e.DeleteAt != 0 {
		s.deletes.Schedule(key, e.DeleteAt)
	}
}

// Untrack drops all deadlines of key.
func (s *Shard) Untrack(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expires.Cancel(key)
	s.deletes.Cancel(key)
}

// Due pops the keys whose expiry or deletion index is <= writeIdx.
func (s *Shard) Due(writeIdx uint64) (expired []string, deleted []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.expires.PopDue(writeIdx), s.deletes.PopDue(writeIdx)
}

// Pending returns the number of scheduled deadlines.
func (s *Shard) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.expires.Len() + s.deletes.Len()
}
