package util

import (
	"container/heap"
	"fmt"
)

// Deadline is a key scheduled at a write index.
type Deadline struct {
	Key   string
	At    uint64
	index int
}

func (d *Deadline) String() string {
	return fmt.Sprintf("{Key: %s, At: %d}", d.Key, d.At)
}

// MapHeap is a min-heap of deadlines ordered by write index with O(1)
// lookup by key. Each key is scheduled at most once; scheduling it again
// moves the existing deadline.
//
// MapHeap is not safe for concurrent use.
type MapHeap struct {
	items []*Deadline
	byKey map[string]*Deadline
}

// NewMapHeap creates an empty heap.
func NewMapHeap() *MapHeap {
	return &MapHeap{
		items: make([]*Deadline, 0),
		byKey: make(map[string]*Deadline),
	}
}

// --------------------------------------------------------------------------
// heap.Interface
// --------------------------------------------------------------------------

func (h *MapHeap) Len() int { return len(h.items) }

func (h *MapHeap) Less(i, j int) bool { return h.items[i].At < h.items[j].At }

func (h *MapHeap) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.items[i].index = i
	h.items[j].index = j
}

func (h *MapHeap) Push(x interface{}) {
	d := x.(*Deadline)
	d.index = len(h.items)
	h.items = append(h.items, d)
	h.byKey[d.Key] = d
}

func (h *MapHeap) Pop() interface{} {
	n := len(h.items)
	d := h.items[n-1]
	h.items[n-1] = nil
	d.index = -1
	h.items = h.items[:n-1]
	delete(h.byKey, d.Key)
	return d
}

// --------------------------------------------------------------------------
// Key based access
// --------------------------------------------------------------------------

// Schedule adds key at the given index or moves an existing deadline.
func (h *MapHeap) Schedule(key string, at uint64) {
	if d, ok := h.byKey[key]; ok {
		d.At = at
		heap.Fix(h, d.index)
		return
	}
	heap.Push(h, &Deadline{Key: key, At: at})
}

// Cancel removes the deadline of key and returns it.
func (h *MapHeap) Cancel(key string) (uint64, bool) {
	d, ok := h.byKey[key]
	if !ok {
		return 0, false
	}
	heap.Remove(h, d.index)
	return d.At, true
}

// Peek returns the earliest deadline without removing it.
func (h *MapHeap) Peek() (*Deadline, bool) {
	if len(h.items) == 0 {
		return nil, false
	}
	return h.items[0], true
}

// PopDue removes and returns all deadlines with At <= idx in ascending order.
func (h *MapHeap) PopDue(idx uint64) []string {
	var due []string
	for len(h.items) > 0 && h.items[0].At <= idx {
		d := heap.Pop(h).(*Deadline)
		due = append(due, d.Key)
	}
	return due
}

// Contains reports whether key is scheduled.
func (h *MapHeap) Contains(key string) bool {
	_, ok := h.byKey[key]
	return ok
}
