package util

import (
	"reflect"
	"testing"
)

func TestNewMapHeap(t *testing.T) {
	h := NewMapHeap()
	if h.Len() != 0 {
		t.Errorf("new heap should be empty, has %d items", h.Len())
	}
	if _, ok := h.Peek(); ok {
		t.Errorf("Peek on an empty heap should report false")
	}
}

func TestScheduleOrdersByIndex(t *testing.T) {
	h := NewMapHeap()
	h.Schedule("b", 200)
	h.Schedule("a", 100)
	h.Schedule("c", 50)

	d, ok := h.Peek()
	if !ok || d.Key != "c" || d.At != 50 {
		t.Fatalf("expected earliest deadline c@50, got %v", d)
	}

	due := h.PopDue(150)
	if !reflect.DeepEqual(due, []string{"c", "a"}) {
		t.Errorf("expected [c a] to be due at 150, got %v", due)
	}
	if h.Len() != 1 || !h.Contains("b") {
		t.Errorf("expected only b to remain, len=%d", h.Len())
	}
}

func TestScheduleMovesExistingKey(t *testing.T) {
	h := NewMapHeap()
	h.Schedule("lock", 10)
	h.Schedule("other", 20)
	h.Schedule("lock", 30)

	if h.Len() != 2 {
		t.Fatalf("rescheduling must not duplicate keys, len=%d", h.Len())
	}
	d, _ := h.Peek()
	if d.Key != "other" {
		t.Errorf("expected other to be first after moving lock, got %s", d.Key)
	}
}

func TestCancel(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantAt  uint64
		wantHit bool
	}{
		{"scheduled key", "a", 5, true},
		{"unknown key", "missing", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewMapHeap()
			h.Schedule("a", 5)
			h.Schedule("b", 7)

			at, ok := h.Cancel(tt.key)
			if ok != tt.wantHit || at != tt.wantAt {
				t.Errorf("Cancel(%q) = (%d, %v), want (%d, %v)", tt.key, at, ok, tt.wantAt, tt.wantHit)
			}
			if h.Contains(tt.key) {
				t.Errorf("key %q still scheduled after Cancel", tt.key)
			}
		})
	}
}

func TestPopDueEmpty(t *testing.T) {
	h := NewMapHeap()
	h.Schedule("x", 100)
	if due := h.PopDue(99); len(due) != 0 {
		t.Errorf("nothing should be due before 100, got %v", due)
	}
}
