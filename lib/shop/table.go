package shop

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/ValentinKolb/dShop/lib/catalog"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// ITable is the typed repository of one table. Records keep their stored
// (insertion) order.
type ITable[T catalog.Record[T]] interface {
	// Name returns the table name
	Name() Table
	// All returns all records. An absent slot is an empty table.
	All() ([]T, error)
	// Get returns the first record with id or an error wrapping catalog.ErrNotFound.
	Get(id string) (T, error)
	// Find returns the first record with id as an optional value.
	Find(id string) (mo.Option[T], error)
	// Where returns the records matching pred.
	Where(pred func(T) bool) ([]T, error)
	// Save normalizes and validates rec, then replaces the record with the same
	// id in place or appends it. The whole record is overwritten.
	Save(ctx context.Context, rec T) (T, error)
	// Delete removes the first record with id. Absent ids are a no-op.
	// References to the record are left dangling.
	Delete(ctx context.Context, id string) error
}

// IRawTable is the untyped view of a table used by tooling.
type IRawTable interface {
	Name() Table
	// Records returns all records as values for printing
	Records() ([]any, error)
	// Record returns the record with id
	Record(id string) (any, error)
	// SaveJSON decodes a JSON record and saves it
	SaveJSON(ctx context.Context, data []byte) (any, error)
	Delete(ctx context.Context, id string) error
}

// --------------------------------------------------------------------------
// Implementation
// --------------------------------------------------------------------------

type tableImpl[T catalog.Record[T]] struct {
	shop *Shop
	name Table
	// check runs after Validate with shop level rules (nil = none)
	check func(T) error
}

func newTable[T catalog.Record[T]](s *Shop, name Table) *tableImpl[T] {
	return &tableImpl[T]{shop: s, name: name}
}

func (t *tableImpl[T]) Name() Table {
	return t.name
}

func (t *tableImpl[T]) All() ([]T, error) {
	return readSlot[[]T](t.shop, string(t.name), []T{})
}

func (t *tableImpl[T]) Get(id string) (T, error) {
	var zero T
	opt, err := t.Find(id)
	if err != nil {
		return zero, err
	}
	rec, ok := opt.Get()
	if !ok {
		return zero, fmt.Errorf("%s %q: %w", t.name, id, catalog.ErrNotFound)
	}
	return rec, nil
}

func (t *tableImpl[T]) Find(id string) (mo.Option[T], error) {
	all, err := t.All()
	if err != nil {
		return mo.None[T](), err
	}
	rec, ok := lo.Find(all, func(r T) bool { return r.GetID() == id })
	if !ok {
		return mo.None[T](), nil
	}
	return mo.Some(rec), nil
}

func (t *tableImpl[T]) Where(pred func(T) bool) ([]T, error) {
	all, err := t.All()
	if err != nil {
		return nil, err
	}
	return lo.Filter(all, func(r T, _ int) bool { return pred(r) }), nil
}

func (t *tableImpl[T]) Save(ctx context.Context, rec T) (T, error) {
	var zero T
	rec = rec.Normalize(t.shop.now())
	err := rec.Validate()
	if err == nil && t.check != nil {
		err = t.check(rec)
	}
	if err != nil {
		tableOps(t.name, "invalid").Inc()
		return zero, err
	}

	err = t.shop.withLocks(ctx, func() error {
		all, err := t.All()
		if err != nil {
			return err
		}
		if _, idx, ok := lo.FindIndexOf(all, func(r T) bool { return r.GetID() == rec.GetID() }); ok {
			all[idx] = rec
		} else {
			all = append(all, rec)
		}
		return writeSlot(t.shop, string(t.name), all)
	}, string(t.name))
	if err != nil {
		return zero, err
	}

	tableOps(t.name, "save").Inc()
	log.Debugf("saved %s %s", t.name, rec.GetID())
	return rec, nil
}

func (t *tableImpl[T]) Delete(ctx context.Context, id string) error {
	return t.shop.withLocks(ctx, func() error {
		all, err := t.All()
		if err != nil {
			return err
		}
		_, idx, ok := lo.FindIndexOf(all, func(r T) bool { return r.GetID() == id })
		if !ok {
			return nil
		}
		all = append(all[:idx], all[idx+1:]...)
		if err := writeSlot(t.shop, string(t.name), all); err != nil {
			return err
		}
		tableOps(t.name, "delete").Inc()
		log.Debugf("deleted %s %s", t.name, id)
		return nil
	}, string(t.name))
}

func (t *tableImpl[T]) Records() ([]any, error) {
	all, err := t.All()
	if err != nil {
		return nil, err
	}
	return lo.Map(all, func(r T, _ int) any { return r }), nil
}

func (t *tableImpl[T]) Record(id string) (any, error) {
	return t.Get(id)
}

func (t *tableImpl[T]) SaveJSON(ctx context.Context, data []byte) (any, error) {
	var rec T
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode %s record: %w", t.name, err)
	}
	return t.Save(ctx, rec)
}

// --------------------------------------------------------------------------
// Slot access
// --------------------------------------------------------------------------

// readSlot decodes the value of a slot. Absent slots yield empty; slots
// that do not decode yield an error wrapping catalog.ErrStorageCorrupt.
func readSlot[V any](s *Shop, slot string, empty V) (V, error) {
	key := s.Key(slot)
	data, ok, err := s.store.Get(key)
	if err != nil {
		return empty, err
	}
	if !ok {
		return empty, nil
	}

	var v V
	if err := s.codec.Unmarshal(data, &v); err != nil {
		slotCorrupt(slot).Inc()
		log.Errorf("slot %s does not decode with codec %s: %v", key, s.codec.Name(), err)
		return empty, fmt.Errorf("slot %s: %w: %v", key, catalog.ErrStorageCorrupt, err)
	}
	slotReads(slot).Inc()
	return v, nil
}

type slotValue struct {
	slot  string
	value any
}

// writeSlot encodes v, stores it and flushes the snapshot.
func writeSlot(s *Shop, slot string, v any) error {
	return writeSlots(s, slotValue{slot, v})
}

// writeSlots encodes all values before storing any of them, then flushes
// the snapshot once. Slots are written in order; if a write fails the slots
// written before it get their previous value back.
func writeSlots(s *Shop, values ...slotValue) error {
	encoded := make([][]byte, len(values))
	for i, v := range values {
		data, err := s.codec.Marshal(v.value)
		if err != nil {
			return fmt.Errorf("encode slot %s: %w", v.slot, err)
		}
		encoded[i] = data
	}

	type previous struct {
		key   string
		value []byte
		found bool
	}
	var written []previous
	for i, v := range values {
		key := s.Key(v.slot)
		old, found, err := s.store.Get(key)
		if err == nil {
			err = s.store.Set(key, encoded[i])
		}
		if err != nil {
			for _, w := range slices.Backward(written) {
				var rbErr error
				if w.found {
					rbErr = s.store.Set(w.key, w.value)
				} else {
					rbErr = s.store.Delete(w.key)
				}
				if rbErr != nil {
					log.Errorf("restore slot %s after failed write: %v", w.key, rbErr)
				}
			}
			return fmt.Errorf("write slot %s: %w", v.slot, err)
		}
		written = append(written, previous{key, old, found})
		slotWrites(v.slot).Inc()
	}
	return s.store.Flush()
}
