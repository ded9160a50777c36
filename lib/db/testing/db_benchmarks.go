package testing

import (
	"bytes"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/ValentinKolb/dShop/lib/db"
)

// tableSizedValue is roughly the size of an encoded product table
var tableSizedValue = bytes.Repeat([]byte(`{"id":"prod-0","name":"Notebook","price":"4999.90"},`), 300)

// RunKVDBBenchmarks runs benchmarks for a KVDB implementation with
// payloads shaped like table slots.
func RunKVDBBenchmarks(b *testing.B, name string, factory DBFactory) {
	b.Run(name, func(b *testing.B) {
		b.Run("SetTable", func(b *testing.B) {
			benchmarkSetTable(b, factory())
		})
		b.Run("GetTable", func(b *testing.B) {
			benchmarkGetTable(b, factory())
		})
		b.Run("SetEIfUnsetLock", func(b *testing.B) {
			benchmarkLockSlot(b, factory())
		})
		b.Run("SaveLoad", func(b *testing.B) {
			benchmarkSaveLoad(b, factory)
		})
	})
}

func benchmarkSetTable(b *testing.B, database db.KVDB) {
	defer database.Close()
	requireFeature(b, database, db.FeatureSet)

	var idx atomic.Uint64
	b.SetBytes(int64(len(tableSizedValue)))
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			i := idx.Add(1)
			database.Set(fmt.Sprintf("slot-%d", i%9), tableSizedValue, i)
		}
	})
}

func benchmarkGetTable(b *testing.B, database db.KVDB) {
	defer database.Close()
	requireFeature(b, database, db.FeatureSet|db.FeatureGet)

	for i := 0; i < 9; i++ {
		database.Set(fmt.Sprintf("slot-%d", i), tableSizedValue, uint64(i+1))
	}

	b.SetBytes(int64(len(tableSizedValue)))
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			database.Get(fmt.Sprintf("slot-%d", i%9))
			i++
		}
	})
}

func benchmarkLockSlot(b *testing.B, database db.KVDB) {
	defer database.Close()
	requireFeature(b, database, db.FeatureSetEIfUnset|db.FeatureDelete)

	var idx atomic.Uint64
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			i := idx.Add(2)
			key := fmt.Sprintf("lock-%d", i%9)
			database.SetEIfUnset(key, []byte("owner"), i, 0, 100)
			database.Delete(key, i+1)
		}
	})
}

func benchmarkSaveLoad(b *testing.B, factory DBFactory) {
	database := factory()
	defer database.Close()
	requireFeature(b, database, db.FeatureSet|db.FeatureSave|db.FeatureLoad)

	for i := 0; i < 9; i++ {
		database.Set(fmt.Sprintf("slot-%d", i), tableSizedValue, uint64(i+1))
	}

	var snapshot bytes.Buffer
	if err := database.Save(&snapshot); err != nil {
		b.Fatal(err)
	}

	b.Run("Save", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			var buf bytes.Buffer
			if err := database.Save(&buf); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("Load", func(b *testing.B) {
		target := factory()
		defer target.Close()
		for i := 0; i < b.N; i++ {
			if err := target.Load(bytes.NewReader(snapshot.Bytes())); err != nil {
				b.Fatal(err)
			}
		}
	})
}
