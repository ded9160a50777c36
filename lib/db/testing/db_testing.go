package testing

import (
	"bytes"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/ValentinKolb/dShop/lib/db"
)

// DBFactory creates a fresh instance of the engine under test
type DBFactory func() db.KVDB

// RunKVDBTests runs the conformance suite for a KVDB implementation.
func RunKVDBTests(t *testing.T, name string, factory DBFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Set&Get", func(t *testing.T) {
			testSetGet(t, factory())
		})

		t.Run("Expire", func(t *testing.T) {
			testExpire(t, factory())
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory())
		})

		t.Run("SetEIfUnset", func(t *testing.T) {
			testSetEIfUnset(t, factory())
		})

		t.Run("KeyExpiry", func(t *testing.T) {
			testKeyExpiry(t, factory())
		})

		t.Run("StaleWrite", func(t *testing.T) {
			testStaleWrite(t, factory())
		})

		t.Run("Keys", func(t *testing.T) {
			testKeys(t, factory())
		})

		t.Run("SaveLoad", func(t *testing.T) {
			testSaveLoad(t, factory)
		})

		t.Run("LoadGarbage", func(t *testing.T) {
			testLoadGarbage(t, factory())
		})

		t.Run("EdgeCases", func(t *testing.T) {
			testEdgeCases(t, factory())
		})

		t.Run("ConcurrentSlots", func(t *testing.T) {
			testConcurrentSlots(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// requireFeature skips the test if the engine lacks the feature
func requireFeature(t testing.TB, database db.KVDB, feature db.Feature) {
	if !database.SupportsFeature(feature) {
		t.Skipf("feature %s not supported", feature)
	}
}

func expectValue(t *testing.T, database db.KVDB, key string, want []byte) {
	t.Helper()
	got, ok := database.Get(key)
	if !ok {
		t.Errorf("expected key %q to exist", key)
		return
	}
	if !bytes.Equal(got, want) {
		t.Errorf("key %q: expected %q, got %q", key, want, got)
	}
}

func expectMissing(t *testing.T, database db.KVDB, key string) {
	t.Helper()
	if _, ok := database.Get(key); ok {
		t.Errorf("expected key %q to have no value", key)
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSetGet(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet)

	key := "shop_products"
	database.Set(key, []byte(`[{"id":"p1"}]`), 1)
	expectValue(t, database, key, []byte(`[{"id":"p1"}]`))

	// overwrite, no merge
	database.Set(key, []byte(`[]`), 2)
	expectValue(t, database, key, []byte(`[]`))

	expectMissing(t, database, "shop_missing")

	got, _ := database.Get(key)
	got[0] = 'X'
	expectValue(t, database, key, []byte(`[]`))

	input := []byte("mutable")
	database.Set("shop_input", input, 3)
	input[0] = 'X'
	expectValue(t, database, "shop_input", []byte("mutable"))
}

func testExpire(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureExpire|db.FeatureHas)

	database.Set("k", []byte("v"), 1)
	database.Expire("k", 2)

	expectMissing(t, database, "k")
	if !database.Has("k") {
		t.Errorf("expired key should still be reported by Has")
	}

	// expiring an absent key must not create it
	database.Expire("absent", 3)
	if database.Has("absent") {
		t.Errorf("Expire must not create keys")
	}
}

func testDelete(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureDelete|db.FeatureHas)

	database.Set("k", []byte("v"), 1)
	database.Delete("k", 2)
	expectMissing(t, database, "k")
	if database.Has("k") {
		t.Errorf("deleted key should not be reported by Has")
	}

	// deleting twice or deleting absent keys is a no-op
	database.Delete("k", 3)
	database.Delete("absent", 4)
	if database.Has("absent") {
		t.Errorf("Delete must not create keys")
	}
}

func testSetEIfUnset(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSetEIfUnset|db.FeatureGet)

	database.SetEIfUnset("seed", []byte("first"), 1, 0, 0)
	database.SetEIfUnset("seed", []byte("second"), 2, 0, 0)
	expectValue(t, database, "seed", []byte("first"))

	// a deleted key counts as unset
	database.SetEIfUnset("lock", []byte("owner-a"), 10, 0, 5)
	database.SetWriteIdx(15)
	database.SetEIfUnset("lock", []byte("owner-b"), 16, 0, 5)
	expectValue(t, database, "lock", []byte("owner-b"))
}

func testKeyExpiry(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSetE|db.FeatureGet|db.FeatureHas)

	tests := []struct {
		name       string
		expireIn   uint64
		deleteIn   uint64
		at         uint64
		wantValue  bool
		wantExists bool
	}{
		{"before expiry", 10, 20, 109, true, true},
		{"at expiry", 10, 20, 110, false, true},
		{"at deletion", 10, 20, 120, false, false},
		{"delete only", 0, 10, 110, false, false},
		{"no ttl", 0, 0, 1000, true, true},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := fmt.Sprintf("ttl-%d", i)
			base := database.WriteIdx() + 100
			database.SetE(key, []byte("v"), base, tt.expireIn, tt.deleteIn)
			database.SetWriteIdx(base + (tt.at - 100))

			if _, ok := database.Get(key); ok != tt.wantValue {
				t.Errorf("Get: expected found=%v, got %v", tt.wantValue, ok)
			}
			if ok := database.Has(key); ok != tt.wantExists {
				t.Errorf("Has: expected %v, got %v", tt.wantExists, ok)
			}
		})
	}
}

func testStaleWrite(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet)

	database.Set("k", []byte("new"), 10)
	database.Set("k", []byte("old"), 5)
	expectValue(t, database, "k", []byte("new"))

	if database.WriteIdx() != 10 {
		t.Errorf("write index must not move backwards, got %d", database.WriteIdx())
	}
}

func testKeys(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureDelete|db.FeatureKeys)

	for i, key := range []string{"shop_products", "shop_brands", "other_x", "shop_orders"} {
		database.Set(key, []byte("[]"), uint64(i+1))
	}
	database.Delete("shop_orders", 10)

	got := database.Keys("shop_")
	want := []string{"shop_brands", "shop_products"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Keys(shop_) = %v, want %v", got, want)
	}
	if all := database.Keys(""); len(all) != 3 {
		t.Errorf("Keys(\"\") should list 3 keys, got %v", all)
	}
}

func testSaveLoad(t *testing.T, factory DBFactory) {
	database := factory()
	restored := factory()
	defer database.Close()
	defer restored.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureSetE|db.FeatureSave|db.FeatureLoad)

	n := 500
	for i := 0; i < n; i++ {
		database.Set(fmt.Sprintf("slot-%d", i), []byte(fmt.Sprintf("value-%d", i)), uint64(i+1))
	}
	database.SetE("ttl", []byte("short lived"), uint64(n+1), 0, 10)
	database.Set("gone", []byte("x"), uint64(n+2))
	database.Delete("gone", uint64(n+3))

	var buf bytes.Buffer
	if err := database.Save(&buf); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := restored.Load(&buf); err != nil {
		t.Fatalf("Load: %v", err)
	}

	for i := 0; i < n; i++ {
		expectValue(t, restored, fmt.Sprintf("slot-%d", i), []byte(fmt.Sprintf("value-%d", i)))
	}
	expectMissing(t, restored, "gone")

	if restored.WriteIdx() < database.WriteIdx() {
		t.Errorf("restored write index %d behind original %d", restored.WriteIdx(), database.WriteIdx())
	}

	// ttl survives the snapshot
	expectValue(t, restored, "ttl", []byte("short lived"))
	restored.SetWriteIdx(uint64(n + 11))
	expectMissing(t, restored, "ttl")
}

func testLoadGarbage(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureLoad)

	database.Set("keep", []byte("me"), 1)

	inputs := map[string][]byte{
		"empty":     {},
		"bad magic": []byte("NOTADB\x00\x00\x04"),
	}
	for name, input := range inputs {
		if err := database.Load(bytes.NewReader(input)); err == nil {
			t.Errorf("%s: expected Load to fail", name)
		}
	}
	expectValue(t, database, "keep", []byte("me"))
}

func testEdgeCases(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet)

	database.Set("", []byte("empty key"), 1)
	expectValue(t, database, "", []byte("empty key"))

	database.Set("nil-value", nil, 2)
	got, ok := database.Get("nil-value")
	if !ok || len(got) != 0 {
		t.Errorf("nil value should be stored as empty value, got %q (found=%v)", got, ok)
	}

	large := bytes.Repeat([]byte("0123456789"), 100_000)
	database.Set("large", large, 3)
	expectValue(t, database, "large", large)
}

func testConcurrentSlots(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet)

	var (
		wg      sync.WaitGroup
		workers = 8
		writes  = 500
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			key := fmt.Sprintf("slot-%d", w)
			for i := 1; i <= writes; i++ {
				database.Set(key, []byte(fmt.Sprintf("%d", i)), uint64(w*writes+i))
				database.Get(key)
			}
		}(w)
	}
	wg.Wait()

	for w := 0; w < workers; w++ {
		expectValue(t, database, fmt.Sprintf("slot-%d", w), []byte(fmt.Sprintf("%d", writes)))
	}
}
