// Package testing contains the conformance suite and benchmarks every
// db.KVDB engine is expected to pass.
//
// Example usage:
//
//	func Test(t *testing.T) {
//		dbtesting.RunKVDBTests(t, "MyEngine", func() db.KVDB {
//			return NewMyEngine()
//		})
//	}
//
//	func Benchmark(b *testing.B) {
//		dbtesting.RunKVDBBenchmarks(b, "MyEngine", func() db.KVDB {
//			return NewMyEngine()
//		})
//	}
package testing
