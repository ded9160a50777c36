// Package shop is the persistent store of the storefront.
//
// Every table (departments, categories, brands, products, banners, users,
// orders, addresses) is one slot in a store.IStore under "<prefix><table>"
// holding the encoded record sequence in insertion order. The store settings
// are a single object in the "<prefix>settings" slot.
//
// Key Components:
//
//   - Shop: Explicitly constructed with New or Open. Lifecycle is
//     Open -> Seed -> use -> Close. Seed fills absent slots from the embedded
//     dataset and never overwrites existing ones.
//
//   - ITable: Typed repository per entity with All, Get, Find, Where, Save and
//     Delete. Save replaces the record with the same id in place or appends
//     it; there is no merging. Delete never cascades, CheckReferences reports
//     the dangling references that remain.
//
//   - CreateOrder and Checkout: Store an order and decrement the stock of the
//     ordered products according to the StockPolicy (allow-negative, reject
//     or clamp).
//
// Concurrency:
//
//	Reads decode a snapshot of a slot without locking. Every read-modify-write
//	runs under the lockmgr lock of the slots it rewrites; CreateOrder holds
//	the locks of orders and products. Mutating methods take a context that
//	bounds the lock wait.
//
// Failures:
//
//	A slot that does not decode yields an error wrapping
//	catalog.ErrStorageCorrupt. Invalid records yield *catalog.ValidationError.
//	Lookups of absent ids yield catalog.ErrNotFound (Get) or mo.None (Find).
package shop
