// Package query implements the catalogue query engine: filter, sort and
// paginate the active products of the shop.
//
// Run is the pure pipeline over a Snapshot of the products, categories and
// departments tables. IEngine wraps it with a Source (FromTables for the
// shop tables), latency metrics and the ByCategory, ByDepartment and Search
// helpers.
//
// Filters in order: active only, case-insensitive text match on name or
// description, slug (an active category slug, else an active department
// slug, else no filter), brand, in stock. Sorting is stable; "name-asc"
// compares names with a Brazilian Portuguese collator so accented names sort
// next to their unaccented neighbours. Pages hold PageSize products.
package query
