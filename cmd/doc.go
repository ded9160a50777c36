// Package cmd implements the dshop command-line interface. Every command
// opens the shop snapshot configured with --data-file, seeds absent tables
// and writes the snapshot back when it is done.
//
// The package is organized into several subpackages:
//
//   - catalog: catalogue queries and the query benchmark
//   - table: record access per table and the reference check
//   - order: checkout, listing, status changes and the Avro export
//   - ship: shipping quotes
//   - kv: raw access to the storage slots
//   - util: shared configuration and helpers (internal use)
//
// The seed, settings, stats, config and version commands live in this
// package. See dshop -help for a list of all commands.
package cmd
