// Package export writes orders as Avro records for reporting tools.
//
// WriteOrders and WriteFile produce an object container file (OCF) holding
// the OrderSchema, one OrderV1 record per order and a "dshop.kind" metadata
// entry. ReadOrders reads such a file back. Marshal and Unmarshal handle a
// single record without the container.
package export
