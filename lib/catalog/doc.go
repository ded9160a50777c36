// Package catalog defines the records stored by the shop: products,
// departments, categories, brands, banners, users, addresses, orders and the
// store settings, together with their status vocabularies, id and slug
// generation, validation rules and the error taxonomy shared by the other
// packages.
//
// Records are plain values. References between them (category to department,
// product to category and brand) are ids resolved by linear scan and may
// dangle after a delete.
package catalog
