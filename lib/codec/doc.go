// Package codec encodes the record sequences stored in the table slots of the
// shop.
//
// Implementations:
//
//   - jsonCodecImpl: JSON, the default. Slots stay human readable and can be
//     inspected with gjson paths. Input is checked with gjson.ValidBytes
//     before decoding.
//
//   - gobCodecImpl: Go's gob format. Smaller slots, not human readable.
//
// A snapshot written with one codec can not be read with the other; the
// shop reports such slots as corrupt.
//
// All codecs are stateless and safe for concurrent use.
package codec
