// Package conv provides checked integer conversions.
//
// Use these at trust boundaries: lengths and indices decoded from an archive,
// or sizes that must fit the int32 free-list links of sparse containers.
// Provably bounded values (loop indices, chunk offsets) use plain casts.
package conv
