// Package bitvec provides packed bit vectors over 32-bit words.
//
// Vector grows on demand; Fixed has a size chosen at construction and never
// reallocates, which makes it suitable as a per-chunk occupancy map. Both
// keep the bits of the last word beyond the logical length at zero, so word
// level operations (counting, comparing, hashing, combining) need no final
// mask.
//
// Except for the Atomic* methods, a vector must not be mutated concurrently.
// The Atomic* methods may run concurrently with each other on any indices,
// as long as no other method mutates the vector at the same time.
package bitvec
