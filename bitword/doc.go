// Package bitword implements stateless bit manipulation over a caller-owned
// span of 32-bit words.
//
// Bit i lives in words[i/32] at position i%32. Every function assumes the
// caller validated its indices and ranges; with the invariants build tag the
// preconditions are asserted, otherwise violating them is undefined.
//
// Population counts use a kernel chosen at init from the CPU features
// reported by golang.org/x/sys/cpu. Set-bit traversal walks 64-bit lanes
// built from word pairs, locates each set bit with a trailing-zero count and
// emits runs of four consecutive set bits without recounting, which keeps
// dense occupancy maps cheap to scan.
package bitword
