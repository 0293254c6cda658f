// Package mem allocates chunk storage on cache-line boundaries.
//
// # Aligned Allocation
//
// Storage for pointer-free element types starts at a 64-byte boundary, so a
// chunk never shares its first cache line with another allocation.
package mem
