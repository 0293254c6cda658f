// Package sparse provides a chunked array with stable indexes and O(1)
// removal.
//
// Removed slots go onto a LIFO free list threaded through the slots
// themselves, and Add reuses the most recently freed slot first. A per-chunk
// occupancy bitmap records which slots are live; it alone decides liveness.
//
// Iteration visits live elements in ascending index order and skips free
// runs a 64-bit occupancy lane at a time.
//
// RemoveAtAtomic may be called concurrently on distinct indexes, provided no
// other method mutates the array meanwhile. Everything else requires
// exclusive access.
package sparse
