// Package chunkedbits provides a bit array that is safe for concurrent use.
//
// Architecture:
//   - Chunked design: chunks of 32 Ki bits (4 KiB), allocated whole
//   - Growing appends chunks; existing chunks never move
//   - Bit reads and writes take a read lock and use atomic word operations,
//     so they run in parallel; resizing takes the write lock
//
// Typical uses are tombstones and visited sets shared by worker goroutines.
package chunkedbits
