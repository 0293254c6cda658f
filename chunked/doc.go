// Package chunked provides a dense array stored in fixed-size chunks.
//
// Elements never move once written: growing the array appends chunks instead
// of reallocating, and PopFirstChunk hands the first chunk to the caller by
// shifting the chunk table only. The number of elements per chunk is a power
// of two, so an index splits into chunk and offset with a shift and a mask.
//
// Operations that touch a range of elements are built on ForEachView, which
// visits the range as one contiguous slice per chunk it intersects.
//
// An Array is not safe for concurrent mutation.
package chunked
