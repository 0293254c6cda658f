package sparse

import (
	"math/bits"
)

// Cursor walks the live elements of an Array in ascending index order. It
// reads occupancy 64 bits at a time and jumps to the next live slot with a
// trailing-zero count. A Cursor is forward only.
type Cursor[T any] struct {
	a *Array[T]

	chunk int    // chunk of the current lane
	word  int    // next occupancy word to load in chunk
	lane  uint64 // unvisited live bits of the current lane
	base  int    // index of bit 0 of the current lane
	index int
}

// Cursor returns a cursor positioned before the first live element.
func (a *Array[T]) Cursor() *Cursor[T] {
	return &Cursor[T]{a: a, index: -1}
}

// Next advances to the next live element and reports whether there is one.
func (c *Cursor[T]) Next() bool {
	for c.lane == 0 {
		if !c.loadLane() {
			return false
		}
	}
	tz := bits.TrailingZeros64(c.lane)
	c.lane &= c.lane - 1
	c.index = c.base + tz
	return true
}

// loadLane reads the next 64 occupancy bits. It returns false past the last
// chunk.
func (c *Cursor[T]) loadLane() bool {
	a := c.a
	for c.chunk < len(a.chunks) && c.chunk<<a.log2 < a.maxIndex {
		words := a.chunks[c.chunk].occupied.Words()
		if c.word < len(words) {
			c.base = c.chunk<<a.log2 + c.word*32
			c.lane = uint64(words[c.word])
			if c.word+1 < len(words) {
				c.lane |= uint64(words[c.word+1]) << 32
			}
			c.word += 2
			return true
		}
		c.chunk++
		c.word = 0
	}
	return false
}

// Index returns the index of the current element.
func (c *Cursor[T]) Index() int { return c.index }

// Value returns a pointer to the current element.
func (c *Cursor[T]) Value() *T { return &c.a.cellAt(c.index).value }
