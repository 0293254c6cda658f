package chunkedbits

import (
	"iter"
	"math/bits"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/chunkstore"
	"github.com/hupe1980/chunkstore/archive"
	"github.com/hupe1980/chunkstore/bitvec"
	"github.com/hupe1980/chunkstore/internal/chunkalloc"
	"github.com/hupe1980/chunkstore/internal/invariants"
)

const (
	chunkShift = 15

	// BitsPerChunk is the number of bits in one chunk.
	BitsPerChunk = 1 << chunkShift
	chunkMask    = BitsPerChunk - 1
)

// BitArray is a chunked bit array safe for concurrent use. The zero value
// is an empty array.
type BitArray struct {
	mu      sync.RWMutex
	chunks  []*bitvec.Fixed
	tracker *chunkalloc.Tracker
}

// New returns an empty bit array. Of the options only the logger, metrics,
// controller and name apply; the chunk size is fixed.
func New(opts ...chunkstore.Option) *BitArray {
	o := chunkstore.Apply(opts...)
	return &BitArray{tracker: chunkalloc.New(o, BitsPerChunk/8)}
}

// NumChunks returns the number of chunks.
func (b *BitArray) NumChunks() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.chunks)
}

// Len returns the number of addressable bits.
func (b *BitArray) Len() int {
	return b.NumChunks() * BitsPerChunk
}

// SetNumChunks grows or shrinks the array to n chunks. New bits are clear.
func (b *BitArray) SetNumChunks(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setNumChunks(n)
}

func (b *BitArray) setNumChunks(n int) {
	for len(b.chunks) < n {
		b.tracker.Acquire(len(b.chunks))
		b.chunks = append(b.chunks, bitvec.NewFixed(BitsPerChunk))
	}
	for len(b.chunks) > n {
		last := len(b.chunks) - 1
		b.tracker.Release(last)
		b.chunks[last] = nil
		b.chunks = b.chunks[:last]
	}
}

// Grow makes bits below n addressable. It never shrinks the array.
func (b *BitArray) Grow(n int) {
	want := (n + BitsPerChunk - 1) >> chunkShift
	b.mu.RLock()
	ok := len(b.chunks) >= want
	b.mu.RUnlock()
	if ok {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.chunks) < want {
		b.setNumChunks(want)
	}
}

// chunk returns the chunk holding bit i, or nil past the end. The caller
// holds the read lock.
func (b *BitArray) chunk(i int) *bitvec.Fixed {
	c := i >> chunkShift
	if i < 0 || c >= len(b.chunks) {
		return nil
	}
	return b.chunks[c]
}

// Get reports whether bit i is set. Bits past the end read as clear.
func (b *BitArray) Get(i int) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c := b.chunk(i)
	if c == nil {
		return false
	}
	return c.AtomicGet(i & chunkMask)
}

// SetReturnOld sets bit i to value and returns its previous value. Setting a
// bit past the end is a contract violation and does nothing.
func (b *BitArray) SetReturnOld(i int, value bool) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c := b.chunk(i)
	if c == nil {
		if invariants.Enabled {
			invariants.Failf("chunkedbits: index %d out of range [0, %d)", i, len(b.chunks)*BitsPerChunk)
		}
		return false
	}
	return c.AtomicSetReturnOld(i&chunkMask, value)
}

// Set sets bit i to value.
func (b *BitArray) Set(i int, value bool) {
	b.SetReturnOld(i, value)
}

// TestAndSet sets bit i and reports whether it was already set.
func (b *BitArray) TestAndSet(i int) bool {
	return b.SetReturnOld(i, true)
}

// Count returns the number of set bits.
func (b *BitArray) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, c := range b.chunks {
		words := c.Words()
		for j := range words {
			n += bits.OnesCount32(atomic.LoadUint32(&words[j]))
		}
	}
	return n
}

// ClearAll clears every bit and keeps the chunks.
func (b *BitArray) ClearAll() {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, c := range b.chunks {
		words := c.Words()
		for j := range words {
			atomic.StoreUint32(&words[j], 0)
		}
	}
}

// NextSetBit returns the first set bit at or after from.
func (b *BitArray) NextSetBit(from int) (int, bool) {
	found := -1
	b.forSetBitsFrom(max(from, 0), func(i int) bool {
		found = i
		return false
	})
	return found, found >= 0
}

// ForAllSetBits calls visit with every set bit in ascending order until it
// returns false, and reports whether it stopped early. visit must not resize
// the array.
func (b *BitArray) ForAllSetBits(visit func(int) bool) bool {
	return b.forSetBitsFrom(0, visit)
}

// SetBits returns an iterator over the set bits in ascending order.
func (b *BitArray) SetBits() iter.Seq[int] {
	return func(yield func(int) bool) {
		b.ForAllSetBits(yield)
	}
}

func (b *BitArray) forSetBitsFrom(from int, visit func(int) bool) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ci := from >> chunkShift; ci < len(b.chunks); ci++ {
		words := b.chunks[ci].Words()
		base := ci << chunkShift
		j := 0
		if ci == from>>chunkShift {
			j = (from & chunkMask) >> 5
		}
		for ; j < len(words); j++ {
			w := atomic.LoadUint32(&words[j])
			if pos := base + j<<5; pos < from {
				w &= ^uint32(0) << uint(from-pos)
			}
			for w != 0 {
				if !visit(base + j<<5 + bits.TrailingZeros32(w)) {
					return true
				}
				w &= w - 1
			}
		}
	}
	return false
}

// Serialize saves or loads the array. Loading replaces the contents and is
// exclusive with every other method.
func (b *BitArray) Serialize(ar archive.Archive) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(b.chunks)
	if err := archive.SerializeLen(ar, &n); err != nil {
		return err
	}
	if ar.IsLoading() {
		b.setNumChunks(n)
	}
	for _, c := range b.chunks {
		if err := c.Serialize(ar); err != nil {
			if ar.IsLoading() {
				b.setNumChunks(0)
			}
			return err
		}
	}
	return nil
}
