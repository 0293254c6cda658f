package chunked

import (
	"iter"
	"math/bits"
	"unsafe"

	"github.com/hupe1980/chunkstore"
	"github.com/hupe1980/chunkstore/fixedarray"
	"github.com/hupe1980/chunkstore/internal/chunkalloc"
	"github.com/hupe1980/chunkstore/internal/invariants"
)

// Array is a growable array of T stored in chunks of NumPerChunk elements.
// The zero value is an empty array using the default chunk size.
type Array[T any] struct {
	// chunks[:numChunks] hold the elements [0, num); the rest are spare
	// chunks kept for reuse.
	chunks    []*fixedarray.Array[T]
	numChunks int
	num       int

	perChunk int
	log2     uint
	tracker  *chunkalloc.Tracker
}

// Detached is a chunk removed from an array by PopFirstChunk. The caller owns
// it; Num elements at its front were valid in the array.
type Detached[T any] struct {
	Chunk *fixedarray.Array[T]
	Num   int
}

// View returns the valid elements of the chunk.
func (d Detached[T]) View() []T {
	if d.Chunk == nil {
		return nil
	}
	return d.Chunk.Slice(0, d.Num)
}

// New returns an empty array configured by opts. It panics if WithNumPerChunk
// is not a power of two.
func New[T any](opts ...chunkstore.Option) *Array[T] {
	o := chunkstore.Apply(opts...)
	a := &Array[T]{}
	a.configure(o.ChunkLen(elemSize[T]()))
	a.tracker = chunkalloc.New(o, int64(a.perChunk)*int64(elemSize[T]()))
	return a
}

func elemSize[T any]() uintptr {
	var zero T
	return unsafe.Sizeof(zero)
}

func (a *Array[T]) configure(perChunk int) {
	if !chunkstore.IsPowerOfTwo(perChunk) {
		invariants.Failf("chunked: elements per chunk must be a power of two, got %d", perChunk)
	}
	a.perChunk = perChunk
	a.log2 = uint(bits.TrailingZeros(uint(perChunk)))
}

func (a *Array[T]) lazyInit() {
	if a.perChunk == 0 {
		a.configure(chunkstore.NumPerChunk(elemSize[T](), chunkstore.DefaultChunkBytes))
	}
}

// Num returns the number of elements.
func (a *Array[T]) Num() int { return a.num }

// NumChunks returns the number of chunks holding elements.
func (a *Array[T]) NumChunks() int { return a.numChunks }

// NumPerChunk returns the number of elements per chunk.
func (a *Array[T]) NumPerChunk() int {
	if a.perChunk == 0 {
		return chunkstore.NumPerChunk(elemSize[T](), chunkstore.DefaultChunkBytes)
	}
	return a.perChunk
}

// Cap returns the number of elements the allocated chunks can hold.
func (a *Array[T]) Cap() int { return len(a.chunks) * a.perChunk }

// AllocatedBytes returns the payload size of all allocated chunks.
func (a *Array[T]) AllocatedBytes() int64 {
	return int64(len(a.chunks)) * int64(a.perChunk) * int64(elemSize[T]())
}

// IsValidIndex reports whether i addresses an element.
func (a *Array[T]) IsValidIndex(i int) bool { return 0 <= i && i < a.num }

func (a *Array[T]) checkIndex(i int) {
	invariants.Assertf(a.IsValidIndex(i), "chunked: index %d out of range [0, %d)", i, a.num)
}

func (a *Array[T]) checkRange(start, count int) {
	invariants.Assertf(start >= 0 && count >= 0 && start+count <= a.num,
		"chunked: range [%d, %d) out of range [0, %d)", start, start+count, a.num)
}

// Get returns element i.
func (a *Array[T]) Get(i int) T {
	if invariants.Enabled {
		a.checkIndex(i)
	}
	return *a.chunks[i>>a.log2].At(i & (a.perChunk - 1))
}

// At returns a pointer to element i. It stays valid until the element's
// chunk is released.
func (a *Array[T]) At(i int) *T {
	if invariants.Enabled {
		a.checkIndex(i)
	}
	return a.chunks[i>>a.log2].At(i & (a.perChunk - 1))
}

// Set sets element i to v.
func (a *Array[T]) Set(i int, v T) {
	*a.At(i) = v
}

// pushChunk makes one more chunk live, reusing a spare one if available.
func (a *Array[T]) pushChunk() {
	if a.numChunks == len(a.chunks) {
		a.tracker.Acquire(len(a.chunks))
		a.chunks = append(a.chunks, fixedarray.New[T](a.perChunk, fixedarray.NoInit))
	}
	a.numChunks++
}

// releaseChunk frees chunk i and closes the gap in the chunk table.
func (a *Array[T]) releaseChunk(i int) {
	a.tracker.Release(i)
	copy(a.chunks[i:], a.chunks[i+1:])
	a.chunks[len(a.chunks)-1] = nil
	a.chunks = a.chunks[:len(a.chunks)-1]
}

func (a *Array[T]) chunksFor(n int) int {
	return (n + a.perChunk - 1) >> a.log2
}

// Reserve allocates spare chunks so that n elements fit without further
// allocation.
func (a *Array[T]) Reserve(n int) {
	a.lazyInit()
	for len(a.chunks) < a.chunksFor(n) {
		a.tracker.Acquire(len(a.chunks))
		a.chunks = append(a.chunks, fixedarray.New[T](a.perChunk, fixedarray.NoInit))
	}
}

// SetNumUninitialized resizes the array. Elements exposed by growing have
// unspecified values. Elements removed by shrinking are zeroed, and chunks
// left empty are kept as spares.
func (a *Array[T]) SetNumUninitialized(n int) {
	if invariants.Enabled {
		invariants.Assertf(n >= 0, "chunked: negative size %d", n)
	}
	a.lazyInit()
	if n < a.num {
		a.zeroRange(n, a.num-n)
		a.num = n
		a.numChunks = a.chunksFor(n)
		return
	}
	for a.numChunks < a.chunksFor(n) {
		a.pushChunk()
	}
	a.num = n
}

// SetNum resizes the array. Elements exposed by growing are zeroed.
func (a *Array[T]) SetNum(n int) {
	old := a.num
	a.SetNumUninitialized(n)
	if n > old {
		a.zeroRange(old, n-old)
	}
}

// AddUninitialized appends n elements with unspecified values and returns the
// index of the first.
func (a *Array[T]) AddUninitialized(n int) int {
	index := a.num
	a.SetNumUninitialized(a.num + n)
	return index
}

// Add appends v and returns its index.
func (a *Array[T]) Add(v T) int {
	a.lazyInit()
	index := a.num
	if index == a.numChunks<<a.log2 {
		a.pushChunk()
	}
	a.num++
	a.chunks[index>>a.log2].Set(index&(a.perChunk-1), v)
	return index
}

// Emplace appends a zero element, lets init fill it in place and returns its
// index.
func (a *Array[T]) Emplace(init func(*T)) int {
	var zero T
	index := a.Add(zero)
	init(a.At(index))
	return index
}

// Append copies src to the end of the array, one block per destination chunk,
// and returns the index of its first element.
func (a *Array[T]) Append(src []T) int {
	index := a.AddUninitialized(len(src))
	a.ForEachView(index, len(src), func(start int, view []T) {
		copy(view, src[start-index:])
	})
	return index
}

// Pop removes and returns the last element. A chunk left empty is freed.
func (a *Array[T]) Pop() T {
	v := a.Get(a.num - 1)
	a.PopDiscard()
	return v
}

// PopDiscard removes the last element. A chunk left empty is freed.
func (a *Array[T]) PopDiscard() {
	if invariants.Enabled {
		invariants.Assertf(a.num > 0, "chunked: pop from empty array")
	}
	a.num--
	var zero T
	a.chunks[a.num>>a.log2].Set(a.num&(a.perChunk-1), zero)
	if a.num&(a.perChunk-1) == 0 {
		a.numChunks--
		a.releaseChunk(a.numChunks)
	}
}

// PopFirstChunk removes the first chunk and transfers it to the caller along
// with the number of valid elements in it. Remaining elements move down by
// NumPerChunk indexes; only the chunk table is shifted.
func (a *Array[T]) PopFirstChunk() Detached[T] {
	if invariants.Enabled {
		invariants.Assertf(a.numChunks > 0, "chunked: no chunk to pop")
	}
	n := min(a.num, a.perChunk)
	chunk := a.chunks[0]

	copy(a.chunks, a.chunks[1:])
	a.chunks[len(a.chunks)-1] = nil
	a.chunks = a.chunks[:len(a.chunks)-1]
	a.numChunks--
	a.num -= n

	a.tracker.Detach(n)
	return Detached[T]{Chunk: chunk, Num: n}
}

// ForEachView calls f once for each chunk intersecting [start, start+count),
// in ascending order, with the index of the view's first element and a slice
// aliasing the elements. A view never crosses a chunk boundary.
func (a *Array[T]) ForEachView(start, count int, f func(start int, view []T)) {
	if invariants.Enabled {
		a.checkRange(start, count)
	}
	for count > 0 {
		off := start & (a.perChunk - 1)
		n := min(count, a.perChunk-off)
		f(start, a.chunks[start>>a.log2].Slice(off, n))
		start += n
		count -= n
	}
}

// Views returns an iterator over the per-chunk views of all elements.
func (a *Array[T]) Views() iter.Seq2[int, []T] {
	return func(yield func(int, []T) bool) {
		for c, start := 0, 0; start < a.num; c++ {
			n := min(a.num-start, a.perChunk)
			if !yield(start, a.chunks[c].Slice(0, n)) {
				return
			}
			start += n
		}
	}
}

// All returns an iterator over the index and address of every element in
// ascending order.
func (a *Array[T]) All() iter.Seq2[int, *T] {
	return func(yield func(int, *T) bool) {
		for start, view := range a.Views() {
			for i := range view {
				if !yield(start+i, &view[i]) {
					return
				}
			}
		}
	}
}

// Values returns an iterator over the elements in ascending order.
func (a *Array[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, view := range a.Views() {
			for _, v := range view {
				if !yield(v) {
					return
				}
			}
		}
	}
}

// ToSlice copies the elements into a new slice.
func (a *Array[T]) ToSlice() []T {
	out := make([]T, 0, a.num)
	for _, view := range a.Views() {
		out = append(out, view...)
	}
	return out
}

func (a *Array[T]) zeroRange(start, count int) {
	if count == 0 {
		return
	}
	a.ForEachView(start, count, func(_ int, view []T) {
		clear(view)
	})
}

// Zero sets every element to the zero value.
func (a *Array[T]) Zero() {
	a.zeroRange(0, a.num)
}

// Fill sets every element to v.
func (a *Array[T]) Fill(v T) {
	a.FillRange(0, a.num, v)
}

// FillRange sets count elements starting at start to v.
func (a *Array[T]) FillRange(start, count int, v T) {
	if count == 0 {
		return
	}
	a.ForEachView(start, count, func(_ int, view []T) {
		for i := range view {
			view[i] = v
		}
	})
}

// Reset removes all elements and keeps the chunks as spares.
func (a *Array[T]) Reset() {
	a.Zero()
	a.num = 0
	a.numChunks = 0
}

// Empty removes all elements and frees every chunk.
func (a *Array[T]) Empty() {
	a.Reset()
	a.Shrink()
}

// Shrink frees the spare chunks.
func (a *Array[T]) Shrink() {
	for len(a.chunks) > a.numChunks {
		a.releaseChunk(len(a.chunks) - 1)
	}
	if len(a.chunks) == 0 {
		a.chunks = nil
	}
}

// Equal reports whether a and b hold the same elements.
func Equal[T comparable](a, b *Array[T]) bool {
	if a.num != b.num {
		return false
	}
	equal := true
	a.ForEachView(0, a.num, func(start int, view []T) {
		if !equal {
			return
		}
		for i, v := range view {
			if b.Get(start+i) != v {
				equal = false
				return
			}
		}
	})
	return equal
}
