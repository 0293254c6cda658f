package sparse

import (
	"iter"
	"math"
	"math/bits"
	"sync/atomic"
	"unsafe"

	"github.com/hupe1980/chunkstore"
	"github.com/hupe1980/chunkstore/bitvec"
	"github.com/hupe1980/chunkstore/fixedarray"
	"github.com/hupe1980/chunkstore/internal/chunkalloc"
	"github.com/hupe1980/chunkstore/internal/invariants"
)

const noFree = -1

// cell holds a live value, or the next free index while the slot is free.
// The occupancy bit of the slot tells which.
type cell[T any] struct {
	value    T
	nextFree int32
}

type chunk[T any] struct {
	occupied *bitvec.Fixed
	cells    *fixedarray.Array[cell[T]]
}

// Array is a sparse array of T. The zero value is an empty array using the
// default chunk size.
type Array[T any] struct {
	chunks   []*chunk[T]
	maxIndex int
	num      atomic.Int64
	freeHead atomic.Int32

	perChunk int
	log2     uint
	tracker  *chunkalloc.Tracker

	// removing counts RemoveAtAtomic calls in flight. Only maintained with
	// invariants enabled.
	removing atomic.Int32
}

// New returns an empty array configured by opts. It panics if WithNumPerChunk
// is not a power of two.
func New[T any](opts ...chunkstore.Option) *Array[T] {
	o := chunkstore.Apply(opts...)
	a := &Array[T]{}
	a.configure(o.ChunkLen(cellSize[T]()))
	a.tracker = chunkalloc.New(o, chunkBytes[T](a.perChunk))
	return a
}

func cellSize[T any]() uintptr {
	var c cell[T]
	return unsafe.Sizeof(c)
}

func chunkBytes[T any](perChunk int) int64 {
	return int64(perChunk)*int64(cellSize[T]()) + int64((perChunk+31)/32*4)
}

func (a *Array[T]) configure(perChunk int) {
	if !chunkstore.IsPowerOfTwo(perChunk) {
		invariants.Failf("sparse: elements per chunk must be a power of two, got %d", perChunk)
	}
	a.perChunk = perChunk
	a.log2 = uint(bits.TrailingZeros(uint(perChunk)))
	a.freeHead.Store(noFree)
}

func (a *Array[T]) lazyInit() {
	if a.perChunk == 0 {
		a.configure(chunkstore.NumPerChunk(cellSize[T](), chunkstore.DefaultChunkBytes))
	}
}

func newChunk[T any](perChunk int) *chunk[T] {
	return &chunk[T]{
		occupied: bitvec.NewFixed(perChunk),
		cells:    fixedarray.New[cell[T]](perChunk, fixedarray.NoInit),
	}
}

// Num returns the number of live elements.
func (a *Array[T]) Num() int { return int(a.num.Load()) }

// MaxIndex returns one past the highest index ever allocated.
func (a *Array[T]) MaxIndex() int { return a.maxIndex }

// NumPerChunk returns the number of slots per chunk.
func (a *Array[T]) NumPerChunk() int {
	if a.perChunk == 0 {
		return chunkstore.NumPerChunk(cellSize[T](), chunkstore.DefaultChunkBytes)
	}
	return a.perChunk
}

// NumChunks returns the number of allocated chunks.
func (a *Array[T]) NumChunks() int { return len(a.chunks) }

// AllocatedBytes returns the size of all allocated chunks.
func (a *Array[T]) AllocatedBytes() int64 {
	return int64(len(a.chunks)) * chunkBytes[T](a.perChunk)
}

// IsValidIndexRangeOnly reports whether i is below MaxIndex, regardless of
// whether the slot is live.
func (a *Array[T]) IsValidIndexRangeOnly(i int) bool {
	return 0 <= i && i < a.maxIndex
}

// IsAllocatedValidIndex reports whether slot i is live. i must be below
// MaxIndex.
func (a *Array[T]) IsAllocatedValidIndex(i int) bool {
	if invariants.Enabled {
		invariants.Assertf(a.IsValidIndexRangeOnly(i), "sparse: index %d out of range [0, %d)", i, a.maxIndex)
	}
	return a.chunks[i>>a.log2].occupied.Get(i & (a.perChunk - 1))
}

// IsValidIndex reports whether i addresses a live element.
func (a *Array[T]) IsValidIndex(i int) bool {
	return a.IsValidIndexRangeOnly(i) && a.IsAllocatedValidIndex(i)
}

func (a *Array[T]) cellAt(i int) *cell[T] {
	return a.chunks[i>>a.log2].cells.At(i & (a.perChunk - 1))
}

func (a *Array[T]) checkLive(i int) {
	invariants.Assertf(a.IsValidIndex(i), "sparse: index %d is not a live element (max index %d)", i, a.maxIndex)
}

// Get returns element i.
func (a *Array[T]) Get(i int) T {
	if invariants.Enabled {
		a.checkLive(i)
	}
	return a.cellAt(i).value
}

// At returns a pointer to element i. It stays valid until the element is
// removed.
func (a *Array[T]) At(i int) *T {
	if invariants.Enabled {
		a.checkLive(i)
	}
	return &a.cellAt(i).value
}

// Set sets element i to v.
func (a *Array[T]) Set(i int, v T) {
	*a.At(i) = v
}

// Reserve allocates chunks so that indexes below n exist without further
// allocation.
func (a *Array[T]) Reserve(n int) {
	a.lazyInit()
	for len(a.chunks) < (n+a.perChunk-1)>>a.log2 {
		a.pushChunk()
	}
}

func (a *Array[T]) pushChunk() {
	a.tracker.Acquire(len(a.chunks))
	a.chunks = append(a.chunks, newChunk[T](a.perChunk))
}

// allocSlot marks a slot live and returns its index: the head of the free
// list if any, else the next index past MaxIndex.
func (a *Array[T]) allocSlot() int {
	a.lazyInit()
	if invariants.Enabled {
		invariants.Assertf(a.removing.Load() == 0, "sparse: add while RemoveAtAtomic is in flight")
	}

	var index int
	if head := a.freeHead.Load(); head != noFree {
		index = int(head)
		a.freeHead.Store(a.cellAt(index).nextFree)
	} else {
		index = a.maxIndex
		if invariants.Enabled {
			invariants.Assertf(index < math.MaxInt32, "sparse: index space exhausted")
		}
		if index>>a.log2 == len(a.chunks) {
			a.pushChunk()
		}
		a.maxIndex++
	}

	a.chunks[index>>a.log2].occupied.Set(index&(a.perChunk-1), true)
	a.num.Add(1)
	return index
}

// Add stores v in a free slot and returns its index.
func (a *Array[T]) Add(v T) int {
	index := a.allocSlot()
	c := a.cellAt(index)
	c.value = v
	c.nextFree = 0
	return index
}

// Emplace takes a free slot, zeroes it, lets init fill it in place and
// returns its index.
func (a *Array[T]) Emplace(init func(*T)) int {
	index := a.allocSlot()
	c := a.cellAt(index)
	*c = cell[T]{}
	init(&c.value)
	return index
}

// RemoveAt removes element i and pushes its slot onto the free list.
func (a *Array[T]) RemoveAt(i int) {
	if invariants.Enabled {
		a.checkLive(i)
	}
	a.chunks[i>>a.log2].occupied.Set(i&(a.perChunk-1), false)

	c := a.cellAt(i)
	var zero T
	c.value = zero
	c.nextFree = a.freeHead.Load()
	a.freeHead.Store(int32(i))
	a.num.Add(-1)
}

// RemoveAtAtomic removes element i like RemoveAt, and may be called
// concurrently with other RemoveAtAtomic calls on different indexes. No
// other method may run on the array meanwhile.
func (a *Array[T]) RemoveAtAtomic(i int) {
	if invariants.Enabled {
		a.removing.Add(1)
		defer a.removing.Add(-1)
		invariants.Assertf(a.IsValidIndexRangeOnly(i), "sparse: index %d out of range [0, %d)", i, a.maxIndex)
	}

	cleared := a.chunks[i>>a.log2].occupied.AtomicTestAndClear(i & (a.perChunk - 1))
	if invariants.Enabled {
		invariants.Assertf(cleared, "sparse: index %d removed twice", i)
	}
	if !cleared {
		return
	}

	c := a.cellAt(i)
	var zero T
	c.value = zero
	a.num.Add(-1)
	c.nextFree = a.freeHead.Swap(int32(i))
}

// Reset removes all elements and keeps the chunks.
func (a *Array[T]) Reset() {
	for _, c := range a.chunks {
		c.occupied.SetAll(false)
		clear(c.cells.View())
	}
	a.maxIndex = 0
	a.num.Store(0)
	a.freeHead.Store(noFree)
}

// Empty removes all elements and frees every chunk.
func (a *Array[T]) Empty() {
	a.Reset()
	a.releaseFrom(0)
	a.chunks = nil
}

// Shrink frees chunks entirely past MaxIndex.
func (a *Array[T]) Shrink() {
	if a.perChunk == 0 {
		return
	}
	a.releaseFrom((a.maxIndex + a.perChunk - 1) >> a.log2)
}

func (a *Array[T]) releaseFrom(first int) {
	for len(a.chunks) > first {
		last := len(a.chunks) - 1
		a.tracker.Release(last)
		a.chunks[last] = nil
		a.chunks = a.chunks[:last]
	}
}

// All returns an iterator over the index and address of every live element
// in ascending index order.
func (a *Array[T]) All() iter.Seq2[int, *T] {
	return func(yield func(int, *T) bool) {
		for c := a.Cursor(); c.Next(); {
			if !yield(c.Index(), c.Value()) {
				return
			}
		}
	}
}

// Values returns an iterator over the live elements in ascending index order.
func (a *Array[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for c := a.Cursor(); c.Next(); {
			if !yield(*c.Value()) {
				return
			}
		}
	}
}

// ForEach calls f for every live element in ascending index order.
func (a *Array[T]) ForEach(f func(int, *T)) {
	for c := a.Cursor(); c.Next(); {
		f(c.Index(), c.Value())
	}
}
