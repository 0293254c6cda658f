package bitvec

import (
	"iter"
	"sync/atomic"

	"github.com/hupe1980/chunkstore/archive"
	"github.com/hupe1980/chunkstore/bitword"
	"github.com/hupe1980/chunkstore/internal/hash"
	"github.com/hupe1980/chunkstore/internal/invariants"
)

// Vector is a growable bit vector. The zero value is an empty vector.
type Vector struct {
	// words has exactly bitword.NumWords(maxBits) entries. Words past the
	// in-use range may hold stale bits from a previous SetNum.
	words   []uint32
	numBits int
	maxBits int
}

// New returns a vector of numBits bits, all set to fill.
func New(numBits int, fill bool) *Vector {
	v := &Vector{}
	v.SetNum(numBits, fill)
	return v
}

// Num returns the number of bits.
func (v *Vector) Num() int { return v.numBits }

// Cap returns the number of bits the vector holds without reallocating.
func (v *Vector) Cap() int { return v.maxBits }

// NumWords returns the number of in-use words.
func (v *Vector) NumWords() int { return bitword.NumWords(v.numBits) }

// Words returns the in-use words. The slice aliases the vector.
func (v *Vector) Words() []uint32 { return v.words[:v.NumWords()] }

// AllocatedBytes returns the size of the backing storage.
func (v *Vector) AllocatedBytes() int64 { return int64(cap(v.words)) * 4 }

// IsValidIndex reports whether i addresses a bit of the vector.
func (v *Vector) IsValidIndex(i int) bool { return 0 <= i && i < v.numBits }

func (v *Vector) setMaxBits(maxBits int) {
	if maxBits == v.maxBits {
		return
	}
	if n := bitword.NumWords(maxBits); n != len(v.words) {
		words := make([]uint32, n)
		copy(words, v.words)
		v.words = words
	}
	v.maxBits = maxBits
}

// clearSlack re-establishes the zero padding of the last word.
func (v *Vector) clearSlack() {
	if used := v.numBits & (bitword.BitsPerWord - 1); used != 0 {
		v.words[v.numBits>>bitword.BitsPerWordLog2] &= bitword.LastWordMask(v.numBits)
	}
}

func (v *Vector) checkSlack() {
	if v.numBits&(bitword.BitsPerWord-1) == 0 {
		return
	}
	last := v.words[v.numBits>>bitword.BitsPerWordLog2]
	invariants.Assertf(last&^bitword.LastWordMask(v.numBits) == 0,
		"bitvec: slack bits set in last word %08x (num bits %d)", last, v.numBits)
}

// Reserve grows the capacity to at least maxBits. It never shrinks.
func (v *Vector) Reserve(maxBits int) {
	if maxBits <= v.maxBits {
		return
	}
	v.setMaxBits(maxBits)
}

// Empty removes all bits and sets the capacity to maxBits, releasing
// storage if it was larger.
func (v *Vector) Empty(maxBits int) {
	v.numBits = 0
	v.setMaxBits(maxBits)
}

// Reset removes all bits and keeps the storage.
func (v *Vector) Reset() { v.numBits = 0 }

// Shrink releases capacity beyond Num.
func (v *Vector) Shrink() { v.setMaxBits(v.numBits) }

// SetNum resizes the vector. Bits exposed by growing are set to fill.
// Shrinking keeps the remaining bits.
func (v *Vector) SetNum(numBits int, fill bool) {
	if invariants.Enabled {
		invariants.Assertf(numBits >= 0, "bitvec: negative size %d", numBits)
	}
	old := v.numBits
	if numBits > v.maxBits {
		v.setMaxBits(numBits)
	}
	v.numBits = numBits
	if numBits > old {
		bitword.SetRange(v.words, old, numBits-old, fill)
	}
	v.clearSlack()
}

// grow makes room for n more bits, doubling the capacity when it runs out.
func (v *Vector) grow(n int) {
	need := v.numBits + n
	if need <= v.maxBits {
		return
	}
	v.setMaxBits(max(need, 2*v.maxBits, bitword.BitsPerWord))
}

// AddRange appends n bits set to value and returns the index of the first.
func (v *Vector) AddRange(n int, value bool) int {
	index := v.numBits
	if n == 0 {
		return index
	}
	v.grow(n)

	// Words entering use may hold stale bits.
	oldWords := v.NumWords()
	v.numBits += n
	clear(v.words[oldWords:v.NumWords()])

	bitword.SetRange(v.words, index, n, value)
	return index
}

// Add appends one bit and returns its index. Storage is reallocated only
// when a new word is needed and the capacity is exhausted.
func (v *Vector) Add(value bool) int {
	index := v.numBits
	v.grow(1)
	if index&(bitword.BitsPerWord-1) == 0 {
		v.words[index>>bitword.BitsPerWordLog2] = 0
	}
	v.numBits++
	if value {
		v.words[index>>bitword.BitsPerWordLog2] |= 1 << (uint(index) & (bitword.BitsPerWord - 1))
	}
	return index
}

func (v *Vector) checkIndex(i int) {
	invariants.Assertf(v.IsValidIndex(i), "bitvec: index %d out of range [0, %d)", i, v.numBits)
}

func (v *Vector) checkRange(start, count int) {
	invariants.Assertf(start >= 0 && count >= 0 && start+count <= v.numBits,
		"bitvec: range [%d, %d) out of range [0, %d)", start, start+count, v.numBits)
}

// Get returns bit i.
func (v *Vector) Get(i int) bool {
	if invariants.Enabled {
		v.checkIndex(i)
	}
	return bitword.Get(v.words, i)
}

// Set sets bit i to value.
func (v *Vector) Set(i int, value bool) {
	if invariants.Enabled {
		v.checkIndex(i)
	}
	bitword.Set(v.words, i, value)
}

// SetRange sets count bits starting at start to value.
func (v *Vector) SetRange(start, count int, value bool) {
	if invariants.Enabled {
		v.checkRange(start, count)
	}
	bitword.SetRange(v.words, start, count, value)
}

// TestRange reports whether all count bits starting at start are set.
func (v *Vector) TestRange(start, count int) bool {
	if invariants.Enabled {
		v.checkRange(start, count)
	}
	return bitword.TestRange(v.words, start, count)
}

// TestAndClear clears bit i and returns its previous value.
func (v *Vector) TestAndClear(i int) bool {
	if invariants.Enabled {
		v.checkIndex(i)
	}
	return bitword.TestAndClear(v.words, i)
}

// TestAndClearRange clears the range if all of its bits are set and reports
// whether it did.
func (v *Vector) TestAndClearRange(start, count int) bool {
	if invariants.Enabled {
		v.checkRange(start, count)
	}
	return bitword.TestAndClearRange(v.words, start, count)
}

// AllEqual reports whether every bit equals value.
func (v *Vector) AllEqual(value bool) bool {
	return bitword.AllEqual(v.words, v.numBits, value)
}

// TryGetAll returns the common value of all bits, if there is one.
func (v *Vector) TryGetAll() (value, ok bool) {
	return bitword.TryGetAll(v.words, v.numBits)
}

// CountSetBits returns the number of set bits.
func (v *Vector) CountSetBits() int {
	if invariants.Enabled {
		v.checkSlack()
	}
	return bitword.CountSetBits(v.Words())
}

// CountSetBitsUpTo returns the number of set bits among the first limit bits.
func (v *Vector) CountSetBitsUpTo(limit int) int {
	if invariants.Enabled {
		v.checkRange(0, limit)
	}
	return bitword.CountSetBitsUpTo(v.words, limit)
}

// ForAllSetBits calls visit for every set bit in ascending order until it
// returns false. It reports whether visit stopped the traversal.
func (v *Vector) ForAllSetBits(visit func(int) bool) bool {
	return bitword.ForAllSetBits(v.words, v.numBits, visit)
}

// SetBits returns an iterator over the set bits in ascending order.
func (v *Vector) SetBits() iter.Seq[int] {
	return bitword.SetBits(v.words, v.numBits)
}

func (v *Vector) checkSameSize(other *Vector) {
	invariants.Assertf(v.numBits == other.numBits,
		"bitvec: size mismatch %d != %d", v.numBits, other.numBits)
	v.checkSlack()
	other.checkSlack()
}

// BitwiseOr sets v to v | other. Both vectors must have the same size.
func (v *Vector) BitwiseOr(other *Vector) {
	if invariants.Enabled {
		v.checkSameSize(other)
	}
	src := other.Words()
	for i := range v.Words() {
		v.words[i] |= src[i]
	}
}

// BitwiseAnd sets v to v & other. Both vectors must have the same size.
func (v *Vector) BitwiseAnd(other *Vector) {
	if invariants.Enabled {
		v.checkSameSize(other)
	}
	src := other.Words()
	for i := range v.Words() {
		v.words[i] &= src[i]
	}
}

// AtomicSetReturnOld sets bit i to value with a single atomic read-modify-write
// of its word and returns the previous value.
func (v *Vector) AtomicSetReturnOld(i int, value bool) bool {
	if invariants.Enabled {
		v.checkIndex(i)
	}
	return atomicSetReturnOld(v.words, i, value)
}

// AtomicSet sets bit i to value atomically.
func (v *Vector) AtomicSet(i int, value bool) {
	v.AtomicSetReturnOld(i, value)
}

func atomicSetReturnOld(words []uint32, i int, value bool) bool {
	w := &words[i>>bitword.BitsPerWordLog2]
	mask := uint32(1) << (uint(i) & (bitword.BitsPerWord - 1))
	if value {
		return atomic.OrUint32(w, mask)&mask != 0
	}
	return atomic.AndUint32(w, ^mask)&mask != 0
}

// Equal reports whether v and other hold the same bits.
func (v *Vector) Equal(other *Vector) bool {
	if v.numBits != other.numBits {
		return false
	}
	a, b := v.Words(), other.Words()
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Hash returns a checksum of the size and bits. Equal vectors hash equally.
func (v *Vector) Hash() uint32 {
	return hash.Words(v.Words()) ^ uint32(v.numBits)*0x9e3779b9
}

// Clone returns a copy of v with capacity equal to its size.
func (v *Vector) Clone() *Vector {
	c := &Vector{}
	c.setMaxBits(v.numBits)
	c.numBits = v.numBits
	copy(c.words, v.Words())
	return c
}

// Serialize saves or loads the vector: the bit count, then the in-use words
// as one block. A failed load leaves the vector empty.
func (v *Vector) Serialize(ar archive.Archive) error {
	n := v.numBits
	if err := archive.SerializeLen(ar, &n); err != nil {
		return err
	}
	if ar.IsLoading() {
		v.Reset()
		v.SetNum(n, false)
	}
	if err := archive.SerializePlain(ar, v.Words()); err != nil {
		if ar.IsLoading() {
			v.Reset()
		}
		return err
	}
	if ar.IsLoading() {
		v.clearSlack()
	}
	return nil
}
