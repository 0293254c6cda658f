package bitword

import (
	"math/bits"

	"github.com/hupe1980/chunkstore/internal/invariants"
)

const (
	// BitsPerWord is the number of bits in one backing word.
	BitsPerWord = 32
	// BitsPerWordLog2 is log2(BitsPerWord).
	BitsPerWordLog2 = 5

	wordBitMask = BitsPerWord - 1
	allOnes     = ^uint32(0)
)

// NumWords returns the number of words needed to hold numBits bits.
func NumWords(numBits int) int {
	return (numBits + wordBitMask) >> BitsPerWordLog2
}

// LastWordMask returns the mask of in-use bits in the last word of a
// numBits-long sequence. All bits are in use when numBits is a multiple of 32.
func LastWordMask(numBits int) uint32 {
	used := numBits & wordBitMask
	if used == 0 {
		return allOnes
	}
	return allOnes >> (BitsPerWord - used)
}

// lowMask returns a mask with the k low bits set, 0 <= k <= 32.
func lowMask(k int) uint32 {
	if k >= BitsPerWord {
		return allOnes
	}
	return uint32(1)<<k - 1
}

// Get returns bit i.
func Get(words []uint32, i int) bool {
	if invariants.Enabled {
		checkIndex(words, i)
	}
	return words[i>>BitsPerWordLog2]&(1<<(uint(i)&wordBitMask)) != 0
}

// Set sets bit i to v.
func Set(words []uint32, i int, v bool) {
	if invariants.Enabled {
		checkIndex(words, i)
	}
	mask := uint32(1) << (uint(i) & wordBitMask)
	if v {
		words[i>>BitsPerWordLog2] |= mask
	} else {
		words[i>>BitsPerWordLog2] &^= mask
	}
}

// TestAndClear clears bit i and returns its previous value.
func TestAndClear(words []uint32, i int) bool {
	if invariants.Enabled {
		checkIndex(words, i)
	}
	w := &words[i>>BitsPerWordLog2]
	mask := uint32(1) << (uint(i) & wordBitMask)
	old := *w&mask != 0
	*w &^= mask
	return old
}

// rangeMasks splits [start, start+count) into its first and last word and
// the masks selecting the range inside them. count must be positive.
func rangeMasks(start, count int) (first, last int, startMask, endMask uint32) {
	end := start + count
	first = start >> BitsPerWordLog2
	last = (end - 1) >> BitsPerWordLog2
	startMask = allOnes << (uint(start) & wordBitMask)
	// The outer mask handles ranges ending on a word boundary, where the
	// whole last word is selected.
	endMask = allOnes >> ((BitsPerWord - (end & wordBitMask)) & wordBitMask)
	return first, last, startMask, endMask
}

// SetRange sets count consecutive bits starting at start to v. Boundary
// words are masked; interior words are written with a single store.
func SetRange(words []uint32, start, count int, v bool) {
	if count == 0 {
		return
	}
	if invariants.Enabled {
		checkRange(words, start, count)
	}

	first, last, startMask, endMask := rangeMasks(start, count)
	if first == last {
		mask := startMask & endMask
		if v {
			words[first] |= mask
		} else {
			words[first] &^= mask
		}
		return
	}

	fill := uint32(0)
	if v {
		fill = allOnes
		words[first] |= startMask
		words[last] |= endMask
	} else {
		words[first] &^= startMask
		words[last] &^= endMask
	}
	for w := first + 1; w < last; w++ {
		words[w] = fill
	}
}

// TestRange reports whether every bit in [start, start+count) is set.
// count must be positive.
func TestRange(words []uint32, start, count int) bool {
	if invariants.Enabled {
		invariants.Assertf(count > 0, "bitword: empty test range at %d", start)
		checkRange(words, start, count)
	}

	first, last, startMask, endMask := rangeMasks(start, count)
	if first == last {
		mask := startMask & endMask
		return words[first]&mask == mask
	}
	if words[first]&startMask != startMask || words[last]&endMask != endMask {
		return false
	}
	for w := first + 1; w < last; w++ {
		if words[w] != allOnes {
			return false
		}
	}
	return true
}

// TestAndClearRange clears [start, start+count) if every bit in it is set
// and reports whether it did. The words are untouched otherwise.
func TestAndClearRange(words []uint32, start, count int) bool {
	if !TestRange(words, start, count) {
		return false
	}
	SetRange(words, start, count, false)
	return true
}

// AllEqual reports whether the first numBits bits all equal v. An empty
// sequence is trivially uniform.
func AllEqual(words []uint32, numBits int, v bool) bool {
	if numBits == 0 {
		return true
	}
	if invariants.Enabled {
		checkRange(words, 0, numBits)
	}

	want := uint32(0)
	if v {
		want = allOnes
	}

	full := numBits >> BitsPerWordLog2
	for _, w := range words[:full] {
		if w != want {
			return false
		}
	}
	if used := numBits & wordBitMask; used != 0 {
		mask := lowMask(used)
		return words[full]&mask == want&mask
	}
	return true
}

// TryGetAll returns the common value of the first numBits bits. ok is false
// when the sequence is empty or mixed.
func TryGetAll(words []uint32, numBits int) (value, ok bool) {
	if numBits == 0 {
		return false, false
	}
	value = Get(words, 0)
	if !AllEqual(words, numBits, value) {
		return false, false
	}
	return value, true
}

// CountSetBits returns the number of set bits in words.
func CountSetBits(words []uint32) int {
	return kernelPopcount(words)
}

// CountSetBitsUpTo returns the number of set bits among the first limit bits,
// ignoring anything after them.
func CountSetBitsUpTo(words []uint32, limit int) int {
	if limit == 0 {
		return 0
	}
	if invariants.Enabled {
		checkRange(words, 0, limit)
	}

	full := limit >> BitsPerWordLog2
	n := kernelPopcount(words[:full])
	if rem := limit & wordBitMask; rem != 0 {
		n += bits.OnesCount32(words[full] & lowMask(rem))
	}
	return n
}

// extract returns k <= 32 bits of words starting at bit pos, low bit first.
func extract(words []uint32, pos, k int) uint32 {
	w := pos >> BitsPerWordLog2
	off := uint(pos) & wordBitMask
	v := uint64(words[w]) >> off
	if int(off)+k > BitsPerWord {
		v |= uint64(words[w+1]) << (BitsPerWord - off)
	}
	return uint32(v) & lowMask(k)
}

// Copy copies n bits from src starting at srcStart into dst starting at
// dstStart. The offsets need not share an alignment; each step writes at most
// one destination word.
func Copy(dst, src []uint32, dstStart, srcStart, n int) {
	if n == 0 {
		return
	}
	if invariants.Enabled {
		checkRange(dst, dstStart, n)
		checkRange(src, srcStart, n)
	}

	for n > 0 {
		off := dstStart & wordBitMask
		k := min(n, BitsPerWord-off)
		v := extract(src, srcStart, k)

		mask := lowMask(k) << off
		w := &dst[dstStart>>BitsPerWordLog2]
		*w = *w&^mask | (v<<off)&mask

		dstStart += k
		srcStart += k
		n -= k
	}
}

// Equal reports whether n bits of a starting at aStart equal n bits of b
// starting at bStart.
func Equal(a, b []uint32, aStart, bStart, n int) bool {
	if invariants.Enabled {
		checkRange(a, aStart, n)
		checkRange(b, bStart, n)
	}

	for n > 0 {
		k := min(n, BitsPerWord-(aStart&wordBitMask))
		if extract(a, aStart, k) != extract(b, bStart, k) {
			return false
		}
		aStart += k
		bStart += k
		n -= k
	}
	return true
}

func checkIndex(words []uint32, i int) {
	invariants.Assertf(i >= 0 && i < len(words)*BitsPerWord,
		"bitword: index %d out of range [0, %d)", i, len(words)*BitsPerWord)
}

func checkRange(words []uint32, start, count int) {
	invariants.Assertf(start >= 0 && count >= 0 && start+count <= len(words)*BitsPerWord,
		"bitword: range [%d, %d) out of range [0, %d)", start, start+count, len(words)*BitsPerWord)
}
