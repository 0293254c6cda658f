package bitvec

import (
	"github.com/bits-and-blooms/bitset"
	"github.com/hupe1980/chunkstore/bitword"
)

// ToBitSet returns a copy of v as a bit set of length v.Num().
func (v *Vector) ToBitSet() *bitset.BitSet {
	return wordsToBitSet(v.Words(), v.numBits)
}

// ToBitSet returns a copy of f as a bit set of length f.Len().
func (f *Fixed) ToBitSet() *bitset.BitSet {
	return wordsToBitSet(f.words, f.numBits)
}

func wordsToBitSet(words []uint32, numBits int) *bitset.BitSet {
	lanes := make([]uint64, (numBits+63)/64)
	for i, w := range words {
		lanes[i>>1] |= uint64(w) << (32 * uint(i&1))
	}
	return bitset.FromWithLength(uint(numBits), lanes)
}

// FromBitSet returns a vector of numBits bits with the members of bs below
// numBits set.
func FromBitSet(bs *bitset.BitSet, numBits int) *Vector {
	v := New(numBits, false)
	lanes := bs.Words()
	words := v.words[:bitword.NumWords(numBits)]
	for i := range words {
		if i>>1 >= len(lanes) {
			break
		}
		words[i] = uint32(lanes[i>>1] >> (32 * uint(i&1)))
	}
	v.clearSlack()
	return v
}
