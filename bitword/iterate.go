package bitword

import (
	"iter"
	"math/bits"

	"github.com/hupe1980/chunkstore/internal/invariants"
)

const (
	burstBits = 4
	burstMask = 1<<burstBits - 1
)

// ForAllSetBits calls visit with the position of every set bit below numBits,
// in ascending order. visit returns false to stop; ForAllSetBits then returns
// true. Bits of the last word beyond numBits must be zero.
//
// The words are walked as 64-bit lanes made of two consecutive words, with
// an odd trailing word handled last.
func ForAllSetBits(words []uint32, numBits int, visit func(int) bool) bool {
	numWords := NumWords(numBits)
	if invariants.Enabled {
		invariants.Assertf(numWords <= len(words),
			"bitword: %d bits need %d words, have %d", numBits, numWords, len(words))
	}
	words = words[:numWords]

	i := 0
	for ; i+1 < numWords; i += 2 {
		lane := uint64(words[i]) | uint64(words[i+1])<<BitsPerWord
		if lane != 0 && forLane(lane, i*BitsPerWord, numBits, visit) {
			return true
		}
	}
	if i < numWords && words[i] != 0 {
		return forLane(uint64(words[i]), i*BitsPerWord, numBits, visit)
	}
	return false
}

// forLane visits the set bits of lane, whose bit 0 is at position index.
func forLane(lane uint64, index, numBits int, visit func(int) bool) bool {
	for lane != 0 {
		tz := bits.TrailingZeros64(lane)
		index += tz
		lane >>= uint(tz)

		if lane&burstMask == burstMask {
			for range burstBits {
				if invariants.Enabled {
					invariants.Assertf(index < numBits, "bitword: set slack bit %d (num bits %d)", index, numBits)
				}
				if !visit(index) {
					return true
				}
				index++
			}
			lane >>= burstBits
			continue
		}

		if invariants.Enabled {
			invariants.Assertf(index < numBits, "bitword: set slack bit %d (num bits %d)", index, numBits)
		}
		if !visit(index) {
			return true
		}
		lane >>= 1
		index++
	}
	return false
}

// SetBits returns an iterator over the positions of the set bits below
// numBits, in ascending order. Each range statement restarts the traversal.
func SetBits(words []uint32, numBits int) iter.Seq[int] {
	return func(yield func(int) bool) {
		ForAllSetBits(words, numBits, yield)
	}
}

// NextSetBit returns the first set bit at or after from and below numBits.
func NextSetBit(words []uint32, numBits, from int) (int, bool) {
	if from >= numBits {
		return 0, false
	}
	w := from >> BitsPerWordLog2
	word := words[w] & (allOnes << (uint(from) & wordBitMask))
	last := NumWords(numBits) - 1
	for {
		if word != 0 {
			pos := w<<BitsPerWordLog2 + bits.TrailingZeros32(word)
			if pos >= numBits {
				return 0, false
			}
			return pos, true
		}
		w++
		if w > last {
			return 0, false
		}
		word = words[w]
	}
}
