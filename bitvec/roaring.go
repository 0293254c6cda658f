package bitvec

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/chunkstore/bitword"
)

// ToRoaring returns a roaring bitmap of the set bits.
func (v *Vector) ToRoaring() *roaring.Bitmap {
	return wordsToRoaring(v.Words(), v.numBits)
}

// ToRoaring returns a roaring bitmap of the set bits.
func (f *Fixed) ToRoaring() *roaring.Bitmap {
	return wordsToRoaring(f.words, f.numBits)
}

func wordsToRoaring(words []uint32, numBits int) *roaring.Bitmap {
	bm := roaring.New()
	buf := make([]uint32, 0, 256)
	bitword.ForAllSetBits(words, numBits, func(i int) bool {
		buf = append(buf, uint32(i))
		if len(buf) == cap(buf) {
			bm.AddMany(buf)
			buf = buf[:0]
		}
		return true
	})
	bm.AddMany(buf)
	return bm
}

// FromRoaring returns a vector of numBits bits with the members of bm below
// numBits set.
func FromRoaring(bm *roaring.Bitmap, numBits int) *Vector {
	v := New(numBits, false)
	it := bm.Iterator()
	for it.HasNext() {
		x := int(it.Next())
		if x >= numBits {
			break
		}
		bitword.Set(v.words, x, true)
	}
	return v
}
