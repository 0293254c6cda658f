package bitvec

import (
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/chunkstore/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRoaringOracle(t *testing.T) {
	rng := testutil.NewRNG(99)
	const n = 5000

	v := New(n, false)
	oracle := roaring.New()
	for range 3000 {
		i := rng.Intn(n)
		if rng.Intn(4) == 0 {
			v.Set(i, false)
			oracle.Remove(uint32(i))
		} else {
			v.Set(i, true)
			oracle.Add(uint32(i))
		}
	}

	assert.Equal(t, int(oracle.GetCardinality()), v.CountSetBits())
	assert.True(t, oracle.Equals(v.ToRoaring()))

	var got []uint32
	for i := range v.SetBits() {
		got = append(got, uint32(i))
	}
	assert.Equal(t, oracle.ToArray(), got)
}

func TestFromRoaring(t *testing.T) {
	bm := roaring.BitmapOf(1, 40, 69, 70, 500)

	v := FromRoaring(bm, 70)
	assert.Equal(t, 70, v.Num())
	assert.Equal(t, 3, v.CountSetBits())
	assert.True(t, v.Get(69))

	f := NewFixed(70)
	f.Set(1, true)
	f.Set(40, true)
	f.Set(69, true)
	assert.True(t, f.ToRoaring().Equals(v.ToRoaring()))
}
