package bitvec

import (
	"slices"
	"testing"

	"github.com/bits-and-blooms/bitset"
	"github.com/hupe1980/chunkstore/testutil"
	"github.com/stretchr/testify/assert"
)

func TestBitSetOracle(t *testing.T) {
	rng := testutil.NewRNG(7)
	const n = 3001

	v := New(n, false)
	oracle := bitset.New(n)
	for range 500 {
		start := rng.Intn(n)
		count := rng.Intn(n - start + 1)
		value := rng.Intn(3) != 0
		v.SetRange(start, count, value)
		for i := start; i < start+count; i++ {
			oracle.SetTo(uint(i), value)
		}
	}

	assert.Equal(t, int(oracle.Count()), v.CountSetBits())
	assert.True(t, oracle.Equal(v.ToBitSet()))

	var want []int
	for i, ok := oracle.NextSet(0); ok; i, ok = oracle.NextSet(i + 1) {
		want = append(want, int(i))
	}
	assert.Equal(t, want, slices.Collect(v.SetBits()))
}

func TestFromBitSet(t *testing.T) {
	bs := bitset.New(200)
	for _, i := range []uint{0, 31, 32, 63, 64, 69, 150} {
		bs.Set(i)
	}

	v := FromBitSet(bs, 70)
	assert.Equal(t, 70, v.Num())
	assert.Equal(t, []int{0, 31, 32, 63, 64, 69}, slices.Collect(v.SetBits()))

	short := FromBitSet(bitset.New(10).Set(3), 100)
	assert.Equal(t, []int{3}, slices.Collect(short.SetBits()))
}

func TestFixedToBitSet(t *testing.T) {
	f := NewFixed(40)
	f.Set(1, true)
	f.Set(39, true)

	bs := f.ToBitSet()
	assert.Equal(t, uint(40), bs.Len())
	assert.Equal(t, uint(2), bs.Count())
	assert.True(t, bs.Test(39))
}
